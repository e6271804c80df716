// Package secrets hydrates and extracts credential fields between the
// catalogue's flat settings document and the OS-native credential store,
// falling back to in-document storage when no keychain is reachable.
package secrets

import (
	"sync"
	"sync/atomic"

	"github.com/zalando/go-keyring"
)

const service = "skillsmith"

// unavailable latches true on the first platform failure and stays latched
// for the process lifetime, so later calls skip straight to the fallback
// instead of retrying a keychain that has already proven unreachable.
var unavailable atomic.Bool

var mu sync.Mutex

// Set stores value under key in the OS keychain. It reports whether the
// keychain accepted it; callers fall back to storing the value in-document
// when it returns false.
func Set(key, value string) bool {
	if unavailable.Load() {
		return false
	}
	mu.Lock()
	defer mu.Unlock()

	if err := keyring.Set(service, key, value); err != nil {
		unavailable.Store(true)
		return false
	}
	return true
}

// Get retrieves value stored under key from the OS keychain. The second
// return reports whether it was found there at all.
func Get(key string) (string, bool) {
	if unavailable.Load() {
		return "", false
	}
	mu.Lock()
	defer mu.Unlock()

	v, err := keyring.Get(service, key)
	if err != nil {
		if err != keyring.ErrNotFound {
			unavailable.Store(true)
		}
		return "", false
	}
	return v, true
}

// Delete removes key from the OS keychain, ignoring a not-found error.
func Delete(key string) {
	if unavailable.Load() {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	_ = keyring.Delete(service, key)
}

// Unavailable reports whether the keychain has been marked unreachable for
// the remainder of this process's lifetime.
func Unavailable() bool {
	return unavailable.Load()
}

// resetForTest clears the latched unavailable flag; used only by tests that
// need a clean slate between cases.
func resetForTest() {
	unavailable.Store(false)
}
