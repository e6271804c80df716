//go:build unix

package procutil

import "syscall"

// IsAlive reports whether pid names a live process by sending signal 0,
// which the kernel delivers to no one but still validates the target.
func IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}
