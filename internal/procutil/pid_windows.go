//go:build windows

package procutil

import (
	"fmt"
	"os/exec"
	"strings"
)

// IsAlive shells out to tasklist, mirroring the filter the original
// implementation used: an empty or "No tasks" result means the PID is gone.
func IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	out, err := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/NH").Output()
	if err != nil {
		return false
	}
	trimmed := strings.TrimSpace(string(out))
	return trimmed != "" && !strings.Contains(trimmed, "No tasks")
}
