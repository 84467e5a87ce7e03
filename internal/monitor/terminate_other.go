//go:build !unix

package monitor

import (
	"fmt"
	"os"
)

// Terminate kills pid. Platforms without signals cannot ask politely.
func Terminate(pid int32) error {
	if pid <= 1 {
		return fmt.Errorf("refusing to signal pid %d", pid)
	}
	p, err := os.FindProcess(int(pid))
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	return p.Kill()
}
