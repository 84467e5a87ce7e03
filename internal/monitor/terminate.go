//go:build unix

package monitor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Terminate sends SIGTERM to pid.
func Terminate(pid int32) error {
	if pid <= 1 {
		return fmt.Errorf("refusing to signal pid %d", pid)
	}
	if err := unix.Kill(int(pid), unix.SIGTERM); err != nil {
		return fmt.Errorf("send SIGTERM to %d: %w", pid, err)
	}
	return nil
}
