package monitor

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"
)

const darwinPressureSysctl = "kern.memorystatus_vm_pressure_level"

type sysctlPressure struct{}

// NewPressureSource returns the native pressure source for this OS.
func NewPressureSource() PressureSource {
	return sysctlPressure{}
}

func (sysctlPressure) Level(ctx context.Context) (int, PressureLevel, error) {
	v, err := unix.SysctlUint32(darwinPressureSysctl)
	if err != nil {
		return 0, PressureNormal, fmt.Errorf("sysctl %s: %w", darwinPressureSysctl, err)
	}
	level, ok := DarwinPressureLevel(int(v))
	if !ok {
		return int(v), PressureNormal, fmt.Errorf("unknown %s value %d", darwinPressureSysctl, v)
	}
	return int(v), level, nil
}
