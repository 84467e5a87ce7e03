//go:build !darwin && !linux

package monitor

import "context"

type noPressure struct{}

// NewPressureSource returns a source that always reports ErrNoKernelPressure.
func NewPressureSource() PressureSource {
	return noPressure{}
}

func (noPressure) Level(ctx context.Context) (int, PressureLevel, error) {
	return 0, PressureNormal, ErrNoKernelPressure
}
