package monitor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"github.com/rileyhilliard/oversee/internal/monitor/parsers"
)

const linuxPSIPath = "/proc/pressure/memory"

// psiPressure reads memory pressure stall information. The raw level is the
// "some" avg10 percentage rounded to an integer.
type psiPressure struct {
	path string
}

// NewPressureSource returns the native pressure source for this OS.
func NewPressureSource() PressureSource {
	return psiPressure{path: linuxPSIPath}
}

func (p psiPressure) Level(ctx context.Context) (int, PressureLevel, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return 0, PressureNormal, ErrNoKernelPressure
		}
		return 0, PressureNormal, fmt.Errorf("read %s: %w", p.path, err)
	}
	psi, err := parsers.ParsePSI(string(data))
	if err != nil {
		return 0, PressureNormal, err
	}
	full := 0.0
	if psi.HasFull {
		full = psi.Full.Avg10
	}
	return int(math.Round(psi.Some.Avg10)), PSIToLevel(psi.Some.Avg10, full), nil
}
