package monitor_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/rileyhilliard/oversee/internal/monitor"
	monitortesting "github.com/rileyhilliard/oversee/internal/monitor/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gib = 1 << 30

func TestMemoryCollector_Sample(t *testing.T) {
	tests := []struct {
		name       string
		total      uint64
		available  uint64
		swapTotal  uint64
		swapUsed   uint64
		pressure   monitor.PressureSource
		wantLevel  monitor.PressureLevel
		wantOrigin monitor.PressureOrigin
		wantErr    bool
	}{
		{
			name:  "plenty available, no kernel signal",
			total: 16 * gib, available: 12 * gib,
			pressure:  monitortesting.FakePressure{Err: monitor.ErrNoKernelPressure},
			wantLevel: monitor.PressureNormal, wantOrigin: monitor.SourceRatio,
		},
		{
			name:  "ratio warning",
			total: 16 * gib, available: 6 * gib,
			wantLevel: monitor.PressureWarning, wantOrigin: monitor.SourceRatio,
		},
		{
			name:  "heavy swap pushes ratio down",
			total: 16 * gib, available: 8 * gib,
			swapTotal: 4 * gib, swapUsed: 1 * gib,
			wantLevel: monitor.PressureWarning, wantOrigin: monitor.SourceRatio,
		},
		{
			name:  "kernel level wins over ratio",
			total: 16 * gib, available: 12 * gib,
			pressure:  monitortesting.FakePressure{Raw: 4, PressureLevel: monitor.PressureCritical},
			wantLevel: monitor.PressureCritical, wantOrigin: monitor.SourceKernel,
		},
		{
			name:  "broken kernel source falls back with error",
			total: 16 * gib, available: 2 * gib,
			pressure:  monitortesting.FakePressure{Err: fmt.Errorf("sysctl failed")},
			wantLevel: monitor.PressureCritical, wantOrigin: monitor.SourceRatio,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := monitortesting.NewFakeMemory(tt.total, tt.available).SetSwap(tt.swapTotal, tt.swapUsed)
			c := monitor.NewMemoryCollector(src, tt.pressure)

			res := c.Sample(context.Background())
			assert.Equal(t, monitor.StatusOK, res.Status)
			assert.Equal(t, tt.wantLevel, res.Value.Status.Level)
			assert.Equal(t, tt.wantOrigin, res.Value.Status.Source)
			assert.Equal(t, tt.total, res.Value.TotalBytes)
			if tt.wantErr {
				assert.Error(t, res.Err)
			} else {
				assert.NoError(t, res.Err)
			}
		})
	}
}

func TestMemoryCollector_SwapFailureIsIgnored(t *testing.T) {
	src := monitortesting.NewFakeMemory(8*gib, 4*gib).SetSwapErr(fmt.Errorf("no swap"))
	c := monitor.NewMemoryCollector(src, nil)

	res := c.Sample(context.Background())
	assert.Equal(t, monitor.StatusOK, res.Status)
	assert.Zero(t, res.Value.SwapTotalBytes)
	assert.InDelta(t, 50.0, res.Value.UsedPercent(), 1e-9)
}

func TestMemoryCollector_FailureReturnsStale(t *testing.T) {
	src := monitortesting.NewFakeMemory(8*gib, 6*gib)
	c := monitor.NewMemoryCollector(src, nil)
	good := c.Sample(context.Background())
	require.Equal(t, monitor.StatusOK, good.Status)

	src.SetErr(fmt.Errorf("host_statistics64 failed"))
	res := c.Sample(context.Background())
	assert.Equal(t, monitor.StatusStale, res.Status)
	assert.Error(t, res.Err)
	assert.Equal(t, good.Value, res.Value)

	src.SetErr(nil).Set(0, 0)
	res = c.Sample(context.Background())
	assert.Equal(t, monitor.StatusStale, res.Status, "zero total is not a valid reading")
}
