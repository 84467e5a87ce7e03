package doctor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rileyhilliard/oversee/internal/monitor"
	monitortesting "github.com/rileyhilliard/oversee/internal/monitor/testing"
	"github.com/stretchr/testify/assert"
)

func TestGPUSourceCheck(t *testing.T) {
	tests := []struct {
		name    string
		source  *monitortesting.FakeGPU
		timeout time.Duration
		want    CheckStatus
		message string
	}{
		{
			name:    "sampling works",
			source:  monitortesting.NewFakeGPU("ioreg", monitor.GPUUsage{Name: "Apple M2", Overall: 37.4}),
			timeout: time.Second,
			want:    StatusPass,
			message: "ioreg: Apple M2 at 37%",
		},
		{
			name:    "unnamed device",
			source:  monitortesting.NewFakeGPU("nvidia-smi", monitor.GPUUsage{Overall: 5}),
			timeout: time.Second,
			want:    StatusPass,
			message: "nvidia-smi: GPU at 5%",
		},
		{
			name:    "tool missing",
			source:  monitortesting.NewFakeGPU("nvidia-smi", monitor.GPUUsage{}).SetErr(monitor.ErrGPUUnavailable),
			timeout: time.Second,
			want:    StatusWarn,
			message: "not available",
		},
		{
			name:    "too slow",
			source:  monitortesting.NewFakeGPU("powermetrics", monitor.GPUUsage{}).SetDelay(time.Second),
			timeout: 10 * time.Millisecond,
			want:    StatusWarn,
			message: "no answer within 10ms",
		},
		{
			name:    "other error",
			source:  monitortesting.NewFakeGPU("ioreg", monitor.GPUUsage{}).SetErr(errors.New("unexpected output")),
			timeout: time.Second,
			want:    StatusWarn,
			message: "unexpected output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := &GPUSourceCheck{Source: tt.source, Timeout: tt.timeout}
			got := check.Run(context.Background())
			assert.Equal(t, tt.want, got.Status)
			assert.Contains(t, got.Message, tt.message)
			assert.Equal(t, "gpu_"+tt.source.Name(), got.Name)
		})
	}
}

func TestNewGPUChecks(t *testing.T) {
	disabled := NewGPUChecks(nil, time.Second)
	assert.Len(t, disabled, 1)
	assert.Equal(t, StatusPass, disabled[0].Run(context.Background()).Status)

	checks := NewGPUChecks([]monitor.GPUSource{
		monitortesting.NewFakeGPU("nvidia-smi", monitor.GPUUsage{}),
		monitortesting.NewFakeGPU("ioreg", monitor.GPUUsage{}),
	}, time.Second)
	assert.Len(t, checks, 2)
	for _, c := range checks {
		assert.Equal(t, CategoryGPU, c.Category())
	}
}

func TestNoGPUSourceWorks(t *testing.T) {
	ctx := context.Background()
	missing := monitortesting.NewFakeGPU("nvidia-smi", monitor.GPUUsage{}).SetErr(monitor.ErrGPUUnavailable)
	working := monitortesting.NewFakeGPU("ioreg", monitor.GPUUsage{Overall: 1})

	broken := NewGPUChecks([]monitor.GPUSource{missing}, time.Second)
	assert.True(t, NoGPUSourceWorks(broken, RunAll(ctx, broken)))

	mixed := NewGPUChecks([]monitor.GPUSource{missing, working}, time.Second)
	assert.False(t, NoGPUSourceWorks(mixed, RunAll(ctx, mixed)))

	off := NewGPUChecks(nil, time.Second)
	assert.False(t, NoGPUSourceWorks(off, RunAll(ctx, off)), "disabled sampling is not a failure")
}
