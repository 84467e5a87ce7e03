package doctor

import (
	"context"
	"errors"
	"testing"

	"github.com/rileyhilliard/oversee/internal/monitor"
	monitortesting "github.com/rileyhilliard/oversee/internal/monitor/testing"
	"github.com/stretchr/testify/assert"
)

const gib = 1 << 30

func TestCPUCheck(t *testing.T) {
	ctx := context.Background()

	ok := (&CPUCheck{Source: monitortesting.NewFakeCPU(8)}).Run(ctx)
	assert.Equal(t, StatusPass, ok.Status)
	assert.Contains(t, ok.Message, "8 cores")

	bad := (&CPUCheck{Source: monitortesting.NewFakeCPU(8).SetErr(errors.New("permission denied"))}).Run(ctx)
	assert.Equal(t, StatusFail, bad.Status)
	assert.Contains(t, bad.Message, "permission denied")
	assert.NotEmpty(t, bad.Suggestion)
}

func TestMemoryCheck(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		source  *monitortesting.FakeMemory
		want    CheckStatus
		message string
	}{
		{
			name:    "readable",
			source:  monitortesting.NewFakeMemory(16*gib, 8*gib).SetSwap(2*gib, 0),
			want:    StatusPass,
			message: "16 GiB total, 8.0 GiB available",
		},
		{
			name:    "swap unreadable",
			source:  monitortesting.NewFakeMemory(16*gib, 8*gib).SetSwapErr(errors.New("no swapinfo")),
			want:    StatusWarn,
			message: "swap unreadable: no swapinfo",
		},
		{
			name:    "memory unreadable",
			source:  monitortesting.NewFakeMemory(0, 0).SetErr(errors.New("sysctl failed")),
			want:    StatusFail,
			message: "sysctl failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := (&MemoryCheck{Source: tt.source}).Run(ctx)
			assert.Equal(t, tt.want, got.Status)
			assert.Contains(t, got.Message, tt.message)
		})
	}
}

func TestPressureCheck(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		source  monitortesting.FakePressure
		want    CheckStatus
		message string
	}{
		{
			name:    "kernel level",
			source:  monitortesting.FakePressure{Raw: 2, PressureLevel: monitor.PressureWarning},
			want:    StatusPass,
			message: "warning (raw 2)",
		},
		{
			name:    "no kernel signal",
			source:  monitortesting.FakePressure{Err: monitor.ErrNoKernelPressure},
			want:    StatusWarn,
			message: "available memory ratio",
		},
		{
			name:    "read error",
			source:  monitortesting.FakePressure{Err: errors.New("bad psi line")},
			want:    StatusWarn,
			message: "bad psi line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := (&PressureCheck{Source: tt.source}).Run(ctx)
			assert.Equal(t, tt.want, got.Status)
			assert.Contains(t, got.Message, tt.message)
		})
	}
}

func TestProcessCheck(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		source  *monitortesting.FakeProcesses
		want    CheckStatus
		message string
	}{
		{
			name: "visible",
			source: monitortesting.NewFakeProcesses(
				monitor.RawProcess{PID: 1, Name: "launchd", User: "root"},
				monitor.RawProcess{PID: 42, Name: "zsh"},
			),
			want:    StatusPass,
			message: "2 processes visible",
		},
		{
			name: "no owners",
			source: monitortesting.NewFakeProcesses(
				monitor.RawProcess{PID: 1, Name: "init"},
			),
			want:    StatusWarn,
			message: "no owners",
		},
		{
			name:    "enumeration fails",
			source:  monitortesting.NewFakeProcesses().SetErr(errors.New("operation not permitted")),
			want:    StatusFail,
			message: "operation not permitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := (&ProcessCheck{Source: tt.source}).Run(ctx)
			assert.Equal(t, tt.want, got.Status)
			assert.Contains(t, got.Message, tt.message)
		})
	}
}

func TestPortsCheck(t *testing.T) {
	ctx := context.Background()

	ok := (&PortsCheck{Source: monitortesting.NewFakePorts(map[int32][]uint16{
		10: {80, 443},
		20: {5432},
	})}).Run(ctx)
	assert.Equal(t, StatusPass, ok.Status)
	assert.Equal(t, "3 listening ports across 2 processes", ok.Message)

	bad := (&PortsCheck{Source: monitortesting.NewFakePorts(nil).SetErr(errors.New("netlink denied"))}).Run(ctx)
	assert.Equal(t, StatusWarn, bad.Status, "missing ports never fail the run")
	assert.Contains(t, bad.Message, "netlink denied")
}

func TestNewSourceChecks(t *testing.T) {
	full := NewSourceChecks(monitor.Sources{
		CPU:       monitortesting.NewFakeCPU(2),
		Memory:    monitortesting.NewFakeMemory(gib, gib),
		Pressure:  monitortesting.FakePressure{},
		Processes: monitortesting.NewFakeProcesses(),
		Ports:     monitortesting.NewFakePorts(nil),
	})
	var names []string
	for _, c := range full {
		names = append(names, c.Name())
		assert.Equal(t, CategorySources, c.Category())
	}
	assert.Equal(t, []string{"cpu", "memory", "memory_pressure", "processes", "ports"}, names)

	minimal := NewSourceChecks(monitor.Sources{
		CPU:       monitortesting.NewFakeCPU(2),
		Memory:    monitortesting.NewFakeMemory(gib, gib),
		Processes: monitortesting.NewFakeProcesses(),
	})
	assert.Len(t, minimal, 3, "optional sources are skipped when absent")
}
