package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rileyhilliard/oversee/internal/monitor"
)

// GPUSourceCheck samples one GPU source. A source that cannot run on this
// host only warns: the collector moves on to the next one.
type GPUSourceCheck struct {
	Source  monitor.GPUSource
	Timeout time.Duration
}

func (c *GPUSourceCheck) Name() string     { return "gpu_" + c.Source.Name() }
func (c *GPUSourceCheck) Category() string { return CategoryGPU }

func (c *GPUSourceCheck) Run(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	usage, err := c.Source.Sample(ctx)
	switch {
	case errors.Is(err, monitor.ErrGPUUnavailable):
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusWarn,
			Message: fmt.Sprintf("%s: not available on this host", c.Source.Name()),
		}
	case errors.Is(err, context.DeadlineExceeded):
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("%s: no answer within %s", c.Source.Name(), c.Timeout),
			Suggestion: "Raise gpu.timeout if the tool is slow on this machine",
		}
	case err != nil:
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusWarn,
			Message: fmt.Sprintf("%s: %v", c.Source.Name(), err),
		}
	}

	name := usage.Name
	if name == "" {
		name = "GPU"
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%s: %s at %.0f%%", c.Source.Name(), name, usage.Overall),
	}
}

func (c *GPUSourceCheck) Fix() error { return nil }

// GPUDisabledCheck stands in for the source checks when GPU sampling is off.
type GPUDisabledCheck struct{}

func (GPUDisabledCheck) Name() string     { return "gpu" }
func (GPUDisabledCheck) Category() string { return CategoryGPU }

func (c GPUDisabledCheck) Run(ctx context.Context) CheckResult {
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "GPU sampling disabled (gpu.enabled: false)",
	}
}

func (GPUDisabledCheck) Fix() error { return nil }

// NewGPUChecks returns one check per source, or GPUDisabledCheck when
// sources is empty.
func NewGPUChecks(sources []monitor.GPUSource, timeout time.Duration) []Check {
	if len(sources) == 0 {
		return []Check{GPUDisabledCheck{}}
	}
	checks := make([]Check, 0, len(sources))
	for _, src := range sources {
		checks = append(checks, &GPUSourceCheck{Source: src, Timeout: timeout})
	}
	return checks
}

// NoGPUSourceWorks reports whether GPU sampling is enabled but every source
// check warned.
func NoGPUSourceWorks(checks []Check, results []CheckResult) bool {
	seen := false
	for i, c := range checks {
		if _, ok := c.(*GPUSourceCheck); !ok {
			continue
		}
		seen = true
		if results[i].Status == StatusPass {
			return false
		}
	}
	return seen
}
