package config

import (
	"strings"
	"time"

	"github.com/rileyhilliard/oversee/internal/monitor"
)

// MonitorOptions validates the config and converts it to coordinator options.
func (c *Config) MonitorOptions() (monitor.Options, error) {
	if err := Validate(c); err != nil {
		return monitor.Options{}, err
	}

	opts := monitor.DefaultOptions()
	opts.Interval = mustDuration(c.Interval)
	opts.GPUInterval = mustDuration(c.GPU.Interval)
	opts.GPUTimeout = mustDuration(c.GPU.Timeout)
	opts.TimelineScope = mustDuration(c.Timeline.Scope)
	opts.TimelineScopes = make([]time.Duration, len(c.Timeline.Scopes))
	for i, s := range c.Timeline.Scopes {
		opts.TimelineScopes[i] = mustDuration(s)
	}
	opts.Scrollback = mustDuration(c.Timeline.Scrollback)
	opts.Sort, _ = monitor.ParseSortMode(c.Render.Sort)
	opts.NormalizeByCores = c.Processes.NormalizeByCores
	opts.GPUHints = c.Processes.GPUHints
	opts.PortInterval = mustDuration(c.Processes.PortInterval)
	opts.FatalAfter = c.Processes.FatalAfter

	return opts, opts.Validate()
}

// RenderRate returns the dashboard frame interval, or zero if invalid.
func (c *Config) RenderRate() time.Duration {
	return mustDuration(c.Render.Rate)
}

// GPUSources builds the configured GPU sources. Disabled GPU sampling
// yields none, which the collector reports as unavailable.
func (c *Config) GPUSources() ([]monitor.GPUSource, error) {
	if !c.GPU.Enabled {
		return nil, nil
	}
	return monitor.NewGPUSources(c.GPU.Sources)
}

// mustDuration parses a duration already checked by Validate.
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return d
}
