package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/oversee/internal/errors"
	"github.com/rileyhilliard/oversee/internal/monitor"
	"github.com/rileyhilliard/oversee/internal/util"
)

// Validate checks the config for errors and returns structured error messages.
// Invalid values are rejected, never clamped.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	// Check version
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but oversee only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade oversee, or lower the version in your config file.")
	}

	if _, err := positiveDuration("interval", cfg.Interval); err != nil {
		return errors.New(errors.ErrConfig, err.Error(), "Set 'interval' to something like '1s' or '500ms'.")
	}

	if err := validateRender(cfg.Render); err != nil {
		return errors.New(errors.ErrConfig, err.Error(), "Check the 'render' section in your .oversee.yaml.")
	}

	if err := validateTimeline(cfg.Timeline); err != nil {
		return errors.New(errors.ErrConfig, err.Error(), "Check the 'timeline' section in your .oversee.yaml.")
	}

	if err := validateGPU(cfg.GPU); err != nil {
		return errors.New(errors.ErrConfig, err.Error(), "Check the 'gpu' section in your .oversee.yaml.")
	}

	if err := validateProcesses(cfg.Processes); err != nil {
		return errors.New(errors.ErrConfig, err.Error(), "Check the 'processes' section in your .oversee.yaml.")
	}

	return nil
}

// positiveDuration parses a duration that must be greater than zero.
func positiveDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s '%s' doesn't look like a valid duration - try something like '1s', '500ms', or '2m'", key, value)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, value)
	}
	return d, nil
}

// validateRender checks dashboard configuration.
func validateRender(r RenderConfig) error {
	if _, err := positiveDuration("render.rate", r.Rate); err != nil {
		return err
	}
	if _, err := monitor.ParseSortMode(r.Sort); err != nil {
		return fmt.Errorf("render.sort: %w", err)
	}
	return nil
}

// validateTimeline checks the scope list and that the default scope is in it.
func validateTimeline(t TimelineConfig) error {
	scope, err := positiveDuration("timeline.scope", t.Scope)
	if err != nil {
		return err
	}

	if len(t.Scopes) == 0 {
		return fmt.Errorf("timeline.scopes is empty - list at least one window, like [30s, 60s]")
	}
	found := false
	for _, s := range t.Scopes {
		d, err := positiveDuration("timeline.scopes entry", s)
		if err != nil {
			return err
		}
		if d == scope {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("timeline.scope %s isn't one of timeline.scopes %v", t.Scope, t.Scopes)
	}

	d, err := time.ParseDuration(strings.TrimSpace(t.Scrollback))
	if err != nil {
		return fmt.Errorf("timeline.scrollback '%s' doesn't look like a valid duration", t.Scrollback)
	}
	if d < 0 {
		return fmt.Errorf("timeline.scrollback can't be negative - that doesn't make sense")
	}
	return nil
}

// validateGPU checks GPU collector configuration.
func validateGPU(g GPUConfig) error {
	if _, err := positiveDuration("gpu.interval", g.Interval); err != nil {
		return err
	}
	if _, err := positiveDuration("gpu.timeout", g.Timeout); err != nil {
		return err
	}

	known := make(map[string]bool, len(monitor.KnownGPUSources))
	for _, name := range monitor.KnownGPUSources {
		known[name] = true
	}
	for _, name := range g.Sources {
		if !known[name] {
			return fmt.Errorf("gpu.sources entry '%s' isn't a known source.%s Use %s", name, util.DidYouMean(name, monitor.KnownGPUSources), util.JoinOrNone(monitor.KnownGPUSources))
		}
	}
	return nil
}

// validateProcesses checks process table configuration.
func validateProcesses(p ProcessesConfig) error {
	if _, err := positiveDuration("processes.port_interval", p.PortInterval); err != nil {
		return err
	}
	if p.FatalAfter < 0 {
		return fmt.Errorf("processes.fatal_after can't be negative, got %d", p.FatalAfter)
	}
	for _, hint := range p.GPUHints {
		if strings.TrimSpace(hint) == "" {
			return fmt.Errorf("processes.gpu_hints has an empty entry - remove it")
		}
	}
	return nil
}
