package config

import "github.com/rileyhilliard/oversee/internal/monitor"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .oversee.yaml configuration file.
// Durations are kept as strings ("1s", "1500ms") so the file stays readable
// when written back; Validate parses them.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// Interval is the sampling period of CPU, memory and processes.
	Interval string `yaml:"interval" mapstructure:"interval"`

	Render    RenderConfig    `yaml:"render" mapstructure:"render"`
	Timeline  TimelineConfig  `yaml:"timeline" mapstructure:"timeline"`
	GPU       GPUConfig       `yaml:"gpu" mapstructure:"gpu"`
	Processes ProcessesConfig `yaml:"processes" mapstructure:"processes"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// RenderConfig controls the dashboard.
type RenderConfig struct {
	// Rate is the frame interval. It is independent of sampling.
	Rate string `yaml:"rate" mapstructure:"rate"`

	// Sort is the initial process order: cpu, memory, name or pid.
	Sort string `yaml:"sort" mapstructure:"sort"`
}

// TimelineConfig controls history retention and the visible window.
type TimelineConfig struct {
	// Scope is the initial visible window. It must be one of Scopes.
	Scope string `yaml:"scope" mapstructure:"scope"`

	// Scopes are the windows the dashboard cycles through.
	Scopes []string `yaml:"scopes" mapstructure:"scopes"`

	// Scrollback is how far back the timeline can be scrolled.
	Scrollback string `yaml:"scrollback" mapstructure:"scrollback"`
}

// GPUConfig controls the GPU collector.
type GPUConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Interval string `yaml:"interval" mapstructure:"interval"`
	Timeout  string `yaml:"timeout" mapstructure:"timeout"`

	// Sources are tried in order until one reports data.
	Sources []string `yaml:"sources" mapstructure:"sources"`
}

// ProcessesConfig controls the process table.
type ProcessesConfig struct {
	// PortInterval is how often listening ports are re-read.
	PortInterval string `yaml:"port_interval" mapstructure:"port_interval"`

	// NormalizeByCores divides process CPU% by the core count.
	NormalizeByCores bool `yaml:"normalize_by_cores" mapstructure:"normalize_by_cores"`

	// GPUHints are process name fragments that mark GPU work.
	GPUHints []string `yaml:"gpu_hints" mapstructure:"gpu_hints"`

	// FatalAfter is how many enumeration failures in a row stop the program.
	FatalAfter int `yaml:"fatal_after" mapstructure:"fatal_after"`
}

// LogConfig controls the log file. The dashboard owns the terminal, so
// logs never go to stdout or stderr while it runs.
type LogConfig struct {
	// File defaults to $TMPDIR/oversee.log. Supports ~ and ${HOME}.
	File  string `yaml:"file" mapstructure:"file"`
	Debug bool   `yaml:"debug" mapstructure:"debug"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:  CurrentConfigVersion,
		Interval: "1s",
		Render: RenderConfig{
			Rate: "100ms",
			Sort: "cpu",
		},
		Timeline: TimelineConfig{
			Scope:      "60s",
			Scopes:     []string{"30s", "60s", "120s", "300s"},
			Scrollback: "900s",
		},
		GPU: GPUConfig{
			Enabled:  true,
			Interval: "2s",
			Timeout:  "1500ms",
			Sources:  append([]string(nil), monitor.KnownGPUSources...),
		},
		Processes: ProcessesConfig{
			PortInterval:     "15s",
			NormalizeByCores: false,
			GPUHints:         append([]string(nil), monitor.DefaultGPUHints...),
			FatalAfter:       5,
		},
		Log: LogConfig{
			File:  "",
			Debug: false,
		},
	}
}
