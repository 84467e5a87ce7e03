package doctor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rileyhilliard/oversee/internal/config"
)

// ConfigFileCheck reports which config file is in use. Running on defaults
// is fine, so a missing file only warns.
type ConfigFileCheck struct {
	ConfigPath string // Explicit path, or empty to search
	// FixPath is where Fix writes the default config.
	FixPath string
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return CategoryConfig }

func (c *ConfigFileCheck) Run(ctx context.Context) CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Error finding config: %v", err),
			Suggestion: "Check the --config path, or run 'oversee init' to create a config",
		}
	}

	if path == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No config file found, using defaults",
			Suggestion: "Run 'oversee init' (or doctor --fix) to write " + config.ConfigFileName,
			Fixable:    c.FixPath != "",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Config file: %s", filepath.Base(path)),
	}
}

// Fix writes the default config to FixPath.
func (c *ConfigFileCheck) Fix() error {
	if c.FixPath == "" {
		return nil
	}
	return config.Save(config.DefaultConfig(), c.FixPath)
}

// ConfigSchemaCheck verifies that the effective config (file plus
// environment overrides) is valid.
type ConfigSchemaCheck struct {
	ConfigPath string
}

func (c *ConfigSchemaCheck) Name() string     { return "config_schema" }
func (c *ConfigSchemaCheck) Category() string { return CategoryConfig }

func (c *ConfigSchemaCheck) Run(ctx context.Context) CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		// ConfigFileCheck reports this
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusFail,
			Message: "Cannot validate: config file not readable",
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Failed to load config: %v", err),
			Suggestion: "Check the YAML syntax in your config file",
		}
	}

	if err := config.Validate(cfg); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Invalid config: %v", err),
			Suggestion: "Fix the value with 'oversee config set <key> <value>'",
		}
	}

	msg := "Config valid"
	if path == "" {
		msg = "Defaults valid"
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: msg,
	}
}

func (c *ConfigSchemaCheck) Fix() error {
	return nil // Invalid values need a human decision
}

// NewConfigChecks returns the config checks. fixPath is where --fix writes
// defaults; empty disables the fix.
func NewConfigChecks(configPath, fixPath string) []Check {
	return []Check{
		&ConfigFileCheck{ConfigPath: configPath, FixPath: fixPath},
		&ConfigSchemaCheck{ConfigPath: configPath},
	}
}
