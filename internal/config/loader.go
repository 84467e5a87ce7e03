package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rileyhilliard/oversee/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".oversee.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/oversee"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. OVERSEE_INTERVAL=2s or
	// OVERSEE_TIMELINE_SCOPE=120s.
	EnvPrefix = "OVERSEE"
	// DotEnvFile is loaded from the working directory when present.
	DotEnvFile = ".env"
)

// Load reads config from the specified path. An empty path yields the
// defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found",
					"Run 'oversee init' to create a config file, or specify one with --config")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML")
		}
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .oversee.yaml in current directory
// 3. ~/.config/oversee/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	// 1. Explicit path takes precedence
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	// 2. Current directory
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	// 3. Global config
	if global := GlobalConfigPath(); global != "" {
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// GlobalConfigPath returns ~/.config/oversee/config.yaml, or "" when the home
// directory is unknown.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// LoadOrDefault loads .env from the working directory, then the config found
// by Find, falling back to defaults. It returns the path that was loaded.
func LoadOrDefault(explicit string) (*Config, string, error) {
	if cwd, err := os.Getwd(); err == nil {
		if err := LoadDotEnv(cwd); err != nil {
			return nil, "", err
		}
	}

	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// LoadDotEnv loads dir/.env into the process environment when it exists.
// Variables already set are not overridden.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, DotEnvFile)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read "+path,
			"Each line should look like OVERSEE_INTERVAL=2s")
	}
	return nil
}

// newViper returns a viper instance with defaults registered for every key,
// so environment variables override keys the file does not mention.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults mirrors DefaultConfig into viper.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("interval", d.Interval)
	v.SetDefault("render.rate", d.Render.Rate)
	v.SetDefault("render.sort", d.Render.Sort)
	v.SetDefault("timeline.scope", d.Timeline.Scope)
	v.SetDefault("timeline.scopes", d.Timeline.Scopes)
	v.SetDefault("timeline.scrollback", d.Timeline.Scrollback)
	v.SetDefault("gpu.enabled", d.GPU.Enabled)
	v.SetDefault("gpu.interval", d.GPU.Interval)
	v.SetDefault("gpu.timeout", d.GPU.Timeout)
	v.SetDefault("gpu.sources", d.GPU.Sources)
	v.SetDefault("processes.port_interval", d.Processes.PortInterval)
	v.SetDefault("processes.normalize_by_cores", d.Processes.NormalizeByCores)
	v.SetDefault("processes.gpu_hints", d.Processes.GPUHints)
	v.SetDefault("processes.fatal_after", d.Processes.FatalAfter)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.debug", d.Log.Debug)
}

// parseConfig converts viper config to our Config struct. Defaults come
// from viper, so decoding starts from an empty struct and lists in the file
// replace the default lists instead of merging into them.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := &Config{}

	if err := v.Unmarshal(cfg); err != nil {
		source := "your environment"
		if path != "" {
			source = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the values in "+source)
	}

	cfg.Log.File = ExpandTilde(Expand(cfg.Log.File))
	return cfg, nil
}
