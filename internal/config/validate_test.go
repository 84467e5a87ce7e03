package config

import (
	"testing"

	"github.com/rileyhilliard/oversee/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		errMsg string
	}{
		{
			name:   "defaults are valid",
			modify: func(c *Config) {},
		},
		{
			name:   "version too high",
			modify: func(c *Config) { c.Version = CurrentConfigVersion + 1 },
			errMsg: "from the future",
		},
		{
			name:   "zero interval",
			modify: func(c *Config) { c.Interval = "0s" },
			errMsg: "interval must be positive",
		},
		{
			name:   "negative interval",
			modify: func(c *Config) { c.Interval = "-1s" },
			errMsg: "interval must be positive",
		},
		{
			name:   "interval not a duration",
			modify: func(c *Config) { c.Interval = "fast" },
			errMsg: "doesn't look like a valid duration",
		},
		{
			name:   "render rate zero",
			modify: func(c *Config) { c.Render.Rate = "0ms" },
			errMsg: "render.rate",
		},
		{
			name:   "unknown sort",
			modify: func(c *Config) { c.Render.Sort = "io" },
			errMsg: "unknown sort mode",
		},
		{
			name:   "sort alias",
			modify: func(c *Config) { c.Render.Sort = "mem" },
		},
		{
			name:   "empty scopes",
			modify: func(c *Config) { c.Timeline.Scopes = nil },
			errMsg: "timeline.scopes is empty",
		},
		{
			name:   "non-positive scope entry",
			modify: func(c *Config) { c.Timeline.Scopes = []string{"0s", "60s"} },
			errMsg: "timeline.scopes entry must be positive",
		},
		{
			name:   "scope missing from list",
			modify: func(c *Config) { c.Timeline.Scope = "45s" },
			errMsg: "isn't one of timeline.scopes",
		},
		{
			name:   "scope matched by value",
			modify: func(c *Config) { c.Timeline.Scope = "1m" },
		},
		{
			name:   "zero scrollback allowed",
			modify: func(c *Config) { c.Timeline.Scrollback = "0s" },
		},
		{
			name:   "negative scrollback",
			modify: func(c *Config) { c.Timeline.Scrollback = "-5s" },
			errMsg: "can't be negative",
		},
		{
			name:   "gpu timeout zero",
			modify: func(c *Config) { c.GPU.Timeout = "0s" },
			errMsg: "gpu.timeout",
		},
		{
			name:   "unknown gpu source",
			modify: func(c *Config) { c.GPU.Sources = []string{"radeontop"} },
			errMsg: "isn't a known source",
		},
		{
			name:   "misspelled gpu source",
			modify: func(c *Config) { c.GPU.Sources = []string{"nvidia-sm"} },
			errMsg: "Did you mean 'nvidia-smi'?",
		},
		{
			name:   "empty gpu sources allowed",
			modify: func(c *Config) { c.GPU.Sources = nil },
		},
		{
			name:   "port interval zero",
			modify: func(c *Config) { c.Processes.PortInterval = "0s" },
			errMsg: "processes.port_interval",
		},
		{
			name:   "negative fatal_after",
			modify: func(c *Config) { c.Processes.FatalAfter = -1 },
			errMsg: "fatal_after can't be negative",
		},
		{
			name:   "blank gpu hint",
			modify: func(c *Config) { c.Processes.GPUHints = []string{"blender", " "} },
			errMsg: "empty entry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	err := Validate(nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}
