package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/oversee/internal/errors"
	"github.com/rileyhilliard/oversee/internal/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Equal(t, "1s", cfg.Interval)
	assert.Equal(t, "100ms", cfg.Render.Rate)
	assert.Equal(t, "cpu", cfg.Render.Sort)
	assert.Equal(t, "60s", cfg.Timeline.Scope)
	assert.Equal(t, []string{"30s", "60s", "120s", "300s"}, cfg.Timeline.Scopes)
	assert.Equal(t, "900s", cfg.Timeline.Scrollback)
	assert.True(t, cfg.GPU.Enabled)
	assert.Equal(t, monitor.KnownGPUSources, cfg.GPU.Sources)
	assert.Equal(t, "15s", cfg.Processes.PortInterval)
	assert.False(t, cfg.Processes.NormalizeByCores)
	assert.Equal(t, 5, cfg.Processes.FatalAfter)
	assert.Empty(t, cfg.Log.File)

	require.NoError(t, Validate(cfg))
}

func TestDefaultConfig_DoesNotAlias(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GPU.Sources[0] = "changed"
	cfg.Processes.GPUHints[0] = "changed"

	assert.NotEqual(t, "changed", monitor.KnownGPUSources[0])
	assert.NotEqual(t, "changed", monitor.DefaultGPUHints[0])
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ConfigFileName)

	content := `
version: 1
interval: 2s
render:
  sort: memory
timeline:
  scope: 120s
  scopes: [60s, 120s]
gpu:
  enabled: false
processes:
  normalize_by_cores: true
  gpu_hints: [blender]
log:
  file: ~/logs/oversee.log
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "2s", cfg.Interval)
	assert.Equal(t, "memory", cfg.Render.Sort)
	assert.Equal(t, "100ms", cfg.Render.Rate, "unset keys keep defaults")
	assert.Equal(t, "120s", cfg.Timeline.Scope)
	assert.Equal(t, []string{"60s", "120s"}, cfg.Timeline.Scopes, "file lists replace default lists")
	assert.Equal(t, "900s", cfg.Timeline.Scrollback)
	assert.False(t, cfg.GPU.Enabled)
	assert.True(t, cfg.Processes.NormalizeByCores)
	assert.Equal(t, []string{"blender"}, cfg.Processes.GPUHints)

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, "logs/oversee.log"), cfg.Log.File)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Interval, cfg.Interval)
	assert.Equal(t, DefaultConfig().Timeline.Scopes, cfg.Timeline.Scopes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(configPath, []byte("version: 1\ninterval: 2s\n"), 0644))

	t.Setenv("OVERSEE_INTERVAL", "500ms")
	t.Setenv("OVERSEE_TIMELINE_SCOPE", "30s")
	t.Setenv("OVERSEE_GPU_ENABLED", "false")
	t.Setenv("OVERSEE_TIMELINE_SCOPES", "30s,90s")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "500ms", cfg.Interval, "environment beats the file")
	assert.Equal(t, "30s", cfg.Timeline.Scope)
	assert.Equal(t, []string{"30s", "90s"}, cfg.Timeline.Scopes)
	assert.False(t, cfg.GPU.Enabled)
	require.NoError(t, Validate(cfg))
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(configPath, []byte("interval: [unclosed\n"), 0644))

	_, err := Load(configPath)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/.oversee.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config file not found")
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DotEnvFile),
		[]byte("OVERSEE_RENDER_SORT=name\nOVERSEE_INTERVAL=3s\n"), 0644))

	t.Setenv("OVERSEE_INTERVAL", "750ms")
	os.Unsetenv("OVERSEE_RENDER_SORT")
	t.Cleanup(func() { os.Unsetenv("OVERSEE_RENDER_SORT") })

	require.NoError(t, LoadDotEnv(dir))
	assert.Equal(t, "name", os.Getenv("OVERSEE_RENDER_SORT"))
	assert.Equal(t, "750ms", os.Getenv("OVERSEE_INTERVAL"), "existing variables win")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "name", cfg.Render.Sort)
	assert.Equal(t, "750ms", cfg.Interval)
}

func TestLoadDotEnv_Missing(t *testing.T) {
	assert.NoError(t, LoadDotEnv(t.TempDir()))
}

func TestFind(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T) string
		wantErr  bool
		wantBase string
	}{
		{
			name: "explicit path exists",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "custom.yaml")
				require.NoError(t, os.WriteFile(path, []byte("version: 1"), 0644))
				return path
			},
			wantBase: "custom.yaml",
		},
		{
			name: "explicit path not found",
			setup: func(t *testing.T) string {
				return "/nonexistent/config.yaml"
			},
			wantErr: true,
		},
		{
			name: "current directory has config",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("version: 1"), 0644))
				chdir(t, dir)
				return ""
			},
			wantBase: ConfigFileName,
		},
		{
			name: "global config",
			setup: func(t *testing.T) string {
				home := t.TempDir()
				t.Setenv("HOME", home)
				chdir(t, t.TempDir())
				global := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
				require.NoError(t, os.MkdirAll(filepath.Dir(global), 0755))
				require.NoError(t, os.WriteFile(global, []byte("version: 1"), 0644))
				return ""
			},
			wantBase: GlobalConfigFile,
		},
		{
			name: "nothing found",
			setup: func(t *testing.T) string {
				t.Setenv("HOME", t.TempDir())
				chdir(t, t.TempDir())
				return ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			explicit := tt.setup(t)

			path, err := Find(explicit)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantBase == "" {
				assert.Empty(t, path)
			} else {
				assert.Equal(t, tt.wantBase, filepath.Base(path))
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("version: 1\nrender:\n  sort: pid\n"), 0644))

	cfg, path, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, ConfigFileName, filepath.Base(path))
	assert.Equal(t, "pid", cfg.Render.Sort)
}

func TestMonitorOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interval = "2s"
	cfg.Render.Sort = "mem"
	cfg.Timeline.Scope = "120s"
	cfg.Processes.NormalizeByCores = true
	cfg.Processes.GPUHints = []string{"ollama"}

	opts, err := cfg.MonitorOptions()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, opts.Interval)
	assert.Equal(t, monitor.SortByMemory, opts.Sort)
	assert.Equal(t, 120*time.Second, opts.TimelineScope)
	assert.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second, 300 * time.Second}, opts.TimelineScopes)
	assert.Equal(t, 900*time.Second, opts.Scrollback)
	assert.Equal(t, 2*time.Second, opts.GPUInterval)
	assert.Equal(t, 1500*time.Millisecond, opts.GPUTimeout)
	assert.Equal(t, 15*time.Second, opts.PortInterval)
	assert.True(t, opts.NormalizeByCores)
	assert.Equal(t, []string{"ollama"}, opts.GPUHints)
	assert.Equal(t, 5, opts.FatalAfter)

	assert.Equal(t, 100*time.Millisecond, cfg.RenderRate())
}

func TestMonitorOptions_Invalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interval = "0s"

	_, err := cfg.MonitorOptions()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestGPUSources(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GPU.Sources = []string{"nvidia-smi"}

	sources, err := cfg.GPUSources()
	require.NoError(t, err)
	assert.Len(t, sources, 1)

	cfg.GPU.Enabled = false
	sources, err = cfg.GPUSources()
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })
}
