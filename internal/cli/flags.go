package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rileyhilliard/oversee/internal/config"
	"github.com/rileyhilliard/oversee/internal/errors"
	"github.com/rileyhilliard/oversee/internal/monitor"
	"github.com/spf13/cobra"
)

// Global flags
var (
	configFlag  string
	noColorFlag bool
)

// MonitorFlags holds the sampling flags shared by the dashboard and snapshot.
// Empty values leave the config file setting alone.
type MonitorFlags struct {
	Interval string
	Sort     string
	Scope    string
	Filter   string
	NoGPU    bool
}

// AddMonitorFlags registers --interval, --sort, --scope, --filter and --no-gpu on a command.
func AddMonitorFlags(cmd *cobra.Command, flags *MonitorFlags) {
	cmd.Flags().StringVar(&flags.Interval, "interval", "", "sampling interval (e.g., 500ms, 1s, 2s)")
	cmd.Flags().StringVar(&flags.Sort, "sort", "", "process order: cpu, memory, name or pid")
	cmd.Flags().StringVar(&flags.Scope, "scope", "", "visible timeline window (e.g., 60s, 5m)")
	cmd.Flags().StringVar(&flags.Filter, "filter", "", "initial process filter (name, user, pid or port)")
	cmd.Flags().BoolVar(&flags.NoGPU, "no-gpu", false, "skip GPU sampling")
}

// Apply overrides cfg with the flags that were set.
func (f MonitorFlags) Apply(cfg *config.Config) {
	if f.Interval != "" {
		cfg.Interval = f.Interval
	}
	if f.Sort != "" {
		cfg.Render.Sort = f.Sort
	}
	if f.Scope != "" {
		cfg.Timeline.Scope = f.Scope
		cfg.Timeline.Scopes = withScope(cfg.Timeline.Scopes, f.Scope)
	}
	if f.NoGPU {
		cfg.GPU.Enabled = false
	}
}

// withScope returns scopes with scope added in duration order when it is not
// already present. Unparseable values are left for validation to report.
func withScope(scopes []string, scope string) []string {
	want, err := time.ParseDuration(strings.TrimSpace(scope))
	if err != nil {
		return scopes
	}

	out := make([]string, 0, len(scopes)+1)
	for _, s := range scopes {
		d, err := time.ParseDuration(strings.TrimSpace(s))
		if err == nil && d == want {
			return scopes
		}
		out = append(out, s)
	}
	out = append(out, scope)

	sort.SliceStable(out, func(i, j int) bool {
		a, errA := time.ParseDuration(strings.TrimSpace(out[i]))
		b, errB := time.ParseDuration(strings.TrimSpace(out[j]))
		if errA != nil || errB != nil {
			return false
		}
		return a < b
	})
	return out
}

// settings is everything a sampling command needs after config resolution.
type settings struct {
	cfg  *config.Config
	path string
	opts monitor.Options
}

// loadSettings loads the config, applies flags and converts the result to
// coordinator options. Flag mistakes surface as config errors naming the key.
func loadSettings(explicit string, flags MonitorFlags) (*settings, error) {
	cfg, path, err := config.LoadOrDefault(explicit)
	if err != nil {
		return nil, err
	}

	flags.Apply(cfg)

	opts, err := cfg.MonitorOptions()
	if err != nil {
		return nil, err
	}
	if q := strings.TrimSpace(flags.Filter); q != "" {
		opts.Filter = monitor.FilterState{Query: q, Mode: monitor.FilterApplied}
	}

	return &settings{cfg: cfg, path: path, opts: opts}, nil
}

// ParsePositive parses a flag that must be a positive integer.
func ParsePositive(name string, value int) error {
	if value <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("--%s must be at least 1, got %d", name, value),
			fmt.Sprintf("Try --%s 3", name))
	}
	return nil
}
