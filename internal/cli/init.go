package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/oversee/internal/config"
	"github.com/rileyhilliard/oversee/internal/errors"
	"github.com/rileyhilliard/oversee/internal/monitor"
	"github.com/rileyhilliard/oversee/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Init flags
var (
	initForce          bool
	initGlobal         bool
	initNonInteractive bool
	initAnswersFlag    InitAnswers
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an .oversee.yaml config",
	Long: `Create a config file with the sampling interval, process order,
timeline scope and GPU setting. Every other key gets its default and can
be changed later with 'oversee config set'.

The GPU sources are probed once so you know up front whether the GPU
panel will have data.

Examples:
  oversee init
  oversee init --global
  oversee init --yes --interval 500ms --sort memory`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ConfigFileName
		if initGlobal {
			path = config.GlobalConfigPath()
		}
		if configFlag != "" {
			path = configFlag
		}
		return Init(cmd.Context(), cmd.OutOrStdout(), InitOptions{
			Path:           path,
			Overwrite:      initForce,
			NonInteractive: initNonInteractive || !term.IsTerminal(int(os.Stdin.Fd())),
			Answers:        initAnswersFlag,
		})
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "write ~/.config/oversee/config.yaml instead of ./.oversee.yaml")
	initCmd.Flags().BoolVarP(&initNonInteractive, "yes", "y", false, "skip prompts and use flags or defaults")
	initCmd.Flags().StringVar(&initAnswersFlag.Interval, "interval", "", "sampling interval")
	initCmd.Flags().StringVar(&initAnswersFlag.Sort, "sort", "", "initial process order")
	initCmd.Flags().StringVar(&initAnswersFlag.Scope, "scope", "", "initial timeline scope")
	initCmd.Flags().BoolVar(&initAnswersFlag.NoGPU, "no-gpu", false, "disable GPU sampling")
	rootCmd.AddCommand(initCmd)
}

// InitOptions holds options for the init command.
type InitOptions struct {
	Path           string
	Overwrite      bool
	NonInteractive bool
	Answers        InitAnswers
}

// InitAnswers are the values init asks for. Empty strings mean default.
type InitAnswers struct {
	Interval string
	Sort     string
	Scope    string
	NoGPU    bool
}

// withDefaults fills empty answers from the default config.
func (a InitAnswers) withDefaults() InitAnswers {
	def := config.DefaultConfig()
	if a.Interval == "" {
		a.Interval = def.Interval
	}
	if a.Sort == "" {
		a.Sort = def.Render.Sort
	}
	if a.Scope == "" {
		a.Scope = def.Timeline.Scope
	}
	return a
}

// buildInitConfig turns answers into a validated config.
func buildInitConfig(a InitAnswers) (*config.Config, error) {
	a = a.withDefaults()

	cfg := config.DefaultConfig()
	MonitorFlags{
		Interval: strings.TrimSpace(a.Interval),
		Sort:     strings.TrimSpace(a.Sort),
		Scope:    strings.TrimSpace(a.Scope),
		NoGPU:    a.NoGPU,
	}.Apply(cfg)

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes a new config file.
func Init(ctx context.Context, out io.Writer, opts InitOptions) error {
	path := config.ExpandTilde(opts.Path)
	if path == "" {
		return errors.New(errors.ErrConfig,
			"Can't work out where to write the config",
			"Pass an explicit path with --config")
	}

	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", path),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("'%s' already exists. Overwrite?", path)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	answers := opts.Answers.withDefaults()
	if !opts.NonInteractive {
		if err := askInitAnswers(&answers); err != nil {
			return err
		}
	}

	cfg, err := buildInitConfig(answers)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	spinner := ui.NewSpinnerTo(out, "Probing GPU sources")
	if cfg.GPU.Enabled {
		sources, err := cfg.GPUSources()
		if err != nil {
			return err
		}
		timeout, _ := time.ParseDuration(cfg.GPU.Timeout)

		spinner.Start()
		probe, err := probeGPU(ctx, sources, timeout)
		reportGPUProbe(out, spinner, probe, err)
	} else {
		spinner.SetDetail("gpu.enabled: false")
		spinner.Skip()
	}

	if err := config.Save(cfg, path); err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	fmt.Fprintf(out, "\n%s Created %s\n\n", ui.SuccessStyle().Render(ui.SymbolSuccess), abs)
	fmt.Fprintln(out, ui.InfoStyle().Render("Next steps:"))
	fmt.Fprintln(out, "  oversee                  - Start the dashboard")
	fmt.Fprintln(out, "  oversee snapshot         - Print one sample as JSON")
	fmt.Fprintln(out, "  oversee doctor           - Check every data source")
	fmt.Fprintln(out, "  oversee config set k v   - Change a setting")

	return nil
}

func askInitAnswers(a *InitAnswers) error {
	def := config.DefaultConfig()
	enableGPU := !a.NoGPU

	sortOptions := make([]huh.Option[string], 0, 4)
	for _, name := range []string{"cpu", "memory", "name", "pid"} {
		sortOptions = append(sortOptions, huh.NewOption(name, name))
	}
	scopeOptions := make([]huh.Option[string], 0, len(def.Timeline.Scopes))
	for _, s := range withScope(def.Timeline.Scopes, a.Scope) {
		scopeOptions = append(scopeOptions, huh.NewOption(s, s))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Sampling interval").
				Description("How often CPU, memory and processes are read").
				Placeholder(def.Interval).
				Value(&a.Interval).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil // placeholder default
					}
					d, err := time.ParseDuration(strings.TrimSpace(s))
					if err != nil {
						return fmt.Errorf("use a duration like 500ms or 1s")
					}
					if d <= 0 {
						return fmt.Errorf("interval must be positive")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Process order").
				Options(sortOptions...).
				Value(&a.Sort),
			huh.NewSelect[string]().
				Title("Timeline scope").
				Description("Visible window; 't' cycles through the others").
				Options(scopeOptions...).
				Value(&a.Scope),
			huh.NewConfirm().
				Title("Sample the GPU?").
				Value(&enableGPU),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or use --yes")
	}
	a.NoGPU = !enableGPU
	return nil
}

// reportGPUProbe finishes the probe spinner. A failed probe is not fatal:
// the config keeps GPU sampling on so a later driver install is picked up.
func reportGPUProbe(out io.Writer, spinner *ui.Spinner, probe string, err error) {
	if err != nil {
		spinner.SetDetail(err.Error())
		spinner.Fail()
		ui.PrintWarning(out, "No GPU source answered; the GPU panel will show as unavailable. Run 'oversee doctor' for details.")
		return
	}
	spinner.SetDetail(probe)
	spinner.Success()
}

// probeGPU samples each source in order and describes the first one that
// reports data.
func probeGPU(ctx context.Context, sources []monitor.GPUSource, timeout time.Duration) (string, error) {
	if len(sources) == 0 {
		return "", monitor.ErrGPUUnavailable
	}

	var lastErr error
	for _, src := range sources {
		sctx, cancel := context.WithTimeout(ctx, timeout)
		usage, err := src.Sample(sctx)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}
		if usage.Name != "" {
			return fmt.Sprintf("%s via %s", usage.Name, src.Name()), nil
		}
		return src.Name(), nil
	}
	return "", lastErr
}
