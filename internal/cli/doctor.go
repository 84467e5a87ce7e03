package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rileyhilliard/oversee/internal/config"
	"github.com/rileyhilliard/oversee/internal/doctor"
	"github.com/rileyhilliard/oversee/internal/errors"
	"github.com/rileyhilliard/oversee/internal/monitor"
	"github.com/rileyhilliard/oversee/internal/ui"
	"github.com/spf13/cobra"
)

// doctorTimeout bounds the whole run. GPU checks carry their own, shorter
// per-source timeout.
const doctorTimeout = 30 * time.Second

var (
	doctorJSON bool
	doctorFix  bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that every data source works on this machine",
	Long: `Run diagnostics against the config and each data source the dashboard
reads: CPU counters, memory and swap, the kernel pressure signal, process
enumeration, listening ports and every configured GPU source.

Warnings mean a panel will be degraded. Failures mean the dashboard can't
run until they are fixed.

Examples:
  oversee doctor
  oversee doctor --json
  oversee doctor --fix   # writes a default .oversee.yaml if none exists`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if doctorJSON {
			machineMode = true
		}
		checks := collectChecks(configFlag)
		return doctorCommand(cmd.Context(), cmd.OutOrStdout(), checks, doctorJSON, doctorFix)
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output in JSON format")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "attempt automatic fixes where possible")
	rootCmd.AddCommand(doctorCmd)
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	Fixable  int  `json:"fixable"`
	AllClear bool `json:"all_clear"`
}

// collectChecks builds the checks for this host. A broken config falls back
// to the default GPU sources; the config checks report the breakage.
func collectChecks(explicit string) []doctor.Check {
	fixPath := explicit
	if fixPath == "" {
		fixPath = config.ConfigFileName
	}
	checks := doctor.NewConfigChecks(explicit, fixPath)

	cfg, _, err := config.LoadOrDefault(explicit)
	if err != nil || config.Validate(cfg) != nil {
		cfg = config.DefaultConfig()
	}
	checks = append(checks, doctor.NewSourceChecks(monitor.HostSources(nil))...)

	gpu, err := cfg.GPUSources()
	if err != nil {
		gpu = nil
	}
	timeout, err := time.ParseDuration(cfg.GPU.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 2 * time.Second
	}
	return append(checks, doctor.NewGPUChecks(gpu, timeout)...)
}

// doctorCommand runs checks, applies fixes when asked and reports. Text
// output returns an error when any check failed so the exit code reflects it.
func doctorCommand(ctx context.Context, out io.Writer, checks []doctor.Check, jsonOut, fix bool) error {
	ctx, cancel := context.WithTimeout(ctx, doctorTimeout)
	defer cancel()

	results := doctor.RunAllParallel(ctx, checks)
	if fix {
		results = doctor.FixAll(ctx, checks, results)
	}

	if jsonOut {
		return WriteJSONSuccess(out, buildDoctorOutput(checks, results))
	}

	if _, err := io.WriteString(out, renderDoctorText(checks, results, fix)); err != nil {
		return err
	}
	if doctor.HasFailures(results) {
		return errors.New(errors.ErrSource,
			"Some data sources aren't working",
			"Fix the failed checks above and run 'oversee doctor' again")
	}
	return nil
}

// orderedIndices returns check indices grouped in report category order,
// keeping registration order within a category.
func orderedIndices(checks []doctor.Check) []int {
	rank := make(map[string]int, len(doctor.Categories))
	for i, c := range doctor.Categories {
		rank[c] = i
	}
	idx := make([]int, len(checks))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, ok := rank[checks[idx[a]].Category()]
		if !ok {
			ra = len(rank)
		}
		rb, ok := rank[checks[idx[b]].Category()]
		if !ok {
			rb = len(rank)
		}
		return ra < rb
	})
	return idx
}

func buildDoctorOutput(checks []doctor.Check, results []doctor.CheckResult) DoctorOutput {
	output := DoctorOutput{Categories: []CategoryOutput{}}
	for _, i := range orderedIndices(checks) {
		cat := checks[i].Category()
		n := len(output.Categories)
		if n == 0 || output.Categories[n-1].Name != cat {
			output.Categories = append(output.Categories, CategoryOutput{Name: cat})
			n++
		}
		output.Categories[n-1].Results = append(output.Categories[n-1].Results, results[i])
	}

	counts := doctor.CountByStatus(results)
	output.Summary = SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		Fixable:  doctor.FixableCount(results),
		AllClear: !doctor.HasIssues(results),
	}
	return output
}

func renderDoctorText(checks []doctor.Check, results []doctor.CheckResult, fixed bool) string {
	var b strings.Builder
	ui.PrintHeader(&b, ui.HeaderInfo{Version: formatVersion(version), Tagline: "Diagnostics"})
	b.WriteString("\n")

	rows := make([]ui.SummaryRow, 0, len(checks))
	for _, i := range orderedIndices(checks) {
		r := results[i]
		rows = append(rows, ui.SummaryRow{
			Status:  summaryStatus(r.Status),
			Section: checks[i].Category(),
			Label:   r.Name,
			Value:   r.Message,
			Note:    r.Suggestion,
		})
	}
	b.WriteString(ui.RenderSummary(rows))

	if !doctor.HasIssues(results) {
		fmt.Fprintf(&b, "%s Everything looks good\n", ui.SuccessStyle().Render(ui.SymbolSuccess))
		return b.String()
	}

	fmt.Fprintf(&b, "%s %s\n", ui.ErrorStyle().Render(ui.SymbolFail), doctor.Summary(results))
	if doctor.NoGPUSourceWorks(checks, results) {
		ui.PrintWarning(&b, "No GPU source works here; the GPU panel will show as unavailable.")
	}
	if !fixed && doctor.FixableCount(results) > 0 {
		fmt.Fprintf(&b, "\n  Run with %s to attempt automatic fixes where possible.\n", ui.InfoStyle().Render("--fix"))
	}
	return b.String()
}

func summaryStatus(s doctor.CheckStatus) string {
	switch s {
	case doctor.StatusPass:
		return "ok"
	case doctor.StatusWarn:
		return "warn"
	case doctor.StatusFail:
		return "fail"
	default:
		return ""
	}
}
