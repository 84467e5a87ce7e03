package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rileyhilliard/oversee/internal/errors"
	"github.com/rileyhilliard/oversee/internal/logger"
	"github.com/rileyhilliard/oversee/internal/monitor"
	"github.com/rileyhilliard/oversee/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Snapshot output formats
const (
	formatJSON  = "json"
	formatTable = "table"
)

var (
	snapshotFlags  MonitorFlags
	snapshotTicks  int
	snapshotFormat string
	snapshotTop    int
)

// snapshotCmd samples headlessly and prints the result
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Sample a few times and print the result (no TUI)",
	Long: `Run the collectors for a few ticks without the dashboard and print
the final snapshot. JSON output uses the same envelope for success and
errors, so it is safe to pipe into jq or other tools.

CPU percentages need two readings, so the first tick waits one interval.

Examples:
  oversee snapshot
  oversee snapshot --ticks 5 --interval 500ms
  oversee snapshot --format table --top 20
  oversee snapshot --filter node | jq '.data.processes.top'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if snapshotFormat == formatJSON {
			machineMode = true
		}
		return snapshotCommand(cmd.Context(), cmd.OutOrStdout(), configFlag, snapshotFlags)
	},
}

func init() {
	AddMonitorFlags(snapshotCmd, &snapshotFlags)
	snapshotCmd.Flags().IntVar(&snapshotTicks, "ticks", 2, "number of sampling cycles before printing")
	snapshotCmd.Flags().StringVar(&snapshotFormat, "format", formatJSON, "output format: json or table")
	snapshotCmd.Flags().IntVar(&snapshotTop, "top", 10, "number of processes to include (0 for all)")
	rootCmd.AddCommand(snapshotCmd)
}

func snapshotCommand(ctx context.Context, out io.Writer, explicit string, flags MonitorFlags) error {
	if err := ParsePositive("ticks", snapshotTicks); err != nil {
		return err
	}
	if snapshotTop < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("--top can't be negative, got %d", snapshotTop),
			"Use --top 0 to include every process")
	}
	if snapshotFormat != formatJSON && snapshotFormat != formatTable {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown format '%s'", snapshotFormat),
			"Use --format json or --format table")
	}

	s, err := loadSettings(explicit, flags)
	if err != nil {
		return err
	}

	log := logger.Noop()
	if s.cfg.Log.File != "" || s.cfg.Log.Debug {
		fileLog, closer, err := openLog(s.cfg)
		if err != nil {
			return err
		}
		defer closer.Close()
		log = fileLog
	}

	gpu, err := s.cfg.GPUSources()
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Unknown GPU source in config",
			"Check gpu.sources in your .oversee.yaml")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	coord, err := monitor.NewCoordinator(ctx, s.opts, monitor.HostSources(gpu), log)
	if err != nil {
		return err
	}
	coord.GPU().Start(ctx)

	// Table output goes to a human, so show the warm-up on stderr while it runs.
	var spinner *ui.Spinner
	var progress func(done, total int)
	if snapshotFormat == formatTable && term.IsTerminal(int(os.Stderr.Fd())) {
		spinner = ui.NewSpinnerTo(os.Stderr, samplingLabel(0, snapshotTicks))
		spinner.Start()
		progress = func(done, total int) { spinner.SetLabel(samplingLabel(done, total)) }
	}

	snap, err := collectSnapshot(ctx, coord, snapshotTicks, sleepFor(s.opts.Interval), progress)
	if spinner != nil {
		if err != nil {
			spinner.Fail()
		} else {
			spinner.Success()
		}
	}
	if err != nil {
		return err
	}

	report := buildReport(snap, snapshotTicks, snapshotTop)
	if snapshotFormat == formatTable {
		_, err := io.WriteString(out, renderReportTable(report))
		return err
	}
	return WriteJSONSuccess(out, report)
}

// sampler is the part of the coordinator a headless snapshot drives.
type sampler interface {
	Tick(ctx context.Context) error
	Latest() *monitor.Snapshot
}

// collectSnapshot waits and ticks n times, then returns the latest snapshot.
// The wait comes first so every tick has a CPU delta to report. progress,
// when set, is called after each tick.
func collectSnapshot(ctx context.Context, s sampler, n int, wait func(context.Context) error, progress func(done, total int)) (*monitor.Snapshot, error) {
	for i := 0; i < n; i++ {
		if err := wait(ctx); err != nil {
			return nil, err
		}
		if err := s.Tick(ctx); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(i+1, n)
		}
	}
	return s.Latest(), nil
}

func samplingLabel(done, total int) string {
	return fmt.Sprintf("Sampling %d/%d ticks", done, total)
}

func sleepFor(d time.Duration) func(context.Context) error {
	return func(ctx context.Context) error {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
}

// SnapshotReport is the JSON shape of a headless snapshot.
type SnapshotReport struct {
	Timestamp time.Time            `json:"timestamp"`
	Ticks     int                  `json:"ticks"`
	Interval  string               `json:"interval"`
	Host      HostReport           `json:"host"`
	CPU       CPUReport            `json:"cpu"`
	Memory    MemoryReport         `json:"memory"`
	GPU       GPUReport            `json:"gpu"`
	Processes ProcessesReport      `json:"processes"`
	History   map[string][]float64 `json:"history"`
}

// HostReport describes the sampled machine.
type HostReport struct {
	Hostname      string `json:"hostname,omitempty"`
	OS            string `json:"os,omitempty"`
	Platform      string `json:"platform,omitempty"`
	Kernel        string `json:"kernel,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Cores         int    `json:"cores"`
}

// CPUReport is the latest CPU reading.
type CPUReport struct {
	Overall float64   `json:"overall"`
	PerCore []float64 `json:"per_core"`
	Status  string    `json:"status"`
	Error   string    `json:"error,omitempty"`
}

// MemoryReport is the latest memory reading and its pressure class.
type MemoryReport struct {
	TotalBytes     uint64  `json:"total_bytes"`
	UsedBytes      uint64  `json:"used_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsedPercent    float64 `json:"used_percent"`
	SwapTotalBytes uint64  `json:"swap_total_bytes"`
	SwapUsedBytes  uint64  `json:"swap_used_bytes"`
	Pressure       string  `json:"pressure"`
	PressureSource string  `json:"pressure_source"`
	PressureRatio  float64 `json:"pressure_ratio"`
	Status         string  `json:"status"`
	Error          string  `json:"error,omitempty"`
}

// GPUReport is the latest GPU reading.
type GPUReport struct {
	Available bool      `json:"available"`
	Source    string    `json:"source,omitempty"`
	Name      string    `json:"name,omitempty"`
	Overall   float64   `json:"overall"`
	PerCore   []float64 `json:"per_core,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// ProcessesReport is the filtered, sorted process list.
type ProcessesReport struct {
	Total  int             `json:"total"`
	Shown  int             `json:"shown"`
	Sort   string          `json:"sort"`
	Filter string          `json:"filter,omitempty"`
	Stale  bool            `json:"stale"`
	Error  string          `json:"error,omitempty"`
	Top    []ProcessReport `json:"top"`
}

// ProcessReport is one process row.
type ProcessReport struct {
	PID                int32    `json:"pid"`
	Name               string   `json:"name"`
	User               string   `json:"user"`
	Command            string   `json:"command,omitempty"`
	CPUPercent         float64  `json:"cpu_percent"`
	MemoryBytes        uint64   `json:"memory_bytes"`
	GPUPercentEstimate float64  `json:"gpu_percent_estimate"`
	Ports              []uint16 `json:"ports,omitempty"`
}

// buildReport converts a snapshot to its JSON shape, keeping at most top
// processes (all when top is 0).
func buildReport(snap *monitor.Snapshot, ticks, top int) SnapshotReport {
	r := SnapshotReport{
		Timestamp: snap.Timestamp,
		Ticks:     ticks,
		Interval:  snap.Interval.String(),
		Host: HostReport{
			Hostname:      snap.Host.Hostname,
			OS:            snap.Host.OS,
			Platform:      snap.Host.Platform,
			Kernel:        snap.Host.Kernel,
			UptimeSeconds: int64(snap.Host.Uptime / time.Second),
			Cores:         snap.Cores,
		},
		CPU: CPUReport{
			Overall: round1(snap.CPU.Value.Overall),
			PerCore: roundAll(snap.CPU.Value.PerCore),
			Status:  snap.CPU.Status.String(),
			Error:   errString(snap.CPU.Err),
		},
		GPU: GPUReport{
			Available: snap.GPU.Value.Available,
			Source:    snap.GPU.Value.Source,
			Name:      snap.GPU.Value.Name,
			Overall:   round1(snap.GPU.Value.Overall),
			PerCore:   roundAll(snap.GPU.Value.PerCore),
			Status:    snap.GPU.Status.String(),
			Error:     errString(snap.GPU.Err),
		},
		History: make(map[string][]float64),
	}

	mem := snap.Memory.Value
	r.Memory = MemoryReport{
		TotalBytes:     mem.TotalBytes,
		UsedBytes:      mem.UsedBytes,
		AvailableBytes: mem.AvailableBytes,
		UsedPercent:    round1(mem.UsedPercent()),
		SwapTotalBytes: mem.SwapTotalBytes,
		SwapUsedBytes:  mem.SwapUsedBytes,
		Pressure:       mem.Status.Level.String(),
		PressureSource: pressureSource(mem.Status.Source),
		PressureRatio:  roundTo(mem.Status.Ratio, 3),
		Status:         snap.Memory.Status.String(),
		Error:          errString(snap.Memory.Err),
	}

	visible := snap.VisibleProcesses()
	r.Processes = ProcessesReport{
		Total: snap.Processes.Len(),
		Shown: len(visible),
		Sort:  snap.Sort.String(),
		Stale: snap.ProcessErr != nil,
		Error: errString(snap.ProcessErr),
		Top:   make([]ProcessReport, 0, len(visible)),
	}
	if snap.Filter.Enabled() {
		r.Processes.Filter = snap.Filter.Query
	}
	if top > 0 && len(visible) > top {
		visible = visible[:top]
	}
	for _, p := range visible {
		r.Processes.Top = append(r.Processes.Top, ProcessReport{
			PID:                p.PID,
			Name:               p.Name,
			User:               p.User,
			Command:            p.Command,
			CPUPercent:         round1(p.CPUPercent),
			MemoryBytes:        p.MemoryBytes,
			GPUPercentEstimate: round1(p.GPUPercentEstimate),
			Ports:              p.Ports,
		})
	}

	for _, id := range []monitor.SeriesID{monitor.SeriesCPU, monitor.SeriesMemory, monitor.SeriesGPU} {
		samples := snap.History.Samples(id)
		values := make([]float64, len(samples))
		for i, s := range samples {
			values[i] = round1(s.Value)
		}
		r.History[string(id)] = values
	}

	return r
}

// renderReportTable renders a report for humans.
func renderReportTable(r SnapshotReport) string {
	var b strings.Builder

	hostLine := r.Host.Hostname
	if r.Host.Platform != "" {
		hostLine += " · " + r.Host.Platform
	}
	ui.PrintHeader(&b, ui.HeaderInfo{
		Version: formatVersion(version),
		Tagline: fmt.Sprintf("snapshot after %d ticks of %s", r.Ticks, r.Interval),
		Host:    hostLine,
	})
	b.WriteString("\n")

	rows := []ui.SummaryRow{
		{
			Status:  metricStatus(r.CPU.Status, r.CPU.Overall),
			Section: "CPU",
			Label:   "overall",
			Value:   fmt.Sprintf("%5.1f%%  %s", r.CPU.Overall, ui.RenderPercentSparkline(r.History[string(monitor.SeriesCPU)], 30)),
			Note:    r.CPU.Error,
		},
		{
			Section: "CPU",
			Label:   "cores",
			Value:   fmt.Sprintf("%d  %s", r.Host.Cores, formatPercents(r.CPU.PerCore)),
		},
		{
			Status:  metricStatus(r.Memory.Status, r.Memory.UsedPercent),
			Section: "Memory",
			Label:   "used",
			Value: fmt.Sprintf("%s / %s (%.1f%%)  %s",
				humanize.IBytes(r.Memory.UsedBytes), humanize.IBytes(r.Memory.TotalBytes), r.Memory.UsedPercent,
				ui.RenderPercentSparkline(r.History[string(monitor.SeriesMemory)], 30)),
			Note: r.Memory.Error,
		},
		{
			Status:  pressureStatus(r.Memory.Pressure),
			Section: "Memory",
			Label:   "pressure",
			Value:   fmt.Sprintf("%s (%s)", r.Memory.Pressure, r.Memory.PressureSource),
		},
		{
			Section: "Memory",
			Label:   "swap",
			Value:   formatSwap(r.Memory.SwapUsedBytes, r.Memory.SwapTotalBytes),
		},
	}

	if r.GPU.Available {
		rows = append(rows, ui.SummaryRow{
			Status:  metricStatus(r.GPU.Status, r.GPU.Overall),
			Section: "GPU",
			Label:   r.GPU.Source,
			Value:   fmt.Sprintf("%5.1f%%  %s", r.GPU.Overall, r.GPU.Name),
			Note:    r.GPU.Error,
		})
	} else {
		note := r.GPU.Error
		if note == "" {
			note = "no GPU source reported data"
		}
		rows = append(rows, ui.SummaryRow{
			Status:  "fail",
			Section: "GPU",
			Label:   "status",
			Value:   "unavailable",
			Note:    note,
		})
	}

	procStatus := "ok"
	if r.Processes.Stale {
		procStatus = "warn"
	}
	procValue := fmt.Sprintf("%d shown / %d, sorted by %s", r.Processes.Shown, r.Processes.Total, r.Processes.Sort)
	if r.Processes.Filter != "" {
		procValue += fmt.Sprintf(", filter %q", r.Processes.Filter)
	}
	rows = append(rows, ui.SummaryRow{
		Status:  procStatus,
		Section: "Processes",
		Label:   "table",
		Value:   procValue,
		Note:    r.Processes.Error,
	})

	b.WriteString(ui.RenderSummary(rows))

	columns := []ui.TableColumn{
		{Title: "PID", Width: 7},
		{Title: "NAME", Width: 22},
		{Title: "USER", Width: 12},
		{Title: "CPU%", Width: 6},
		{Title: "MEM", Width: 10},
		{Title: "GPU%*", Width: 6},
		{Title: "PORTS", Width: 16},
	}
	procRows := make([][]string, 0, len(r.Processes.Top))
	for _, p := range r.Processes.Top {
		procRows = append(procRows, []string{
			strconv.Itoa(int(p.PID)),
			p.Name,
			p.User,
			fmt.Sprintf("%.1f", p.CPUPercent),
			humanize.IBytes(p.MemoryBytes),
			fmt.Sprintf("%.1f", p.GPUPercentEstimate),
			formatPortList(p.Ports),
		})
	}
	if table := ui.RenderSimpleTable(columns, procRows); table != "" {
		b.WriteString(table)
		b.WriteString("\n")
		b.WriteString(ui.MutedStyle().Render("* GPU% is estimated from the overall GPU load"))
		b.WriteString("\n")
	}

	return b.String()
}

// metricStatus maps a reading to a summary status: unavailable fails,
// stale warns, fresh readings follow the 60/80 thresholds.
func metricStatus(status string, percent float64) string {
	switch status {
	case monitor.StatusDegraded.String():
		return "fail"
	case monitor.StatusStale.String():
		return "warn"
	}
	switch {
	case percent >= 80:
		return "fail"
	case percent >= 60:
		return "warn"
	default:
		return "ok"
	}
}

func pressureStatus(level string) string {
	switch level {
	case monitor.PressureCritical.String():
		return "fail"
	case monitor.PressureWarning.String():
		return "warn"
	default:
		return "ok"
	}
}

func pressureSource(o monitor.PressureOrigin) string {
	if o == monitor.SourceKernel {
		return "kernel"
	}
	return "ratio"
}

func formatSwap(used, total uint64) string {
	if total == 0 {
		return "none"
	}
	return fmt.Sprintf("%s / %s", humanize.IBytes(used), humanize.IBytes(total))
}

func formatPercents(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.0f", v)
	}
	return strings.Join(parts, " ")
}

func formatPortList(ports []uint16) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = ":" + strconv.Itoa(int(p))
	}
	return strings.Join(parts, " ")
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func round1(v float64) float64 {
	return roundTo(v, 1)
}

func roundTo(v float64, places int) float64 {
	p := 1.0
	for i := 0; i < places; i++ {
		p *= 10
	}
	if v < 0 {
		return -float64(int64(-v*p+0.5)) / p
	}
	return float64(int64(v*p+0.5)) / p
}

func roundAll(values []float64) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = round1(v)
	}
	return out
}
