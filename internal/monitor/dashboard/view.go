package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/oversee/internal/monitor"
)

// Layout defaults used before the first WindowSizeMsg.
const (
	defaultWidth   = 100
	defaultHeight  = 40
	timelineHeight = 4
	minTableRows   = 5
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	width, height := m.size()

	sections := []string{m.renderHeader(width)}
	sections = append(sections, m.renderCPU(width))
	if m.showGPU {
		sections = append(sections, m.renderGPU(width))
	}
	sections = append(sections, m.renderMemory(width))

	used := 0
	for _, s := range sections {
		used += lipgloss.Height(s)
	}
	// footer line plus table header and borders
	rows := height - used - 4
	if rows < minTableRows {
		rows = minTableRows
	}
	sections = append(sections, m.renderProcesses(width, rows))
	sections = append(sections, m.renderFooter(width))

	return strings.Join(sections, "\n")
}

func (m Model) size() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

// renderHeader renders the title line with host and view settings.
func (m Model) renderHeader(width int) string {
	s := m.snap
	title := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render("oversee")

	parts := []string{}
	if s.Host.Hostname != "" {
		parts = append(parts, s.Host.Hostname)
	}
	if s.Host.Uptime > 0 {
		parts = append(parts, "up "+formatUptime(s.Host.Uptime))
	}
	parts = append(parts,
		fmt.Sprintf("%d cores", s.Cores),
		"sort "+s.Sort.String(),
		"scope "+formatDuration(s.Scope),
	)
	if m.offset > 0 {
		parts = append(parts, "-"+formatDuration(m.offset))
	}
	stats := LabelStyle.Render(" | " + strings.Join(parts, " | "))

	line := title + stats
	if s.Paused {
		line += " " + PausedStyle.Render("PAUSED")
	}
	return HeaderStyle.MaxWidth(width).Render(line)
}

// timeline renders the history of id over the current scope and offset.
func (m Model) timeline(id monitor.SeriesID, width int) []string {
	inner := width - 4
	if inner < 1 {
		inner = 1
	}
	var points []float64
	if all := m.snap.History.Samples(id); len(all) > 0 {
		end := all[len(all)-1].Timestamp.Add(-m.offset)
		window := m.snap.Window(id, m.snap.Scope, m.offset)
		points = timelinePoints(window, m.snap.Scope, end, inner*2)
	}
	return strings.Split(RenderBrailleTimeline(points, inner, timelineHeight), "\n")
}

// renderCPU renders the CPU timeline and a compact per-core grid.
func (m Model) renderCPU(width int) string {
	cpu := m.snap.CPU
	value := fmt.Sprintf("%.1f%%", cpu.Value.Overall)
	if cpu.Status != monitor.StatusOK {
		value += " " + StatusStyle(cpu.Status).Render(cpu.Status.String())
	}

	lines := []string{SectionHeader("CPU", value, width)}
	for _, l := range m.timeline(monitor.SeriesCPU, width) {
		lines = append(lines, SectionContentLine(l, width))
	}
	for _, l := range coreGrid(cpu.Value.PerCore, width-4) {
		lines = append(lines, SectionContentLine(l, width))
	}
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

// coreGrid lays out per-core bars in as many columns as fit.
func coreGrid(perCore []float64, width int) []string {
	if len(perCore) == 0 {
		return nil
	}
	const cellWidth = 18
	cols := width / cellWidth
	if cols < 1 {
		cols = 1
	}

	var lines []string
	var line strings.Builder
	for i, v := range perCore {
		label := LabelStyle.Render(fmt.Sprintf("%3d ", i))
		cell := label + ThinProgressBar(8, v) + MetricStyle(v).Render(fmt.Sprintf(" %3.0f%%", v)) + " "
		line.WriteString(cell)
		if (i+1)%cols == 0 {
			lines = append(lines, line.String())
			line.Reset()
		}
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// renderGPU renders the GPU panel, or a placeholder when no source works.
func (m Model) renderGPU(width int) string {
	gpu := m.snap.GPU
	if !gpu.Value.Available {
		return strings.Join([]string{
			SectionHeader("GPU", StatusStyle(monitor.StatusDegraded).Render("unavailable"), width),
			SectionContentLine(MutedStyle.Render(gpuUnavailableReason(gpu.Err)), width),
			SectionFooter(width),
		}, "\n")
	}

	value := fmt.Sprintf("%.1f%%", gpu.Value.Overall)
	if gpu.Status == monitor.StatusStale {
		value += " " + StatusStyle(gpu.Status).Render("stale")
	}
	title := "GPU"
	if gpu.Value.Name != "" {
		title += " " + gpu.Value.Name
	}

	lines := []string{SectionHeader(title, value, width)}
	for _, l := range m.timeline(monitor.SeriesGPU, width) {
		lines = append(lines, SectionContentLine(l, width))
	}
	if len(gpu.Value.PerCore) > 1 {
		for _, l := range coreGrid(gpu.Value.PerCore, width-4) {
			lines = append(lines, SectionContentLine(l, width))
		}
	}
	lines = append(lines, SectionContentLine(MutedStyle.Render("source: "+gpu.Value.Source), width))
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

func gpuUnavailableReason(err error) string {
	if err == nil {
		return "no GPU source reported data yet"
	}
	return err.Error()
}

// renderMemory renders usage, swap and the pressure level.
func (m Model) renderMemory(width int) string {
	mem := m.snap.Memory
	used := mem.Value.UsedPercent()
	value := fmt.Sprintf("%.1f%%", used)
	if mem.Status != monitor.StatusOK {
		value += " " + StatusStyle(mem.Status).Render(mem.Status.String())
	}

	barWidth := width - 40
	if barWidth < 10 {
		barWidth = 10
	}
	usage := RenderGradientBar(barWidth, used) + " " +
		ValueStyle.Render(fmt.Sprintf("%s / %s", formatBytes(mem.Value.UsedBytes), formatBytes(mem.Value.TotalBytes)))

	swap := LabelStyle.Render("swap ") + MutedStyle.Render("none")
	if mem.Value.SwapTotalBytes > 0 {
		swap = LabelStyle.Render("swap ") + ThinProgressBar(12, mem.Value.SwapPercent()) +
			ValueStyle.Render(fmt.Sprintf(" %s / %s", formatBytes(mem.Value.SwapUsedBytes), formatBytes(mem.Value.SwapTotalBytes)))
	}

	st := mem.Value.Status
	origin := "available ratio"
	if st.Source == monitor.SourceKernel {
		origin = "kernel"
	}
	pressure := LabelStyle.Render("pressure ") +
		lipgloss.NewStyle().Foreground(PressureColor(st.Level)).Bold(true).Render(st.Level.String()) +
		MutedStyle.Render(fmt.Sprintf(" (%s, %.0f%% available)", origin, st.Ratio*100))

	spark := RenderMiniSparkline(valuesOf(m.snap.Window(monitor.SeriesMemory, m.snap.Scope, m.offset)), 20)

	lines := []string{
		SectionHeader("Memory", value, width),
		SectionContentLine(usage, width),
		SectionContentLine(swap+"   "+pressure, width),
	}
	if spark != "" {
		lines = append(lines, SectionContentLine(LabelStyle.Render("trend ")+spark, width))
	}
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

// renderProcesses renders the process table with up to rows entries,
// scrolled so the selection stays visible.
func (m Model) renderProcesses(width, rows int) string {
	s := m.snap
	value := fmt.Sprintf("%d shown / %d", len(m.rows), s.Processes.Len())
	if s.Filter.Enabled() {
		value = fmt.Sprintf("filter %q | ", s.Filter.Query) + value
	}
	if s.ProcessErr != nil {
		value += " " + StatusStyle(monitor.StatusStale).Render("stale")
	}

	inner := width - 4
	header := TableHeaderStyle.Render(fmt.Sprintf("  %7s %-10s %6s %9s %6s  %s", "PID", "USER", "CPU%", "MEM", "GPU%*", "COMMAND"))
	lines := []string{SectionHeader("Processes", value, width), SectionContentLine(header, width)}

	start := 0
	if m.selected >= rows {
		start = m.selected - rows + 1
	}
	end := start + rows
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := start; i < end; i++ {
		lines = append(lines, SectionContentLine(m.renderRow(m.rows[i], i == m.selected, inner), width))
	}
	if len(m.rows) == 0 {
		lines = append(lines, SectionContentLine(MutedStyle.Render("no matching processes"), width))
	}
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(p monitor.ProcessRecord, selected bool, width int) string {
	mark := " "
	if m.pinned[p.PID] {
		mark = PinnedMarkStyle.Render("*")
	}

	command := p.Command
	if command == "" {
		command = p.Name
	}
	if len(p.Ports) > 0 {
		command += " " + formatPorts(p.Ports)
	}

	row := fmt.Sprintf("%7d %-10s %6.1f %9s %6.1f  %s",
		p.PID, truncate(p.User, 10), p.CPUPercent, formatBytes(p.MemoryBytes), p.GPUPercentEstimate, command)
	row = truncate(row, width-2)

	if selected {
		return mark + " " + SelectedRowStyle.Render(row)
	}
	return mark + " " + MetricStyle(p.CPUPercent).Render(row)
}

// renderFooter shows the filter input, the kill prompt, or key hints.
func (m Model) renderFooter(width int) string {
	switch {
	case m.confirmKill != nil:
		return ConfirmStyle.Render(fmt.Sprintf("Send SIGTERM to %s (%d)? y to confirm, any other key cancels",
			m.confirmKill.Name, m.confirmKill.PID))
	case m.filtering:
		return m.filterInput.View()
	}

	hints := []string{"q quit", "space pause", "s sort", "/ filter", "t scope", "-/+ scroll", "K kill", "? help"}
	line := strings.Join(hints, " | ")
	if m.status != "" {
		line = StatusMessageStyle.Render(m.status) + "  " + line
	}
	return FooterStyle.MaxWidth(width).Render(line)
}

func valuesOf(samples []monitor.MetricSample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Value
	}
	return out
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// formatDuration prints whole minutes as "5m" and anything under two
// minutes as seconds.
func formatDuration(d time.Duration) string {
	switch {
	case d < 2*time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return d.Truncate(time.Second).String()
	}
}

// formatUptime prints the largest two units, e.g. "3d 4h" or "2h 15m".
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

func formatPorts(ports []uint16) string {
	const maxShown = 3
	parts := make([]string, 0, maxShown)
	for i, p := range ports {
		if i == maxShown {
			parts = append(parts, fmt.Sprintf("+%d", len(ports)-maxShown))
			break
		}
		parts = append(parts, fmt.Sprintf(":%d", p))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// truncate cuts s to n display cells, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
