// Package ui provides styled terminal output for oversee's non-dashboard
// commands: the init wizard, snapshot summaries and warnings.
//
// The full-screen dashboard has its own styles in internal/monitor/dashboard;
// this package covers line-oriented output that scrolls with the shell.
//
// # Components
//
//	Spinner       - Animated status line for probes and warm-up waits
//	PrintHeader   - Branded title block with version and host line
//	PrintWarning  - Amber warning line for non-fatal problems
//	RenderSummary - Grouped status rows (used by snapshot --format table)
//	NewTable      - Bubbles table with the default palette
//	Sparkline     - One-line history of a series
//
// # Spinner Usage
//
//	s := ui.NewSpinnerTo(os.Stderr, "Probing nvidia-smi")
//	s.Start()
//	// ... do work ...
//	s.SetDetail("executable not found")
//	s.Fail() // or s.Success() or s.Skip()
//
// Use DisableColors() to switch to monochrome output (for --no-color).
package ui
