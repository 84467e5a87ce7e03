package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rileyhilliard/oversee/internal/ui"
	"github.com/spf13/cobra"
)

var dashboardFlags MonitorFlags

// rootCmd starts the dashboard when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "oversee",
	Short: "Real-time CPU, GPU, memory and process dashboard",
	Long: `oversee shows live CPU, GPU and memory timelines with a sortable,
filterable process table for the local machine.

Keyboard shortcuts:
  q / Ctrl+C  Quit
  space       Pause or resume sampling
  s           Cycle sort order (cpu/memory/name/pid)
  /           Filter processes (Enter applies, Esc clears)
  t           Cycle timeline scope
  - / +       Scroll the timeline back or forward
  v           Toggle the GPU panel
  up/k down/j Select a process
  Enter       Pin or unpin the selected process
  K           Terminate the selected process (asks first)
  ?           Show help

Examples:
  oversee
  oversee --sort memory --scope 5m
  oversee --filter postgres --no-gpu`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColorFlag || os.Getenv("NO_COLOR") != "" {
			ui.DisableColors()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(cmd.Context(), configFlag, dashboardFlags)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default: ./.oversee.yaml, then ~/.config/oversee/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")
	AddMonitorFlags(rootCmd, &dashboardFlags)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err == nil {
		return
	}

	if MachineMode() {
		WriteJSONFromError(os.Stdout, err)
		os.Exit(1)
	}

	if isUnknownCommandError(err) {
		fmt.Fprintf(os.Stderr, "%s %s\n", ui.ErrorStyle().Render(ui.SymbolFail), err.Error())
		if name := extractUnknownCommand(err); name != "" {
			fmt.Fprintf(os.Stderr, "\n  '%s' isn't an oversee command. Run 'oversee --help' to see what is.\n", name)
		}
		os.Exit(1)
	}

	fmt.Fprint(os.Stderr, err.Error())
	os.Exit(1)
}

// isUnknownCommandError reports whether cobra rejected the command line.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unknown command") || strings.Contains(msg, "unknown flag") ||
		strings.Contains(msg, "unknown shorthand flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "oversee"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start == -1 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end == -1 {
		return ""
	}
	return msg[start+1 : start+1+end]
}
