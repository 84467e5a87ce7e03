package cli

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/oversee/internal/config"
	"github.com/rileyhilliard/oversee/internal/errors"
	"github.com/rileyhilliard/oversee/internal/logger"
	"github.com/rileyhilliard/oversee/internal/monitor"
	"github.com/rileyhilliard/oversee/internal/monitor/dashboard"
	"golang.org/x/term"
)

// dashboardCommand starts the TUI. Sampling runs in a background goroutine
// while the Bubble Tea program owns the terminal.
func dashboardCommand(ctx context.Context, explicit string, flags MonitorFlags) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New(errors.ErrTerminal,
			"The dashboard needs an interactive terminal",
			"For scripts and pipes use 'oversee snapshot', which prints JSON.")
	}

	s, err := loadSettings(explicit, flags)
	if err != nil {
		return err
	}

	log, closer, err := openLog(s.cfg)
	if err != nil {
		return err
	}
	defer closer.Close()
	if s.path != "" {
		log.Info("config loaded from %s", s.path)
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

	model := dashboard.NewModel(coord, dashboard.Options{
		FrameRate: s.cfg.RenderRate(),
		ShowGPU:   s.cfg.GPU.Enabled,
	})

	program := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		if err := coord.Run(ctx); err != nil {
			log.Error("sampling stopped: %v", err)
			program.Send(dashboard.FatalMsg{Err: err})
		}
	}()

	final, err := program.Run()
	cancel()
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrTerminal,
			"The dashboard exited unexpectedly",
			"Check the log at "+logPath(s.cfg))
	}

	if m, ok := final.(dashboard.Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

// openLog opens the configured log file. The dashboard owns stdout and
// stderr, so logs never go there.
func openLog(cfg *config.Config) (logger.Logger, io.Closer, error) {
	path := logPath(cfg)
	log, closer, err := logger.NewFileLogger(path, "[oversee]", cfg.Log.Debug)
	if err != nil {
		return nil, nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Can't open the log file "+path,
			"Set log.file in your .oversee.yaml to a writable path")
	}
	logger.SetDefault(log)
	return log, closer, nil
}

func logPath(cfg *config.Config) string {
	if cfg.Log.File != "" {
		return cfg.Log.File
	}
	return logger.DefaultLogPath()
}
