package monitor

import (
	"context"
	stderrors "errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/vpsmon/internal/config"
)

// RunOptions configures RunDashboard.
type RunOptions struct {
	// ProgramOptions are passed to tea.NewProgram after the defaults.
	ProgramOptions []tea.ProgramOption

	// PollerOptions are passed to NewPoller after the interval.
	PollerOptions []PollerOption
}

// RunDashboard runs the poller in the background and the TUI in the
// foreground until the user quits. It returns the connect error if the
// session could not be established.
func RunDashboard(ctx context.Context, cfg config.Config, session *Session, opts RunOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	poller := NewPoller(session, nil, append([]PollerOption{WithInterval(cfg.Interval)}, opts.PollerOptions...)...)

	var maint *Maintenance
	if cfg.PruneEnabled && cfg.PruneCommand != "" {
		maint = NewMaintenance(session, cfg.PruneCommand)
	}

	model := NewModel(ModelOptions{
		Host:        cfg.Host,
		ShowErrors:  cfg.ShowErrors,
		Maintenance: maint,
		Refresher:   poller,
		Context:     ctx,
	})

	programOpts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts.ProgramOptions...)
	program := tea.NewProgram(model, programOpts...)
	poller.SetSink(NewBridge(program))

	pollErr := make(chan error, 1)
	go func() {
		pollErr <- poller.Run(ctx)
	}()

	_, runErr := program.Run()
	cancel()
	err := <-pollErr

	if runErr != nil && !stderrors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return err
}
