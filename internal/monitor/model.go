package monitor

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// PruneStatusTTL is how long the maintenance outcome stays on screen.
const PruneStatusTTL = 3 * time.Second

const (
	defaultWidth = 60
	minBarWidth  = 10
	maxBarWidth  = 40
)

// Refresher requests an out-of-schedule poll cycle.
type Refresher interface {
	Refresh()
}

// ModelOptions configures the dashboard model.
type ModelOptions struct {
	// Host is shown while connecting and in the fatal error screen.
	Host string

	// ShowErrors puts transient poll errors in the footer. Without it the
	// last good snapshot stays on screen and failures are silent.
	ShowErrors bool

	// Maintenance enables the prune key. Nil disables it.
	Maintenance *Maintenance

	// Refresher handles the refresh key. Nil disables it.
	Refresher Refresher

	// Context bounds maintenance dispatches. Defaults to context.Background.
	Context context.Context
}

// PruneState is the maintenance line's state.
type PruneState int

const (
	PruneIdle PruneState = iota
	PruneRunning
	PruneSent
	PruneFailed
)

// Model is the Bubble Tea model for the dashboard. It only ever holds
// copies of snapshots handed over by the poller.
type Model struct {
	ctx        context.Context
	host       string
	showErrors bool

	snapshot    Snapshot
	hasSnapshot bool
	received    bool
	lastErr     error
	fatal       error

	maint     *Maintenance
	refresher Refresher
	prune     PruneState
	pruneErr  error
	pruneSeq  int

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	bar     progress.Model

	width    int
	height   int
	quitting bool
}

// resultMsg carries a poll Result into the program.
type resultMsg Result

// pruneDoneMsg reports the outcome of a maintenance dispatch.
type pruneDoneMsg struct {
	dispatched bool
	err        error
}

// clearPruneMsg hides the maintenance outcome. Stale ones are ignored.
type clearPruneMsg struct {
	seq int
}

// NewModel creates the dashboard model.
func NewModel(opts ModelOptions) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	keys := DefaultKeyMap()
	keys.Prune.SetEnabled(opts.Maintenance != nil)
	keys.Refresh.SetEnabled(opts.Refresher != nil)

	return Model{
		ctx:        ctx,
		host:       opts.Host,
		showErrors: opts.ShowErrors,
		snapshot:   NewSnapshot(),
		maint:      opts.Maintenance,
		refresher:  opts.Refresher,
		keys:       keys,
		help:       help.New(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(PendingStyle),
		),
		bar: progress.New(
			progress.WithSolidFill(string(ColorHealthy)),
			progress.WithoutPercentage(),
			progress.WithWidth(barWidth(defaultWidth)),
		),
		width: defaultWidth,
	}
}

// Init starts the connecting spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.bar.Width = barWidth(msg.Width)

	case spinner.TickMsg:
		if !m.Connecting() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resultMsg:
		m.apply(Result(msg))

	case pruneDoneMsg:
		if !msg.dispatched {
			return m, nil
		}
		m.pruneErr = msg.err
		if msg.err != nil {
			m.prune = PruneFailed
		} else {
			m.prune = PruneSent
		}
		m.pruneSeq++
		return m, clearPruneAfter(m.pruneSeq)

	case clearPruneMsg:
		if msg.seq == m.pruneSeq && m.prune != PruneRunning {
			m.prune = PruneIdle
			m.pruneErr = nil
		}
	}

	return m, nil
}

func (m *Model) apply(r Result) {
	if r.Fatal {
		m.fatal = r.Err
		return
	}
	m.received = true
	if r.Err != nil {
		m.lastErr = r.Err
		return
	}
	m.snapshot = r.Snapshot
	m.hasSnapshot = true
	m.lastErr = nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil

	case key.Matches(msg, m.keys.Refresh):
		if m.fatal == nil && m.refresher != nil {
			m.refresher.Refresh()
		}
		return nil

	case key.Matches(msg, m.keys.Prune):
		if m.fatal != nil || !m.received || m.maint == nil {
			return nil
		}
		if m.prune == PruneRunning || m.maint.InFlight() {
			return nil
		}
		m.prune = PruneRunning
		m.pruneErr = nil
		m.pruneSeq++
		return pruneCmd(m.ctx, m.maint)
	}
	return nil
}

func pruneCmd(ctx context.Context, maint *Maintenance) tea.Cmd {
	return func() tea.Msg {
		dispatched, err := maint.Trigger(ctx)
		return pruneDoneMsg{dispatched: dispatched, err: err}
	}
}

func clearPruneAfter(seq int) tea.Cmd {
	return tea.Tick(PruneStatusTTL, func(time.Time) tea.Msg {
		return clearPruneMsg{seq: seq}
	})
}

// Connecting reports whether nothing has been heard from the poller yet.
func (m Model) Connecting() bool {
	return !m.received && m.fatal == nil
}

// Snapshot returns the snapshot on screen and whether one has arrived.
func (m Model) Snapshot() (Snapshot, bool) {
	return m.snapshot.Clone(), m.hasSnapshot
}

// LastError returns the most recent transient poll error, if any.
func (m Model) LastError() error {
	return m.lastErr
}

// Fatal returns the connection error that stopped the dashboard, if any.
func (m Model) Fatal() error {
	return m.fatal
}

// Prune returns the maintenance line's state.
func (m Model) Prune() PruneState {
	return m.prune
}

func barWidth(termWidth int) int {
	w := termWidth - 24
	if w < minBarWidth {
		return minBarWidth
	}
	if w > maxBarWidth {
		return maxBarWidth
	}
	return w
}
