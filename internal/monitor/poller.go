package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/vpsmon/internal/errors"
	"github.com/rileyhilliard/vpsmon/internal/logger"
)

// Dispatcher sends a command without waiting for its result.
type Dispatcher interface {
	FireAndForget(ctx context.Context, cmd string) error
}

// Remote is what the poller needs from a Session.
type Remote interface {
	Dispatcher
	Connect(ctx context.Context) error
	RunBatch(ctx context.Context, cmds []string) (string, error)
}

var _ Remote = (*Session)(nil)

// Result is the outcome of one poll cycle, or of connecting.
//
// On success Snapshot is fresh and Err is nil. On failure Snapshot is the
// last good one (all defaults before the first success) and Fresh is false.
// Fatal marks a connection failure: no further results will follow.
type Result struct {
	Snapshot Snapshot
	Fresh    bool
	Err      error
	Fatal    bool
	At       time.Time
}

// Sink receives every Result. Render is called from the poller's goroutine
// and must not block for long.
type Sink interface {
	Render(Result)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Result)

// Render calls f(r).
func (f SinkFunc) Render(r Result) { f(r) }

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the time between cycles.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithProbes replaces the default probes.
func WithProbes(probes ...Probe) PollerOption {
	return func(p *Poller) { p.probes = probes }
}

// WithLogger sets the poller's logger.
func WithLogger(l logger.Logger) PollerOption {
	return func(p *Poller) { p.log = l }
}

// WithClock overrides time.Now for result timestamps.
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) { p.now = now }
}

// Poller owns the authoritative Snapshot. It runs one cycle at a time and
// hands the sink copies, never the snapshot it keeps.
type Poller struct {
	remote   Remote
	sink     Sink
	probes   []Probe
	interval time.Duration
	log      logger.Logger
	now      func() time.Time

	cycle   sync.Mutex
	refresh chan struct{}

	mu      sync.RWMutex
	last    Snapshot
	hasLast bool
}

// NewPoller creates a poller. A nil sink discards results.
func NewPoller(remote Remote, sink Sink, opts ...PollerOption) *Poller {
	if sink == nil {
		sink = SinkFunc(func(Result) {})
	}
	p := &Poller{
		remote:   remote,
		sink:     sink,
		probes:   DefaultProbes(),
		interval: 10 * time.Second,
		log:      logger.Default(),
		now:      time.Now,
		refresh:  make(chan struct{}, 1),
		last:     NewSnapshot(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the time between cycles.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Last returns the last good snapshot and whether there is one.
func (p *Poller) Last() (Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last.Clone(), p.hasLast
}

// Poll runs one cycle, renders the result and returns it. The stored
// snapshot only changes on success.
func (p *Poller) Poll(ctx context.Context) Result {
	p.cycle.Lock()
	defer p.cycle.Unlock()

	raw, err := p.remote.RunBatch(ctx, Commands(p.probes))
	at := p.now()

	if err != nil {
		last, _ := p.Last()
		res := Result{Snapshot: last, Err: err, At: at}
		if ctx.Err() != nil {
			// Shutting down; nobody is looking.
			return res
		}
		p.log.Debug("poll failed: %s", errors.Short(err))
		p.sink.Render(res)
		return res
	}

	snap := Parse(raw, p.probes)
	snap.CollectedAt = at

	p.mu.Lock()
	p.last = snap
	p.hasLast = true
	p.mu.Unlock()

	res := Result{Snapshot: snap.Clone(), Fresh: true, At: at}
	p.sink.Render(res)
	return res
}

// Refresh asks Run for an immediate cycle. Requests made while a cycle is
// pending collapse into one.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Run connects, polls immediately and then every interval until ctx is
// done. A connect failure is rendered as a fatal Result and returned;
// polling never starts. Cancelling ctx returns nil.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.remote.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		p.log.Error("connect failed: %s", errors.Short(err))
		p.sink.Render(Result{Err: err, Fatal: true, At: p.now()})
		return err
	}

	p.Poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Poll(ctx)
		case <-p.refresh:
			p.Poll(ctx)
			ticker.Reset(p.interval)
		}
	}
}

// SetSink replaces the sink. Call it before Run.
func (p *Poller) SetSink(sink Sink) {
	if sink == nil {
		sink = SinkFunc(func(Result) {})
	}
	p.sink = sink
}
