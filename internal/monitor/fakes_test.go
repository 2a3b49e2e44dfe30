package monitor

import (
	"context"
	"sync"
)

// fakeRemote answers RunBatch from a queue of replies.
type fakeRemote struct {
	mu         sync.Mutex
	connectErr error
	connects   int
	replies    []fakeReply
	batches    [][]string
	fired      []string
	fireErr    error

	// fireGate, when set, blocks FireAndForget until it is closed.
	fireGate chan struct{}
	// batchGate, when set, blocks RunBatch until it is closed.
	batchGate chan struct{}

	active    int
	maxActive int
}

type fakeReply struct {
	out string
	err error
}

func (f *fakeRemote) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return f.connectErr
}

func (f *fakeRemote) RunBatch(ctx context.Context, cmds []string) (string, error) {
	f.mu.Lock()
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	gate := f.batchGate
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, cmds)
	if len(f.replies) == 0 {
		return "", nil
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return r.out, r.err
}

func (f *fakeRemote) FireAndForget(_ context.Context, cmd string) error {
	f.mu.Lock()
	gate := f.fireGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fired = append(f.fired, cmd)
	return f.fireErr
}

func (f *fakeRemote) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *fakeRemote) firedCommands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fired...)
}

// recordingSink keeps every Result and signals each one on a channel.
type recordingSink struct {
	mu      sync.Mutex
	results []Result
	ch      chan Result
}

func newRecordingSink() *recordingSink {
	return &recordingSink{ch: make(chan Result, 64)}
}

func (s *recordingSink) Render(r Result) {
	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()
	select {
	case s.ch <- r:
	default:
	}
}

func (s *recordingSink) all() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.results...)
}
