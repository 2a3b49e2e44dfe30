package monitor

import (
	"context"
	"sync/atomic"
)

// Maintenance sends the cleanup command to the host. At most one dispatch
// is outstanding at a time.
type Maintenance struct {
	remote   Dispatcher
	command  string
	inFlight atomic.Bool
}

// NewMaintenance creates a trigger for command.
func NewMaintenance(remote Dispatcher, command string) *Maintenance {
	return &Maintenance{remote: remote, command: command}
}

// Command returns the remote command that Trigger sends.
func (m *Maintenance) Command() string {
	return m.command
}

// InFlight reports whether a dispatch is in progress.
func (m *Maintenance) InFlight() bool {
	return m.inFlight.Load()
}

// Trigger dispatches the command. It returns dispatched=false without doing
// anything when a previous call hasn't returned yet. A nil error only means
// the host accepted the command, not that it succeeded.
func (m *Maintenance) Trigger(ctx context.Context) (dispatched bool, err error) {
	if !m.inFlight.CompareAndSwap(false, true) {
		return false, nil
	}
	defer m.inFlight.Store(false)

	return true, m.remote.FireAndForget(ctx, m.command)
}
