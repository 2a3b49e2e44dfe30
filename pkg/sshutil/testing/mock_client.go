// Package testing provides an in-memory SSHClient for tests that exercise
// code above the transport without a real server.
package testing

import (
	"context"
	"errors"
	"regexp"
	"sync"

	"github.com/rileyhilliard/vpsmon/pkg/sshutil"
)

// ErrClosed is returned by every method after Close.
var ErrClosed = errors.New("connection closed")

// CommandResponse defines a canned response for a specific command pattern.
type CommandResponse struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Error    error
}

// MockClient simulates an SSH connection. Commands are answered from canned
// responses: exact matches first, then regex patterns, then Default.
type MockClient struct {
	mu       sync.Mutex
	host     string
	address  string
	closed   bool
	commands map[string]CommandResponse
	calls    []string
	started  []string

	// Default answers commands that match nothing.
	Default CommandResponse

	// Gate, when non-nil, makes Output and Start block until it is closed or
	// receives a value, or until ctx is done. Used to simulate slow remotes.
	Gate chan struct{}
}

var _ sshutil.SSHClient = (*MockClient)(nil)

// NewMockClient creates a new mock SSH client.
func NewMockClient(host string) *MockClient {
	return &MockClient{
		host:     host,
		address:  host + ":22",
		commands: make(map[string]CommandResponse),
	}
}

// SetCommandResponse registers a canned response for a command pattern.
// The pattern can be an exact string or a regex pattern.
func (m *MockClient) SetCommandResponse(pattern string, resp CommandResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands[pattern] = resp
}

// Exec returns the canned response for cmd.
func (m *MockClient) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, nil, -1, ErrClosed
	}
	m.calls = append(m.calls, cmd)
	resp := m.lookup(cmd)
	if resp.Error != nil {
		return nil, nil, -1, resp.Error
	}
	return resp.Stdout, resp.Stderr, resp.ExitCode, nil
}

// Output returns the canned stdout for cmd.
func (m *MockClient) Output(ctx context.Context, cmd string) ([]byte, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	m.calls = append(m.calls, cmd)
	resp := m.lookup(cmd)
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Stdout, nil
}

// Start records cmd as started. Only the canned Error is used.
func (m *MockClient) Start(cmd string) error {
	if err := m.wait(context.Background()); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.calls = append(m.calls, cmd)
	resp := m.lookup(cmd)
	if resp.Error != nil {
		return resp.Error
	}
	m.started = append(m.started, cmd)
	return nil
}

// Close marks the connection as closed.
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// GetHost returns the host name.
func (m *MockClient) GetHost() string {
	return m.host
}

// GetAddress returns the host:port address.
func (m *MockClient) GetAddress() string {
	return m.address
}

// Calls returns every command passed to Exec, Output or Start, in order.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Started returns the commands successfully launched with Start.
func (m *MockClient) Started() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.started))
	copy(out, m.started)
	return out
}

func (m *MockClient) wait(ctx context.Context) error {
	m.mu.Lock()
	gate := m.Gate
	m.mu.Unlock()

	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// lookup must be called with m.mu held.
func (m *MockClient) lookup(cmd string) CommandResponse {
	if resp, ok := m.commands[cmd]; ok {
		return resp
	}
	for pattern, resp := range m.commands {
		if matched, _ := regexp.MatchString(pattern, cmd); matched {
			return resp
		}
	}
	return m.Default
}
