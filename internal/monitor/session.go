package monitor

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rileyhilliard/vpsmon/internal/config"
	"github.com/rileyhilliard/vpsmon/internal/errors"
	"github.com/rileyhilliard/vpsmon/internal/logger"
	"github.com/rileyhilliard/vpsmon/pkg/sshutil"
)

// Dialer opens an SSH connection. Tests swap in sshutil/testing.Dialer.
type Dialer func(ctx context.Context, s sshutil.Settings) (sshutil.SSHClient, error)

func dialSSH(ctx context.Context, s sshutil.Settings) (sshutil.SSHClient, error) {
	client, err := sshutil.Dial(ctx, s)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDialer replaces the SSH dialer.
func WithDialer(d Dialer) SessionOption {
	return func(s *Session) { s.dial = d }
}

// WithSessionLogger sets the logger used for connection events.
func WithSessionLogger(l logger.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// Session owns the single SSH connection to the monitored host. Remote
// operations are serialised: only one exec is in flight at a time.
type Session struct {
	cfg  config.Config
	dial Dialer
	log  logger.Logger

	mu     sync.Mutex
	client sshutil.SSHClient
}

// NewSession creates a Session for cfg. Nothing is dialed until Connect.
func NewSession(cfg config.Config, opts ...SessionOption) *Session {
	s := &Session{
		cfg:  cfg,
		dial: dialSSH,
		log:  logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings returns the transport settings derived from the config.
func (s *Session) Settings() sshutil.Settings {
	port := ""
	if s.cfg.Port > 0 {
		port = strconv.Itoa(s.cfg.Port)
	}
	return sshutil.Settings{
		Host:                  s.cfg.Host,
		Port:                  port,
		FallbackPort:          strconv.Itoa(config.DefaultPort),
		User:                  s.cfg.User,
		KeyPath:               s.cfg.KeyPath,
		Timeout:               s.cfg.ConnectTimeout,
		StrictHostKeyChecking: s.cfg.StrictHostKey,
		KnownHostsPath:        s.cfg.KnownHosts,
	}
}

// Host returns the configured host.
func (s *Session) Host() string {
	return s.cfg.Host
}

// Connect dials the host once. Further calls are no-ops while connected.
// Errors are ErrSSH and mean the session is unusable.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return nil
	}

	if s.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ConnectTimeout)
		defer cancel()
	}

	settings := s.Settings()
	s.log.Debug("connecting to %s as %q", settings.Host, settings.User)

	client, err := s.dial(ctx, settings)
	if err != nil {
		if errors.IsCode(err, errors.ErrSSH) {
			return err
		}
		return errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't connect to %s", s.cfg.Host),
			"Check VPS_HOST, VPS_PORT, VPS_USER and SSH_KEY_PATH.")
	}

	s.client = client
	s.log.Info("connected to %s", client.GetAddress())
	return nil
}

// Connected reports whether Connect has succeeded and Close hasn't been called.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

// RunBatch runs cmds as one batched remote exec and returns its stdout.
// There is no deadline unless ExecTimeout is set.
func (s *Session) RunBatch(ctx context.Context, cmds []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return "", errors.New(errors.ErrExec,
			"Not connected",
			"Connect before polling.")
	}

	if s.cfg.ExecTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ExecTimeout)
		defer cancel()
	}

	out, err := s.client.Output(ctx, BuildBatchCommand(cmds))
	if err != nil {
		return "", asExecError(err, "Poll command failed")
	}
	return string(out), nil
}

// FireAndForget starts cmd and returns once the remote side accepted it.
// Output and exit status are never collected.
func (s *Session) FireAndForget(ctx context.Context, cmd string) error {
	if err := ctx.Err(); err != nil {
		return errors.WrapWithCode(err, errors.ErrExec, "Command not sent", "")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return errors.New(errors.ErrExec,
			"Not connected",
			"Connect before sending commands.")
	}

	if err := s.client.Start(cmd); err != nil {
		return asExecError(err, "Couldn't start remote command")
	}
	s.log.Debug("dispatched %q", cmd)
	return nil
}

// Close closes the connection. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

func asExecError(err error, message string) error {
	if errors.IsCode(err, errors.ErrExec) {
		return err
	}
	return errors.WrapWithCode(err, errors.ErrExec, message, "The next cycle will try again.")
}
