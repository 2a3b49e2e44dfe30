package monitor

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/vpsmon/internal/config"
	"github.com/rileyhilliard/vpsmon/internal/errors"
	"github.com/rileyhilliard/vpsmon/internal/logger"
	"github.com/rileyhilliard/vpsmon/pkg/sshutil"
	sshtesting "github.com/rileyhilliard/vpsmon/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	cfg := *config.DefaultConfig()
	cfg.Host = "vps.example.com"
	cfg.User = "deploy"
	cfg.KeyPath = "/keys/id_ed25519"
	return cfg
}

func connectedSession(t *testing.T, cfg config.Config) (*Session, *sshtesting.MockClient) {
	t.Helper()
	client := sshtesting.NewMockClient(cfg.Host)
	dial, _ := sshtesting.Dialer(client, nil)
	s := NewSession(cfg, WithDialer(dial), WithSessionLogger(logger.Noop()))
	require.NoError(t, s.Connect(context.Background()))
	return s, client
}

func TestSession_Settings(t *testing.T) {
	cfg := testConfig()
	cfg.StrictHostKey = true
	cfg.KnownHosts = "/tmp/known_hosts"

	s := NewSession(cfg).Settings()

	assert.Equal(t, "vps.example.com", s.Host)
	assert.Empty(t, s.Port, "unset port is left to ssh_config")
	assert.Equal(t, "2222", s.FallbackPort)
	assert.Equal(t, "deploy", s.User)
	assert.Equal(t, "/keys/id_ed25519", s.KeyPath)
	assert.Equal(t, config.DefaultConnectTimeout, s.Timeout)
	assert.True(t, s.StrictHostKeyChecking)
	assert.Equal(t, "/tmp/known_hosts", s.KnownHostsPath)

	cfg.Port = 22
	assert.Equal(t, "22", NewSession(cfg).Settings().Port)
}

func TestSession_SettingsResolveDefaultPort(t *testing.T) {
	cfg := testConfig()
	cfg.Port = 0

	s := sshutil.ResolveSettingsFromFile(filepath.Join(t.TempDir(), "ssh_config"), NewSession(cfg).Settings())

	assert.Equal(t, "2222", s.Port)
	assert.Equal(t, "vps.example.com", s.Hostname)
	assert.Equal(t, "deploy", s.User)
}

func TestSession_ConnectOnce(t *testing.T) {
	client := sshtesting.NewMockClient("vps.example.com")
	dial, seen := sshtesting.Dialer(client, nil)
	s := NewSession(testConfig(), WithDialer(dial), WithSessionLogger(logger.Noop()))

	assert.False(t, s.Connected())
	require.NoError(t, s.Connect(context.Background()))
	require.NoError(t, s.Connect(context.Background()))

	assert.True(t, s.Connected())
	assert.Len(t, *seen, 1)
}

func TestSession_ConnectFailure(t *testing.T) {
	t.Run("plain error becomes SSH error", func(t *testing.T) {
		dial, _ := sshtesting.Dialer(nil, stderrors.New("connection refused"))
		s := NewSession(testConfig(), WithDialer(dial), WithSessionLogger(logger.Noop()))

		err := s.Connect(context.Background())
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrSSH))
		assert.Contains(t, err.Error(), "vps.example.com")
		assert.False(t, s.Connected())
	})

	t.Run("structured error kept", func(t *testing.T) {
		orig := errors.New(errors.ErrSSH, "Private key not found", "Check SSH_KEY_PATH")
		dial, _ := sshtesting.Dialer(nil, orig)
		s := NewSession(testConfig(), WithDialer(dial), WithSessionLogger(logger.Noop()))

		err := s.Connect(context.Background())
		assert.Same(t, orig, err)
	})
}

func TestSession_ConnectTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.ConnectTimeout = 20 * time.Millisecond

	var deadline time.Time
	var hasDeadline bool
	s := NewSession(cfg, WithSessionLogger(logger.Noop()), WithDialer(func(ctx context.Context, _ sshutil.Settings) (sshutil.SSHClient, error) {
		deadline, hasDeadline = ctx.Deadline()
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	err := s.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrSSH))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now(), deadline, time.Second)
}

func TestSession_RunBatch(t *testing.T) {
	cfg := testConfig()
	s, client := connectedSession(t, cfg)
	client.Default = sshtesting.CommandResponse{Stdout: []byte("---\nhost1\n")}

	out, err := s.RunBatch(context.Background(), []string{"hostname"})
	require.NoError(t, err)
	assert.Equal(t, "---\nhost1\n", out)
	assert.Equal(t, []string{"echo '---'; hostname"}, client.Calls())
}

func TestSession_RunBatchErrors(t *testing.T) {
	t.Run("not connected", func(t *testing.T) {
		s := NewSession(testConfig(), WithSessionLogger(logger.Noop()))
		_, err := s.RunBatch(context.Background(), []string{"hostname"})
		assert.True(t, errors.IsCode(err, errors.ErrExec))
	})

	t.Run("remote error", func(t *testing.T) {
		s, client := connectedSession(t, testConfig())
		client.Default = sshtesting.CommandResponse{Error: stderrors.New("channel closed")}

		_, err := s.RunBatch(context.Background(), []string{"hostname"})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrExec))
		assert.Contains(t, err.Error(), "channel closed")
	})

	t.Run("exec timeout", func(t *testing.T) {
		cfg := testConfig()
		cfg.ExecTimeout = 20 * time.Millisecond
		s, client := connectedSession(t, cfg)
		client.Gate = make(chan struct{})

		_, err := s.RunBatch(context.Background(), []string{"hostname"})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrExec))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestSession_NoExecTimeoutByDefault(t *testing.T) {
	s, client := connectedSession(t, testConfig())
	client.Gate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := s.RunBatch(context.Background(), []string{"hostname"})
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("RunBatch returned before the remote answered")
	case <-time.After(50 * time.Millisecond):
	}

	close(client.Gate)
	assert.NoError(t, <-done)
}

func TestSession_FireAndForget(t *testing.T) {
	s, client := connectedSession(t, testConfig())

	require.NoError(t, s.FireAndForget(context.Background(), config.DefaultPruneCommand))
	assert.Equal(t, []string{config.DefaultPruneCommand}, client.Started())

	client.Default = sshtesting.CommandResponse{Error: stderrors.New("no channel")}
	err := s.FireAndForget(context.Background(), "docker system df")
	assert.True(t, errors.IsCode(err, errors.ErrExec))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.FireAndForget(ctx, "true")
	assert.True(t, errors.IsCode(err, errors.ErrExec))
}

func TestSession_FireAndForgetNotConnected(t *testing.T) {
	s := NewSession(testConfig(), WithSessionLogger(logger.Noop()))
	err := s.FireAndForget(context.Background(), "true")
	assert.True(t, errors.IsCode(err, errors.ErrExec))
}

func TestSession_Close(t *testing.T) {
	s, client := connectedSession(t, testConfig())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, client.Closed())
	assert.False(t, s.Connected())

	_, err := s.RunBatch(context.Background(), []string{"hostname"})
	assert.True(t, errors.IsCode(err, errors.ErrExec))
}
