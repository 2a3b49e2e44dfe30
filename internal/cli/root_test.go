package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/vpsmon/internal/config"
	vperrors "github.com/rileyhilliard/vpsmon/internal/errors"
	"github.com/rileyhilliard/vpsmon/internal/monitor"
	"github.com/rileyhilliard/vpsmon/pkg/sshutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"VPS_HOST", "VPS_USER", "SSH_KEY_PATH", "VPS_PORT",
	"VPSMON_INTERVAL", "VPSMON_CONNECT_TIMEOUT", "VPSMON_EXEC_TIMEOUT",
	"VPSMON_STRICT_HOST_KEY", "VPSMON_KNOWN_HOSTS", "VPSMON_PRUNE_ENABLED",
	"VPSMON_PRUNE_COMMAND", "VPSMON_SHOW_ERRORS",
}

// unsetEnv removes the config variables for the duration of the test. The
// dotenv loader writes to the process environment, so t.Setenv alone would
// leave values behind.
func unsetEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		old, had := os.LookupEnv(key)
		require.NoError(t, os.Unsetenv(key))
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(key, old)
			} else {
				_ = os.Unsetenv(key)
			}
		})
	}
}

// newTestCommand returns a command carrying the global flags, parsed from
// args. Package globals touched by the flags are restored afterwards.
func newTestCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	unsetEnv(t)

	savedCfg, savedEnv, savedLog := cfgFile, envFile, logFile
	savedNoPrune, savedNoColor := noPrune, noColor
	savedOpts := sessionOptions
	t.Cleanup(func() {
		cfgFile, envFile, logFile = savedCfg, savedEnv, savedLog
		noPrune, noColor = savedNoPrune, savedNoColor
		sessionOptions = savedOpts
	})

	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	addGlobalFlags(cmd.Flags())
	require.NoError(t, cmd.ParseFlags(args))
	cmd.SetContext(context.Background())

	// Keep a stray .env in the working directory out of the test.
	if !cmd.Flags().Changed("env-file") {
		envFile = filepath.Join(t.TempDir(), "missing.env")
	}
	return cmd
}

func TestIsUnknownCommandError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "unknown command error",
			err:  errors.New(`unknown command "foo" for "vpsmon"`),
			want: true,
		},
		{
			name: "unknown flag error",
			err:  errors.New(`unknown flag: --foo`),
			want: true,
		},
		{
			name: "unknown shorthand",
			err:  errors.New(`unknown shorthand flag: 'z' in -z`),
			want: true,
		},
		{
			name: "other error",
			err:  errors.New("connection failed"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUnknownCommandError(tt.err))
		})
	}
}

func TestExtractUnknownCommand(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "standard cobra format",
			err:  errors.New(`unknown command "foo" for "vpsmon"`),
			want: "foo",
		},
		{
			name: "flag error has no command",
			err:  errors.New(`unknown flag: --foo`),
			want: "",
		},
		{
			name: "nil",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractUnknownCommand(tt.err))
		})
	}
}

func TestRootCommandFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()
	for _, name := range []string{
		"config", "env-file", "host", "user", "key", "port", "interval", "timeout",
		"no-prune", "show-errors", "log-file", "strict-host-key", "no-color",
	} {
		assert.NotNil(t, flags.Lookup(name), "missing --%s", name)
	}

	assert.Equal(t, config.DefaultEnvFile, flags.Lookup("env-file").DefValue)
	assert.Equal(t, "10s", flags.Lookup("interval").DefValue)
}

func TestRootCommandSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "snapshot")
	assert.Contains(t, names, "prune")
	assert.Contains(t, names, "version")
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	cmd := newTestCommand(t, "--host", "flag-host", "--interval", "30s")
	t.Setenv("VPS_HOST", "env-host")
	t.Setenv("VPS_USER", "deploy")
	t.Setenv("VPS_PORT", "2201")

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, "flag-host", cfg.Host)
	assert.Equal(t, "deploy", cfg.User)
	assert.Equal(t, 2201, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.True(t, cfg.PruneEnabled)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web.env")
	require.NoError(t, os.WriteFile(path, []byte("VPS_HOST=203.0.113.10\nVPS_USER=ops\nVPS_PORT=2200\n"), 0o600))

	cmd := newTestCommand(t, "--env-file", path)

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.10", cfg.Host)
	assert.Equal(t, "ops", cfg.User)
	assert.Equal(t, 2200, cfg.Port)
}

func TestLoadConfig_ExplicitEnvFileMissing(t *testing.T) {
	cmd := newTestCommand(t, "--env-file", filepath.Join(t.TempDir(), "nope.env"), "--host", "h")

	_, err := loadConfig(cmd)
	require.Error(t, err)
	assert.True(t, vperrors.IsCode(err, vperrors.ErrConfig))
	assert.Contains(t, err.Error(), "Env file not found")
}

func TestLoadConfig_NoPrune(t *testing.T) {
	cmd := newTestCommand(t, "--host", "h", "--no-prune")

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.False(t, cfg.PruneEnabled)
}

func TestLoadConfig_MissingHost(t *testing.T) {
	cmd := newTestCommand(t)

	_, err := loadConfig(cmd)
	require.Error(t, err)
	assert.True(t, vperrors.IsCode(err, vperrors.ErrConfig))
	assert.Contains(t, err.Error(), "VPS_HOST")
}

func TestNewSession_AppliesSessionOptions(t *testing.T) {
	newTestCommand(t)
	var dialed bool
	sessionOptions = []monitor.SessionOption{
		monitor.WithDialer(func(context.Context, sshutil.Settings) (sshutil.SSHClient, error) {
			dialed = true
			return nil, errors.New("refused")
		}),
	}

	s := newSession(config.Config{Host: "h", ConnectTimeout: time.Second})
	err := s.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, dialed)
	assert.True(t, vperrors.IsCode(err, vperrors.ErrSSH))
}

func TestReportedError(t *testing.T) {
	assert.NoError(t, reportedError(nil))

	code, ok := vperrors.GetExitCode(reportedError(errors.New("boom")))
	assert.True(t, ok)
	assert.Equal(t, 1, code)

	code, ok = vperrors.GetExitCode(reportedError(vperrors.NewExitError(3)))
	assert.True(t, ok)
	assert.Equal(t, 3, code)

	code, ok = vperrors.GetExitCode(reportedError(vperrors.New(vperrors.ErrConfig, "VPS_HOST is not set", "")))
	assert.True(t, ok)
	assert.Equal(t, 2, code)
}

func TestDashboardError(t *testing.T) {
	assert.NoError(t, dashboardError(nil))

	connectErr := vperrors.New(vperrors.ErrSSH, "Can't reach 'vps' at vps:2222", "")
	err := dashboardError(connectErr)
	code, ok := vperrors.GetExitCode(err)
	assert.True(t, ok, "connect failure was already shown by the dashboard")
	assert.Equal(t, 1, code)

	other := errors.New("terminal gone")
	assert.Same(t, other, dashboardError(other))
}
