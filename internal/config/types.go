package config

import "time"

// Defaults applied when neither a file, the environment nor a flag sets a value.
const (
	// DefaultPort is used when VPS_PORT is unset and ~/.ssh/config has no Port
	// for the host.
	DefaultPort           = 2222
	DefaultInterval       = 10 * time.Second
	DefaultConnectTimeout = 5 * time.Second
	DefaultPruneCommand   = "docker image prune -f && docker volume prune -f"

	// MinInterval keeps a typo like "10ms" from hammering the remote host.
	MinInterval = time.Second
)

// Config is the resolved configuration for one monitored host. It is built
// once at startup and passed by value; nothing reads the environment after Load.
type Config struct {
	// Host is an address or an alias from ~/.ssh/config.
	Host string `yaml:"host" mapstructure:"host"`

	// User to authenticate as. Falls back to ~/.ssh/config, then $USER.
	User string `yaml:"user" mapstructure:"user"`

	// KeyPath is the private key file. ~ is expanded.
	KeyPath string `yaml:"key_path" mapstructure:"key_path"`

	// Port is the SSH port. Zero means "not set": ~/.ssh/config or DefaultPort.
	Port int `yaml:"port" mapstructure:"port"`

	// Interval between poll cycles.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// ConnectTimeout bounds the initial dial and handshake.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`

	// ExecTimeout bounds each batched exec. Zero means no timeout, so a hung
	// call delays the next cycle instead of failing it.
	ExecTimeout time.Duration `yaml:"exec_timeout" mapstructure:"exec_timeout"`

	// StrictHostKey verifies the server against KnownHosts. Off by default:
	// unknown host keys are accepted.
	StrictHostKey bool `yaml:"strict_host_key" mapstructure:"strict_host_key"`

	// KnownHosts overrides ~/.ssh/known_hosts when StrictHostKey is set.
	KnownHosts string `yaml:"known_hosts" mapstructure:"known_hosts"`

	// PruneEnabled shows the maintenance action in the dashboard.
	PruneEnabled bool `yaml:"prune_enabled" mapstructure:"prune_enabled"`

	// PruneCommand is sent fire-and-forget by the maintenance action.
	PruneCommand string `yaml:"prune_command" mapstructure:"prune_command"`

	// ShowErrors surfaces transient poll errors in the dashboard footer.
	ShowErrors bool `yaml:"show_errors" mapstructure:"show_errors"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Interval:       DefaultInterval,
		ConnectTimeout: DefaultConnectTimeout,
		PruneEnabled:   true,
		PruneCommand:   DefaultPruneCommand,
	}
}
