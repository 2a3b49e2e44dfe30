package config

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/vpsmon/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
// Missing user and key are not errors here: they may still come from
// ~/.ssh/config when the host is an alias.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return errors.New(errors.ErrConfig,
			"No host configured",
			"Set VPS_HOST in your environment or .env file, or pass --host")
	}

	if strings.ContainsAny(cfg.Host, " \t\n") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Host '%s' has whitespace in it", cfg.Host),
			"Use a bare hostname, IP address or ~/.ssh/config alias")
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Port %d is out of range", cfg.Port),
			"VPS_PORT must be between 1 and 65535")
	}

	if cfg.Interval < MinInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Poll interval %s is too short", cfg.Interval),
			fmt.Sprintf("Use at least %s (the default is %s)", MinInterval, DefaultInterval))
	}

	if cfg.ConnectTimeout <= 0 {
		return errors.New(errors.ErrConfig,
			"Connect timeout must be positive",
			fmt.Sprintf("Leave it unset to use %s", DefaultConnectTimeout))
	}

	if cfg.ExecTimeout < 0 {
		return errors.New(errors.ErrConfig,
			"Exec timeout can't be negative",
			"Use 0 to disable the timeout")
	}

	if cfg.PruneEnabled && strings.TrimSpace(cfg.PruneCommand) == "" {
		return errors.New(errors.ErrConfig,
			"Prune is enabled but the prune command is empty",
			"Set VPSMON_PRUNE_COMMAND or disable prune with --no-prune")
	}

	return nil
}

// Address returns host:port for display. Port 0 renders as the default.
func (c Config) Address() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}
