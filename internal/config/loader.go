package config

import (
	stderrors "errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rileyhilliard/vpsmon/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultEnvFile is read from the working directory when present.
const DefaultEnvFile = ".env"

// envBindings maps config keys to the environment variables that set them.
// The first four names are the ones existing .env files already use.
var envBindings = map[string]string{
	"host":            "VPS_HOST",
	"user":            "VPS_USER",
	"key_path":        "SSH_KEY_PATH",
	"port":            "VPS_PORT",
	"interval":        "VPSMON_INTERVAL",
	"connect_timeout": "VPSMON_CONNECT_TIMEOUT",
	"exec_timeout":    "VPSMON_EXEC_TIMEOUT",
	"strict_host_key": "VPSMON_STRICT_HOST_KEY",
	"known_hosts":     "VPSMON_KNOWN_HOSTS",
	"prune_enabled":   "VPSMON_PRUNE_ENABLED",
	"prune_command":   "VPSMON_PRUNE_COMMAND",
	"show_errors":     "VPSMON_SHOW_ERRORS",
}

// flagBindings maps config keys to command-line flag names.
var flagBindings = map[string]string{
	"host":            "host",
	"user":            "user",
	"key_path":        "key",
	"port":            "port",
	"interval":        "interval",
	"connect_timeout": "timeout",
	"strict_host_key": "strict-host-key",
	"show_errors":     "show-errors",
}

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// ConfigFile is an optional YAML file.
	ConfigFile string

	// EnvFile is a dotenv file. A missing file is ignored unless RequireEnvFile is set.
	EnvFile string

	// RequireEnvFile turns a missing EnvFile into an error (used when the
	// path was passed explicitly).
	RequireEnvFile bool

	// Flags, when set, override every other source for flags the user changed.
	Flags *pflag.FlagSet
}

// Load resolves configuration from, lowest to highest precedence: defaults,
// the YAML file, the dotenv file, the process environment, and flags.
// Values already in the process environment win over the dotenv file.
func Load(opts LoadOptions) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile, opts.RequireEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found: "+opts.ConfigFile,
					"Check the path passed to --config")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML")
		}
	}

	if opts.Flags != nil {
		for key, name := range flagBindings {
			if f := opts.Flags.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid configuration value",
			"Durations look like 10s or 1m, ports and flags like 2222 and true")
	}

	cfg.KeyPath = ExpandTilde(cfg.KeyPath)
	cfg.KnownHosts = ExpandTilde(cfg.KnownHosts)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("host", d.Host)
	v.SetDefault("user", d.User)
	v.SetDefault("key_path", d.KeyPath)
	v.SetDefault("port", d.Port)
	v.SetDefault("interval", d.Interval)
	v.SetDefault("connect_timeout", d.ConnectTimeout)
	v.SetDefault("exec_timeout", d.ExecTimeout)
	v.SetDefault("strict_host_key", d.StrictHostKey)
	v.SetDefault("known_hosts", d.KnownHosts)
	v.SetDefault("prune_enabled", d.PruneEnabled)
	v.SetDefault("prune_command", d.PruneCommand)
	v.SetDefault("show_errors", d.ShowErrors)
}

// loadEnvFile exports the dotenv file into the process environment without
// overriding variables that are already set.
func loadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if stderrors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if stderrors.Is(err, fs.ErrNotExist) {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Env file not found: "+path,
			"Check the path passed to --env-file")
	}
	return errors.WrapWithCode(err, errors.ErrConfig,
		"Couldn't parse env file "+path,
		"Each line should look like VPS_HOST=203.0.113.10")
}
