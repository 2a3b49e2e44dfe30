package doctor

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/rileyhilliard/vpsmon/internal/config"
	"github.com/rileyhilliard/vpsmon/internal/errors"
)

// ConfigCheck reports whether configuration loaded and validated.
type ConfigCheck struct {
	Config  *config.Config
	LoadErr error
}

func (c *ConfigCheck) Name() string     { return "config" }
func (c *ConfigCheck) Category() string { return CategoryConfig }

func (c *ConfigCheck) Run(context.Context) CheckResult {
	if c.LoadErr != nil {
		return failFromError(c.Name(), c.LoadErr, "Check your .env file and --config YAML")
	}
	if c.Config == nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "No configuration loaded",
			Suggestion: "Set VPS_HOST in your environment or .env file",
		}
	}
	if err := config.Validate(c.Config); err != nil {
		return failFromError(c.Name(), err, "")
	}

	user := c.Config.User
	if user == "" {
		user = "(from ~/.ssh/config)"
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Host %s as %s, polling every %s", c.Config.Address(), user, c.Config.Interval),
	}
}

func (c *ConfigCheck) Fix() error {
	return nil // Config issues require manual intervention
}

// KnownHostsCheck verifies known_hosts is readable when strict host key
// checking is on. With checking off it only notes that keys are not verified.
type KnownHostsCheck struct {
	Strict bool
	Path   string
}

func (c *KnownHostsCheck) Name() string     { return "known_hosts" }
func (c *KnownHostsCheck) Category() string { return CategorySSH }

func (c *KnownHostsCheck) Run(context.Context) CheckResult {
	if !c.Strict {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "Host key not verified",
			Suggestion: "Pass --strict-host-key or set VPSMON_STRICT_HOST_KEY=true to check ~/.ssh/known_hosts",
		}
	}

	if _, err := os.Stat(c.Path); err != nil {
		if os.IsNotExist(err) {
			return CheckResult{
				Name:       c.Name(),
				Status:     StatusWarn,
				Message:    fmt.Sprintf("%s doesn't exist yet", c.Path),
				Suggestion: "It is created on first connect; connect once with ssh to record the host key",
			}
		}
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Can't read %s", c.Path),
			Suggestion: err.Error(),
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Host keys verified against %s", c.Path),
	}
}

func (c *KnownHostsCheck) Fix() error {
	return nil
}

// failFromError turns a structured error into a failing result, using its
// message and suggestion.
func failFromError(name string, err error, fallbackSuggestion string) CheckResult {
	result := CheckResult{
		Name:       name,
		Status:     StatusFail,
		Message:    errors.Short(err),
		Suggestion: fallbackSuggestion,
	}
	var vErr *errors.Error
	if stderrors.As(err, &vErr) && vErr.Suggestion != "" {
		result.Suggestion = vErr.Suggestion
	}
	return result
}
