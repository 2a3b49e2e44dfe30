package doctor

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// KeyFileCheck verifies the configured private key exists and can be used
// without a passphrase.
type KeyFileCheck struct {
	KeyPath string
}

func (c *KeyFileCheck) Name() string     { return "ssh_key" }
func (c *KeyFileCheck) Category() string { return CategorySSH }

func (c *KeyFileCheck) Run(context.Context) CheckResult {
	if c.KeyPath == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "No private key configured",
			Suggestion: "Set SSH_KEY_PATH, pass --key, or add an IdentityFile for the host in ~/.ssh/config",
		}
	}

	data, err := os.ReadFile(c.KeyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{
				Name:       c.Name(),
				Status:     StatusFail,
				Message:    fmt.Sprintf("Private key not found: %s", c.KeyPath),
				Suggestion: "Generate a key with: ssh-keygen -t ed25519",
			}
		}
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Can't read private key %s", c.KeyPath),
			Suggestion: err.Error(),
		}
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if stderrors.As(err, &missing) {
			return CheckResult{
				Name:       c.Name(),
				Status:     StatusFail,
				Message:    fmt.Sprintf("Private key %s is passphrase protected", c.KeyPath),
				Suggestion: fmt.Sprintf("Remove the passphrase with: ssh-keygen -p -f %s", c.KeyPath),
			}
		}
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s isn't a private key", c.KeyPath),
			Suggestion: "Point SSH_KEY_PATH at the private half of the key pair, not the .pub file",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Private key %s (%s)", c.KeyPath, signer.PublicKey().Type()),
	}
}

func (c *KeyFileCheck) Fix() error {
	// Generating a key is too invasive for an automatic fix
	return nil
}

// KeyPermissionsCheck verifies the private key isn't readable by others.
type KeyPermissionsCheck struct {
	KeyPath string
}

func (c *KeyPermissionsCheck) Name() string     { return "ssh_key_permissions" }
func (c *KeyPermissionsCheck) Category() string { return CategorySSH }

func (c *KeyPermissionsCheck) Run(context.Context) CheckResult {
	info, err := os.Stat(c.KeyPath)
	if err != nil {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass, // KeyFileCheck reports missing keys
			Message: "No private key to check",
		}
	}

	// Should be 0600 or 0400
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("Insecure permissions %#o on %s", perm, c.KeyPath),
			Suggestion: fmt.Sprintf("Fix: chmod 600 %s", c.KeyPath),
			Fixable:    true,
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "SSH key permissions OK",
	}
}

func (c *KeyPermissionsCheck) Fix() error {
	info, err := os.Stat(c.KeyPath)
	if err != nil {
		return err
	}
	if info.Mode().Perm()&0o077 == 0 {
		return nil
	}
	if err := os.Chmod(c.KeyPath, 0o600); err != nil {
		return fmt.Errorf("failed to fix permissions on %s: %w", c.KeyPath, err)
	}
	return nil
}

// NewSSHChecks creates the local SSH checks for one key.
func NewSSHChecks(keyPath string, strict bool, knownHosts string) []Check {
	return []Check{
		&KeyFileCheck{KeyPath: keyPath},
		&KeyPermissionsCheck{KeyPath: keyPath},
		&KnownHostsCheck{Strict: strict, Path: knownHosts},
	}
}
