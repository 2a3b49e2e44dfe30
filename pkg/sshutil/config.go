package sshutil

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kevinburke/ssh_config"
)

// Settings describes one SSH endpoint.
type Settings struct {
	// Host is what the user configured: an address or a ~/.ssh/config alias.
	Host string

	// Hostname is the address actually dialed. Filled by ResolveSettings.
	Hostname string

	// Port is the explicit port. Empty means "from ~/.ssh/config, then FallbackPort".
	Port string

	// FallbackPort is used when neither Port nor ~/.ssh/config provide one.
	// Defaults to 22.
	FallbackPort string

	User    string
	KeyPath string

	// Timeout bounds the dial and handshake.
	Timeout time.Duration

	// StrictHostKeyChecking verifies the host key against KnownHostsPath
	// (default ~/.ssh/known_hosts). When false any host key is accepted.
	StrictHostKeyChecking bool
	KnownHostsPath        string
}

func (s Settings) address() string {
	host := s.Hostname
	if host == "" {
		host = s.Host
	}
	return net.JoinHostPort(host, s.Port)
}

// matchWarningOnce ensures the SSH config Match directive warning is only shown once per process.
var matchWarningOnce sync.Once

// ResolveSettings completes s from ~/.ssh/config. Explicit fields always win.
func ResolveSettings(s Settings) Settings {
	return ResolveSettingsFromFile(filepath.Join(homeDir(), ".ssh", "config"), s)
}

// ResolveSettingsFromFile completes s from the given ssh config file. Fields
// that are already set are kept; empty ones are filled from the matching Host
// block, then from fallbacks (FallbackPort or 22, $USER).
func ResolveSettingsFromFile(configPath string, s Settings) Settings {
	s = fromConfigFile(configPath, s)
	applyFallbacks(&s)
	return s
}

func fromConfigFile(configPath string, s Settings) Settings {
	content, matchLine, err := preprocessSSHConfig(configPath)
	if err != nil {
		return s
	}

	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return s
	}

	hostFound := false

	if s.Hostname == "" {
		if hostname, _ := cfg.Get(s.Host, "HostName"); hostname != "" {
			s.Hostname = hostname
			hostFound = true
		}
	}

	if s.Port == "" {
		if port, _ := cfg.Get(s.Host, "Port"); port != "" {
			s.Port = port
			hostFound = true
		}
	}

	if s.User == "" {
		if user, _ := cfg.Get(s.Host, "User"); user != "" {
			s.User = user
			hostFound = true
		}
	}

	if s.KeyPath == "" {
		if identity, _ := cfg.Get(s.Host, "IdentityFile"); identity != "" {
			s.KeyPath = expandPath(identity)
			hostFound = true
		}
	}

	if matchLine > 0 && !hostFound {
		matchWarningOnce.Do(func() {
			emitWarning(fmt.Sprintf(
				"Host '%s' not found in SSH config (config has a Match block at line %d that may hide later entries). "+
					"If this host is defined after line %d, move it earlier in ~/.ssh/config.",
				s.Host, matchLine, matchLine))
		})
	}

	return s
}

func applyFallbacks(s *Settings) {
	if s.Hostname == "" {
		s.Hostname = s.Host
	}
	if s.Port == "" {
		s.Port = s.FallbackPort
	}
	if s.Port == "" {
		s.Port = "22"
	}
	if s.User == "" {
		s.User = currentUser()
	}
}

// preprocessSSHConfig reads the SSH config and returns content up to the first
// Match directive, which kevinburke/ssh_config can't parse. Also returns the
// line number where Match was found (0 if not found).
func preprocessSSHConfig(configPath string) ([]byte, int, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, 0, err
	}

	lines := strings.Split(string(content), "\n")
	var result []string
	matchLine := 0

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(trimmed), "match ") {
			matchLine = i + 1
			break
		}
		result = append(result, line)
	}

	return []byte(strings.Join(result, "\n")), matchLine, nil
}
