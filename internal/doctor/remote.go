package doctor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/vpsmon/internal/monitor"
	"github.com/rileyhilliard/vpsmon/internal/util"
)

// Remote is the part of the session the remote checks use.
type Remote interface {
	Connect(ctx context.Context) error
	RunBatch(ctx context.Context, cmds []string) (string, error)
}

// ConnectCheck dials the host and reports how long it took.
type ConnectCheck struct {
	Address string
	Remote  Remote
}

func (c *ConnectCheck) Name() string     { return "connect" }
func (c *ConnectCheck) Category() string { return CategoryRemote }

func (c *ConnectCheck) Run(ctx context.Context) CheckResult {
	start := time.Now()
	if err := c.Remote.Connect(ctx); err != nil {
		return failFromError(c.Name(), err, "Try: ssh -v <host>")
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Connected to %s (%s)", c.Address, time.Since(start).Round(time.Millisecond)),
	}
}

func (c *ConnectCheck) Fix() error {
	return nil
}

// DefaultTools are the remote programs the poll commands call.
var DefaultTools = []string{"hostname", "free", "top", "df", "awk", "grep", "docker"}

const (
	answerYes = "yes"
	answerNo  = "no"
)

// ToolsCheck looks up every tool on the host in one batched exec.
type ToolsCheck struct {
	Remote Remote
	Tools  []string
}

func (c *ToolsCheck) Name() string     { return "remote_tools" }
func (c *ToolsCheck) Category() string { return CategoryRemote }

func (c *ToolsCheck) Run(ctx context.Context) CheckResult {
	cmds := make([]string, len(c.Tools))
	for i, tool := range c.Tools {
		cmds[i] = yesNo("command -v " + util.ShellQuote(tool) + " >/dev/null 2>&1")
	}

	out, err := c.Remote.RunBatch(ctx, cmds)
	if err != nil {
		return failFromError(c.Name(), err, "")
	}

	answers := monitor.Sections(out)
	var missing []string
	for i, tool := range c.Tools {
		if i >= len(answers) || answers[i] != answerYes {
			missing = append(missing, tool)
		}
	}

	if len(missing) > 0 {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "Missing on host: " + strings.Join(missing, ", "),
			Suggestion: "Metrics that need these tools will show their defaults",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("All %d tools found: %s", len(c.Tools), strings.Join(c.Tools, ", ")),
	}
}

func (c *ToolsCheck) Fix() error {
	return nil
}

// DockerAccessCheck verifies the SSH user can talk to the Docker daemon,
// which both the container list and prune need.
type DockerAccessCheck struct {
	Remote Remote
}

func (c *DockerAccessCheck) Name() string     { return "docker_access" }
func (c *DockerAccessCheck) Category() string { return CategoryRemote }

func (c *DockerAccessCheck) Run(ctx context.Context) CheckResult {
	out, err := c.Remote.RunBatch(ctx, []string{yesNo("docker ps -q >/dev/null 2>&1")})
	if err != nil {
		return failFromError(c.Name(), err, "")
	}

	sections := monitor.Sections(out)
	if len(sections) == 0 || sections[0] != answerYes {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "Can't list containers as this user",
			Suggestion: "Add the user to the docker group: sudo usermod -aG docker <user>",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "Docker daemon reachable",
	}
}

func (c *DockerAccessCheck) Fix() error {
	return nil
}

// PollCheck runs one real poll cycle and reports what came back.
type PollCheck struct {
	Poller *monitor.Poller
}

func (c *PollCheck) Name() string     { return "poll" }
func (c *PollCheck) Category() string { return CategoryRemote }

func (c *PollCheck) Run(ctx context.Context) CheckResult {
	res := c.Poller.Poll(ctx)
	if res.Err != nil {
		return failFromError(c.Name(), res.Err, "")
	}

	snap := res.Snapshot
	if snap.Hostname == monitor.DefaultHostname {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "Poll returned no hostname",
			Suggestion: "The batch ran but produced no output; check the login shell on the host",
		}
	}

	return CheckResult{
		Name:   c.Name(),
		Status: StatusPass,
		Message: fmt.Sprintf("Poll OK: %s, CPU %s, MEM %s, DISK %s, %s",
			snap.Hostname, snap.CPUUsed, snap.MemoryUsed, snap.DiskUsed,
			util.CountNoun(len(snap.Containers), "container", "containers")),
	}
}

func (c *PollCheck) Fix() error {
	return nil
}

// NewRemoteChecks creates the checks that need a connection. Callers run
// them only after ConnectCheck passed.
func NewRemoteChecks(remote Remote, poller *monitor.Poller) []Check {
	return []Check{
		&ToolsCheck{Remote: remote, Tools: DefaultTools},
		&DockerAccessCheck{Remote: remote},
		&PollCheck{Poller: poller},
	}
}

func yesNo(test string) string {
	return test + " && echo " + answerYes + " || echo " + answerNo
}
