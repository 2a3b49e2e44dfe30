package doctor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rileyhilliard/vpsmon/internal/errors"
	"github.com/rileyhilliard/vpsmon/internal/logger"
	"github.com/rileyhilliard/vpsmon/internal/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote answers every batch through reply.
type fakeRemote struct {
	connectErr error
	reply      func(cmds []string) (string, error)
	batches    [][]string
}

func (f *fakeRemote) Connect(context.Context) error { return f.connectErr }

func (f *fakeRemote) RunBatch(_ context.Context, cmds []string) (string, error) {
	f.batches = append(f.batches, cmds)
	return f.reply(cmds)
}

func (f *fakeRemote) FireAndForget(context.Context, string) error { return nil }

// answerAll replies "yes" to every command except those mentioning a name
// in missing.
func answerAll(missing ...string) func([]string) (string, error) {
	return func(cmds []string) (string, error) {
		var b strings.Builder
		for _, c := range cmds {
			b.WriteString(monitor.Delimiter + "\n")
			answer := answerYes
			for _, m := range missing {
				if strings.Contains(c, m) {
					answer = answerNo
				}
			}
			b.WriteString(answer + "\n")
		}
		return b.String(), nil
	}
}

func TestConnectCheck(t *testing.T) {
	ok := (&ConnectCheck{Address: "web-1:2222", Remote: &fakeRemote{}}).Run(context.Background())
	assert.Equal(t, StatusPass, ok.Status)
	assert.Contains(t, ok.Message, "Connected to web-1:2222")

	failed := (&ConnectCheck{
		Address: "web-1:2222",
		Remote: &fakeRemote{connectErr: errors.New(errors.ErrSSH,
			"Can't reach 'web-1' at web-1:2222", "Is SSH listening on that port? Check VPS_PORT.")},
	}).Run(context.Background())
	assert.Equal(t, StatusFail, failed.Status)
	assert.Equal(t, "Can't reach 'web-1' at web-1:2222", failed.Message)
	assert.Contains(t, failed.Suggestion, "VPS_PORT")
}

func TestToolsCheck(t *testing.T) {
	t.Run("all present in one batch", func(t *testing.T) {
		remote := &fakeRemote{reply: answerAll()}
		got := (&ToolsCheck{Remote: remote, Tools: DefaultTools}).Run(context.Background())

		assert.Equal(t, StatusPass, got.Status)
		require.Len(t, remote.batches, 1)
		assert.Len(t, remote.batches[0], len(DefaultTools))
		assert.Contains(t, remote.batches[0][0], "command -v 'hostname'")
	})

	t.Run("missing tools warn", func(t *testing.T) {
		remote := &fakeRemote{reply: answerAll("'docker'", "'top'")}
		got := (&ToolsCheck{Remote: remote, Tools: DefaultTools}).Run(context.Background())

		assert.Equal(t, StatusWarn, got.Status)
		assert.Equal(t, "Missing on host: top, docker", got.Message)
	})

	t.Run("short output counts as missing", func(t *testing.T) {
		remote := &fakeRemote{reply: func([]string) (string, error) { return "---\nyes\n", nil }}
		got := (&ToolsCheck{Remote: remote, Tools: []string{"free", "df"}}).Run(context.Background())

		assert.Equal(t, StatusWarn, got.Status)
		assert.Contains(t, got.Message, "df")
	})

	t.Run("exec failure fails", func(t *testing.T) {
		remote := &fakeRemote{reply: func([]string) (string, error) {
			return "", errors.New(errors.ErrExec, "Poll command failed", "")
		}}
		got := (&ToolsCheck{Remote: remote, Tools: DefaultTools}).Run(context.Background())
		assert.Equal(t, StatusFail, got.Status)
	})
}

func TestDockerAccessCheck(t *testing.T) {
	ok := (&DockerAccessCheck{Remote: &fakeRemote{reply: answerAll()}}).Run(context.Background())
	assert.Equal(t, StatusPass, ok.Status)

	denied := (&DockerAccessCheck{Remote: &fakeRemote{reply: answerAll("docker")}}).Run(context.Background())
	assert.Equal(t, StatusWarn, denied.Status)
	assert.Contains(t, denied.Suggestion, "docker group")
}

func TestPollCheck(t *testing.T) {
	newPoller := func(reply string) *monitor.Poller {
		remote := &fakeRemote{reply: func([]string) (string, error) { return reply, nil }}
		return monitor.NewPoller(remote, nil,
			monitor.WithLogger(logger.Noop()),
			monitor.WithClock(func() time.Time { return time.Unix(0, 0) }))
	}

	ok := (&PollCheck{Poller: newPoller("---\nweb-1\n---\n40%\n---\n5%\n---\n60%\n---\nweb:Up 1 hour\n")}).Run(context.Background())
	assert.Equal(t, StatusPass, ok.Status)
	assert.Equal(t, "Poll OK: web-1, CPU 5%, MEM 40%, DISK 60%, 1 container", ok.Message)

	empty := (&PollCheck{Poller: newPoller("")}).Run(context.Background())
	assert.Equal(t, StatusWarn, empty.Status)
}

func TestNewRemoteChecks(t *testing.T) {
	checks := NewRemoteChecks(&fakeRemote{}, nil)
	require.Len(t, checks, 3)
	for _, c := range checks {
		assert.Equal(t, CategoryRemote, c.Category())
	}
}
