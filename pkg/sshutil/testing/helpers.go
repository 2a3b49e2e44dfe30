package testing

import (
	"context"

	"github.com/rileyhilliard/vpsmon/pkg/sshutil"
)

// WithStdout registers plain stdout responses. Keys are exact commands or
// regex patterns.
func WithStdout(client *MockClient, responses map[string]string) {
	for pattern, out := range responses {
		client.SetCommandResponse(pattern, CommandResponse{Stdout: []byte(out)})
	}
}

// Dialer returns a dial function that hands out client (or err) and records
// the settings it was called with.
func Dialer(client *MockClient, err error) (func(context.Context, sshutil.Settings) (sshutil.SSHClient, error), *[]sshutil.Settings) {
	var seen []sshutil.Settings
	return func(_ context.Context, s sshutil.Settings) (sshutil.SSHClient, error) {
		seen = append(seen, s)
		if err != nil {
			return nil, err
		}
		return client, nil
	}, &seen
}
