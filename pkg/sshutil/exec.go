package sshutil

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"

	"github.com/rileyhilliard/vpsmon/internal/errors"
	"golang.org/x/crypto/ssh"
)

// Exec runs a command on the remote host and returns the output.
// Returns stdout, stderr, exit code, and any error.
// Exit code is -1 if the command couldn't be executed at all.
func (c *Client) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	session, err := c.newSession()
	if err != nil {
		return nil, nil, -1, err
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	err = session.Run(cmd)
	if err != nil {
		var exitErr *ssh.ExitError
		if stderrors.As(err, &exitErr) {
			return stdoutBuf.Bytes(), stderrBuf.Bytes(), exitErr.ExitStatus(), nil
		}
		return nil, nil, -1, errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Failed to execute command: %s", cmd),
			"Check if the command exists on the remote host.")
	}

	return stdoutBuf.Bytes(), stderrBuf.Bytes(), 0, nil
}

// Output runs cmd and returns everything it wrote to stdout. Stderr and the
// exit status are ignored: a command that fails still yields whatever it
// printed. Cancelling ctx closes the session and returns ctx's error.
func (c *Client) Output(ctx context.Context, cmd string) ([]byte, error) {
	session, err := c.newSession()
	if err != nil {
		return nil, err
	}
	defer session.Close()

	var stdout bytes.Buffer
	session.Stdout = &stdout

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	select {
	case <-ctx.Done():
		_ = session.Close()
		return nil, errors.WrapWithCode(ctx.Err(), errors.ErrExec,
			"Remote command didn't finish in time",
			"The host may be overloaded. The next cycle will try again.")
	case err := <-done:
		if err != nil && !isExitStatus(err) {
			return nil, errors.WrapWithCode(err, errors.ErrExec,
				"Remote command was interrupted",
				"The connection may have dropped.")
		}
		return stdout.Bytes(), nil
	}
}

// Start launches cmd and returns as soon as the remote side accepted it.
// Output is discarded and the session is reaped in the background, so the
// only failure visible to the caller is failing to start.
func (c *Client) Start(cmd string) error {
	session, err := c.newSession()
	if err != nil {
		return err
	}

	if err := session.Start(cmd); err != nil {
		session.Close()
		return errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Failed to start command: %s", cmd),
			"The connection may have dropped.")
	}

	go func() {
		_ = session.Wait()
		_ = session.Close()
	}()
	return nil
}

func (c *Client) newSession() (*ssh.Session, error) {
	if c.Client == nil {
		return nil, errors.New(errors.ErrExec,
			"Not connected",
			"Connect before running commands.")
	}
	session, err := c.Client.NewSession()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't open an exec channel",
			"Connection may have been closed.")
	}
	return session, nil
}

// isExitStatus reports whether err only describes how the remote command
// exited, as opposed to a transport failure.
func isExitStatus(err error) bool {
	var exitErr *ssh.ExitError
	var missingErr *ssh.ExitMissingError
	return stderrors.As(err, &exitErr) || stderrors.As(err, &missingErr)
}
