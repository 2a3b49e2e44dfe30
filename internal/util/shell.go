// Package util holds small string helpers shared by the CLI commands.
package util

import "strings"

// ShellQuote wraps a string in single quotes, escaping any existing single quotes.
// The remote shell treats the result as one literal word.
func ShellQuote(s string) string {
	// Replace ' with '\'' (end quote, escaped quote, start quote)
	escaped := strings.ReplaceAll(s, "'", "'\\''")
	return "'" + escaped + "'"
}

// Detached wraps cmd so the remote shell runs it in the background with no
// controlling output. The command keeps running after the SSH connection
// that started it goes away.
func Detached(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return ""
	}
	return "nohup sh -c " + ShellQuote(cmd) + " >/dev/null 2>&1 &"
}
