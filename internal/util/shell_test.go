package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellQuote(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", "'simple'"},
		{"with space", "'with space'"},
		{"with'quote", "'with'\\''quote'"},
		{"", "''"},
		{"$variable", "'$variable'"},
		{"$(command)", "'$(command)'"},
		{"`backtick`", "'`backtick`'"},
		{"a && b", "'a && b'"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellQuote(tt.input))
		})
	}
}

func TestDetached(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "prune command",
			input: "docker image prune -f && docker volume prune -f",
			want:  "nohup sh -c 'docker image prune -f && docker volume prune -f' >/dev/null 2>&1 &",
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  uptime \n",
			want:  "nohup sh -c 'uptime' >/dev/null 2>&1 &",
		},
		{
			name:  "single quotes escaped",
			input: "echo 'hi'",
			want:  "nohup sh -c 'echo '\\''hi'\\''' >/dev/null 2>&1 &",
		},
		{
			name:  "empty",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detached(tt.input))
		})
	}
}
