package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSnapshot_Defaults(t *testing.T) {
	s := NewSnapshot()

	assert.Equal(t, "Unknown", s.Hostname)
	assert.Equal(t, "0%", s.MemoryUsed)
	assert.Equal(t, "0%", s.CPUUsed)
	assert.Equal(t, "0%", s.DiskUsed)
	assert.NotNil(t, s.Containers)
	assert.Empty(t, s.Containers)
}

func TestToFraction(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"85.50%", 0.855},
		{"60%", 0.6},
		{"  12.30% \n", 0.123},
		{"45", 0.45},
		{"150%", 1.5},
		{"-5%", -0.05},
		{"garbage", 0},
		{"", 0},
		{"%", 0},
		{"NaN%", 0},
		{"Inf", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ToFraction(tt.input), 1e-9)
		})
	}
}

func TestContainer_StatusWord(t *testing.T) {
	tests := []struct {
		status  string
		word    string
		running bool
	}{
		{"Up 2 hours", "Up", true},
		{"Up About a minute (healthy)", "Up", true},
		{"Exited (1) 3 days ago", "Exited", false},
		{"Restarting (1) 5 seconds ago", "Restarting", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			c := Container{Name: "web", Status: tt.status}
			assert.Equal(t, tt.word, c.StatusWord())
			assert.Equal(t, tt.running, c.Running())
		})
	}
}

func TestSnapshot_Clone(t *testing.T) {
	orig := NewSnapshot()
	orig.Containers = append(orig.Containers, Container{Name: "web", Status: "Up 1 hour"})

	clone := orig.Clone()
	clone.Containers[0].Name = "changed"
	clone.Hostname = "other"

	assert.Equal(t, "web", orig.Containers[0].Name)
	assert.Equal(t, "Unknown", orig.Hostname)
}

func TestSnapshot_RunningCount(t *testing.T) {
	s := NewSnapshot()
	s.Containers = []Container{
		{Name: "web", Status: "Up 2 hours"},
		{Name: "db", Status: "Exited (1) 3 days ago"},
		{Name: "cache", Status: "Up 5 minutes"},
	}
	assert.Equal(t, 2, s.RunningCount())
}
