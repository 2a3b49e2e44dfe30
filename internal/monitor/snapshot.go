package monitor

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Defaults used for any metric a poll cycle could not fill in.
const (
	DefaultHostname = "Unknown"
	DefaultPercent  = "0%"
)

// Container is one line of `docker ps` output.
type Container struct {
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
}

// StatusWord returns the first word of the status ("Up", "Exited", ...).
func (c Container) StatusWord() string {
	fields := strings.Fields(c.Status)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Running reports whether docker considers the container up.
func (c Container) Running() bool {
	return strings.HasPrefix(c.Status, "Up")
}

// Snapshot is the parsed result of one poll cycle.
//
// Percent fields keep the remote's textual form ("45.00%", "60%"); use
// ToFraction to turn them into numbers.
type Snapshot struct {
	Hostname    string      `json:"hostname" yaml:"hostname"`
	MemoryUsed  string      `json:"memory_used" yaml:"memory_used"`
	CPUUsed     string      `json:"cpu_used" yaml:"cpu_used"`
	DiskUsed    string      `json:"disk_used" yaml:"disk_used"`
	Containers  []Container `json:"containers" yaml:"containers"`
	CollectedAt time.Time   `json:"collected_at" yaml:"collected_at"`
}

// NewSnapshot returns a Snapshot with every field set to its default.
func NewSnapshot() Snapshot {
	return Snapshot{
		Hostname:   DefaultHostname,
		MemoryUsed: DefaultPercent,
		CPUUsed:    DefaultPercent,
		DiskUsed:   DefaultPercent,
		Containers: []Container{},
	}
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Containers = make([]Container, len(s.Containers))
	copy(out.Containers, s.Containers)
	return out
}

// RunningCount returns how many containers are up.
func (s Snapshot) RunningCount() int {
	n := 0
	for _, c := range s.Containers {
		if c.Running() {
			n++
		}
	}
	return n
}

// ToFraction converts a percent string like "85.50%" to 0.855. Anything that
// doesn't parse yields 0. The result is not clamped.
func ToFraction(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v / 100
}
