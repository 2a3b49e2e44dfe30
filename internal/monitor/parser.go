package monitor

import "strings"

// Parse turns raw batch output into a Snapshot. The output is split on the
// delimiter, sections are trimmed and empty ones dropped, and the remaining
// sections are handed to probes in order. Probes without a section leave
// their fields at the defaults, so Parse never fails.
func Parse(raw string, probes []Probe) Snapshot {
	snap := NewSnapshot()
	sections := Sections(raw)
	for i, p := range probes {
		if i >= len(sections) {
			break
		}
		p.Apply(sections[i], &snap)
	}
	return snap
}

// Sections splits batch output on the delimiter and returns the trimmed,
// non-empty sections in order.
func Sections(raw string) []string {
	parts := strings.Split(raw, Delimiter)
	sections := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sections = append(sections, part)
	}
	return sections
}

// ParseContainers parses `docker ps --format '{{.Names}}:{{.Status}}'`
// output. Each line is split on its first colon; lines without one are
// skipped.
func ParseContainers(segment string) []Container {
	containers := []Container{}
	for _, line := range strings.Split(segment, "\n") {
		line = strings.TrimSpace(line)
		name, status, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		containers = append(containers, Container{
			Name:   strings.TrimSpace(name),
			Status: strings.TrimSpace(status),
		})
	}
	return containers
}
