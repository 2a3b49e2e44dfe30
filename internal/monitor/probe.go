package monitor

// Probe is one remote command and the code that folds its output into a
// Snapshot. Probes are applied positionally: the Nth non-empty section of
// the batch output goes to the Nth probe.
type Probe interface {
	Name() string
	Command() string
	Apply(segment string, s *Snapshot)
}

type fieldProbe struct {
	name    string
	command string
	set     func(s *Snapshot, value string)
}

func (p fieldProbe) Name() string    { return p.name }
func (p fieldProbe) Command() string { return p.command }

func (p fieldProbe) Apply(segment string, s *Snapshot) {
	p.set(s, segment)
}

type containersProbe struct{}

func (containersProbe) Name() string    { return "containers" }
func (containersProbe) Command() string { return ContainersCommand }

func (containersProbe) Apply(segment string, s *Snapshot) {
	s.Containers = ParseContainers(segment)
}

// HostnameProbe reports the remote hostname.
func HostnameProbe() Probe {
	return fieldProbe{"hostname", HostnameCommand, func(s *Snapshot, v string) { s.Hostname = v }}
}

// MemoryProbe reports used memory as a percentage of total.
func MemoryProbe() Probe {
	return fieldProbe{"memory", MemoryCommand, func(s *Snapshot, v string) { s.MemoryUsed = v }}
}

// CPUProbe reports CPU usage (100 minus idle).
func CPUProbe() Probe {
	return fieldProbe{"cpu", CPUCommand, func(s *Snapshot, v string) { s.CPUUsed = v }}
}

// DiskProbe reports usage of the root filesystem.
func DiskProbe() Probe {
	return fieldProbe{"disk", DiskCommand, func(s *Snapshot, v string) { s.DiskUsed = v }}
}

// ContainersProbe lists running and stopped docker containers.
func ContainersProbe() Probe {
	return containersProbe{}
}

// DefaultProbes returns hostname, memory, cpu, disk and containers, in that order.
func DefaultProbes() []Probe {
	return []Probe{
		HostnameProbe(),
		MemoryProbe(),
		CPUProbe(),
		DiskProbe(),
		ContainersProbe(),
	}
}

// Commands returns the remote command of each probe, in order.
func Commands(probes []Probe) []string {
	cmds := make([]string, len(probes))
	for i, p := range probes {
		cmds[i] = p.Command()
	}
	return cmds
}
