package monitor

import "strings"

// Delimiter separates the output of each command in a batch.
const Delimiter = "---"

// Remote commands for the default probes.
const (
	HostnameCommand   = "hostname"
	MemoryCommand     = `free -m | awk 'NR==2{printf "%.2f%%", $3*100/$2 }'`
	CPUCommand        = `top -bn1 | grep 'Cpu(s)' | awk '{print 100 - $8"%"}'`
	DiskCommand       = `df -h / | awk 'NR==2{print $5}'`
	ContainersCommand = `docker ps --format '{{.Names}}:{{.Status}}'`
)

// BuildBatchCommand joins cmds into one shell line, echoing the delimiter
// before each command so the output can be split back into sections.
// Commands are joined with ';' so one failing command doesn't hide the rest.
func BuildBatchCommand(cmds []string) string {
	parts := make([]string, 0, len(cmds)*2)
	for _, cmd := range cmds {
		parts = append(parts, "echo '"+Delimiter+"'", cmd)
	}
	return strings.Join(parts, "; ")
}
