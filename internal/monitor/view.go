package monitor

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/vpsmon/internal/errors"
)

// UpdateTimeFormat is the layout of the "Update HH:MM:SS" line.
const UpdateTimeFormat = "15:04:05"

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.fatal != nil {
		return m.renderFatal()
	}
	if m.Connecting() {
		return m.renderConnecting()
	}
	return m.renderDashboard()
}

func (m Model) renderConnecting() string {
	return fmt.Sprintf("\n %s Connecting to %s...\n\n %s\n",
		m.spinner.View(), HostNameStyle.Render(m.host), m.help.View(m.keys))
}

func (m Model) renderFatal() string {
	title := ErrorStyle.Render(fmt.Sprintf("Can't connect to %s", m.host))
	body := FatalBoxStyle.Render(strings.TrimRight(m.fatal.Error(), "\n"))
	return fmt.Sprintf("\n %s\n\n%s\n\n %s\n", title, body, FooterStyle.Render("Press q to quit"))
}

func (m Model) renderDashboard() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}

	var b strings.Builder

	b.WriteString(SectionHeader(m.renderHostTitle(), m.renderUpdateTime(), width))
	b.WriteString("\n")
	b.WriteString(SectionContentLine(m.renderMetric("CPU", m.snapshot.CPUUsed), width))
	b.WriteString("\n")
	b.WriteString(SectionContentLine(m.renderMetric("MEM", m.snapshot.MemoryUsed), width))
	b.WriteString("\n")
	b.WriteString(SectionContentLine(m.renderMetric("DISK", m.snapshot.DiskUsed), width))
	b.WriteString("\n")
	if m.maint != nil {
		b.WriteString(SectionContentLine("", width))
		b.WriteString("\n")
		b.WriteString(SectionContentLine(m.renderPrune(), width))
		b.WriteString("\n")
	}
	b.WriteString(SectionFooter(width))
	b.WriteString("\n")

	running := m.snapshot.RunningCount()
	b.WriteString(SectionHeader("Containers", fmt.Sprintf("%d/%d up", running, len(m.snapshot.Containers)), width))
	b.WriteString("\n")
	for _, line := range m.renderContainers() {
		b.WriteString(SectionContentLine(line, width))
		b.WriteString("\n")
	}
	b.WriteString(SectionFooter(width))
	b.WriteString("\n")

	if m.showErrors && m.lastErr != nil {
		b.WriteString(" ")
		b.WriteString(ErrorStyle.Render("Last poll failed: " + errors.Short(m.lastErr)))
		b.WriteString("\n")
	}
	b.WriteString(" ")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) renderHostTitle() string {
	glyph := SuccessStyle.Render(StatusOnline)
	if m.lastErr != nil && m.showErrors {
		glyph = ErrorStyle.Render(StatusOffline)
	}
	return glyph + " " + m.snapshot.Hostname
}

func (m Model) renderUpdateTime() string {
	if !m.hasSnapshot {
		return "Update --:--:--"
	}
	return "Update " + m.snapshot.CollectedAt.Format(UpdateTimeFormat)
}

// renderMetric draws "LABEL [bar] value". The bar is clamped to 0..1.
func (m Model) renderMetric(label, value string) string {
	frac := clampFraction(ToFraction(value))
	pct := frac * 100

	bar := m.bar
	bar.FullColor = string(MetricColor(pct))
	bar.EmptyColor = string(ColorBarBase)

	return LabelStyle.Render(label) + bar.ViewAs(frac) + " " + MetricStyle(pct).Render(value)
}

func (m Model) renderPrune() string {
	switch m.prune {
	case PruneRunning:
		return PendingStyle.Render("Pruning...")
	case PruneSent:
		return SuccessStyle.Render("✓ Prune sent")
	case PruneFailed:
		return ErrorStyle.Render("✗ Prune failed: " + errors.Short(m.pruneErr))
	default:
		return MutedStyle.Render("p  prune docker images & volumes")
	}
}

func (m Model) renderContainers() []string {
	if len(m.snapshot.Containers) == 0 {
		return []string{MutedStyle.Render("No active containers")}
	}
	lines := make([]string, 0, len(m.snapshot.Containers))
	for _, c := range m.snapshot.Containers {
		lines = append(lines, fmt.Sprintf("%s %s %s",
			ContainerDot(c),
			ContainerNameStyle.Render(c.Name),
			MutedStyle.Render(c.StatusWord())))
	}
	return lines
}

func clampFraction(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
