package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Progress bar block characters.
const (
	BarFilled = '█'
	BarEmpty  = '░'
)

// Resource thresholds in percent.
const (
	WarningPercent  = 70.0
	CriticalPercent = 90.0
)

// ProgressColorFunc returns a color for a percentage.
type ProgressColorFunc func(percent float64) lipgloss.Color

// ProgressColorThreshold returns colors for resource usage, where higher is
// worse: green below 70%, yellow below 90%, red above.
func ProgressColorThreshold(percent float64) lipgloss.Color {
	switch {
	case percent >= CriticalPercent:
		return ColorError
	case percent >= WarningPercent:
		return ColorWarning
	default:
		return ColorSuccess
	}
}

// BarConfig configures progress bar rendering.
type BarConfig struct {
	Width       int               // Width of the bar in characters
	Brackets    bool              // Whether to wrap bar in [ ]
	ColorFunc   ProgressColorFunc // Function to determine bar color
	ShowPercent bool              // Whether to append percentage
}

// DefaultBarConfig returns a config for resource monitoring bars.
func DefaultBarConfig(width int) BarConfig {
	return BarConfig{
		Width:       width,
		Brackets:    true,
		ColorFunc:   ProgressColorThreshold,
		ShowPercent: true,
	}
}

// ClampPercent clamps a percentage to the 0-100 range.
func ClampPercent(percent float64) float64 {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// BuildBarString builds the raw bar string (without styling) from filled/empty counts.
// If brackets is true, wraps in [ ].
func BuildBarString(filledCount, emptyCount int, brackets bool) string {
	var sb strings.Builder
	capacity := filledCount + emptyCount
	if brackets {
		capacity += 2
	}
	sb.Grow(capacity)

	if brackets {
		sb.WriteRune('[')
	}
	for i := 0; i < filledCount; i++ {
		sb.WriteRune(BarFilled)
	}
	for i := 0; i < emptyCount; i++ {
		sb.WriteRune(BarEmpty)
	}
	if brackets {
		sb.WriteRune(']')
	}

	return sb.String()
}

// CalculateBarCounts returns the number of filled and empty characters for a bar.
// Percent should be 0-100, width is the total bar width.
func CalculateBarCounts(percent float64, width int) (filled, empty int) {
	filled = int((percent / 100.0) * float64(width))
	empty = width - filled
	return
}

// RenderBar renders a bar for percent (clamped to 0-100). With ShowPercent
// the clamped value is appended.
func RenderBar(percent float64, config BarConfig) string {
	if config.Width <= 0 {
		return ""
	}

	percent = ClampPercent(percent)
	filled, empty := CalculateBarCounts(percent, config.Width)
	bar := BuildBarString(filled, empty, config.Brackets)

	if config.ColorFunc != nil {
		bar = lipgloss.NewStyle().Foreground(config.ColorFunc(percent)).Render(bar)
	}
	if config.ShowPercent {
		bar += fmt.Sprintf(" %3.0f%%", percent)
	}

	return bar
}

// RenderMetricLine renders "LABEL [bar] raw" where raw is the value as the
// host reported it. fraction is 0-1 and may be out of range.
func RenderMetricLine(label string, fraction float64, raw string, width int) string {
	config := DefaultBarConfig(width)
	config.ShowPercent = false

	labelStyle := lipgloss.NewStyle().Foreground(ColorMuted).Width(5)
	valueStyle := lipgloss.NewStyle().Foreground(ProgressColorThreshold(ClampPercent(fraction * 100)))

	return labelStyle.Render(label) + RenderBar(fraction*100, config) + " " + valueStyle.Render(raw)
}
