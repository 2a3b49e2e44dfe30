package monitor

import tea "github.com/charmbracelet/bubbletea"

// Bridge is a Sink that forwards results to a running Bubble Tea program.
// It is safe to use from the poller's goroutine.
type Bridge struct {
	program *tea.Program
}

// NewBridge creates a bridge to program.
func NewBridge(program *tea.Program) *Bridge {
	return &Bridge{program: program}
}

// Render sends r to the program.
func (b *Bridge) Render(r Result) {
	b.program.Send(resultMsg(r))
}
