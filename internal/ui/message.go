package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickInterval is the control loop period.
const TickInterval = 30 * time.Millisecond

// tickMsg drives the control loop. It carries the wall-clock time it fired at.
type tickMsg time.Time

var _ tea.Msg = tickMsg{}

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}
