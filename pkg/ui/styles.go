package ui

import "github.com/charmbracelet/lipgloss"

var (
	cyan   = lipgloss.Color("#00D7FF")
	green  = lipgloss.Color("#5FD75F")
	yellow = lipgloss.Color("#FFD75F")
	orange = lipgloss.Color("#FF8700")
	red    = lipgloss.Color("#FF5F5F")
	dim    = lipgloss.Color("#8A8A8A")

	titleStyle = lipgloss.NewStyle().
			Foreground(cyan).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(cyan)

	valueStyle = lipgloss.NewStyle().
			Foreground(yellow)

	successStyle = lipgloss.NewStyle().
			Foreground(green).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(orange).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(red).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(dim)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cyan).
			Padding(0, 1)

	barFullStyle  = lipgloss.NewStyle().Foreground(green)
	barEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A"))
)
