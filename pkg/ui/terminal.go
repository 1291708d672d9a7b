// Package ui prints human-facing command output. Logs go through the
// logger package; this is only for results and prompts.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Output is where all ui functions write.
var Output io.Writer = os.Stdout

// Stat is one labelled value in a summary panel.
type Stat struct {
	Label string
	Value string
}

// PrintError prints an error message, followed by err when given.
func PrintError(msg string, err error) {
	if err != nil {
		msg += ": " + err.Error()
	}
	fmt.Fprintln(Output, errorStyle.Render("✗ "+msg))
}

func PrintSuccess(msg string) {
	fmt.Fprintln(Output, successStyle.Render("✓ "+msg))
}

func PrintWarning(msg string) {
	fmt.Fprintln(Output, warningStyle.Render("! "+msg))
}

// PrintInfo prints a label and value on one line.
func PrintInfo(label, value string) {
	fmt.Fprintf(Output, "%s: %s\n", labelStyle.Render(label), valueStyle.Render(value))
}

// PrintHint prints secondary text.
func PrintHint(msg string) {
	fmt.Fprintln(Output, dimStyle.Render(msg))
}

// RenderSummary renders stats as an aligned panel under a title.
func RenderSummary(title string, stats []Stat) string {
	width := 0
	for _, s := range stats {
		width = max(width, lipgloss.Width(s.Label))
	}

	lines := []string{titleStyle.Render(title)}
	for _, s := range stats {
		pad := strings.Repeat(" ", width-lipgloss.Width(s.Label))
		lines = append(lines, labelStyle.Render(s.Label)+pad+"  "+valueStyle.Render(s.Value))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

// PrintSummary prints RenderSummary.
func PrintSummary(title string, stats []Stat) {
	fmt.Fprintln(Output, RenderSummary(title, stats))
}
