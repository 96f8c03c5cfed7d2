package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	labelStyle   = lipgloss.NewStyle().Width(16).Foreground(lipgloss.Color("#06B6D4"))
)

// heading renders a section title.
func heading(s string) string {
	return titleStyle.Render(s)
}

// mark renders a pass/fail marker.
func mark(ok bool) string {
	if ok {
		return successStyle.Render("PASS")
	}
	return failureStyle.Render("FAIL")
}

// field renders one "label value" line.
func field(label, value string) string {
	if value == "" {
		value = mutedStyle.Render("(not set)")
	}
	return "  " + labelStyle.Render(label) + value
}

// yesNo renders a boolean.
func yesNo(b bool) string {
	if b {
		return successStyle.Render("yes")
	}
	return warningStyle.Render("no")
}
