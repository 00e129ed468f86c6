// Package cliui holds the terminal presentation shared by skim commands:
// colors and marks, a spinner, a live stream printer and markdown
// rendering.
package cliui

import (
	"fmt"
	"time"

	"charm.land/lipgloss/v2"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")

	StepStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	KeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("117")).Bold(true)
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
	DimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	NameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	WarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

// Mark is SuccessMark for a nil error and FailMark otherwise.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration prints sub-second durations in milliseconds ("12ms") and
// longer ones in tenths of a second ("3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
