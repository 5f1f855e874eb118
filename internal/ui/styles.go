// Package ui renders the interview in a terminal: styles, the step tracker
// and the line-based prompter.
package ui

import "github.com/charmbracelet/lipgloss"

const (
	primaryColor   = "#7C3AED"
	secondaryColor = "#10B981"
	warningColor   = "#F59E0B"
	errorColor     = "#EF4444"
	dimColor       = "#6B7280"
)

var (
	// BoxStyle frames the refined idea and the final report.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primaryColor)).
			Padding(1, 2)

	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(errorColor))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(warningColor))

	// QuestionStyle highlights the question being asked.
	QuestionStyle = lipgloss.NewStyle().
			Bold(true)
)

// Step markers.
var (
	StepDone    = SuccessStyle.Render("✓")
	StepCurrent = WarningStyle.Render("▶")
	StepPending = DimStyle.Render("○")
)
