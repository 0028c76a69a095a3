// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	riskColor    = lipgloss.Color("#E63946")
	safeColor    = lipgloss.Color("#2A9D8F")
	cautionColor = lipgloss.Color("#F4A261")
	infoColor    = lipgloss.Color("#8ECAE6")
	subtleColor  = lipgloss.Color("#666666")
	borderColor  = lipgloss.Color("#333")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(riskColor).
			MarginBottom(1)

	// SuccessStyle formats completed steps.
	SuccessStyle = lipgloss.NewStyle().Foreground(safeColor)

	// WarningStyle formats degeneracy and other soft conditions.
	WarningStyle = lipgloss.NewStyle().Foreground(cautionColor)

	// ErrorStyle formats failures.
	ErrorStyle = lipgloss.NewStyle().Foreground(riskColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().Foreground(infoColor)

	// SubtleStyle formats placeholders and low-risk markers.
	SubtleStyle = lipgloss.NewStyle().Foreground(subtleColor)

	// HighRiskStyle marks the high-risk cluster in tables.
	HighRiskStyle = lipgloss.NewStyle().Bold(true).Foreground(riskColor)

	// BoxStyle is used for bordered summaries.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(1, 2)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().Bold(true)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	RiskIcon    = "🎯"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the risk icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(RiskIcon + " " + title)
}

// RiskBadge renders the risk column of a cluster table.
func RiskBadge(highRisk bool) string {
	if highRisk {
		return HighRiskStyle.Render("HIGH")
	}
	return SubtleStyle.Render("low")
}

// RenderBox renders content in a bordered box under a title.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.UnsetMargins().Render(title)
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle, content))
}
