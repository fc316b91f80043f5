package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Color styles for consistent output
var (
	// Status indicators
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	// Document blocks
	HeadingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	CodeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Background(lipgloss.Color("236"))

	// UI elements
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(lipgloss.Color("99"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// SelectionStyle marks the selected range when the document is shown
	SelectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("153"))

	URLStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Underline(true)

	// SuggestionStyle frames a pending AI suggestion
	SuggestionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("212")).
			Padding(0, 1)
)

// FormatSuccess formats a success message
func FormatSuccess(msg string) string {
	return SuccessStyle.Render("✓ " + msg)
}

// FormatError formats an error message
func FormatError(msg string) string {
	return ErrorStyle.Render("✗ " + msg)
}

// FormatWarning formats a warning message
func FormatWarning(msg string) string {
	return WarningStyle.Render("! " + msg)
}

// FormatInfo formats an info message
func FormatInfo(msg string) string {
	return InfoStyle.Render(msg)
}

// renderURL styles link text for terminal output
func renderURL(text string) string {
	return URLStyle.Render(text)
}
