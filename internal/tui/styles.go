package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/pantti/internal/version"
)

// Application branding constants
const (
	AppName   = "PANTTI"
	GitHubURL = "github.com/muurk/pantti"
)

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants
const (
	MinTerminalWidth = 40
	MaxContentWidth  = 100
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange

	TextColor   = lipgloss.Color("#FFFFFF") // White
	SubtleColor = lipgloss.Color("#626262") // Gray
	BorderColor = lipgloss.Color("#7D56F4") // Purple (same as primary)
)

// Block styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			MarginBottom(1)

	ParagraphStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	PreStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SubtleColor).
			Padding(0, 1)

	ButtonStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Border(lipgloss.NormalBorder()).
			BorderForeground(SubtleColor).
			Padding(0, 2)

	FocusedButtonStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor).
				Bold(true).
				Border(lipgloss.ThickBorder()).
				BorderForeground(SecondaryColor).
				Padding(0, 2)

	LabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	OptionStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(TextColor)

	SelectedOptionStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Foreground(SecondaryColor).
				Bold(true)

	ImageStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Italic(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	HelpStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			MarginTop(1)
)

// RenderHeader renders the application name and version.
func RenderHeader() string {
	left := TitleStyle.Render(AppName + " v" + AppVersion())
	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(GitHubURL)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// ContentWidth clamps the terminal width to a readable content width.
func ContentWidth(terminalWidth int) int {
	switch {
	case terminalWidth <= 0:
		return MaxContentWidth
	case terminalWidth < MinTerminalWidth:
		return MinTerminalWidth
	case terminalWidth > MaxContentWidth:
		return MaxContentWidth
	default:
		return terminalWidth
	}
}
