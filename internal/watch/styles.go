package watch

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF0000") // Red

	TextColor   = lipgloss.Color("#FFFFFF") // White
	SubtleColor = lipgloss.Color("#626262") // Gray
	BorderColor = lipgloss.Color("#7D56F4") // Purple (same as primary)
)

// Common styles
var (
	// Title style - bold header line
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	// Section heading inside the readings box
	SectionStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	// Field label column
	LabelStyle = lipgloss.NewStyle().
			Width(22).
			Foreground(SubtleColor)

	// Field value column
	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// Stale data marker
	StaleStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	// Error line style
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// Help text style
	HelpStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// Spinner style
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	// Box around the readings
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(1, 2)
)
