package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#6366F1") // Indigo
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorText      = lipgloss.Color("#F9FAFB")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	CodeStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Background(lipgloss.Color("#1F2937")).
			Padding(0, 1)

	CommandStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)
)

// Device and scheme listing styles
var (
	DeviceIDStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)

	DeviceNameStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	SchemeStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	PathStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)
)

// plain disables styling, for output that is not a terminal
var plain bool

// SetPlain turns styling off or on
func SetPlain(p bool) { plain = p }

// DetectTerminal turns styling off when f is not a terminal
func DetectTerminal(f *os.File) {
	plain = !term.IsTerminal(int(f.Fd()))
}

func render(style lipgloss.Style, text string) string {
	if plain {
		return text
	}
	return style.Render(text)
}

func Title(text string) string    { return render(TitleStyle, text) }
func Subtitle(text string) string { return render(SubtitleStyle, text) }
func Muted(text string) string    { return render(MutedStyle, text) }
func Code(text string) string     { return render(CodeStyle, text) }
func Bold(text string) string     { return render(BoldStyle, text) }

// Success renders success text with a checkmark
func Success(text string) string {
	return render(SuccessStyle, "✓ "+text)
}

// Warning renders warning text
func Warning(text string) string {
	return render(WarningStyle, "⚠ "+text)
}

// Error renders error text
func Error(text string) string {
	return render(ErrorStyle, "✗ "+text)
}
