package render

import "github.com/charmbracelet/lipgloss"

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	primaryColor   = lipgloss.Color("#A78BFA") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#F87171") // Red
	mutedColor     = lipgloss.Color("#9CA3AF") // Gray
	textColor      = lipgloss.Color("#F9FAFB") // Light text
	blueColor      = lipgloss.Color("#60A5FA") // Blue
	orangeColor    = lipgloss.Color("#FB923C") // Orange
)

// styles are bound to one renderer so the color profile follows its writer.
type styles struct {
	title     lipgloss.Style
	subtitle  lipgloss.Style
	heading   lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	name      lipgloss.Style
	muted     lipgloss.Style
	warning   lipgloss.Style
	err       lipgloss.Style
	success   lipgloss.Style
	sideFor   lipgloss.Style
	against   lipgloss.Style
	selected  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:     r.NewStyle().Bold(true).Foreground(primaryColor),
		subtitle:  r.NewStyle().Foreground(mutedColor).Italic(true),
		heading:   r.NewStyle().Bold(true).Foreground(textColor),
		user:      r.NewStyle().Bold(true).Foreground(blueColor),
		assistant: r.NewStyle().Bold(true).Foreground(primaryColor),
		name:      r.NewStyle().Bold(true).Foreground(secondaryColor),
		muted:     r.NewStyle().Foreground(mutedColor),
		warning:   r.NewStyle().Foreground(warningColor),
		err:       r.NewStyle().Bold(true).Foreground(errorColor),
		success:   r.NewStyle().Foreground(secondaryColor),
		sideFor:   r.NewStyle().Bold(true).Foreground(secondaryColor),
		against:   r.NewStyle().Bold(true).Foreground(orangeColor),
		selected:  r.NewStyle().Bold(true).Foreground(primaryColor),
	}
}
