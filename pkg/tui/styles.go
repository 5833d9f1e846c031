package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds all the lipgloss styles for the TUI.
type Styles struct {
	// App-level styles
	App    lipgloss.Style
	Header lipgloss.Style
	Footer lipgloss.Style

	// Index styles
	IndexPane       lipgloss.Style
	Section         lipgloss.Style
	ListItemTitle   lipgloss.Style
	SelectedTitle   lipgloss.Style
	CurrentTitle    lipgloss.Style
	SelectionMarker lipgloss.Style

	// Detail styles
	DetailPane  lipgloss.Style
	DetailTitle lipgloss.Style
	DetailMeta  lipgloss.Style
	DetailBody  lipgloss.Style

	// Editor styles
	InputBox   lipgloss.Style
	InputLabel lipgloss.Style
	Disabled   lipgloss.Style

	// Status styles
	Spinner lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}
	highlight := lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD8CFF"}
	special := lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	errorColor := lipgloss.AdaptiveColor{Light: "#FF5F5F", Dark: "#FF8888"}
	text := lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#fafafa"}

	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			MarginBottom(1),

		Footer: lipgloss.NewStyle().
			Foreground(subtle).
			MarginTop(1),

		IndexPane: lipgloss.NewStyle().
			PaddingRight(2),

		Section: lipgloss.NewStyle().
			Bold(true).
			Foreground(subtle),

		ListItemTitle: lipgloss.NewStyle().
			Foreground(text),

		SelectedTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight),

		CurrentTitle: lipgloss.NewStyle().
			Underline(true).
			Foreground(special),

		SelectionMarker: lipgloss.NewStyle().
			Foreground(highlight).
			SetString("› "),

		DetailPane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), false, false, false, true).
			BorderForeground(subtle).
			PaddingLeft(2),

		DetailTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			MarginBottom(1),

		DetailMeta: lipgloss.NewStyle().
			Foreground(subtle).
			Italic(true).
			MarginTop(1),

		DetailBody: lipgloss.NewStyle().
			Foreground(text),

		InputBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight).
			Padding(1, 2),

		InputLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight),

		Disabled: lipgloss.NewStyle().
			Foreground(subtle).
			Strikethrough(true),

		Spinner: lipgloss.NewStyle().
			Foreground(special),

		Error: lipgloss.NewStyle().
			Foreground(errorColor),

		Success: lipgloss.NewStyle().
			Foreground(special),

		Muted: lipgloss.NewStyle().
			Foreground(subtle),
	}
}
