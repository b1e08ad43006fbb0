package main

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors and styles for the UI.
type Theme struct {
	UserText      lipgloss.Style
	AssistantText lipgloss.Style
	InfoText      lipgloss.Style
	WarningText   lipgloss.Style
	ErrorText     lipgloss.Style

	ToolCard    lipgloss.Style
	ToolSuccess lipgloss.Style
	ToolFailed  lipgloss.Style
	DiffAdded   lipgloss.Style
	DiffRemoved lipgloss.Style
	DiffContext lipgloss.Style

	PromptMarker lipgloss.Style
	InputText    lipgloss.Style
	Cursor       lipgloss.Style
	SelectedText lipgloss.Style
	Placeholder  lipgloss.Style

	ListItem     lipgloss.Style
	ListSelected lipgloss.Style
	ListDetail   lipgloss.Style
	ListBorder   lipgloss.Style

	Footer     lipgloss.Style
	FooterDim  lipgloss.Style
	Spinner    lipgloss.Style
	WelcomeBox lipgloss.Style
	Title      lipgloss.Style
}

// NewTheme creates the default theme.
func NewTheme() *Theme {
	accent := lipgloss.Color("#7C6AE8")
	dim := lipgloss.Color("244")
	green := lipgloss.Color("#36B37E")
	red := lipgloss.Color("#E5484D")
	yellow := lipgloss.Color("#E2B93D")

	return &Theme{
		UserText:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		AssistantText: lipgloss.NewStyle(),
		InfoText:      lipgloss.NewStyle().Foreground(dim),
		WarningText:   lipgloss.NewStyle().Foreground(yellow),
		ErrorText:     lipgloss.NewStyle().Foreground(red),

		ToolCard:    lipgloss.NewStyle().Foreground(dim),
		ToolSuccess: lipgloss.NewStyle().Foreground(green),
		ToolFailed:  lipgloss.NewStyle().Foreground(red),
		DiffAdded:   lipgloss.NewStyle().Foreground(green),
		DiffRemoved: lipgloss.NewStyle().Foreground(red),
		DiffContext: lipgloss.NewStyle().Foreground(dim),

		PromptMarker: lipgloss.NewStyle().Foreground(accent).Bold(true),
		InputText:    lipgloss.NewStyle(),
		Cursor:       lipgloss.NewStyle().Reverse(true),
		SelectedText: lipgloss.NewStyle().Background(lipgloss.Color("60")),
		Placeholder:  lipgloss.NewStyle().Foreground(dim),

		ListItem:     lipgloss.NewStyle().PaddingLeft(2),
		ListSelected: lipgloss.NewStyle().PaddingLeft(0).Foreground(accent).Bold(true),
		ListDetail:   lipgloss.NewStyle().Foreground(dim),
		ListBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dim),

		Footer:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		FooterDim:  lipgloss.NewStyle().Foreground(dim),
		Spinner:    lipgloss.NewStyle().Foreground(accent),
		WelcomeBox: lipgloss.NewStyle().Foreground(dim).PaddingLeft(1),
		Title:      lipgloss.NewStyle().Foreground(accent).Bold(true),
	}
}
