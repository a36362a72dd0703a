package main

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Lavender  = lipgloss.Color("#A78BFA")
	DimGray   = lipgloss.Color("#6B7280")
	LightGray = lipgloss.Color("#9CA3AF")
	White     = lipgloss.Color("#F9FAFB")
	Green     = lipgloss.Color("#10B981")
	Amber     = lipgloss.Color("#F59E0B")
)

// styles renders terminal output. The zero value is plain text.
type styles struct {
	section  lipgloss.Style
	subtitle lipgloss.Style
	title    lipgloss.Style
	dim      lipgloss.Style
	accent   lipgloss.Style
	match    lipgloss.Style
	success  lipgloss.Style
}

func colorStyles() styles {
	return styles{
		section: lipgloss.NewStyle().
			Foreground(Lavender).
			Bold(true).
			Underline(true),
		subtitle: lipgloss.NewStyle().Foreground(LightGray).Italic(true),
		title:    lipgloss.NewStyle().Foreground(White).Bold(true),
		dim:      lipgloss.NewStyle().Foreground(DimGray),
		accent:   lipgloss.NewStyle().Foreground(Amber),
		match:    lipgloss.NewStyle().Foreground(Lavender).Bold(true),
		success:  lipgloss.NewStyle().Foreground(Green),
	}
}

func plainStyles() styles {
	plain := lipgloss.NewStyle()
	return styles{
		section:  plain,
		subtitle: plain,
		title:    plain,
		dim:      plain,
		accent:   plain,
		match:    plain,
		success:  plain,
	}
}

// Raw status characters (unstyled)
const (
	InProgressChar = "◐"
	CompletedChar  = "✓"
)
