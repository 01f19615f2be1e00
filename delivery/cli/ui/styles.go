package ui

import "github.com/charmbracelet/lipgloss"

// Styles defines all lipgloss styles used in the CLI
var Styles = struct {
	Bold    lipgloss.Style
	Title   lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
	Flag    lipgloss.Style
	Muted   lipgloss.Style
	Box     lipgloss.Style
	Belts   map[string]lipgloss.Style
	Section lipgloss.Style
}{
	Bold: lipgloss.NewStyle().Bold(true),

	Title: lipgloss.NewStyle().
		Foreground(lipgloss.Color("86")).
		Bold(true).
		MarginBottom(1),

	Key:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	Value: lipgloss.NewStyle().Foreground(lipgloss.Color("229")),
	Flag:  lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
	Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginTop(1),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("86")).
		Padding(0, 1),

	Belts: map[string]lipgloss.Style{
		"white":  lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true),
		"yellow": lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
		"orange": lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		"green":  lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		"blue":   lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		"brown":  lipgloss.NewStyle().Foreground(lipgloss.Color("130")).Bold(true),
		"black":  lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Bold(true),
	},

	Section: lipgloss.NewStyle().Bold(true).MarginTop(1),
}

// Belt renders a belt name in its colour
func Belt(name string) string {
	if s, ok := Styles.Belts[name]; ok {
		return s.Render(name)
	}
	return name
}
