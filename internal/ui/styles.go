package ui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	App       lipgloss.Style
	Box       lipgloss.Style
	Title     lipgloss.Style
	Label     lipgloss.Style
	Playing   lipgloss.Style
	Paused    lipgloss.Style
	Ended     lipgloss.Style
	Meter     lipgloss.Style
	ErrorText lipgloss.Style
	Help      lipgloss.Style
}

func DefaultStyles() Styles {
	s := Styles{}
	s.App = lipgloss.NewStyle().Padding(0, 1)
	s.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder(), true).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 1)
	s.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	s.Label = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	s.Playing = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	s.Paused = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	s.Ended = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	s.Meter = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	s.ErrorText = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	s.Help = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	return s
}
