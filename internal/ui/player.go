package ui

import (
	"fmt"
	"strings"

	"github.com/gabrielcapilla/viewplay/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

type PlayerModel struct {
	width, height int
	source        string
	snap          domain.Snapshot
	err           error
	styles        Styles
}

func NewPlayerModel(source string, styles Styles) PlayerModel {
	return PlayerModel{source: source, styles: styles, snap: domain.Snapshot{State: domain.StatePaused}}
}

func (m *PlayerModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *PlayerModel) SetSnapshot(snap domain.Snapshot) { m.snap = snap }

func (m *PlayerModel) SetError(err error) { m.err = err }

func (m PlayerModel) stateView() string {
	label := strings.ToUpper(m.snap.State.String())
	switch m.snap.State {
	case domain.StatePlaying:
		return m.styles.Playing.Render(label)
	case domain.StateEnded:
		return m.styles.Ended.Render(label)
	default:
		return m.styles.Paused.Render(label)
	}
}

func (m PlayerModel) row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Left, m.styles.Label.Render(label), value)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (m PlayerModel) View() string {
	meterWidth := max(10, m.width-24)

	if !m.snap.Attached {
		content := lipgloss.JoinVertical(lipgloss.Left,
			m.styles.Title.Render(m.snap.ContainerID),
			m.styles.ErrorText.Render("No playback surface attached"),
		)
		return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, content)
	}

	volume := fmt.Sprintf("%s %3d%%", m.styles.Meter.Render(meter(m.snap.Volume, meterWidth)), m.snap.Volume)
	if m.snap.Muted {
		volume += " (muted)"
	}

	rows := []string{
		m.styles.Title.Render(m.snap.ContainerID),
		m.row("source", truncate(m.source, max(4, m.width-12))),
		m.row("state", m.stateView()),
		m.row("viewable", fmt.Sprintf("%s %3d%%", m.styles.Meter.Render(meter(m.snap.Viewability, meterWidth)), m.snap.Viewability)),
		m.row("volume", volume),
		m.row("duration", formatDuration(m.snap.Duration)),
		m.row("size", fmt.Sprintf("%dx%d", m.snap.Width, m.snap.Height)),
		m.row("autoplay", onOff(m.snap.Autoplay)),
		m.row("fullscreen", onOff(m.snap.Fullscreen)),
	}
	if m.err != nil {
		rows = append(rows, m.styles.ErrorText.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, lipgloss.JoinVertical(lipgloss.Left, rows...))
}
