package ui

import (
	"time"

	"github.com/gabrielcapilla/viewplay/internal/domain"
	"github.com/gabrielcapilla/viewplay/internal/ports"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	MIN_WIDTH  = 40
	MIN_HEIGHT = 14

	volumeStep = 5
)

// AppModel polls the player on every tick and maps keys onto its controls.
type AppModel struct {
	width, height int
	control       ports.PlayerControl
	interval      time.Duration
	player        PlayerModel
	keys          keyMap
	help          help.Model
	styles        Styles
	last          domain.Snapshot
}

func InitialModel(control ports.PlayerControl, source string, interval time.Duration) AppModel {
	styles := DefaultStyles()
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return AppModel{
		control:  control,
		interval: interval,
		player:   NewPlayerModel(source, styles),
		keys:     defaultKeyMap(),
		help:     help.New(),
		styles:   styles,
		last:     control.Snapshot(),
	}
}

func (m AppModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m AppModel) poll() tea.Cmd {
	control := m.control
	return func() tea.Msg { return snapshotMsg{snap: control.Snapshot()} }
}

func (m AppModel) Init() tea.Cmd { return tea.Batch(m.poll(), m.tick()) }

// run wraps a control call so its error reaches the view.
func run(call func() error) tea.Cmd {
	return func() tea.Msg {
		if err := call(); err != nil {
			return commandErrMsg{err}
		}
		return nil
	}
}

func (m AppModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	snap := m.last
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		if snap.State == domain.StatePlaying {
			return run(m.control.Pause)
		}
		return run(m.control.Play)
	case key.Matches(msg, m.keys.VolumeUp):
		return run(func() error { return m.control.SetVolume(float64(snap.Volume + volumeStep)) })
	case key.Matches(msg, m.keys.VolumeDown):
		return run(func() error { return m.control.SetVolume(float64(snap.Volume - volumeStep)) })
	case key.Matches(msg, m.keys.Mute):
		return run(func() error { return m.control.SetMute(!snap.Muted) })
	case key.Matches(msg, m.keys.Fullscreen):
		return run(func() error { return m.control.SetFullscreen(!snap.Fullscreen) })
	case key.Matches(msg, m.keys.Autoplay):
		return run(func() error { return m.control.SetAutoplay(!snap.Autoplay) })
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		if cmd == nil {
			return m, nil
		}
		return m, tea.Sequence(cmd, m.poll())
	case tickMsg:
		return m, tea.Batch(m.poll(), m.tick())
	case snapshotMsg:
		m.last = msg.snap
		m.player.SetSnapshot(msg.snap)
	case commandErrMsg:
		m.player.SetError(msg.err)
	}
	return m, nil
}

func (m AppModel) View() string {
	if m.width < MIN_WIDTH || m.height < MIN_HEIGHT {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, "Terminal too small")
	}

	availableWidth := m.width - m.styles.App.GetHorizontalFrameSize()
	helpHeight := 1
	playerHeight := m.height - helpHeight - m.styles.App.GetVerticalFrameSize() - m.styles.Box.GetVerticalFrameSize()

	m.player.SetSize(availableWidth-m.styles.Box.GetHorizontalFrameSize(), playerHeight)
	playerPanel := m.styles.Box.Width(availableWidth - m.styles.Box.GetHorizontalBorderSize()).Render(m.player.View())

	helpView := m.styles.Help.Width(availableWidth).Render(m.help.View(m.keys))

	return m.styles.App.Render(lipgloss.JoinVertical(lipgloss.Top,
		playerPanel,
		helpView,
	))
}
