package surface

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gabrielcapilla/viewplay/internal/domain"
	"github.com/gabrielcapilla/viewplay/internal/logger"
	"github.com/gabrielcapilla/viewplay/internal/ports"
)

const (
	socketCheckRetries  = 20
	socketCheckInterval = 100 * time.Millisecond
	socketReadDeadline  = 500 * time.Millisecond
	mpvCommandReqID     = 1
	mpvObserveReqPause  = 10
	mpvObserveReqDur    = 11
	mpvObserveReqVolume = 12
	mpvObserveReqMute   = 13
)

var (
	execCommand = exec.Command

	ErrNotRunning = errors.New("mpv surface is not running")
)

type MpvCommand struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id,omitempty"`
}

type MpvResponse struct {
	Error     string `json:"error"`
	Data      any    `json:"data"`
	RequestID int    `json:"request_id"`
	Event     string `json:"event"`
}

// MpvHost maps container ids onto native window ids that mpv embeds into
// with --wid.
type MpvHost struct {
	binary     string
	socketPath string
	regions    map[string]int64
	extraArgs  []string

	mu      sync.Mutex
	created int
}

func NewMpvHost(cfg domain.MpvConfig) *MpvHost {
	binary := cfg.Binary
	if binary == "" {
		binary = "mpv"
	}
	return &MpvHost{
		binary:     binary,
		socketPath: cfg.SocketPath,
		regions:    cfg.Regions,
		extraArgs:  cfg.ExtraArgs,
	}
}

func (h *MpvHost) FindRegion(id string) (ports.Region, bool) {
	wid, ok := h.regions[id]
	if !ok {
		// viper lowercases map keys read from config files.
		wid, ok = h.regions[strings.ToLower(id)]
	}
	if !ok {
		return nil, false
	}
	return &MpvRegion{id: id, wid: wid}, true
}

// CreateSurface gives every surface its own IPC socket.
func (h *MpvHost) CreateSurface() (ports.Surface, error) {
	h.mu.Lock()
	socket := h.socketPath
	if h.created > 0 {
		socket = h.socketPath + "." + strconv.Itoa(h.created)
	}
	h.created++
	h.mu.Unlock()
	return NewMpvSurface(h.binary, socket, h.extraArgs), nil
}

type MpvRegion struct {
	id  string
	wid int64
}

func (r *MpvRegion) ID() string { return r.id }

func (r *MpvRegion) Attach(s ports.Surface) error {
	ms, ok := s.(*MpvSurface)
	if !ok {
		return fmt.Errorf("region %q only hosts mpv surfaces, got %T", r.id, s)
	}
	return ms.start(r.wid)
}

// Detach is a no-op: the window belongs to the host and the process is
// stopped by Release.
func (r *MpvRegion) Detach(s ports.Surface) error { return nil }

// MpvSurface drives one mpv process over its JSON IPC socket. Settings made
// before the region starts the process are passed as command line options.
type MpvSurface struct {
	binary     string
	socketPath string
	extraArgs  []string

	mu         sync.Mutex
	cmd        *exec.Cmd
	started    bool
	events     net.Conn
	width      int
	height     int
	volume     float64
	muted      bool
	autoplay   bool
	controls   bool
	fullscreen bool
	duration   float64
	source     string
	paused     bool
	fileLoaded bool
	ended      bool
	nextID     int
	handlers   map[ports.SurfaceEvent]map[int]func()
}

func NewMpvSurface(binary, socketPath string, extraArgs []string) *MpvSurface {
	os.Remove(socketPath)
	return &MpvSurface{
		binary:     binary,
		socketPath: socketPath,
		extraArgs:  extraArgs,
		volume:     1,
		duration:   math.NaN(),
		paused:     true,
		handlers:   make(map[ports.SurfaceEvent]map[int]func()),
	}
}

func (p *MpvSurface) args(wid int64) []string {
	args := []string{
		"--idle",
		"--input-ipc-server=" + p.socketPath,
		"--no-config",
		"--force-window=yes",
		"--keep-open=no",
		"--volume=" + strconv.Itoa(int(math.Round(p.volume*100))),
		"--mute=" + yesNo(p.muted),
		"--osc=" + yesNo(p.controls),
	}
	if p.width > 0 && p.height > 0 {
		args = append(args, fmt.Sprintf("--geometry=%dx%d", p.width, p.height))
	}
	if wid != 0 {
		args = append(args, "--wid="+strconv.FormatInt(wid, 10))
	}
	return append(args, p.extraArgs...)
}

func (p *MpvSurface) start(wid int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}

	logger.Log.Info().Str("socket", p.socketPath).Int64("wid", wid).Msg("Starting new mpv process...")
	p.cmd = execCommand(p.binary, p.args(wid)...)
	p.cmd.Stdout = logger.Log
	p.cmd.Stderr = logger.Log

	if err := p.cmd.Start(); err != nil {
		p.cmd = nil
		return fmt.Errorf("could not start mpv process: %w", err)
	}

	for range socketCheckRetries {
		if _, err := os.Stat(p.socketPath); err == nil {
			logger.Log.Info().Msg("mpv socket detected. Process ready.")
			p.started = true
			return p.subscribe()
		}
		time.Sleep(socketCheckInterval)
	}

	logger.Log.Error().Str("socket", p.socketPath).Msg("Timed out waiting for mpv socket.")
	p.cmd.Process.Kill()
	p.cmd = nil
	return fmt.Errorf("mpv process started but socket did not appear at %s", p.socketPath)
}

// subscribe opens the long lived event connection. Callers hold p.mu.
func (p *MpvSurface) subscribe() error {
	conn, err := net.Dial("unix", p.socketPath)
	if err != nil {
		return fmt.Errorf("could not open mpv event connection: %w", err)
	}
	encoder := json.NewEncoder(conn)
	for _, cmd := range []MpvCommand{
		{Command: []any{"observe_property", 1, "pause"}, RequestID: mpvObserveReqPause},
		{Command: []any{"observe_property", 2, "duration"}, RequestID: mpvObserveReqDur},
		{Command: []any{"observe_property", 3, "volume"}, RequestID: mpvObserveReqVolume},
		{Command: []any{"observe_property", 4, "mute"}, RequestID: mpvObserveReqMute},
	} {
		if err := encoder.Encode(cmd); err != nil {
			conn.Close()
			return fmt.Errorf("could not observe mpv properties: %w", err)
		}
	}
	p.events = conn
	go p.readEvents(conn)
	return nil
}

// readEvents runs until r is closed.
func (p *MpvSurface) readEvents(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		ev, err := parseMpvEvent(scanner.Bytes())
		if err != nil {
			logger.Log.Warn().Str("line", scanner.Text()).Err(err).Msg("Could not parse line from mpv")
			continue
		}
		if ev.Name == "" && ev.Event == "" {
			continue
		}
		p.handleEvent(ev)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Log.Error().Err(err).Msg("Error reading from mpv socket")
	}
}

// handleEvent folds mpv's property changes and playback events into the
// play, pause and ended signals.
func (p *MpvSurface) handleEvent(ev mpvEvent) {
	var out ports.SurfaceEvent

	p.mu.Lock()
	switch ev.Event {
	case "property-change":
		switch ev.Name {
		case "pause":
			wasPaused := p.paused
			p.paused = ev.Flag
			if p.fileLoaded && wasPaused != ev.Flag {
				out = playOrPause(ev.Flag)
			}
		case "duration":
			p.duration = ev.Number
		case "volume":
			if !math.IsNaN(ev.Number) {
				p.volume = math.Max(0, math.Min(100, ev.Number)) / 100
			}
		case "mute":
			p.muted = ev.Flag
		}
	case "file-loaded":
		p.fileLoaded = true
		p.ended = false
		if !p.paused {
			out = ports.EventPlay
		}
	case "end-file":
		p.fileLoaded = false
		switch ev.Reason {
		case "eof":
			p.ended = true
			out = ports.EventEnded
		case "error":
			logger.Log.Warn().Str("socket", p.socketPath).Msg("mpv could not play the source")
		}
	}
	p.mu.Unlock()

	if out != "" {
		p.emit(out)
	}
}

func playOrPause(paused bool) ports.SurfaceEvent {
	if paused {
		return ports.EventPause
	}
	return ports.EventPlay
}

func (p *MpvSurface) emit(event ports.SurfaceEvent) {
	p.mu.Lock()
	handlers := make([]func(), 0, len(p.handlers[event]))
	for _, h := range p.handlers[event] {
		handlers = append(handlers, h)
	}
	p.mu.Unlock()
	for _, h := range handlers {
		h()
	}
}

func (p *MpvSurface) sendCommands(cmds ...MpvCommand) ([]MpvResponse, error) {
	conn, err := net.Dial("unix", p.socketPath)
	if err != nil {
		return nil, fmt.Errorf("could not connect to mpv socket: %w", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(socketReadDeadline))

	encoder := json.NewEncoder(conn)
	for _, cmd := range cmds {
		if err := encoder.Encode(cmd); err != nil {
			return nil, fmt.Errorf("error sending mpv command: %w", err)
		}
	}

	var responses []MpvResponse
	scanner := bufio.NewScanner(conn)
	for len(responses) < len(cmds) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				logger.Log.Error().Err(err).Msg("Error reading from mpv socket")
			}
			break
		}

		line := scanner.Bytes()
		var resp MpvResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			logger.Log.Warn().Str("line", string(line)).Err(err).Msg("Could not parse line from mpv")
			continue
		}

		if resp.Event == "" && resp.RequestID > 0 {
			responses = append(responses, resp)
		}
	}
	return responses, nil
}

// command runs one IPC command on a running process. Callers hold p.mu.
func (p *MpvSurface) command(args ...any) error {
	if !p.started {
		return ErrNotRunning
	}
	responses, err := p.sendCommands(MpvCommand{Command: args, RequestID: mpvCommandReqID})
	if err != nil {
		return err
	}
	if len(responses) == 0 {
		return fmt.Errorf("mpv did not answer %v", args[0])
	}
	if responses[0].Error != "success" {
		return fmt.Errorf("mpv %v: %s", args[0], responses[0].Error)
	}
	return nil
}

// setProperty updates a running process, or only the cached value before
// the process starts.
func (p *MpvSurface) setProperty(name string, value any, cache func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		if err := p.command("set_property", name, value); err != nil {
			return err
		}
	}
	cache()
	return nil
}

func (p *MpvSurface) SetSource(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.command("set_property", "pause", !p.autoplay); err != nil {
		return err
	}
	if err := p.command("loadfile", url, "replace"); err != nil {
		return err
	}
	p.source = url
	p.ended = false
	p.duration = math.NaN()
	return nil
}

// Play resumes playback. After the source reached its end mpv sits idle
// with nothing loaded, so the source is loaded again.
func (p *MpvSurface) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.command("set_property", "pause", false); err != nil {
		return err
	}
	if !p.ended || p.source == "" {
		return nil
	}
	if err := p.command("loadfile", p.source, "replace"); err != nil {
		return err
	}
	p.ended = false
	return nil
}

func (p *MpvSurface) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.command("set_property", "pause", true)
}

func (p *MpvSurface) SetSize(width, height int) error {
	return p.setProperty("geometry", fmt.Sprintf("%dx%d", width, height), func() {
		p.width, p.height = width, height
	})
}

func (p *MpvSurface) SetVolume(volume float64) error {
	return p.setProperty("volume", volume*100, func() { p.volume = volume })
}

func (p *MpvSurface) SetMuted(muted bool) error {
	return p.setProperty("mute", muted, func() { p.muted = muted })
}

func (p *MpvSurface) SetControls(enabled bool) error {
	return p.setProperty("osc", enabled, func() { p.controls = enabled })
}

// SetAutoplay is applied on the next SetSource.
func (p *MpvSurface) SetAutoplay(autoplay bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.autoplay = autoplay
	return nil
}

// SetFullscreen keeps the intent only; mpv's fullscreen property is left
// to the host window.
func (p *MpvSurface) SetFullscreen(fullscreen bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fullscreen = fullscreen
	return nil
}

func (p *MpvSurface) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *MpvSurface) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

func (p *MpvSurface) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *MpvSurface) On(event ports.SurfaceEvent, handler func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handlers[event] == nil {
		p.handlers[event] = make(map[int]func())
	}
	id := p.nextID
	p.nextID++
	p.handlers[event][id] = handler
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.handlers[event], id)
	}
}

func (p *MpvSurface) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events != nil {
		p.events.Close()
		p.events = nil
	}
	if p.cmd != nil && p.cmd.Process != nil {
		if err := p.cmd.Process.Kill(); err != nil {
			logger.Log.Error().Err(err).Msg("Error terminating mpv process")
		}
		p.cmd.Wait()
		p.cmd = nil
	}
	p.started = false
	p.handlers = make(map[ports.SurfaceEvent]map[int]func())
	os.Remove(p.socketPath)
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
