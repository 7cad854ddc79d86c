package surface

import (
	"bufio"
	"encoding/json"
	"math"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gabrielcapilla/viewplay/internal/domain"
	"github.com/gabrielcapilla/viewplay/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMpvEvent(t *testing.T) {
	testCases := []struct {
		name      string
		line      string
		expectErr bool
		expected  mpvEvent
	}{
		{
			name:     "Pause property change",
			line:     `{"event":"property-change","id":1,"name":"pause","data":true}`,
			expected: mpvEvent{Event: "property-change", Name: "pause", Flag: true, Number: math.NaN()},
		},
		{
			name:     "Duration property change",
			line:     `{"event":"property-change","id":2,"name":"duration","data":12.48}`,
			expected: mpvEvent{Event: "property-change", Name: "duration", Number: 12.48},
		},
		{
			name:     "Duration without data",
			line:     `{"event":"property-change","id":2,"name":"duration"}`,
			expected: mpvEvent{Event: "property-change", Name: "duration", Number: math.NaN()},
		},
		{
			name:     "End of file",
			line:     `{"event":"end-file","reason":"eof","playlist_entry_id":1}`,
			expected: mpvEvent{Event: "end-file", Reason: "eof", Number: math.NaN()},
		},
		{
			name:     "Command reply",
			line:     `{"data":null,"request_id":10,"error":"success"}`,
			expected: mpvEvent{Number: math.NaN()},
		},
		{
			name:      "Malformed line",
			line:      `{"event":"end-file"`,
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := parseMpvEvent([]byte(tc.line))
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected.Event, ev.Event)
			assert.Equal(t, tc.expected.Name, ev.Name)
			assert.Equal(t, tc.expected.Reason, ev.Reason)
			assert.Equal(t, tc.expected.Flag, ev.Flag)
			if math.IsNaN(tc.expected.Number) {
				assert.True(t, math.IsNaN(ev.Number))
			} else {
				assert.Equal(t, tc.expected.Number, ev.Number)
			}
		})
	}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []ports.SurfaceEvent
}

func (r *eventRecorder) listen(s ports.Surface) {
	for _, e := range []ports.SurfaceEvent{ports.EventPlay, ports.EventPause, ports.EventEnded} {
		e := e
		s.On(e, func() {
			r.mu.Lock()
			r.events = append(r.events, e)
			r.mu.Unlock()
		})
	}
}

func (r *eventRecorder) got() []ports.SurfaceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.SurfaceEvent(nil), r.events...)
}

func TestMpvSurface_ReadEvents(t *testing.T) {
	s := NewMpvSurface("mpv", filepath.Join(t.TempDir(), "mpv.sock"), nil)
	rec := &eventRecorder{}
	rec.listen(s)

	stream := strings.Join([]string{
		`{"request_id":10,"error":"success"}`,
		`{"event":"property-change","id":1,"name":"pause","data":false}`,
		`{"event":"start-file","playlist_entry_id":1}`,
		`{"event":"file-loaded"}`,
		`{"event":"property-change","id":2,"name":"duration","data":5.5}`,
		`{"event":"property-change","id":1,"name":"pause","data":true}`,
		`not json`,
		`{"event":"property-change","id":1,"name":"pause","data":false}`,
		`{"event":"end-file","reason":"eof"}`,
		`{"event":"idle"}`,
	}, "\n")

	s.readEvents(strings.NewReader(stream))

	assert.Equal(t, []ports.SurfaceEvent{
		ports.EventPlay,
		ports.EventPause,
		ports.EventPlay,
		ports.EventEnded,
	}, rec.got())
	assert.Equal(t, 5.5, s.Duration())
}

func TestMpvSurface_PauseBeforeFileLoadedIsIgnored(t *testing.T) {
	s := NewMpvSurface("mpv", filepath.Join(t.TempDir(), "mpv.sock"), nil)
	rec := &eventRecorder{}
	rec.listen(s)

	s.handleEvent(mpvEvent{Event: "property-change", Name: "pause", Flag: false})
	s.handleEvent(mpvEvent{Event: "property-change", Name: "pause", Flag: true})
	s.handleEvent(mpvEvent{Event: "file-loaded"})
	s.handleEvent(mpvEvent{Event: "end-file", Reason: "stop"})

	assert.Empty(t, rec.got(), "paused load emits nothing")
}

func TestMpvSurface_Args(t *testing.T) {
	s := NewMpvSurface("mpv", "/tmp/viewplay-test.sock", []string{"--hwdec=auto"})
	require.NoError(t, s.SetSize(1000, 600))
	require.NoError(t, s.SetVolume(0.5))
	require.NoError(t, s.SetMuted(true))
	require.NoError(t, s.SetControls(true))

	args := s.args(4242)

	assert.Contains(t, args, "--input-ipc-server=/tmp/viewplay-test.sock")
	assert.Contains(t, args, "--geometry=1000x600")
	assert.Contains(t, args, "--volume=50")
	assert.Contains(t, args, "--mute=yes")
	assert.Contains(t, args, "--osc=yes")
	assert.Contains(t, args, "--wid=4242")
	assert.Equal(t, "--hwdec=auto", args[len(args)-1])
}

func TestMpvSurface_NotRunning(t *testing.T) {
	s := NewMpvSurface("mpv", filepath.Join(t.TempDir(), "mpv.sock"), nil)

	assert.ErrorIs(t, s.Play(), ErrNotRunning)
	assert.ErrorIs(t, s.Pause(), ErrNotRunning)
	assert.ErrorIs(t, s.SetSource("a.mp4"), ErrNotRunning)
	assert.True(t, math.IsNaN(s.Duration()))
	assert.Equal(t, 1.0, s.Volume())
}

// fakeMpv answers every IPC command with the configured error string.
type fakeMpv struct {
	mu       sync.Mutex
	commands [][]any
	reply    string
}

func startFakeMpv(t *testing.T, socket string) *fakeMpv {
	t.Helper()
	ln, err := net.Listen("unix", socket)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	f := &fakeMpv{reply: "success"}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go f.serve(conn)
		}
	}()
	return f
}

func (f *fakeMpv) serve(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)
	for scanner.Scan() {
		var cmd MpvCommand
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			continue
		}
		f.mu.Lock()
		f.commands = append(f.commands, cmd.Command)
		reply := f.reply
		f.mu.Unlock()
		encoder.Encode(map[string]any{"event": "property-change", "name": "volume", "data": 50})
		encoder.Encode(MpvResponse{Error: reply, RequestID: cmd.RequestID})
	}
}

func (f *fakeMpv) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, c := range f.commands {
		name := c[0].(string)
		if len(c) > 1 {
			if prop, ok := c[1].(string); ok && name != "loadfile" {
				name += " " + prop
			}
		}
		names = append(names, name)
	}
	return names
}

func TestMpvSurface_Commands(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "mpv.sock")
	s := NewMpvSurface("mpv", socket, nil)
	s.started = true
	fake := startFakeMpv(t, socket)

	require.NoError(t, s.SetAutoplay(false))
	require.NoError(t, s.SetSource("http://example.com/small.mp4"))
	require.NoError(t, s.Play())
	require.NoError(t, s.Pause())
	require.NoError(t, s.SetVolume(0.25))
	require.NoError(t, s.SetMuted(true))
	require.NoError(t, s.SetSize(640, 360))
	require.NoError(t, s.SetFullscreen(true))

	assert.Equal(t, []string{
		"set_property pause",
		"loadfile",
		"set_property pause",
		"set_property pause",
		"set_property volume",
		"set_property mute",
		"set_property geometry",
	}, fake.names())
	assert.Equal(t, 0.25, s.Volume())
	assert.True(t, s.Muted())

	fake.mu.Lock()
	fake.reply = "property unavailable"
	fake.mu.Unlock()

	err := s.SetVolume(0.9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "property unavailable")
	assert.Equal(t, 0.25, s.Volume(), "failed commands keep the cached value")
}

func TestMpvSurface_PlayAfterEndReloadsSource(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "mpv.sock")
	s := NewMpvSurface("mpv", socket, nil)
	s.started = true
	fake := startFakeMpv(t, socket)
	rec := &eventRecorder{}
	rec.listen(s)

	const source = "http://example.com/small.mp4"
	require.NoError(t, s.SetAutoplay(true))
	require.NoError(t, s.SetSource(source))
	s.handleEvent(mpvEvent{Event: "property-change", Name: "pause", Flag: false})
	s.handleEvent(mpvEvent{Event: "file-loaded"})
	s.handleEvent(mpvEvent{Event: "end-file", Reason: "eof"})
	before := len(fake.names())

	require.NoError(t, s.Play())

	assert.Equal(t, []string{"set_property pause", "loadfile"}, fake.names()[before:])
	fake.mu.Lock()
	reload := fake.commands[len(fake.commands)-1]
	fake.mu.Unlock()
	assert.Equal(t, source, reload[1])

	s.handleEvent(mpvEvent{Event: "file-loaded"})
	assert.Equal(t, []ports.SurfaceEvent{
		ports.EventPlay,
		ports.EventEnded,
		ports.EventPlay,
	}, rec.got())

	require.NoError(t, s.Play())
	assert.Equal(t, "set_property pause", fake.names()[len(fake.names())-1], "a loaded file is only resumed")
}

func TestMpvSurface_ObservedVolumeAndMute(t *testing.T) {
	s := NewMpvSurface("mpv", filepath.Join(t.TempDir(), "mpv.sock"), nil)

	s.readEvents(strings.NewReader(strings.Join([]string{
		`{"event":"property-change","id":3,"name":"volume","data":35.000000}`,
		`{"event":"property-change","id":4,"name":"mute","data":true}`,
	}, "\n")))

	assert.InDelta(t, 0.35, s.Volume(), 1e-9)
	assert.True(t, s.Muted())

	s.handleEvent(mpvEvent{Event: "property-change", Name: "volume", Number: 130})
	s.handleEvent(mpvEvent{Event: "property-change", Name: "mute", Flag: false})
	assert.Equal(t, 1.0, s.Volume(), "mpv's volume boost is capped")
	assert.False(t, s.Muted())
}

func TestMpvHost_Regions(t *testing.T) {
	host := NewMpvHost(domain.MpvConfig{
		SocketPath: filepath.Join(t.TempDir(), "mpv.sock"),
		Regions:    map[string]int64{"video-container": 77},
	})

	region, ok := host.FindRegion("video-container")
	require.True(t, ok)
	assert.Equal(t, "video-container", region.ID())

	_, ok = host.FindRegion("missing")
	assert.False(t, ok)

	first, err := host.CreateSurface()
	require.NoError(t, err)
	second, err := host.CreateSurface()
	require.NoError(t, err)
	assert.NotEqual(t, first.(*MpvSurface).socketPath, second.(*MpvSurface).socketPath)

	err = region.Attach(NewMemorySurface())
	assert.Error(t, err, "mpv regions only host mpv surfaces")
}
