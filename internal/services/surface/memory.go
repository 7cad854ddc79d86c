package surface

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/gabrielcapilla/viewplay/internal/ports"
)

var ErrReleased = errors.New("surface released")

// MemoryHost keeps regions and surfaces in process. It backs tests and the
// headless simulation.
type MemoryHost struct {
	mu       sync.Mutex
	regions  map[string]*MemoryRegion
	surfaces []*MemorySurface
}

func NewMemoryHost(regionIDs ...string) *MemoryHost {
	h := &MemoryHost{regions: make(map[string]*MemoryRegion)}
	for _, id := range regionIDs {
		h.regions[id] = &MemoryRegion{id: id}
	}
	return h
}

func (h *MemoryHost) FindRegion(id string) (ports.Region, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.regions[id]
	if !ok {
		return nil, false
	}
	return r, true
}

func (h *MemoryHost) CreateSurface() (ports.Surface, error) {
	s := NewMemorySurface()
	h.mu.Lock()
	h.surfaces = append(h.surfaces, s)
	h.mu.Unlock()
	return s, nil
}

// Surfaces returns every surface created so far, oldest first.
func (h *MemoryHost) Surfaces() []*MemorySurface {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*MemorySurface(nil), h.surfaces...)
}

func (h *MemoryHost) Region(id string) *MemoryRegion {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.regions[id]
}

type MemoryRegion struct {
	id       string
	mu       sync.Mutex
	children []ports.Surface
}

func (r *MemoryRegion) ID() string { return r.id }

func (r *MemoryRegion) Attach(s ports.Surface) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.children = append(r.children, s)
	return nil
}

func (r *MemoryRegion) Detach(s ports.Surface) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, child := range r.children {
		if child == s {
			r.children = append(r.children[:i], r.children[i+1:]...)
			return nil
		}
	}
	return errors.New("surface is not attached to region " + r.id)
}

func (r *MemoryRegion) Children() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.children)
}

// MemorySurface records every command it receives. Play and Pause do not
// emit events on their own unless AutoEmit is set; tests drive events with
// Emit.
type MemorySurface struct {
	mu         sync.Mutex
	source     string
	width      int
	height     int
	volume     float64
	muted      bool
	autoplay   bool
	controls   bool
	fullscreen bool
	duration   float64
	released   bool
	autoEmit   bool
	playErr    error
	nextID     int
	handlers   map[ports.SurfaceEvent]map[int]func()
}

func NewMemorySurface() *MemorySurface {
	return &MemorySurface{
		volume:   1,
		duration: math.NaN(),
		handlers: make(map[ports.SurfaceEvent]map[int]func()),
	}
}

// SetAutoEmit makes Play and Pause dispatch their events synchronously.
func (s *MemorySurface) SetAutoEmit(on bool) {
	s.mu.Lock()
	s.autoEmit = on
	s.mu.Unlock()
}

// FailPlay makes every following Play return err.
func (s *MemorySurface) FailPlay(err error) {
	s.mu.Lock()
	s.playErr = err
	s.mu.Unlock()
}

func (s *MemorySurface) SetMetadata(duration float64) {
	s.mu.Lock()
	s.duration = duration
	s.mu.Unlock()
}

func (s *MemorySurface) guard() error {
	if s.released {
		return ErrReleased
	}
	return nil
}

func (s *MemorySurface) SetSource(url string) error {
	s.mu.Lock()
	if err := s.guard(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.source = url
	s.duration = math.NaN()
	autoplay := s.autoplay && s.autoEmit
	s.mu.Unlock()
	if autoplay {
		s.Emit(ports.EventPlay)
	}
	return nil
}

func (s *MemorySurface) Play() error {
	s.mu.Lock()
	if err := s.guard(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.playErr != nil {
		err := s.playErr
		s.mu.Unlock()
		return err
	}
	emit := s.autoEmit
	s.mu.Unlock()
	if emit {
		s.Emit(ports.EventPlay)
	}
	return nil
}

func (s *MemorySurface) Pause() error {
	s.mu.Lock()
	if err := s.guard(); err != nil {
		s.mu.Unlock()
		return err
	}
	emit := s.autoEmit
	s.mu.Unlock()
	if emit {
		s.Emit(ports.EventPause)
	}
	return nil
}

func (s *MemorySurface) set(apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	apply()
	return nil
}

func (s *MemorySurface) SetSize(width, height int) error {
	return s.set(func() { s.width, s.height = width, height })
}

func (s *MemorySurface) SetVolume(volume float64) error {
	return s.set(func() { s.volume = volume })
}

func (s *MemorySurface) SetMuted(muted bool) error {
	return s.set(func() { s.muted = muted })
}

func (s *MemorySurface) SetAutoplay(autoplay bool) error {
	return s.set(func() { s.autoplay = autoplay })
}

func (s *MemorySurface) SetControls(enabled bool) error {
	return s.set(func() { s.controls = enabled })
}

func (s *MemorySurface) SetFullscreen(fullscreen bool) error {
	return s.set(func() { s.fullscreen = fullscreen })
}

func (s *MemorySurface) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *MemorySurface) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

func (s *MemorySurface) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *MemorySurface) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

func (s *MemorySurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *MemorySurface) Autoplay() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoplay
}

func (s *MemorySurface) Controls() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controls
}

func (s *MemorySurface) Fullscreen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullscreen
}

func (s *MemorySurface) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

func (s *MemorySurface) On(event ports.SurfaceEvent, handler func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handlers[event] == nil {
		s.handlers[event] = make(map[int]func())
	}
	id := s.nextID
	s.nextID++
	s.handlers[event][id] = handler
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers[event], id)
	}
}

// Listeners counts the handlers currently registered for event.
func (s *MemorySurface) Listeners(event ports.SurfaceEvent) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers[event])
}

// Emit dispatches event to its handlers on the calling goroutine.
func (s *MemorySurface) Emit(event ports.SurfaceEvent) {
	s.mu.Lock()
	handlers := make([]func(), 0, len(s.handlers[event]))
	for _, h := range s.handlers[event] {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()
	for _, h := range handlers {
		h()
	}
}

func (s *MemorySurface) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	s.handlers = make(map[ports.SurfaceEvent]map[int]func())
	return nil
}

// MemoryObserver delivers ratios pushed with Report.
type MemoryObserver struct {
	mu         sync.Mutex
	nextID     int
	watchers   map[int]memoryWatch
	thresholds []float64
}

type memoryWatch struct {
	surface ports.Surface
	cb      func([]ports.IntersectionEntry)
}

func NewMemoryObserver() *MemoryObserver {
	return &MemoryObserver{watchers: make(map[int]memoryWatch)}
}

func (o *MemoryObserver) Observe(s ports.Surface, thresholds []float64, cb func([]ports.IntersectionEntry)) (func(), error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextID
	o.nextID++
	o.watchers[id] = memoryWatch{surface: s, cb: cb}
	o.thresholds = append([]float64(nil), thresholds...)
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.watchers, id)
	}, nil
}

// Report sends ratios as one batch to every watcher of s.
func (o *MemoryObserver) Report(s ports.Surface, ratios ...float64) {
	now := time.Now()
	entries := make([]ports.IntersectionEntry, len(ratios))
	for i, r := range ratios {
		entries[i] = ports.IntersectionEntry{Ratio: r, Time: now}
	}

	o.mu.Lock()
	var callbacks []func([]ports.IntersectionEntry)
	for _, w := range o.watchers {
		if w.surface == s {
			callbacks = append(callbacks, w.cb)
		}
	}
	o.mu.Unlock()

	for _, cb := range callbacks {
		cb(entries)
	}
}

func (o *MemoryObserver) Watching() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.watchers)
}

// Thresholds returns the thresholds of the most recent Observe call.
func (o *MemoryObserver) Thresholds() []float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]float64(nil), o.thresholds...)
}
