// Package player owns one playback surface inside a host region and mirrors
// its play, pause and ended events and its visibility into readouts that
// callers poll.
package player

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gabrielcapilla/viewplay/internal/domain"
	"github.com/gabrielcapilla/viewplay/internal/logger"
	"github.com/gabrielcapilla/viewplay/internal/ports"
)

type Option func(*Controller)

// WithVisibility enables viewability tracking through observer.
func WithVisibility(observer ports.VisibilityObserver) Option {
	return func(c *Controller) {
		c.observer = observer
	}
}

// Controller is safe for concurrent use. Surface calls are made without
// holding mu so adapters may dispatch events synchronously.
type Controller struct {
	containerID string
	observer    ports.VisibilityObserver

	mu            sync.Mutex
	width, height int
	surface       ports.Surface
	region        ports.Region
	removers      []func()
	stopObserving func()
	st            state
	err           error
}

// New builds a controller inside the region named containerID. When the
// region is missing the error is logged and a detached controller is
// returned: mutators report domain.ErrDetached and getters serve cached
// values.
func New(host ports.Host, containerID string, width, height int, opts ...Option) *Controller {
	c := &Controller{
		containerID: containerID,
		width:       width,
		height:      height,
		st:          state{volume: 1},
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.attach(host); err != nil {
		c.err = err
		logger.Log.Error().Err(err).Str("container", containerID).Msg("Cannot construct video player within missing region")
	}
	return c
}

func (c *Controller) attach(host ports.Host) error {
	if host == nil {
		return fmt.Errorf("%w: no host for %q", domain.ErrRegionNotFound, c.containerID)
	}
	region, ok := host.FindRegion(c.containerID)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrRegionNotFound, c.containerID)
	}

	surface, err := host.CreateSurface()
	if err != nil {
		return fmt.Errorf("could not create playback surface: %w", err)
	}
	if err := surface.SetControls(true); err != nil {
		surface.Release()
		return fmt.Errorf("could not enable controls: %w", err)
	}
	if err := surface.SetSize(c.width, c.height); err != nil {
		surface.Release()
		return fmt.Errorf("could not size playback surface: %w", err)
	}
	if err := region.Attach(surface); err != nil {
		surface.Release()
		return fmt.Errorf("could not attach playback surface to %q: %w", c.containerID, err)
	}
	c.st.volume = surface.Volume()
	c.st.muted = surface.Muted()

	c.removers = []func(){
		surface.On(ports.EventPlay, func() { c.update(c.st.markPlaying) }),
		surface.On(ports.EventPause, func() { c.update(c.st.markPaused) }),
		surface.On(ports.EventEnded, func() { c.update(c.st.markEnded) }),
	}

	if c.observer != nil {
		stop, err := c.observer.Observe(surface, visibilityThresholds(), c.onIntersection)
		if err != nil {
			logger.Log.Warn().Err(err).Str("container", c.containerID).Msg("Viewability tracking unavailable")
		} else {
			c.stopObserving = stop
		}
	}

	c.surface = surface
	c.region = region
	logger.Log.Info().Str("container", c.containerID).Int("width", c.width).Int("height", c.height).Msg("Video player attached")
	return nil
}

func (c *Controller) update(apply func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	apply()
}

func (c *Controller) onIntersection(entries []ports.IntersectionEntry) {
	if len(entries) == 0 {
		return
	}
	latest := entries[len(entries)-1]
	c.mu.Lock()
	c.st.setViewability(latest.Ratio)
	c.mu.Unlock()
}

func (c *Controller) current() (ports.Surface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface == nil {
		return nil, domain.ErrDetached
	}
	return c.surface, nil
}

func (c *Controller) ContainerID() string { return c.containerID }

// Err returns the construction error, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Controller) Attached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface != nil
}

func (c *Controller) Load(sourceURL string) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	if err := s.SetSource(sourceURL); err != nil {
		logger.Log.Warn().Err(err).Str("source", sourceURL).Msg("Could not load source")
		return fmt.Errorf("load %q: %w", sourceURL, err)
	}
	return nil
}

// Play asks the surface to start. The readout changes once the surface
// reports the play event, not when Play returns.
func (c *Controller) Play() error {
	s, err := c.current()
	if err != nil {
		return err
	}
	if err := s.Play(); err != nil {
		logger.Log.Warn().Err(err).Str("container", c.containerID).Msg("Playback start failed")
		return fmt.Errorf("play: %w", err)
	}
	return nil
}

func (c *Controller) Pause() error {
	s, err := c.current()
	if err != nil {
		return err
	}
	if err := s.Pause(); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	return nil
}

// Resize stores the dimensions and applies them to the surface. The stored
// values change even if the surface rejects them.
func (c *Controller) Resize(width, height int) error {
	c.mu.Lock()
	c.width, c.height = width, height
	s := c.surface
	c.mu.Unlock()

	if s == nil {
		return domain.ErrDetached
	}
	if err := s.SetSize(width, height); err != nil {
		return fmt.Errorf("resize: %w", err)
	}
	return nil
}

func (c *Controller) Width() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width
}

func (c *Controller) Height() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

func (c *Controller) SetAutoplay(autoplay bool) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	if err := s.SetAutoplay(autoplay); err != nil {
		return fmt.Errorf("set autoplay: %w", err)
	}
	c.update(func() { c.st.autoplay = autoplay })
	return nil
}

// SetVolume takes a 0-100 percent. Out of range values are clamped and the
// fractional part is dropped.
func (c *Controller) SetVolume(percent float64) error {
	normalized, err := normalizeVolume(percent)
	if err != nil {
		return err
	}
	s, err := c.current()
	if err != nil {
		return err
	}
	if err := s.SetVolume(normalized); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	c.update(func() { c.st.volume = normalized })
	return nil
}

// Volume returns the surface volume as a 0-100 percent.
func (c *Controller) Volume() int {
	c.mu.Lock()
	s, cached := c.surface, c.st.volume
	c.mu.Unlock()
	if s == nil {
		return toPercent(cached)
	}
	return toPercent(s.Volume())
}

func (c *Controller) SetMute(mute bool) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	if err := s.SetMuted(mute); err != nil {
		return fmt.Errorf("set mute: %w", err)
	}
	c.update(func() { c.st.muted = mute })
	return nil
}

func (c *Controller) Muted() bool {
	c.mu.Lock()
	s, cached := c.surface, c.st.muted
	c.mu.Unlock()
	if s == nil {
		return cached
	}
	return s.Muted()
}

// Duration is in seconds and NaN until the surface knows it.
func (c *Controller) Duration() float64 {
	s, err := c.current()
	if err != nil {
		return math.NaN()
	}
	return s.Duration()
}

// SetFullscreen only records the intent on the surface; no fullscreen
// transition is requested from the host.
func (c *Controller) SetFullscreen(fullscreen bool) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	if err := s.SetFullscreen(fullscreen); err != nil {
		return fmt.Errorf("set fullscreen: %w", err)
	}
	c.update(func() { c.st.fullscreen = fullscreen })
	return nil
}

func (c *Controller) Fullscreen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.fullscreen
}

func (c *Controller) Autoplay() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.autoplay
}

// PlaybackState is derived from the cached event flags, not queried from
// the surface.
func (c *Controller) PlaybackState() domain.PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.playbackState()
}

// Viewability is the visible share of the surface as a 0-100 percent.
func (c *Controller) Viewability() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return toPercent(c.st.viewabilityRatio)
}

func (c *Controller) Snapshot() domain.Snapshot {
	c.mu.Lock()
	s := c.surface
	snap := domain.Snapshot{
		ContainerID: c.containerID,
		State:       c.st.playbackState(),
		Viewability: toPercent(c.st.viewabilityRatio),
		Volume:      toPercent(c.st.volume),
		Muted:       c.st.muted,
		Autoplay:    c.st.autoplay,
		Fullscreen:  c.st.fullscreen,
		Duration:    math.NaN(),
		Width:       c.width,
		Height:      c.height,
		Attached:    s != nil,
		TakenAt:     time.Now(),
	}
	c.mu.Unlock()

	if s != nil {
		snap.Volume = toPercent(s.Volume())
		snap.Muted = s.Muted()
		snap.Duration = s.Duration()
	}
	return snap
}

// Close removes event handlers, stops viewability tracking and releases
// the surface. It is safe to call more than once.
func (c *Controller) Close() error {
	c.mu.Lock()
	s, region := c.surface, c.region
	removers, stop := c.removers, c.stopObserving
	c.surface, c.region, c.removers, c.stopObserving = nil, nil, nil, nil
	c.mu.Unlock()

	if s == nil {
		return nil
	}
	if stop != nil {
		stop()
	}
	for _, remove := range removers {
		remove()
	}
	if region != nil {
		if err := region.Detach(s); err != nil {
			logger.Log.Warn().Err(err).Str("container", c.containerID).Msg("Could not detach playback surface")
		}
	}
	if err := s.Release(); err != nil {
		return fmt.Errorf("release playback surface: %w", err)
	}
	logger.Log.Info().Str("container", c.containerID).Msg("Video player released")
	return nil
}
