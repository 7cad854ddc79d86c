package ports

import "time"

type SurfaceEvent string

const (
	EventPlay  SurfaceEvent = "play"
	EventPause SurfaceEvent = "pause"
	EventEnded SurfaceEvent = "ended"
)

// Surface is the host's native media playback primitive. Volume is
// normalized to 0.0-1.0. Duration is NaN until metadata is known.
type Surface interface {
	SetSource(url string) error
	Play() error
	Pause() error
	SetSize(width, height int) error
	SetVolume(volume float64) error
	Volume() float64
	SetMuted(muted bool) error
	Muted() bool
	SetAutoplay(autoplay bool) error
	SetControls(enabled bool) error
	// SetFullscreen records the fullscreen intent on the surface. It does
	// not request a fullscreen transition.
	SetFullscreen(fullscreen bool) error
	Duration() float64
	// On registers handler for event and returns a func that removes it.
	On(event SurfaceEvent, handler func()) (remove func())
	Release() error
}

type Region interface {
	ID() string
	Attach(s Surface) error
	Detach(s Surface) error
}

type Host interface {
	FindRegion(id string) (Region, bool)
	CreateSurface() (Surface, error)
}

type IntersectionEntry struct {
	Ratio float64
	Time  time.Time
}

type VisibilityObserver interface {
	// Observe watches s against an unbounded root and calls cb with every
	// batch of entries crossing one of thresholds.
	Observe(s Surface, thresholds []float64, cb func([]IntersectionEntry)) (stop func(), err error)
}
