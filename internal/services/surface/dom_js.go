//go:build js && wasm

package surface

import (
	"fmt"
	"math"
	"sync"
	"syscall/js"
	"time"

	"github.com/gabrielcapilla/viewplay/internal/logger"
	"github.com/gabrielcapilla/viewplay/internal/ports"
)

// DOMHost looks regions up with document.getElementById and creates
// <video> elements.
type DOMHost struct {
	document js.Value
}

func NewDOMHost() *DOMHost {
	return &DOMHost{document: js.Global().Get("document")}
}

func (h *DOMHost) FindRegion(id string) (ports.Region, bool) {
	el := h.document.Call("getElementById", id)
	if el.IsNull() || el.IsUndefined() {
		return nil, false
	}
	return &DOMRegion{id: id, el: el}, true
}

func (h *DOMHost) CreateSurface() (ports.Surface, error) {
	video := h.document.Call("createElement", "video")
	if video.IsNull() || video.IsUndefined() {
		return nil, fmt.Errorf("document could not create a video element")
	}
	video.Set("className", "video-player")
	return &DOMSurface{el: video}, nil
}

type DOMRegion struct {
	id string
	el js.Value
}

func (r *DOMRegion) ID() string { return r.id }

func (r *DOMRegion) Attach(s ports.Surface) error {
	ds, ok := s.(*DOMSurface)
	if !ok {
		return fmt.Errorf("region %q only hosts DOM surfaces, got %T", r.id, s)
	}
	r.el.Call("appendChild", ds.el)
	return nil
}

func (r *DOMRegion) Detach(s ports.Surface) error {
	ds, ok := s.(*DOMSurface)
	if !ok {
		return fmt.Errorf("region %q only hosts DOM surfaces, got %T", r.id, s)
	}
	if ds.el.Get("parentNode").Equal(r.el) {
		r.el.Call("removeChild", ds.el)
	}
	return nil
}

// DOMSurface wraps an HTMLVideoElement. Every js.Func it creates is
// released by the remover returned from On or by Release.
type DOMSurface struct {
	el js.Value

	mu       sync.Mutex
	funcs    map[int]js.Func
	events   map[int]string
	nextID   int
	rejected js.Func
}

func (s *DOMSurface) SetSource(url string) error {
	s.el.Set("src", url)
	return nil
}

// Play starts playback. Rejections of the returned promise (autoplay
// policy, unsupported source) are logged, not returned.
func (s *DOMSurface) Play() error {
	promise := s.el.Call("play")
	if promise.IsUndefined() || promise.IsNull() {
		return nil
	}
	s.mu.Lock()
	if s.rejected.IsUndefined() {
		s.rejected = js.FuncOf(func(this js.Value, args []js.Value) any {
			reason := "unknown"
			if len(args) > 0 {
				reason = args[0].Call("toString").String()
			}
			logger.Log.Warn().Str("reason", reason).Msg("Video play request was rejected")
			return nil
		})
	}
	onRejected := s.rejected
	s.mu.Unlock()
	promise.Call("catch", onRejected)
	return nil
}

func (s *DOMSurface) Pause() error {
	s.el.Call("pause")
	return nil
}

func (s *DOMSurface) SetSize(width, height int) error {
	s.el.Set("width", width)
	s.el.Set("height", height)
	return nil
}

func (s *DOMSurface) SetVolume(volume float64) error {
	s.el.Set("volume", volume)
	return nil
}

func (s *DOMSurface) Volume() float64 { return s.el.Get("volume").Float() }

func (s *DOMSurface) SetMuted(muted bool) error {
	s.el.Set("muted", muted)
	return nil
}

func (s *DOMSurface) Muted() bool { return s.el.Get("muted").Bool() }

func (s *DOMSurface) SetAutoplay(autoplay bool) error {
	s.el.Set("autoplay", autoplay)
	return nil
}

func (s *DOMSurface) SetControls(enabled bool) error {
	s.el.Set("controls", enabled)
	return nil
}

// SetFullscreen only sets the attribute; requestFullscreen needs a user
// gesture the player cannot supply.
func (s *DOMSurface) SetFullscreen(fullscreen bool) error {
	s.el.Call("toggleAttribute", "data-fullscreen", fullscreen)
	return nil
}

func (s *DOMSurface) Duration() float64 {
	d := s.el.Get("duration")
	if d.Type() != js.TypeNumber {
		return math.NaN()
	}
	return d.Float()
}

func (s *DOMSurface) On(event ports.SurfaceEvent, handler func()) func() {
	fn := js.FuncOf(func(this js.Value, args []js.Value) any {
		handler()
		return nil
	})
	name := string(event)
	s.el.Call("addEventListener", name, fn)

	s.mu.Lock()
	if s.funcs == nil {
		s.funcs = make(map[int]js.Func)
		s.events = make(map[int]string)
	}
	id := s.nextID
	s.nextID++
	s.funcs[id] = fn
	s.events[id] = name
	s.mu.Unlock()

	return func() { s.removeListener(id) }
}

func (s *DOMSurface) removeListener(id int) {
	s.mu.Lock()
	fn, ok := s.funcs[id]
	name := s.events[id]
	delete(s.funcs, id)
	delete(s.events, id)
	s.mu.Unlock()
	if !ok {
		return
	}
	s.el.Call("removeEventListener", name, fn)
	fn.Release()
}

// Release stops playback, drops the source so the browser frees the
// decoder and removes the element.
func (s *DOMSurface) Release() error {
	s.mu.Lock()
	ids := make([]int, 0, len(s.funcs))
	for id := range s.funcs {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.removeListener(id)
	}

	s.el.Call("pause")
	s.el.Call("removeAttribute", "src")
	s.el.Call("load")
	s.el.Call("remove")

	s.mu.Lock()
	if !s.rejected.IsUndefined() {
		s.rejected.Release()
		s.rejected = js.Func{}
	}
	s.mu.Unlock()
	return nil
}

// DOMObserver uses the browser IntersectionObserver with the viewport as
// root.
type DOMObserver struct{}

func NewDOMObserver() *DOMObserver { return &DOMObserver{} }

func (o *DOMObserver) Observe(s ports.Surface, thresholds []float64, cb func([]ports.IntersectionEntry)) (func(), error) {
	ds, ok := s.(*DOMSurface)
	if !ok {
		return nil, fmt.Errorf("IntersectionObserver needs a DOM surface, got %T", s)
	}
	ctor := js.Global().Get("IntersectionObserver")
	if ctor.IsUndefined() {
		return nil, fmt.Errorf("IntersectionObserver is not available")
	}

	fn := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		list := args[0]
		entries := make([]ports.IntersectionEntry, 0, list.Length())
		for i := 0; i < list.Length(); i++ {
			entry := list.Index(i)
			entries = append(entries, ports.IntersectionEntry{
				Ratio: entry.Get("intersectionRatio").Float(),
				Time:  time.Now(),
			})
		}
		cb(entries)
		return nil
	})

	threshold := make([]any, len(thresholds))
	for i, t := range thresholds {
		threshold[i] = t
	}
	options := js.ValueOf(map[string]any{
		"root":      nil,
		"threshold": threshold,
	})

	observer := ctor.New(fn, options)
	observer.Call("observe", ds.el)

	var once sync.Once
	return func() {
		once.Do(func() {
			observer.Call("disconnect")
			fn.Release()
		})
	}, nil
}
