package ports

import "github.com/gabrielcapilla/viewplay/internal/domain"

type PlayerControl interface {
	Load(sourceURL string) error
	Play() error
	Pause() error
	Resize(width, height int) error
	SetAutoplay(autoplay bool) error
	SetVolume(percent float64) error
	SetMute(mute bool) error
	SetFullscreen(fullscreen bool) error
	Snapshot() domain.Snapshot
	Close() error
}

type SourceResolver interface {
	Resolve(source string) (string, error)
}
