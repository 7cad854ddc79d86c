package domain

import (
	"fmt"
	"time"
)

type PlaybackState string

const (
	StatePaused  PlaybackState = "paused"
	StatePlaying PlaybackState = "playing"
	StateEnded   PlaybackState = "ended"
)

func (s PlaybackState) String() string { return string(s) }

func ParsePlaybackState(s string) (PlaybackState, error) {
	switch PlaybackState(s) {
	case StatePaused, StatePlaying, StateEnded:
		return PlaybackState(s), nil
	}
	return "", fmt.Errorf("unknown playback state %q", s)
}

// Snapshot is every readout of a controller taken under one lock.
type Snapshot struct {
	ContainerID string        `json:"containerId"`
	State       PlaybackState `json:"state"`
	Viewability int           `json:"viewability"`
	Volume      int           `json:"volume"`
	Muted       bool          `json:"muted"`
	Autoplay    bool          `json:"autoplay"`
	Fullscreen  bool          `json:"fullscreen"`
	Duration    float64       `json:"duration"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	Attached    bool          `json:"attached"`
	TakenAt     time.Time     `json:"takenAt"`
}

type Sample struct {
	SessionID string   `json:"sessionId"`
	Snapshot  Snapshot `json:"snapshot"`
}

type SampleSummary struct {
	ContainerID     string                `json:"containerId"`
	Samples         int                   `json:"samples"`
	States          map[PlaybackState]int `json:"states"`
	MeanViewability float64               `json:"meanViewability"`
	MaxViewability  int                   `json:"maxViewability"`
}
