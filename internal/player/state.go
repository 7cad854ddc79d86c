package player

import (
	"math"

	"github.com/gabrielcapilla/viewplay/internal/domain"
)

// percentTolerance absorbs float error in x*100 (0.29*100 = 28.999...).
const percentTolerance = 1e-9

// state holds the flags mirrored from surface events. isPlaying and
// hasEnded are never both true.
type state struct {
	isPlaying        bool
	hasEnded         bool
	viewabilityRatio float64
	volume           float64
	muted            bool
	autoplay         bool
	fullscreen       bool
}

func (s *state) markPlaying() {
	s.isPlaying = true
	s.hasEnded = false
}

func (s *state) markPaused() {
	s.isPlaying = false
	s.hasEnded = false
}

func (s *state) markEnded() {
	s.isPlaying = false
	s.hasEnded = true
}

func (s *state) playbackState() domain.PlaybackState {
	if s.hasEnded {
		return domain.StateEnded
	}
	if s.isPlaying {
		return domain.StatePlaying
	}
	return domain.StatePaused
}

func (s *state) setViewability(ratio float64) {
	s.viewabilityRatio = clampRatio(ratio)
}

func clampRatio(ratio float64) float64 {
	switch {
	case math.IsNaN(ratio), ratio < 0:
		return 0
	case ratio > 1:
		return 1
	}
	return ratio
}

// normalizeVolume maps a 0-100 percent onto 0.0-1.0, dropping the
// fractional percent first.
func normalizeVolume(percent float64) (float64, error) {
	if math.IsNaN(percent) {
		return 0, domain.ErrInvalidVolume
	}
	percent = math.Max(0, math.Min(100, percent))
	return math.Floor(percent) / 100.0, nil
}

func toPercent(ratio float64) int {
	if math.IsNaN(ratio) {
		return 0
	}
	return int(math.Floor(ratio*100 + percentTolerance))
}

// visibilityThresholds returns 0.0, 0.1, ... 1.0.
func visibilityThresholds() []float64 {
	thresholds := make([]float64, 11)
	for i := range thresholds {
		thresholds[i] = float64(i) / 10
	}
	return thresholds
}
