// Package monitor polls a player on a fixed interval, the way callers are
// expected to consume its readouts.
package monitor

import (
	"context"
	"time"

	"github.com/gabrielcapilla/viewplay/internal/domain"
	"github.com/gabrielcapilla/viewplay/internal/logger"
	"github.com/gabrielcapilla/viewplay/internal/ports"

	"github.com/google/uuid"
)

const defaultInterval = 200 * time.Millisecond

type Snapshotter interface {
	Snapshot() domain.Snapshot
}

type Sampler struct {
	source    Snapshotter
	store     ports.SampleStore
	interval  time.Duration
	retain    int
	sessionID string
	onSample  func(domain.Snapshot)
}

// NewSampler returns a sampler for source. store may be nil, in which case
// samples are only logged and handed to OnSample.
func NewSampler(source Snapshotter, store ports.SampleStore, cfg domain.MonitorConfig) *Sampler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Sampler{
		source:    source,
		store:     store,
		interval:  interval,
		retain:    cfg.Retain,
		sessionID: uuid.NewString(),
	}
}

func (s *Sampler) SessionID() string { return s.sessionID }

// OnSample registers fn to receive every snapshot. Set it before Run.
func (s *Sampler) OnSample(fn func(domain.Snapshot)) { s.onSample = fn }

// Run samples until ctx is done. Store failures are logged and sampling
// continues.
func (s *Sampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Log.Info().Str("session", s.sessionID).Dur("interval", s.interval).Msg("Sampler started")

	var last domain.PlaybackState
	for {
		select {
		case <-ctx.Done():
			s.prune()
			logger.Log.Info().Str("session", s.sessionID).Msg("Sampler stopped")
			return ctx.Err()
		case <-ticker.C:
			snap := s.source.Snapshot()
			if snap.State != last {
				logger.Log.Info().
					Str("container", snap.ContainerID).
					Str("from", string(last)).
					Str("to", string(snap.State)).
					Int("viewability", snap.Viewability).
					Msg("Playback state changed")
				last = snap.State
			}
			s.record(snap)
		}
	}
}

func (s *Sampler) record(snap domain.Snapshot) {
	if s.onSample != nil {
		s.onSample(snap)
	}
	if s.store == nil {
		return
	}
	if err := s.store.AddSample(domain.Sample{SessionID: s.sessionID, Snapshot: snap}); err != nil {
		logger.Log.Warn().Err(err).Msg("Could not store sample")
	}
}

func (s *Sampler) prune() {
	if s.store == nil || s.retain <= 0 {
		return
	}
	container := s.source.Snapshot().ContainerID
	if err := s.store.Prune(container, s.retain); err != nil {
		logger.Log.Warn().Err(err).Str("container", container).Msg("Could not prune samples")
	}
}
