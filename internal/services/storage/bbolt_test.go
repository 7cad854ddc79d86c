package storage

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/gabrielcapilla/viewplay/internal/domain"

	"github.com/stretchr/testify/require"
)

func sampleAt(container string, at time.Time, state domain.PlaybackState, viewability int) domain.Sample {
	return domain.Sample{
		SessionID: "session-1",
		Snapshot: domain.Snapshot{
			ContainerID: container,
			State:       state,
			Viewability: viewability,
			Duration:    math.NaN(),
			TakenAt:     at,
		},
	}
}

func TestBboltStore_Samples(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	store, err := NewBboltStore(dbPath)
	require.NoError(t, err, "Failed to create new bbolt store")
	defer store.Close()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.AddSample(sampleAt("video-container", base, domain.StatePaused, 0)))
	require.NoError(t, store.AddSample(sampleAt("video-container", base.Add(200*time.Millisecond), domain.StatePlaying, 40)))
	require.NoError(t, store.AddSample(sampleAt("video-container", base.Add(400*time.Millisecond), domain.StateEnded, 80)))
	require.NoError(t, store.AddSample(sampleAt("other", base, domain.StatePlaying, 100)))

	samples, err := store.GetSamples("video-container", 10)

	require.NoError(t, err, "GetSamples should not return an error")
	require.Len(t, samples, 3, "Samples of other containers must not leak in")
	require.Equal(t, domain.StateEnded, samples[0].Snapshot.State, "The newest sample should be first")
	require.Equal(t, domain.StatePlaying, samples[1].Snapshot.State)
	require.Equal(t, domain.StatePaused, samples[2].Snapshot.State)
	require.Equal(t, 0.0, samples[0].Snapshot.Duration, "Unknown duration is stored as zero")

	limited, err := store.GetSamples("video-container", 2)

	require.NoError(t, err)
	require.Len(t, limited, 2, "Samples should be truncated to the limit")
	require.Equal(t, 80, limited[0].Snapshot.Viewability)

	missing, err := store.GetSamples("missing", 5)
	require.NoError(t, err)
	require.Empty(t, missing)
}

func TestBboltStore_RejectsSampleWithoutContainer(t *testing.T) {
	store, err := NewBboltStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	require.Error(t, store.AddSample(domain.Sample{}))
}

func TestBboltStore_Summarize(t *testing.T) {
	store, err := NewBboltStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	base := time.Now()
	states := []domain.PlaybackState{domain.StatePaused, domain.StatePlaying, domain.StatePlaying, domain.StateEnded}
	for i, st := range states {
		require.NoError(t, store.AddSample(sampleAt("video-container", base.Add(time.Duration(i)*time.Millisecond), st, i*20)))
	}

	summary, err := store.Summarize("video-container")

	require.NoError(t, err)
	require.Equal(t, 4, summary.Samples)
	require.Equal(t, 2, summary.States[domain.StatePlaying])
	require.Equal(t, 1, summary.States[domain.StateEnded])
	require.Equal(t, 60, summary.MaxViewability)
	require.InDelta(t, 30.0, summary.MeanViewability, 1e-9)

	empty, err := store.Summarize("missing")
	require.NoError(t, err)
	require.Zero(t, empty.Samples)
}

func TestBboltStore_Prune(t *testing.T) {
	store, err := NewBboltStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.AddSample(sampleAt("video-container", base.Add(time.Duration(i)*time.Second), domain.StatePlaying, i)))
	}

	require.NoError(t, store.Prune("video-container", 2))

	samples, err := store.GetSamples("video-container", 10)
	require.NoError(t, err)
	require.Len(t, samples, 2, "Only the newest samples survive")
	require.Equal(t, 4, samples[0].Snapshot.Viewability)
	require.Equal(t, 3, samples[1].Snapshot.Viewability)

	require.NoError(t, store.Prune("missing", 1))
}
