package storage

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/gabrielcapilla/viewplay/internal/domain"
	"github.com/gabrielcapilla/viewplay/internal/ports"

	"go.etcd.io/bbolt"
)

var samplesBucket = []byte("samples")

// sampleKeyLayout is fixed width so byte order matches time order.
const sampleKeyLayout = "2006-01-02T15:04:05.000000000Z"

// BboltStore keeps one nested bucket per container under "samples", keyed
// by sample time so cursor order is time order.
type BboltStore struct {
	db *bbolt.DB
}

func NewBboltStore(dbPath string) (ports.SampleStore, error) {
	options := &bbolt.Options{Timeout: 1 * time.Second}
	db, err := bbolt.Open(dbPath, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("could not open bbolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(samplesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create samples bucket: %w", err)
	}

	return &BboltStore{db: db}, nil
}

func (s *BboltStore) createSampleKey(t time.Time, sessionID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", t.UTC().Format(sampleKeyLayout), sessionID))
}

func (s *BboltStore) containerBucket(tx *bbolt.Tx, containerID string) *bbolt.Bucket {
	return tx.Bucket(samplesBucket).Bucket([]byte(containerID))
}

func (s *BboltStore) AddSample(sample domain.Sample) error {
	if sample.Snapshot.ContainerID == "" {
		return fmt.Errorf("sample has no container id")
	}
	if sample.Snapshot.TakenAt.IsZero() {
		sample.Snapshot.TakenAt = time.Now()
	}
	// JSON has no NaN; an unknown duration is stored as 0.
	if math.IsNaN(sample.Snapshot.Duration) || math.IsInf(sample.Snapshot.Duration, 0) {
		sample.Snapshot.Duration = 0
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(samplesBucket).CreateBucketIfNotExists([]byte(sample.Snapshot.ContainerID))
		if err != nil {
			return err
		}

		value, err := json.Marshal(sample)
		if err != nil {
			return fmt.Errorf("error serializing sample: %w", err)
		}

		return b.Put(s.createSampleKey(sample.Snapshot.TakenAt, sample.SessionID), value)
	})
}

// GetSamples returns up to limit samples for containerID, newest first.
func (s *BboltStore) GetSamples(containerID string, limit int) ([]domain.Sample, error) {
	var samples []domain.Sample

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := s.containerBucket(tx, containerID)
		if b == nil {
			return nil
		}
		c := b.Cursor()

		for k, v := c.Last(); k != nil && len(samples) < limit; k, v = c.Prev() {
			var sample domain.Sample
			if err := json.Unmarshal(v, &sample); err != nil {
				return fmt.Errorf("error deserializing sample: %w", err)
			}
			samples = append(samples, sample)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return samples, nil
}

func (s *BboltStore) Summarize(containerID string) (domain.SampleSummary, error) {
	summary := domain.SampleSummary{
		ContainerID: containerID,
		States:      make(map[domain.PlaybackState]int),
	}
	var total int

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := s.containerBucket(tx, containerID)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var sample domain.Sample
			if err := json.Unmarshal(v, &sample); err != nil {
				return fmt.Errorf("error deserializing sample: %w", err)
			}
			summary.Samples++
			summary.States[sample.Snapshot.State]++
			total += sample.Snapshot.Viewability
			if sample.Snapshot.Viewability > summary.MaxViewability {
				summary.MaxViewability = sample.Snapshot.Viewability
			}
			return nil
		})
	})
	if err != nil {
		return summary, err
	}

	if summary.Samples > 0 {
		summary.MeanViewability = float64(total) / float64(summary.Samples)
	}
	return summary, nil
}

// Prune keeps the newest keep samples of containerID.
func (s *BboltStore) Prune(containerID string, keep int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := s.containerBucket(tx, containerID)
		if b == nil {
			return nil
		}

		var stale [][]byte
		c := b.Cursor()
		seen := 0
		for k, _ := c.Last(); k != nil; k, _ = c.Prev() {
			seen++
			if seen > keep {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BboltStore) Close() error {
	return s.db.Close()
}
