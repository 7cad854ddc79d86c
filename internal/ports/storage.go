package ports

import "github.com/gabrielcapilla/viewplay/internal/domain"

type SampleStore interface {
	AddSample(sample domain.Sample) error
	GetSamples(containerID string, limit int) ([]domain.Sample, error)
	Summarize(containerID string) (domain.SampleSummary, error)
	Prune(containerID string, keep int) error
	Close() error
}
