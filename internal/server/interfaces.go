package server

import (
	"time"

	"github.com/afroash/smart-planter/internal/models"
	"github.com/afroash/smart-planter/internal/source"
	"github.com/afroash/smart-planter/internal/trend"
)

// SnapshotReader defines read access to the latest plant snapshots.
// SnapshotStore implements this interface.
type SnapshotReader interface {
	// Get returns the current snapshot and its revision for a plant
	Get(plantID string) (*models.Plant, uint64, bool)

	// UpdatedAt returns when the plant's snapshot was last replaced
	UpdatedAt(plantID string) time.Time

	// IDs returns the known plant IDs, sorted
	IDs() []string

	// Subscribe returns a channel of future updates and a cancel function
	Subscribe() (<-chan Update, func())

	// Stats returns statistics about the store
	Stats() StoreStats
}

// Recorder receives operational measurements. metrics.Metrics implements
// this interface.
type Recorder interface {
	ObserveSnapshot(plantID string, d trend.Dashboard)
	SourceError(plantID string)
	ObserveRequest(route string, code int, elapsed time.Duration)
	StreamConnected(delta int)
	StreamDropped()
}

// PollerStatser reports the state of one source poller.
// source.Poller implements this interface.
type PollerStatser interface {
	Stats() source.PollerStats
}

type nopRecorder struct{}

func (nopRecorder) ObserveSnapshot(string, trend.Dashboard) {}
func (nopRecorder) SourceError(string) {}
func (nopRecorder) ObserveRequest(string, int, time.Duration) {}
func (nopRecorder) StreamConnected(int) {}
func (nopRecorder) StreamDropped() {}

func recorderOrNop(rec Recorder) Recorder {
	if rec == nil {
		return nopRecorder{}
	}
	return rec
}
