package server

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/afroash/smart-planter/internal/models"
	"github.com/afroash/smart-planter/internal/trend"
)

const subscriberBuffer = 8

// Update announces a new snapshot for a plant
type Update struct {
	PlantID  string
	Plant    *models.Plant
	Revision uint64
}

type entry struct {
	plant     *models.Plant
	revision  uint64
	updatedAt time.Time
}

// SnapshotStore keeps the latest immutable snapshot per plant and fans
// updates out to subscribers. Stored plants are shared, never copied, so
// callers must not modify them.
type SnapshotStore struct {
	logger      zerolog.Logger
	recorder    Recorder
	mutex       sync.RWMutex
	data        map[string]*entry
	subscribers map[int]chan Update
	nextSubID   int

	totalUpdates   int64
	droppedUpdates int64
	lastUpdate     time.Time
}

// StoreStats contains statistics about the snapshot store
type StoreStats struct {
	Plants         int       `json:"plants"`
	TotalUpdates   int64     `json:"total_updates"`
	Subscribers    int       `json:"subscribers"`
	DroppedUpdates int64     `json:"dropped_updates"`
	LastUpdate     time.Time `json:"last_update,omitempty"`
}

// NewSnapshotStore creates an empty store. rec may be nil.
func NewSnapshotStore(logger zerolog.Logger, rec Recorder) *SnapshotStore {
	return &SnapshotStore{
		logger:      logger,
		recorder:    recorderOrNop(rec),
		data:        make(map[string]*entry),
		subscribers: make(map[int]chan Update),
	}
}

// Set replaces the snapshot for a plant and notifies subscribers.
// Subscribers that are not keeping up miss the update.
func (s *SnapshotStore) Set(plantID string, plant *models.Plant) uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e, ok := s.data[plantID]
	if !ok {
		e = &entry{}
		s.data[plantID] = e
	}
	e.plant = plant
	e.revision++
	e.updatedAt = time.Now()
	s.totalUpdates++
	s.lastUpdate = e.updatedAt

	update := Update{PlantID: plantID, Plant: plant, Revision: e.revision}
	for id, ch := range s.subscribers {
		select {
		case ch <- update:
		default:
			s.droppedUpdates++
			s.recorder.StreamDropped()
			s.logger.Warn().Int("subscriber", id).Str("plant_id", plantID).Msg("Subscriber full, dropping update")
		}
	}
	return e.revision
}

// Get returns the current snapshot for a plant
func (s *SnapshotStore) Get(plantID string) (*models.Plant, uint64, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, ok := s.data[plantID]
	if !ok {
		return nil, 0, false
	}
	return e.plant, e.revision, true
}

// UpdatedAt returns when the plant's snapshot was last replaced
func (s *SnapshotStore) UpdatedAt(plantID string) time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if e, ok := s.data[plantID]; ok {
		return e.updatedAt
	}
	return time.Time{}
}

// IDs returns the known plant IDs in sorted order
func (s *SnapshotStore) IDs() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Subscribe registers a listener for future updates. The cancel function
// unregisters it and closes the channel; it is safe to call twice.
func (s *SnapshotStore) Subscribe() (<-chan Update, func()) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan Update, subscriberBuffer)
	s.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mutex.Lock()
			defer s.mutex.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Sink returns a function that stores each new snapshot and records the
// view derived from it
func (s *SnapshotStore) Sink(thresholds trend.Thresholds) func(string, *models.Plant) {
	return func(plantID string, plant *models.Plant) {
		revision := s.Set(plantID, plant)
		dashboard := trend.BuildDashboard(plant, thresholds)
		s.recorder.ObserveSnapshot(plantID, dashboard)
		s.logger.Info().
			Str("plant_id", plantID).
			Uint64("revision", revision).
			Bool("low_water", dashboard.Home.Alerts.LowWater).
			Bool("low_moisture", dashboard.Home.Alerts.LowMoisture).
			Int("watering_events", len(dashboard.Trend.Events)).
			Msg("Snapshot stored")
	}
}

// Stats returns statistics about the store
func (s *SnapshotStore) Stats() StoreStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return StoreStats{
		Plants:         len(s.data),
		TotalUpdates:   s.totalUpdates,
		Subscribers:    len(s.subscribers),
		DroppedUpdates: s.droppedUpdates,
		LastUpdate:     s.lastUpdate,
	}
}

var _ SnapshotReader = (*SnapshotStore)(nil)
