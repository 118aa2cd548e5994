package source

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/afroash/smart-planter/internal/models"
)

// SinkFunc receives each new snapshot
type SinkFunc func(plantID string, plant *models.Plant)

// Poller periodically reloads a source and hands changed snapshots to a sink
type Poller struct {
	plantID  string
	source   Source
	sink     SinkFunc
	interval time.Duration
	logger   zerolog.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// OnError is called for every failed load, if set
	OnError func(plantID string, err error)

	// Stats
	mu          sync.RWMutex
	last        *models.Plant
	totalLoads  int64
	totalErrors int64
	totalPushed int64
	lastLoad    time.Time
	lastError   string
}

// PollerConfig holds configuration for the poller
type PollerConfig struct {
	PlantID  string
	Interval time.Duration // How often to reload (default: 30s)
}

// PollerStats contains statistics about the poller
type PollerStats struct {
	PlantID     string    `json:"plant_id"`
	Source      string    `json:"source"`
	TotalLoads  int64     `json:"total_loads"`
	TotalErrors int64     `json:"total_errors"`
	TotalPushed int64     `json:"total_pushed"`
	LastLoad    time.Time `json:"last_load,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// NewPoller creates a poller. Call Start to run the reload loop.
func NewPoller(src Source, sink SinkFunc, config PollerConfig, logger zerolog.Logger) *Poller {
	interval := config.Interval
	if interval <= 0 {
		defaultInterval := 30 * time.Second
		logger.Warn().
			Dur("provided_interval", interval).
			Dur("default_interval", defaultInterval).
			Msg("Invalid reload interval provided (zero or negative), using default")
		interval = defaultInterval
	}

	return &Poller{
		plantID:  config.PlantID,
		source:   src,
		sink:     sink,
		interval: interval,
		logger:   logger.With().Str("plant_id", config.PlantID).Str("source", src.Name()).Logger(),
		stopChan: make(chan struct{}),
	}
}

// Start runs one load immediately, then reloads on every tick until Stop
func (p *Poller) Start() {
	p.wg.Add(1)
	go p.pollLoop()

	p.logger.Info().Dur("interval", p.interval).Msg("Poller started")
}

func (p *Poller) pollLoop() {
	defer p.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-p.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	p.Poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Poll(ctx)
		case <-p.stopChan:
			p.logger.Info().Msg("Poller stopped")
			return
		}
	}
}

// Poll loads the source once. It returns true when a new snapshot was
// handed to the sink. On failure the previous snapshot stays current.
func (p *Poller) Poll(ctx context.Context) bool {
	plant, err := p.source.Load(ctx)

	p.mu.Lock()
	p.totalLoads++
	p.lastLoad = time.Now()
	if err != nil {
		p.totalErrors++
		p.lastError = err.Error()
		p.mu.Unlock()

		p.logger.Error().Err(err).Msg("Failed to load snapshot")
		if p.OnError != nil {
			p.OnError(p.plantID, err)
		}
		return false
	}
	p.lastError = ""

	if p.last != nil && reflect.DeepEqual(p.last, plant) {
		p.mu.Unlock()
		p.logger.Debug().Msg("Snapshot unchanged")
		return false
	}
	p.last = plant
	p.totalPushed++
	p.mu.Unlock()

	p.logger.Info().Int("samples", len(plant.TrendData)).Msg("New snapshot loaded")
	p.sink(p.plantID, plant)
	return true
}

// Stop gracefully stops the poller
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
		p.wg.Wait()
	})
}

// Stats returns current poller statistics
func (p *Poller) Stats() PollerStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return PollerStats{
		PlantID:     p.plantID,
		Source:      p.source.Name(),
		TotalLoads:  p.totalLoads,
		TotalErrors: p.totalErrors,
		TotalPushed: p.totalPushed,
		LastLoad:    p.lastLoad,
		LastError:   p.lastError,
	}
}
