package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/afroash/smart-planter/internal/models"
	"github.com/afroash/smart-planter/internal/source"
	"github.com/afroash/smart-planter/internal/trend"
)

// APIHandler handles HTTP API requests for the planter screens
type APIHandler struct {
	store      SnapshotReader
	settings   *SettingsStore
	thresholds trend.Thresholds
	logger     zerolog.Logger

	mu      sync.RWMutex
	pollers []PollerStatser
	stream  *StreamHandler
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(store SnapshotReader, settings *SettingsStore, thresholds trend.Thresholds, logger zerolog.Logger) *APIHandler {
	return &APIHandler{
		store:      store,
		settings:   settings,
		thresholds: thresholds,
		logger:     logger,
	}
}

// AddPoller includes a poller in the stats output
func (api *APIHandler) AddPoller(p PollerStatser) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.pollers = append(api.pollers, p)
}

// SetStream includes stream client counts in the stats output
func (api *APIHandler) SetStream(s *StreamHandler) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.stream = s
}

// PlantResponse is the home screen payload
type PlantResponse struct {
	PlantID   string    `json:"plant_id"`
	Revision  uint64    `json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
	trend.HomeView
}

// TrendResponse is the details screen payload
type TrendResponse struct {
	PlantID  string `json:"plant_id"`
	Revision uint64 `json:"revision"`
	trend.TrendView
}

// DashboardData contains all view data for one plant
type DashboardData struct {
	PlantID    string           `json:"plant_id"`
	Revision   uint64           `json:"revision"`
	Dashboard  trend.Dashboard  `json:"dashboard"`
	Thresholds trend.Thresholds `json:"thresholds"`
	LastUpdate time.Time        `json:"last_update"`
}

// StatsResponse combines store, stream and source statistics
type StatsResponse struct {
	Store         StoreStats           `json:"store"`
	StreamClients int                  `json:"stream_clients"`
	Sources       []source.PollerStats `json:"sources"`
}

// lookup resolves the {id} route variable, answering 404 when unknown
func (api *APIHandler) lookup(w http.ResponseWriter, r *http.Request) (string, *models.Plant, uint64, bool) {
	plantID := mux.Vars(r)["id"]
	plant, revision, ok := api.store.Get(plantID)
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeUnknownPlant, "no snapshot for plant "+plantID)
		return plantID, nil, 0, false
	}
	return plantID, plant, revision, true
}

// HandlePlants returns the known plant IDs
func (api *APIHandler) HandlePlants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"plants": api.store.IDs()})
}

// HandlePlant returns the home view: latest reading and alerts
func (api *APIHandler) HandlePlant(w http.ResponseWriter, r *http.Request) {
	plantID, plant, revision, ok := api.lookup(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, PlantResponse{
		PlantID:   plantID,
		Revision:  revision,
		UpdatedAt: api.store.UpdatedAt(plantID),
		HomeView:  trend.BuildHomeView(plant, api.thresholds),
	})
}

// HandleTrend returns the details view: samples and watering markers
func (api *APIHandler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	plantID, plant, revision, ok := api.lookup(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, TrendResponse{
		PlantID:   plantID,
		Revision:  revision,
		TrendView: trend.BuildTrendView(plant),
	})
}

// HandleDashboardData returns combined data for one plant
func (api *APIHandler) HandleDashboardData(w http.ResponseWriter, r *http.Request) {
	plantID, plant, revision, ok := api.lookup(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, DashboardData{
		PlantID:    plantID,
		Revision:   revision,
		Dashboard:  trend.BuildDashboard(plant, api.thresholds),
		Thresholds: api.thresholds,
		LastUpdate: api.store.UpdatedAt(plantID),
	})
}

// HandleGetSettings returns the settings form
func (api *APIHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.settings.Get())
}

// HandlePutSettings replaces the settings form
func (api *APIHandler) HandlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid settings body: "+err.Error())
		return
	}

	if err := api.settings.Update(settings); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidSettings, err.Error())
		return
	}

	api.logger.Info().
		Int("water_level_target", settings.WaterLevelTarget).
		Int("moisture_target", settings.MoistureTarget).
		Msg("Settings updated")
	writeJSON(w, http.StatusOK, api.settings.Get())
}

// HandleStats returns store, stream and source statistics
func (api *APIHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	api.mu.RLock()
	resp := StatsResponse{
		Store:   api.store.Stats(),
		Sources: make([]source.PollerStats, 0, len(api.pollers)),
	}
	for _, p := range api.pollers {
		resp.Sources = append(resp.Sources, p.Stats())
	}
	if api.stream != nil {
		resp.StreamClients = api.stream.ActiveClients()
	}
	api.mu.RUnlock()

	writeJSON(w, http.StatusOK, resp)
}
