package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/afroash/smart-planter/internal/models"
	"github.com/afroash/smart-planter/internal/trend"
)

// Constants for WebSocket timeouts
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// AlertPayload is the payload of MessageTypeAlert
type AlertPayload struct {
	Alerts   trend.Alerts `json:"alerts"`
	Messages []string     `json:"messages"`
}

// SnapshotPayload is the payload of MessageTypeSnapshot
type SnapshotPayload struct {
	Revision  uint64          `json:"revision"`
	Dashboard trend.Dashboard `json:"dashboard"`
}

// StreamHandler pushes a freshly derived dashboard to WebSocket clients
// every time a plant's snapshot changes
type StreamHandler struct {
	upgrader       websocket.Upgrader
	store          SnapshotReader
	thresholds     trend.Thresholds
	logger         zerolog.Logger
	recorder       Recorder
	allowedOrigins []string
	mutex          sync.RWMutex
	clients        map[*websocket.Conn]*StreamClient
}

// StreamClient represents one connected viewer
type StreamClient struct {
	PlantID     string    `json:"plant_id"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
}

// NewStreamHandler creates a new stream handler. rec may be nil.
func NewStreamHandler(store SnapshotReader, thresholds trend.Thresholds, logger zerolog.Logger, rec Recorder, allowedOrigins ...string) *StreamHandler {
	h := &StreamHandler{
		store:          store,
		thresholds:     thresholds,
		logger:         logger,
		recorder:       recorderOrNop(rec),
		allowedOrigins: allowedOrigins,
		clients:        make(map[*websocket.Conn]*StreamClient),
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the incoming request's Origin against the configured allowlist
func (h *StreamHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	// No Origin header means same-origin request
	if origin == "" {
		return true
	}

	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}

	h.logger.Warn().Str("origin", origin).Msg("Rejected stream connection: origin not in allowlist")
	return false
}

// ServeHTTP upgrades the request and streams one plant's dashboard.
// The plant is chosen by the plant_id query parameter, defaulting to the
// first known plant.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	plantID := r.URL.Query().Get("plant_id")
	if plantID == "" {
		ids := h.store.IDs()
		if len(ids) == 0 {
			writeError(w, http.StatusNotFound, ErrCodeUnknownPlant, "no plants loaded")
			return
		}
		plantID = ids[0]
	}
	if _, _, ok := h.store.Get(plantID); !ok {
		writeError(w, http.StatusNotFound, ErrCodeUnknownPlant, "no snapshot for plant "+plantID)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	h.handleConnection(conn, plantID)
}

// handleConnection manages a single WebSocket connection
func (h *StreamHandler) handleConnection(conn *websocket.Conn, plantID string) {
	client := &StreamClient{
		PlantID:     plantID,
		RemoteAddr:  conn.RemoteAddr().String(),
		ConnectedAt: time.Now(),
	}

	// subscribe before reading the current snapshot so no update is missed
	updates, cancel := h.store.Subscribe()
	defer cancel()

	h.addClient(conn, client)
	defer h.removeClient(conn)
	defer conn.Close()

	done := make(chan struct{})
	go h.readLoop(conn, done)

	state := &viewerState{plantID: plantID}
	if plant, revision, ok := h.store.Get(plantID); ok {
		if err := h.sendSnapshot(conn, state, plant, revision); err != nil {
			h.logger.Warn().Err(err).Msg("Failed to send initial snapshot")
			return
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.PlantID != plantID || update.Revision <= state.revision {
				continue
			}
			if err := h.sendSnapshot(conn, state, update.Plant, update.Revision); err != nil {
				h.logger.Warn().Err(err).Str("plant_id", plantID).Msg("Failed to send snapshot")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.logger.Debug().Err(err).Msg("Ping failed")
				return
			}
		}
	}
}

// readLoop consumes client frames so control messages are processed.
// It closes done when the client goes away.
func (h *StreamHandler) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}
	}
}

// viewerState tracks what one connection has already been sent
type viewerState struct {
	plantID    string
	revision   uint64
	alerts     trend.Alerts
	alertsSent bool
}

// sendSnapshot derives the dashboard for a snapshot and writes it, followed
// by an alert message when the active alerts changed
func (h *StreamHandler) sendSnapshot(conn *websocket.Conn, state *viewerState, plant *models.Plant, revision uint64) error {
	dashboard := trend.BuildDashboard(plant, h.thresholds)

	msg, err := models.NewMessage(models.MessageTypeSnapshot, state.plantID, SnapshotPayload{
		Revision:  revision,
		Dashboard: dashboard,
	})
	if err != nil {
		return err
	}
	if err := h.write(conn, msg); err != nil {
		return err
	}
	state.revision = revision

	alerts := dashboard.Home.Alerts
	if state.alertsSent && state.alerts == alerts {
		return nil
	}

	alertMsg, err := models.NewMessage(models.MessageTypeAlert, state.plantID, AlertPayload{
		Alerts:   alerts,
		Messages: alerts.Messages(),
	})
	if err != nil {
		return err
	}
	if err := h.write(conn, alertMsg); err != nil {
		return err
	}
	state.alerts = alerts
	state.alertsSent = true
	return nil
}

func (h *StreamHandler) write(conn *websocket.Conn, msg *models.Message) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func (h *StreamHandler) addClient(conn *websocket.Conn, client *StreamClient) {
	h.mutex.Lock()
	h.clients[conn] = client
	h.mutex.Unlock()

	h.recorder.StreamConnected(1)
	h.logger.Info().Str("plant_id", client.PlantID).Str("remote", client.RemoteAddr).Msg("Viewer connected")
}

func (h *StreamHandler) removeClient(conn *websocket.Conn) {
	h.mutex.Lock()
	client, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mutex.Unlock()

	if ok {
		h.recorder.StreamConnected(-1)
		h.logger.Info().Str("plant_id", client.PlantID).Str("remote", client.RemoteAddr).Msg("Viewer disconnected")
	}
}

// ActiveClients returns the number of connected viewers
func (h *StreamHandler) ActiveClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Clients returns a snapshot of the connected viewers
func (h *StreamHandler) Clients() []StreamClient {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	clients := make([]StreamClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, *c)
	}
	return clients
}
