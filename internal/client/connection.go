package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/afroash/smart-planter/internal/models"
)

// silenceTimeout is how long the stream may stay quiet, pings included,
// before the connection is treated as dead
const silenceTimeout = 90 * time.Second

// ConnectionState represents the current state of the connection
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (cs ConnectionState) String() string {
	switch cs {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// MessageHandler receives every decoded stream message
type MessageHandler func(*models.Message)

// Connection follows one plant's live stream and reconnects with
// exponential backoff when it drops
type Connection struct {
	url                      string
	handler                  MessageHandler
	logger                   zerolog.Logger
	connectTimeout           time.Duration
	reconnectInterval        time.Duration
	maxReconnectInterval     time.Duration
	currentReconnectInterval time.Duration

	stateMutex sync.RWMutex
	state      ConnectionState
	conn       *websocket.Conn
	stats      ConnectionStats
}

// ConnectionConfig holds configuration for the connection
type ConnectionConfig struct {
	BaseURL              string // http(s) address of the planter API
	PlantID              string // empty follows the server's first plant
	ConnectTimeout       time.Duration
	ReconnectInterval    time.Duration
	MaxReconnectInterval time.Duration
}

// ConnectionStats counts stream activity
type ConnectionStats struct {
	Connects  int64     `json:"connects"`
	Messages  int64     `json:"messages"`
	LastError string    `json:"last_error,omitempty"`
	LastMsgAt time.Time `json:"last_msg_at,omitempty"`
}

// StreamURL turns an http(s) API address into the stream's ws(s) URL
func StreamURL(baseURL, plantID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/stream"
	q := url.Values{}
	if plantID != "" {
		q.Set("plant_id", plantID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// NewConnection creates a new stream follower
func NewConnection(config ConnectionConfig, handler MessageHandler, logger zerolog.Logger) (*Connection, error) {
	streamURL, err := StreamURL(config.BaseURL, config.PlantID)
	if err != nil {
		return nil, err
	}
	if handler == nil {
		handler = func(*models.Message) {}
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.ReconnectInterval <= 0 {
		config.ReconnectInterval = time.Second
	}
	if config.MaxReconnectInterval < config.ReconnectInterval {
		config.MaxReconnectInterval = config.ReconnectInterval
	}

	return &Connection{
		url:                      streamURL,
		handler:                  handler,
		logger:                   logger.With().Str("url", streamURL).Logger(),
		connectTimeout:           config.ConnectTimeout,
		reconnectInterval:        config.ReconnectInterval,
		maxReconnectInterval:     config.MaxReconnectInterval,
		currentReconnectInterval: config.ReconnectInterval,
		state:                    StateDisconnected,
	}, nil
}

// URL returns the stream address being followed
func (c *Connection) URL() string {
	return c.url
}

// setState safely updates the connection state
func (c *Connection) setState(state ConnectionState) {
	c.stateMutex.Lock()
	c.state = state
	c.stateMutex.Unlock()
	c.logger.Debug().Str("state", state.String()).Msg("Connection state updated")
}

// State returns the current connection state
func (c *Connection) State() ConnectionState {
	c.stateMutex.RLock()
	defer c.stateMutex.RUnlock()
	return c.state
}

// Stats returns a copy of the stream counters
func (c *Connection) Stats() ConnectionStats {
	c.stateMutex.RLock()
	defer c.stateMutex.RUnlock()
	return c.stats
}

// Connect dials the stream once
func (c *Connection) Connect(ctx context.Context) error {
	c.setState(StateConnecting)
	c.logger.Info().Msg("Connecting to stream...")

	dialer := websocket.Dialer{HandshakeTimeout: c.connectTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.setState(StateDisconnected)
		if resp != nil {
			return fmt.Errorf("dial failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("dial failed: %w", err)
	}

	c.stateMutex.Lock()
	c.conn = conn
	c.state = StateConnected
	c.stats.Connects++
	c.stateMutex.Unlock()

	c.currentReconnectInterval = c.reconnectInterval
	c.logger.Info().Msg("Connected to stream")
	return nil
}

// Run follows the stream until ctx is cancelled, reconnecting as needed
func (c *Connection) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.Connect(ctx); err != nil {
			c.recordError(err)
			c.logger.Warn().Err(err).Msg("Connection failed")
			c.waitBeforeReconnect(ctx)
			continue
		}

		if err := c.readLoop(ctx); err != nil && ctx.Err() == nil {
			c.recordError(err)
			c.logger.Info().Err(err).Msg("Connection lost, will reconnect")
		}
		c.disconnect()
		c.waitBeforeReconnect(ctx)
	}
}

// waitBeforeReconnect waits before next reconnection attempt with exponential backoff
func (c *Connection) waitBeforeReconnect(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	c.logger.Info().Dur("delay", c.currentReconnectInterval).Msg("Waiting before reconnect")

	timer := time.NewTimer(c.currentReconnectInterval)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return
	}

	c.currentReconnectInterval *= 2
	if c.currentReconnectInterval > c.maxReconnectInterval {
		c.currentReconnectInterval = c.maxReconnectInterval
	}
}

// readLoop hands messages to the handler until the connection fails or
// ctx is cancelled
func (c *Connection) readLoop(ctx context.Context) error {
	c.stateMutex.RLock()
	conn := c.conn
	c.stateMutex.RUnlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			conn.Close()
		case <-stop:
		}
	}()

	conn.SetReadDeadline(time.Now().Add(silenceTimeout))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(silenceTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	for {
		var msg models.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errors.New("stream closed by server")
			}
			return err
		}
		conn.SetReadDeadline(time.Now().Add(silenceTimeout))

		c.stateMutex.Lock()
		c.stats.Messages++
		c.stats.LastMsgAt = time.Now()
		c.stateMutex.Unlock()

		c.logger.Debug().Str("type", string(msg.Type)).Str("plant_id", msg.PlantID).Msg("Received message")
		c.handler(&msg)
	}
}

func (c *Connection) recordError(err error) {
	c.stateMutex.Lock()
	c.stats.LastError = err.Error()
	c.stateMutex.Unlock()
}

// disconnect closes the WebSocket connection
func (c *Connection) disconnect() {
	c.stateMutex.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = StateDisconnected
	c.stateMutex.Unlock()
	c.logger.Info().Msg("Connection disconnected")
}
