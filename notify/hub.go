// Package notify pushes content-free refresh events to WebSocket viewers.
// Events carry no board data; a viewer that receives one re-pulls the full
// snapshot over HTTP. Dropping an event is therefore harmless, and every
// per-client queue is bounded so a stalled viewer can never block ingestion.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/krisvansteen/Dashboards/component"
	"github.com/krisvansteen/Dashboards/errors"
	"github.com/krisvansteen/Dashboards/pkg/buffer"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

// refreshEvent is the wire format pushed to viewers.
type refreshEvent struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	TS   int64  `json:"ts"`
}

type client struct {
	id      string
	conn    *websocket.Conn
	pending *buffer.Circular[[]byte]
	wake    chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
}

// Hub fans refresh events out to connected WebSocket clients.
type Hub struct {
	name         string
	clientBuffer int
	upgrader     websocket.Upgrader
	logger       *slog.Logger

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*client

	running   atomic.Bool
	startTime time.Time
	shutdown  chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex

	eventsSent    atomic.Int64
	eventsDropped atomic.Int64
	connections   atomic.Int64

	metrics *metrics
}

var _ component.Lifecycle = (*Hub)(nil)

// Option configures a Hub
type Option func(*Hub)

// WithLogger sets the hub logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics enables Prometheus metrics on the given registry
func WithMetrics(registry metricsRegistry) Option {
	return func(h *Hub) {
		h.metrics = newMetrics(registry)
	}
}

// WithCheckOrigin overrides the upgrader origin check
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = fn
	}
}

// NewHub creates a notification hub. clientBuffer is the per-client queue
// capacity; the oldest event is dropped when a client falls behind.
func NewHub(clientBuffer int, opts ...Option) *Hub {
	h := &Hub{
		name:         "notify",
		clientBuffer: clientBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:  slog.Default(),
		clients: make(map[*websocket.Conn]*client),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Meta returns component metadata
func (h *Hub) Meta() component.Metadata {
	return component.Metadata{
		Name:        h.name,
		Type:        "notifier",
		Description: "WebSocket refresh notifications for board viewers",
		Version:     "1.0.0",
	}
}

// Health returns the runtime health of the hub
func (h *Hub) Health() component.HealthStatus {
	h.mu.Lock()
	startTime := h.startTime
	h.mu.Unlock()

	var uptime time.Duration
	if !startTime.IsZero() {
		uptime = time.Since(startTime)
	}

	return component.HealthStatus{
		Healthy:   h.running.Load(),
		LastCheck: time.Now(),
		Uptime:    uptime,
	}
}

// Initialize validates the hub configuration
func (h *Hub) Initialize() error {
	if h.clientBuffer <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Hub", "Initialize", "client buffer must be positive")
	}
	return nil
}

// Start begins the ping maintenance loop
func (h *Hub) Start(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running.Load() {
		return nil
	}

	h.shutdown = make(chan struct{})
	h.running.Store(true)
	h.startTime = time.Now()

	h.wg.Add(1)
	go h.pingLoop()

	return nil
}

// Stop disconnects all clients and waits for goroutines to finish
func (h *Hub) Stop(timeout time.Duration) error {
	h.mu.Lock()
	if !h.running.Load() {
		h.mu.Unlock()
		return nil
	}
	h.running.Store(false)
	close(h.shutdown)
	h.mu.Unlock()

	h.clientsMu.Lock()
	for conn, c := range h.clients {
		h.closeClient(c)
		delete(h.clients, conn)
	}
	h.clientsMu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.WrapTransient(errors.ErrShuttingDown, "Hub", "Stop", "wait for client goroutines")
	}
}

// Notify enqueues one refresh event for every connected client. It never
// blocks; clients that have fallen behind lose their oldest queued event.
func (h *Hub) Notify() {
	event := refreshEvent{
		Type: "refresh",
		ID:   uuid.NewString(),
		TS:   time.Now().UnixMilli(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for _, c := range h.clients {
		if c.closed.Load() {
			continue
		}
		if err := c.pending.Write(data); err != nil {
			continue
		}
		select {
		case c.wake <- struct{}{}:
		default:
		}
	}
}

// ServeHTTP upgrades the request and registers the viewer. Mounted by the
// snapshot server at the configured notification path.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.running.Load() {
		http.Error(w, "hub not running", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	pending, err := buffer.NewCircular[[]byte](h.clientBuffer,
		buffer.WithOverflowPolicy[[]byte](buffer.DropOldest),
		buffer.WithDropCallback[[]byte](func([]byte) {
			h.eventsDropped.Add(1)
			if h.metrics != nil {
				h.metrics.eventsDropped.Inc()
			}
		}),
	)
	if err != nil {
		_ = conn.Close()
		return
	}

	c := &client{
		id:      uuid.NewString(),
		conn:    conn,
		pending: pending,
		wake:    make(chan struct{}, 1),
	}

	h.clientsMu.Lock()
	h.clients[conn] = c
	count := len(h.clients)
	h.clientsMu.Unlock()

	h.connections.Add(1)
	if h.metrics != nil {
		h.metrics.connectionsTotal.Inc()
		h.metrics.clientsConnected.Set(float64(count))
	}
	h.logger.Info("viewer connected", "client", c.id, "clients", count)

	h.wg.Add(2)
	go h.writeLoop(c)
	go h.readLoop(c)
}

// writeLoop drains the client's pending queue. The wake channel has
// capacity one so repeated notifications coalesce into a single drain.
func (h *Hub) writeLoop(c *client) {
	defer h.wg.Done()

	for {
		select {
		case <-h.shutdown:
			return
		case <-c.wake:
		}

		for _, data := range c.pending.ReadBatch(h.clientBuffer) {
			c.writeMu.Lock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.TextMessage, data)
			c.writeMu.Unlock()

			if err != nil {
				h.removeClient(c)
				return
			}

			h.eventsSent.Add(1)
			if h.metrics != nil {
				h.metrics.eventsSent.Inc()
			}
		}
	}
}

// readLoop watches for the client closing its side. Inbound payloads are
// ignored; the notification channel is one-way.
func (h *Hub) readLoop(c *client) {
	defer h.wg.Done()
	defer h.removeClient(c)

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) pingLoop() {
	defer h.wg.Done()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.shutdown:
			return
		case <-ticker.C:
		}

		h.clientsMu.RLock()
		clients := make([]*client, 0, len(h.clients))
		for _, c := range h.clients {
			clients = append(clients, c)
		}
		h.clientsMu.RUnlock()

		for _, c := range clients {
			c.writeMu.Lock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()

			if err != nil {
				h.removeClient(c)
			}
		}
	}
}

func (h *Hub) removeClient(c *client) {
	h.clientsMu.Lock()
	delete(h.clients, c.conn)
	count := len(h.clients)
	h.clientsMu.Unlock()

	h.closeClient(c)

	if h.metrics != nil {
		h.metrics.clientsConnected.Set(float64(count))
	}
}

func (h *Hub) closeClient(c *client) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		_ = c.pending.Close()
		_ = c.conn.Close()
		h.logger.Info("viewer disconnected", "client", c.id)
	})
}

// ClientCount returns the number of connected viewers
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// EventsSent returns the number of refresh events delivered
func (h *Hub) EventsSent() int64 {
	return h.eventsSent.Load()
}

// EventsDropped returns the number of events dropped from full client queues
func (h *Hub) EventsDropped() int64 {
	return h.eventsDropped.Load()
}
