// Package stream pushes race snapshots to WebSocket clients.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/coffeerun/internal/adapters/repository"
	"github.com/okian/coffeerun/internal/domain/session"
	"github.com/okian/coffeerun/pkg/logger"
	"github.com/okian/coffeerun/pkg/metrics"
)

const (
	defaultBuffer     = 8
	defaultPingPeriod = 25 * time.Second
	writeWait         = 10 * time.Second
	readLimit         = 1 << 10
)

// Views resolves the current view of a session.
type Views interface {
	GetRace(ctx context.Context, id string) (session.View, error)
}

// Hub fans session views out to the clients watching them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	total   int

	upgrader   websocket.Upgrader
	buffer     int
	pingPeriod time.Duration
	logger     logger.Logger
}

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[string]map[*client]struct{}),
		buffer:     defaultBuffer,
		pingPeriod: defaultPingPeriod,
		upgrader: websocket.Upgrader{
			// The viewer is served from the same binary but may sit behind
			// a different host name.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("stream")
	}

	return h
}

// Publish sends v to every client of its session. Slow clients lose the
// snapshot rather than stall the caller.
func (h *Hub) Publish(ctx context.Context, v session.View) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subs := h.clients[v.ID]
	if len(subs) == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error(ctx, "encode view", logger.String("session", v.ID), logger.Error(err))
		return
	}
	for c := range subs {
		select {
		case c.send <- data:
		default:
			metrics.RecordStreamDropped()
		}
	}
}

// CloseSession disconnects every client of id.
func (h *Hub) CloseSession(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients[id] {
		c.close()
		h.total--
	}
	delete(h.clients, id)
	metrics.UpdateStreamClients(h.total)
}

// Clients returns the number of clients watching id.
func (h *Hub) Clients(id string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[id])
}

func (h *Hub) add(id string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.clients[id]
	if !ok {
		subs = make(map[*client]struct{})
		h.clients[id] = subs
	}
	subs[c] = struct{}{}
	h.total++
	metrics.UpdateStreamClients(h.total)
}

func (h *Hub) remove(id string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.clients[id]
	if _, ok := subs[c]; !ok {
		return
	}
	delete(subs, c)
	if len(subs) == 0 {
		delete(h.clients, id)
	}
	h.total--
	c.close()
	metrics.UpdateStreamClients(h.total)
}

// Handler serves GET /races/{id}/stream. The current view is sent first,
// then every published one.
func (h *Hub) Handler(views Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		view, err := views.GetRace(r.Context(), id)
		if err != nil {
			status := http.StatusServiceUnavailable
			if errors.Is(err, repository.ErrNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Debug(r.Context(), "upgrade failed", logger.Error(err))
			return
		}

		initial, err := json.Marshal(view)
		if err != nil {
			_ = conn.Close()
			return
		}
		c := &client{conn: conn, send: make(chan []byte, h.buffer)}
		c.send <- initial
		h.add(id, c)

		go h.writeLoop(c)
		h.readLoop(id, c)
	}
}

// readLoop discards client messages and keeps the read deadline fresh. It
// returns when the client goes away.
func (h *Hub) readLoop(id string, c *client) {
	defer h.remove(id, c)

	c.conn.SetReadLimit(readLimit)
	wait := h.pingPeriod * 2
	_ = c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop owns every write on the connection.
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(h.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "race closed"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
