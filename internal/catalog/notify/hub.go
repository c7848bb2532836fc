// Package notify pushes catalog notifications to websocket clients grouped by topic.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/events"
	"github.com/tair/product-catalog/pkg/logger"
)

// Groups a client can join
const (
	GroupProducts   = "products"
	GroupCategories = "categories"
	GroupAlerts     = "alerts"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = (pongWait * 9) / 10
	sendBufSize = 64
)

var connectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "catalog_ws_clients",
	Help: "Currently connected websocket clients",
})

func init() {
	prometheus.MustRegister(connectedClients)
}

// GroupsFor maps an event to the groups that receive it
func GroupsFor(eventName string) []string {
	switch eventName {
	case domain.EventLowStockDetected:
		return []string{GroupAlerts, GroupProducts}
	case domain.EventCategoryCreated, domain.EventCategoryUpdated, domain.EventCategoryActivated,
		domain.EventCategoryDeactivated, domain.EventCategoryDeleted:
		return []string{GroupCategories}
	default:
		return []string{GroupProducts}
	}
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	groups map[string]bool
}

// Hub tracks connected clients. It implements events.Subscriber.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
}

// NewHub accepts upgrades from the given origins. With no origins only same-origin clients
// and clients that send no Origin header are accepted; "*" accepts any origin.
func NewHub(allowedOrigins ...string) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker returns nil for an empty allowlist, which makes the upgrader enforce same origin
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		origins[normalizeOrigin(o)] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origins[normalizeOrigin(origin)]
	}
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}

var _ events.Subscriber = (*Hub)(nil)

func (h *Hub) Name() string { return "websocket" }

// Notify queues n for every client in one of its groups. Clients whose buffer is full are dropped.
func (h *Hub) Notify(ctx context.Context, n events.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	groups := GroupsFor(n.Name)
	var slow []*client

	h.mu.RLock()
	for c := range h.clients {
		if !c.joined(groups) {
			continue
		}
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logger.Warn(ctx).Str("remote", c.conn.RemoteAddr().String()).Msg("Dropping slow websocket client")
		h.remove(c)
	}
	return nil
}

// ServeHTTP upgrades the request and subscribes the client to ?groups=a,b (default: all)
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn(r.Context()).Err(err).Msg("Websocket upgrade failed")
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, sendBufSize),
		groups: parseGroups(r.URL.Query().Get("groups")),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	connectedClients.Inc()

	logger.Info(r.Context()).
		Str("remote", conn.RemoteAddr().String()).
		Interface("groups", c.groups).
		Msg("Websocket client connected")

	go h.writePump(c)
	go h.readPump(c)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()

	connectedClients.Dec()
	c.conn.Close()
}

// readPump discards client input and detects disconnects
func (h *Hub) readPump(c *client) {
	defer h.remove(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(c)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) joined(groups []string) bool {
	for _, g := range groups {
		if c.groups[g] {
			return true
		}
	}
	return false
}

func parseGroups(raw string) map[string]bool {
	groups := make(map[string]bool)
	for _, g := range strings.Split(raw, ",") {
		switch g = strings.ToLower(strings.TrimSpace(g)); g {
		case GroupProducts, GroupCategories, GroupAlerts:
			groups[g] = true
		}
	}
	if len(groups) == 0 {
		groups[GroupProducts] = true
		groups[GroupCategories] = true
		groups[GroupAlerts] = true
	}
	return groups
}
