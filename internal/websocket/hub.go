// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package websocket

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/orewatch/internal/heuristics"
	"github.com/tomtom215/orewatch/internal/logging"
	"github.com/tomtom215/orewatch/internal/metrics"
)

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types on the feed.
const (
	MessageTypeEnforcement = "enforcement"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
)

// Message is one feed frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans enforcement signals out to connected feed clients.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]struct{}
	broadcast chan Message
	upgrader  websocket.Upgrader
}

// NewHub creates a hub. Clients are served only while RunWithContext is
// running; signals broadcast while it is stopped are dropped.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan Message, 256),
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// RunWithContext delivers broadcasts until ctx is done, then closes every
// client so a restarted hub starts clean.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Shutdown takes priority over pending broadcasts.
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case msg := <-h.broadcast:
			h.broadcastToClients(msg)
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (h *Hub) String() string {
	return "feed-hub"
}

// ServeWS upgrades an HTTP request to a feed connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("feed upgrade failed")
		return
	}
	client := NewClient(h, conn)
	h.Register(client)
	client.Start()
}

// Register adds a client to the broadcast set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.SetFeedClients(n)
	logging.Info().Uint64("client_id", c.id).Int("total_clients", n).Msg("feed client connected")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.SetFeedClients(n)
		logging.Info().Uint64("client_id", c.id).Int("total_clients", n).Msg("feed client disconnected")
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	closed := h.closeAllClients()

	reason := ShutdownReasonContextCanceled
	if ctx.Err() == context.DeadlineExceeded {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "feed-hub").
		Str("reason", string(reason)).
		Int("clients_closed", closed).
		Msg("feed hub stopped")
}

// sortedClients returns clients in id order. Caller holds h.mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	return clients
}

// broadcastToClients queues msg on every client. Clients whose buffer is
// full are disconnected.
func (h *Hub) broadcastToClients(msg Message) {
	h.mu.Lock()
	dropped := 0
	for _, c := range h.sortedClients() {
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(h.clients, c)
			dropped++
		}
	}
	n := len(h.clients)
	h.mu.Unlock()

	if dropped > 0 {
		metrics.SetFeedClients(n)
		logging.Warn().Int("dropped_clients", dropped).Msg("disconnected slow feed clients")
	}
}

func (h *Hub) closeAllClients() int {
	h.mu.Lock()
	clients := h.sortedClients()
	for _, c := range clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()

	metrics.SetFeedClients(0)
	return len(clients)
}

// BroadcastSignal queues an enforcement signal for every client.
func (h *Hub) BroadcastSignal(sig heuristics.Signal) {
	h.BroadcastJSON(MessageTypeEnforcement, sig)
}

// BroadcastJSON queues an arbitrary message. It never blocks.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		logging.Warn().Str("message_type", messageType).Msg("feed broadcast channel full, dropping message")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
