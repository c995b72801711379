// Package websocket pushes live dashboard updates to connected admins.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Entities and actions carried by dashboard messages.
const (
	EntityRegistration = "registration"
	EntityTable        = "table"

	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionConfirmed = "confirmed"
	ActionDeleted   = "deleted"
)

// Message tells the dashboard that something changed. Type is "<entity>_<action>".
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:   entity + "_" + action,
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// RegistrationMessage describes a change to one registration_form row.
func RegistrationMessage(action string, id int64, island string) Message {
	var extra map[string]any
	if island != "" {
		extra = map[string]any{"island": island}
	}
	return NewMessage(EntityRegistration, action, id, extra)
}

// RowsDeletedMessage reports a bulk delete from an admin table.
func RowsDeletedMessage(table string, count int64) Message {
	return NewMessage(EntityTable, ActionDeleted, 0, map[string]any{
		"table": table,
		"count": count,
	})
}

// Hub tracks connected dashboard clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("dashboard client connected", "clients", h.ClientCount())
}

// Unregister removes c and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast queues msg for every client. Clients with a full buffer miss it.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping dashboard message", "type", msg.Type)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
