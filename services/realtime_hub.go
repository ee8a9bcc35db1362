package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/karthikosa11/smartcal-nutrition-tracker/logger"
)

// Event kinds pushed to connected clients.
const (
	EventMealCreated  = "meal.created"
	EventMealUpdated  = "meal.updated"
	EventMealDeleted  = "meal.deleted"
	EventStatsUpdated = "stats.updated"
)

// Event is the message written to websocket subscribers.
type Event struct {
	Kind string    `json:"kind"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

// EventPublisher receives domain events after they are committed.
type EventPublisher interface {
	Publish(userID string, kind string, data any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, any) {}

// writeWait bounds a single write so a stalled peer cannot hold up Publish.
const writeWait = 5 * time.Second

// Conn is the subset of *websocket.Conn the hub writes to.
type Conn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type WSClient struct {
	UserID string
	Conn   Conn

	writeMu sync.Mutex
}

func (c *WSClient) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(messageType, data)
}

// Ping writes a websocket ping frame.
func (c *WSClient) Ping() error { return c.write(websocket.PingMessage, nil) }

// RealtimeHub fans events out to every open socket of a user.
type RealtimeHub struct {
	mu      sync.RWMutex
	clients map[string]map[*WSClient]struct{}
}

func NewRealtimeHub() *RealtimeHub {
	return &RealtimeHub{clients: make(map[string]map[*WSClient]struct{})}
}

func (h *RealtimeHub) Register(c *WSClient) {
	h.mu.Lock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*WSClient]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	h.mu.Unlock()
}

func (h *RealtimeHub) Unregister(c *WSClient) {
	h.mu.Lock()
	if set := h.clients[c.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	_ = c.Conn.Close()
}

// Connected returns how many sockets a user has open.
func (h *RealtimeHub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *RealtimeHub) Publish(userID, kind string, data any) {
	msg, err := json.Marshal(Event{Kind: kind, Data: data, At: time.Now().UTC()})
	if err != nil {
		logger.Warn("realtime: marshal event", zap.String("kind", kind), zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(websocket.TextMessage, msg); err != nil {
			logger.Debug("realtime: drop client", zap.String("userID", userID), zap.Error(err))
			h.Unregister(c)
		}
	}
}
