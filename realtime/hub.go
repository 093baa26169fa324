package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event is the wire envelope for every websocket frame in both directions.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

func encode(name string, data any) ([]byte, error) {
	ev := Event{Name: name}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		ev.Data = raw
	}
	return json.Marshal(ev)
}

// Hub tracks the clients of one namespace and the rooms they joined. Delivery is
// at-most-once: a client whose send queue is full misses the event.
type Hub struct {
	Namespace string
	Logger    *zap.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
}

func NewHub(namespace string, logger *zap.Logger) *Hub {
	return &Hub{
		Namespace: namespace,
		Logger:    logger.With(zap.String("namespace", namespace)),
		clients:   map[*Client]struct{}{},
		rooms:     map[string]map[*Client]struct{}{},
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// unregister drops c from every room and closes its send queue.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	for room := range c.rooms {
		h.removeFromRoom(c, room)
	}
	delete(h.clients, c)
	c.closed = true
	close(c.send)
}

// Join adds c to room. Joining twice is a no-op.
func (h *Hub) Join(c *Client, room string) {
	if room == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = map[*Client]struct{}{}
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(c, room)
}

func (h *Hub) removeFromRoom(c *Client, room string) {
	delete(c.rooms, room)
	members := h.rooms[room]
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// RoomSize returns how many clients are in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// ToRoom sends an event to every client in room except the given one.
func (h *Hub) ToRoom(room string, except *Client, name string, data any) {
	msg, ok := h.encode(name, data)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		if c != except {
			h.deliver(c, name, msg)
		}
	}
}

// ToUsers sends an event to every connection of the named users except the given one.
func (h *Hub) ToUsers(usernames []string, except *Client, name string, data any) {
	msg, ok := h.encode(name, data)
	if !ok {
		return
	}
	wanted := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		wanted[u] = struct{}{}
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if _, ok := wanted[c.Identity.Username]; ok && c != except {
			h.deliver(c, name, msg)
		}
	}
}

func (h *Hub) encode(name string, data any) ([]byte, bool) {
	msg, err := encode(name, data)
	if err != nil {
		h.Logger.Error("failed to encode event", zap.String("event", name), zap.Error(err))
		return nil, false
	}
	return msg, true
}

// deliver must be called with h.mu held.
func (h *Hub) deliver(c *Client, name string, msg []byte) {
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		h.Logger.Warn("send queue full, event dropped",
			zap.String("event", name),
			zap.String("user", c.Identity.Username))
	}
}
