package ws

import (
	"sync"
	"time"

	"github.com/scrumpoker/scrumpoker/globals"
	"github.com/scrumpoker/scrumpoker/types"
)

const (
	maxMessageSize   = 4096
	pongWait         = 2 * time.Minute
	pingPeriod       = time.Minute
	writeWait        = 10 * time.Second
	sendChannelSize  = 256
	removeCloseDelay = 100 * time.Millisecond
)

// Hub tracks all connected clients and routes room-scoped fan-out. Every
// fan-out enqueues to all of a room's clients under the exclusive lock, so
// two concurrent fan-outs cannot interleave: all participants of a room
// observe the same message order.
type Hub struct {
	// registered clients
	clients map[*Client]struct{}

	// playerId -> client, for private sends
	byPlayer map[string]*Client

	// roomCode -> clients, for room broadcasts
	byRoom map[string]map[*Client]struct{}

	// mutex for manipulating the clients
	sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:  make(map[*Client]struct{}),
		byPlayer: make(map[string]*Client),
		byRoom:   make(map[string]map[*Client]struct{}),
	}
}

// Register adds a freshly upgraded connection to the hub.
func (h *Hub) Register(c *Client) {
	h.Lock()
	defer h.Unlock()
	h.clients[c] = struct{}{}
	h.byPlayer[c.PlayerId] = c
}

// Unregister removes a client from all indexes and closes its send channel.
// It is safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.Lock()
	defer h.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	if h.byPlayer[c.PlayerId] == c {
		delete(h.byPlayer, c.PlayerId)
	}
	h.removeFromRoomLocked(c)
	close(c.Send)
}

// PlaceInRoom binds a client to a room. The binding is set once, on the first
// successful join of the connection's lifetime.
func (h *Hub) PlaceInRoom(c *Client, roomCode string) {
	h.Lock()
	defer h.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	if c.roomCode != "" {
		return
	}
	c.roomCode = roomCode
	room, ok := h.byRoom[roomCode]
	if !ok {
		room = make(map[*Client]struct{})
		h.byRoom[roomCode] = room
	}
	room[c] = struct{}{}
}

// RemoveFromRoom detaches a client from its room without unregistering it,
// used when a player is removed but the notice still has to flush.
func (h *Hub) RemoveFromRoom(c *Client) {
	h.Lock()
	defer h.Unlock()
	h.removeFromRoomLocked(c)
}

func (h *Hub) removeFromRoomLocked(c *Client) {
	if c.roomCode == "" {
		return
	}
	if room, ok := h.byRoom[c.roomCode]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.byRoom, c.roomCode)
		}
	}
}

// RoomCode returns the room a client is bound to, or "".
func (h *Hub) RoomCode(c *Client) string {
	h.RLock()
	defer h.RUnlock()
	return c.roomCode
}

// ClientByPlayer resolves the live connection of a player id, if any.
func (h *Hub) ClientByPlayer(playerId string) *Client {
	h.RLock()
	defer h.RUnlock()
	return h.byPlayer[playerId]
}

// BroadcastRoom sends an event to every client in a room.
func (h *Hub) BroadcastRoom(roomCode, event string, payload interface{}) {
	h.broadcastRoom(roomCode, nil, event, payload)
}

// BroadcastRoomExcept sends an event to every client in a room except one.
func (h *Hub) BroadcastRoomExcept(roomCode string, except *Client, event string, payload interface{}) {
	h.broadcastRoom(roomCode, except, event, payload)
}

// broadcastRoom enqueues one marshalled message to every client of a room.
// The payload is marshalled outside the lock; the enqueue loop itself is
// non-blocking, so the exclusive section stays short. The exclusive (not
// shared) lock is what keeps concurrent fan-outs from interleaving per
// receiver.
func (h *Hub) broadcastRoom(roomCode string, except *Client, event string, payload interface{}) {
	data, err := types.MarshalMessage(event, payload)
	if err != nil {
		globals.AppLogger.Error("could not marshal broadcast", "event", event, "error", err)
		return
	}
	h.Lock()
	defer h.Unlock()
	for c := range h.byRoom[roomCode] {
		if c == except {
			continue
		}
		c.trySend(data)
	}
}

// SendTo sends an event privately to a single client.
func (h *Hub) SendTo(c *Client, event string, payload interface{}) {
	data, err := types.MarshalMessage(event, payload)
	if err != nil {
		globals.AppLogger.Error("could not marshal message", "event", event, "error", err)
		return
	}
	h.Lock()
	defer h.Unlock()
	if _, ok := h.clients[c]; ok {
		c.trySend(data)
	}
}

// NoClients returns the number of registered connections.
func (h *Hub) NoClients() int {
	h.RLock()
	defer h.RUnlock()
	return len(h.clients)
}
