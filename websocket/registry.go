package websocket

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Registry tracks which connections are currently associated with
// which room, to support targeted broadcast. Entries vanish when a
// connection disconnects; nothing is persisted.
type Registry struct {
	rooms map[uint]map[*Client]bool
	mu    sync.RWMutex
	log   *logrus.Logger
}

func NewRegistry(log *logrus.Logger) *Registry {
	return &Registry{
		rooms: make(map[uint]map[*Client]bool),
		log:   log,
	}
}

// Join adds the client to a room's active set. Joining twice is a no-op.
func (r *Registry) Join(client *Client, roomID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomID]; !ok {
		r.rooms[roomID] = make(map[*Client]bool)
	}
	r.rooms[roomID][client] = true
}

// Leave removes the client from a room's active set. Safe to call even
// if the room was never joined.
func (r *Registry) Leave(client *Client, roomID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(client, roomID)
}

// LeaveAll removes the client from every room it is registered in.
// Called on disconnect.
func (r *Registry) LeaveAll(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID := range r.rooms {
		r.removeLocked(client, roomID)
	}
}

// EvictUser removes every live connection of a user from a room.
// Used when a membership is deleted so a stale connection no longer
// receives room broadcasts.
func (r *Registry) EvictUser(roomID, userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients, ok := r.rooms[roomID]
	if !ok {
		return
	}
	for client := range clients {
		if client.identity.UserID == userID {
			r.removeLocked(client, roomID)
		}
	}
}

// Broadcast delivers an event to every registered connection for the
// room except the optionally excluded sender. Delivery is
// fire-and-forget; a client with a full send queue is dropped.
func (r *Registry) Broadcast(roomID uint, event string, payload interface{}, exclude *Client) {
	msg := ServerEvent{
		Type:    event,
		Payload: payload,
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		r.log.WithError(err).Error("error marshaling broadcast event")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clients, ok := r.rooms[roomID]
	if !ok {
		return
	}
	for client := range clients {
		if client == exclude {
			continue
		}
		select {
		case client.send <- msgBytes:
		default:
			r.dropLocked(client)
		}
	}
}

// roomSize reports the number of active connections for a room
func (r *Registry) roomSize(roomID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// dropLocked removes a client that cannot keep up from every room set
// so no later broadcast or targeted event reaches it. The send channel
// stays open; the client's pumps shut down when its connection closes.
// Caller must hold the write lock.
func (r *Registry) dropLocked(client *Client) {
	for roomID := range r.rooms {
		r.removeLocked(client, roomID)
	}
}

// removeLocked deletes the client from a room set and cleans up empty
// rooms. Caller must hold the write lock.
func (r *Registry) removeLocked(client *Client, roomID uint) {
	if clients, ok := r.rooms[roomID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(r.rooms, roomID)
		}
	}
}
