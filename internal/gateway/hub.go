package gateway

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// broadcast is one queued fan-out: a payload for every member of a room, or
// for a single target connection when target is set.
type broadcast struct {
	roomID  string
	payload []byte
	target  *Connection
}

// Hub owns the per-room connection pools and the broadcast loop. Fan-out is
// fire-and-forget: a slow connection whose send buffer fills up is dropped
// rather than ever blocking a mutation or the other members.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*Connection]bool
	connRoom map[*Connection]string

	config      Config
	broadcastCh chan broadcast
	dispatcher  *Dispatcher
}

// NewHub creates a hub; the dispatcher is attached afterwards because the two
// reference each other.
func NewHub(config Config) *Hub {
	return &Hub{
		rooms:       make(map[string]map[*Connection]bool),
		connRoom:    make(map[*Connection]string),
		config:      config,
		broadcastCh: make(chan broadcast, config.BroadcastBuffer),
	}
}

// SetDispatcher attaches the event dispatcher. Must be called before any
// connection is accepted.
func (h *Hub) SetDispatcher(d *Dispatcher) {
	h.dispatcher = d
}

// Run drains the broadcast queue until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	log.Info().Msg("gateway hub started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("gateway hub shutting down")
			return
		case b := <-h.broadcastCh:
			h.deliver(b)
		}
	}
}

// track registers a freshly upgraded connection, not yet in any room.
func (h *Hub) track(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connRoom[c] = ""
}

// joinRoom binds a connection to a room pool. A connection belongs to at
// most one room; a second join moves it.
func (h *Hub) joinRoom(c *Connection, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev := h.connRoom[c]; prev != "" {
		h.removeFromPoolLocked(c, prev)
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Connection]bool)
	}
	h.rooms[roomID][c] = true
	h.connRoom[c] = roomID

	log.Debug().
		Str("connection_id", c.ID).
		Str("room_id", roomID).
		Int("room_connections", len(h.rooms[roomID])).
		Msg("connection joined room")
}

// RoomOf reports which room a connection is currently in ("" for none).
func (h *Hub) RoomOf(c *Connection) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connRoom[c]
}

// unregister drops a connection entirely. Both pumps call it on the way out;
// only the first call does any work. Presence cleanup runs after the hub
// lock is released so the dispatcher can mutate and broadcast freely.
func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	roomID, tracked := h.connRoom[c]
	if !tracked {
		h.mu.Unlock()
		return
	}
	delete(h.connRoom, c)
	if roomID != "" {
		h.removeFromPoolLocked(c, roomID)
	}
	close(c.send)
	h.mu.Unlock()

	log.Info().
		Str("connection_id", c.ID).
		Str("room_id", roomID).
		Msg("connection unregistered")

	if h.dispatcher != nil {
		h.dispatcher.HandleDisconnect(c)
	}
}

func (h *Hub) removeFromPoolLocked(c *Connection, roomID string) {
	if pool, ok := h.rooms[roomID]; ok {
		delete(pool, c)
		if len(pool) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Broadcast queues an event for every member of a room.
func (h *Hub) Broadcast(roomID string, event ServerEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to marshal broadcast")
		return
	}
	select {
	case h.broadcastCh <- broadcast{roomID: roomID, payload: payload}:
	default:
		log.Warn().Str("room_id", roomID).Msg("broadcast queue full, dropping message")
	}
}

// sendTo queues an event for a single connection, used for error notices that
// must not reach the rest of the room.
func (h *Hub) sendTo(c *Connection, event ServerEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to marshal event")
		return
	}
	select {
	case h.broadcastCh <- broadcast{target: c, payload: payload}:
	default:
		log.Warn().Str("connection_id", c.ID).Msg("broadcast queue full, dropping message")
	}
}

// deliver fans one queued payload out to its targets. Sends happen under the
// read lock so they cannot interleave with unregister closing a send channel;
// they never block because enqueueing is buffered with a drop fallback.
func (h *Hub) deliver(b broadcast) {
	var dropped []*Connection

	h.mu.RLock()
	if b.target != nil {
		if _, tracked := h.connRoom[b.target]; tracked && !trySend(b.target, b.payload) {
			dropped = append(dropped, b.target)
		}
	} else {
		for c := range h.rooms[b.roomID] {
			if !trySend(c, b.payload) {
				dropped = append(dropped, c)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range dropped {
		log.Warn().
			Str("connection_id", c.ID).
			Msg("send buffer full, dropping connection")
		h.unregister(c)
		c.conn.Close()
	}
}

func trySend(c *Connection, payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// ConnectionStats summarizes the live connection pools.
func (h *Hub) ConnectionStats() (total int, rooms int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, pool := range h.rooms {
		total += len(pool)
	}
	return total, len(h.rooms)
}
