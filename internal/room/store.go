package room

import (
	"errors"
	"sync"

	"github.com/jonboulle/clockwork"

	"pointdeck/internal/deck"
)

// ErrNotFound is returned when a room identifier does not resolve.
var ErrNotFound = errors.New("room not found")

// CreateConfig carries the optional room-creation fields; empty fields are
// defaulted.
type CreateConfig struct {
	Name       string
	DeckName   string
	CustomDeck string
}

// DefaultRoomName is used when a room is created without a display name.
const DefaultRoomName = "Planning Room"

// Store is the process-wide room registry. Implementations must be safe for
// concurrent use; rooms themselves serialize their own mutations.
type Store interface {
	Create(cfg CreateConfig) *Room
	Get(id string) (*Room, error)
	Delete(id string)
	ForEach(fn func(*Room))
}

// MemoryStore keeps all rooms in memory. Nothing is persisted; a process
// restart drops every session.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	clock clockwork.Clock
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]*Room),
		clock: clock,
	}
}

// Create inserts a new room with a fresh identifier and the given initial
// settings.
func (s *MemoryStore) Create(cfg CreateConfig) *Room {
	if cfg.Name == "" {
		cfg.Name = DefaultRoomName
	}
	if cfg.DeckName == "" {
		cfg.DeckName = deck.Fibonacci
	}
	if cfg.CustomDeck == "" {
		cfg.CustomDeck = deck.DefaultCustom
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := New(s.clock, cfg.Name, cfg.DeckName, cfg.CustomDeck)
	s.rooms[r.ID] = r
	return r
}

// Get looks up a room by identifier.
func (s *MemoryStore) Get(id string) (*Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

// Delete removes a room, stopping its timer so no tick goroutine outlives it.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	r, ok := s.rooms[id]
	delete(s.rooms, id)
	s.mu.Unlock()

	if ok {
		r.StopTimer()
	}
}

// ForEach calls fn for every room. fn must not call back into the store.
func (s *MemoryStore) ForEach(fn func(*Room)) {
	s.mu.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.RUnlock()

	for _, r := range rooms {
		fn(r)
	}
}

// Len reports the number of live rooms.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
