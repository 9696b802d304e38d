package room

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Role is advisory only; it is displayed to other participants but never
// checked before a mutation.
type Role string

const (
	RoleMember      Role = "Member"
	RoleFacilitator Role = "Facilitator"
)

// DefaultStoryTitle is used when a story is added with an empty title.
const DefaultStoryTitle = "New story"

// Story is a backlog item under estimation.
type Story struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Notes         string `json:"notes"`
	FinalEstimate string `json:"finalEstimate"`
}

// StoryPatch carries the fields of a story:update event. Nil fields are left
// untouched.
type StoryPatch struct {
	Title         *string `json:"title"`
	Notes         *string `json:"notes"`
	FinalEstimate *string `json:"finalEstimate"`
}

// Participant is a connected room member, keyed by its connection identifier.
// The identifier is ephemeral: a reconnect produces a new participant.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Timer is the shared round timer. The ticker and cancel handle belong to
// the running tick goroutine and are never exposed to clients.
type Timer struct {
	Running bool
	Seconds int

	ticker clockwork.Ticker
	cancel chan struct{}
}

// Room is one estimation session. All exported mutation methods serialize on
// the room mutex, so every snapshot taken between mutations reflects a fully
// applied state.
type Room struct {
	mu    sync.Mutex
	clock clockwork.Clock

	ID             string
	Name           string
	DeckName       string
	CustomDeck     string
	Stories        []*Story
	Participants   map[string]Participant
	CurrentStoryID string
	Votes          map[string]string
	Revealed       bool
	Timer          Timer
	CreatedAt      time.Time

	lastActivity time.Time
}

// New creates a room with a fresh short identifier. Empty config fields fall
// back to the defaults the store provides.
func New(clock clockwork.Clock, name, deckName, customDeck string) *Room {
	now := clock.Now()
	return &Room{
		clock:        clock,
		ID:           shortID(),
		Name:         name,
		DeckName:     deckName,
		CustomDeck:   customDeck,
		Stories:      []*Story{},
		Participants: make(map[string]Participant),
		Votes:        make(map[string]string),
		CreatedAt:    now,
		lastActivity: now,
	}
}

// shortID returns the 8-character room/story identifier format.
func shortID() string {
	return uuid.NewString()[:8]
}

// LastActivity reports when the room was last mutated, for the reaper.
func (r *Room) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

func (r *Room) touchLocked() {
	r.lastActivity = r.clock.Now()
}

// Join registers a participant under the given connection identifier. Empty
// names and roles are defaulted rather than rejected.
func (r *Room) Join(connID, name string, role Role) Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		name = "Anonymous"
	}
	if role != RoleFacilitator {
		role = RoleMember
	}
	p := Participant{ID: connID, Name: name, Role: role}
	r.Participants[connID] = p
	r.touchLocked()
	return p
}

// Leave removes the participant and any vote keyed by the same connection
// identifier. Returns false when the connection was not a member.
func (r *Room) Leave(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.Participants[connID]; !ok {
		return false
	}
	delete(r.Participants, connID)
	delete(r.Votes, connID)
	r.touchLocked()
	return true
}

// AddStory appends a story, makes it current and resets the round.
func (r *Room) AddStory(title string) *Story {
	r.mu.Lock()
	defer r.mu.Unlock()

	if title == "" {
		title = DefaultStoryTitle
	}
	s := &Story{ID: shortID(), Title: title}
	r.Stories = append(r.Stories, s)
	r.CurrentStoryID = s.ID
	r.resetRoundLocked()
	r.touchLocked()
	return s
}

// UpdateStory merges the patch into the matching story. Unknown ids no-op.
func (r *Room) UpdateStory(id string, patch StoryPatch) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.findStoryLocked(id)
	if s == nil {
		return
	}
	if patch.Title != nil {
		s.Title = *patch.Title
	}
	if patch.Notes != nil {
		s.Notes = *patch.Notes
	}
	if patch.FinalEstimate != nil {
		s.FinalEstimate = *patch.FinalEstimate
	}
	r.touchLocked()
}

func (r *Room) findStoryLocked(id string) *Story {
	for _, s := range r.Stories {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// RemoveStory deletes the story. Removing the current story reassigns
// currentStoryId to the first remaining story (or clears it) and resets the
// round, preserving the invariant that the id always references an existing
// story.
func (r *Room) RemoveStory(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.Stories[:0]
	for _, s := range r.Stories {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	r.Stories = kept

	if r.CurrentStoryID == id {
		r.CurrentStoryID = ""
		if len(r.Stories) > 0 {
			r.CurrentStoryID = r.Stories[0].ID
		}
		r.resetRoundLocked()
	}
	r.touchLocked()
}

// SetCurrentStory switches the story under estimation; an empty id clears the
// selection. An id that matches no story is rejected, so the selection can
// never point outside the backlog. Switching always resets the round.
func (r *Room) SetCurrentStory(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" && r.findStoryLocked(id) == nil {
		return false
	}
	r.CurrentStoryID = id
	r.resetRoundLocked()
	r.touchLocked()
	return true
}

// ResetRound is the single round boundary: votes cleared, reveal rescinded,
// timer stopped and zeroed.
func (r *Room) ResetRound() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resetRoundLocked()
	r.touchLocked()
}

func (r *Room) resetRoundLocked() {
	r.Votes = make(map[string]string)
	r.Revealed = false
	r.stopTimerLocked()
	r.Timer.Seconds = 0
}

// CastVote records a vote, overwriting any prior vote by the same
// participant. Neither membership nor deck membership is checked; the room is
// a trusted space and the last cast wins.
func (r *Room) CastVote(participantID, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Votes[participantID] = value
	r.touchLocked()
}

// Reveal unmasks the votes and stops the timer. Votes stay visible until the
// next round reset.
func (r *Room) Reveal() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Revealed = true
	r.stopTimerLocked()
	r.touchLocked()
}

// SetFinalEstimate stores the agreed estimate on the current story. Reports
// false when no story is current.
func (r *Room) SetFinalEstimate(value string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.findStoryLocked(r.CurrentStoryID)
	if s == nil {
		return false
	}
	s.FinalEstimate = value
	r.touchLocked()
	return true
}

// SetDeck switches the deck. An empty name keeps the previous deck. Changing
// decks mid-round deliberately does not reset votes already cast.
func (r *Room) SetDeck(deckName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if deckName != "" {
		r.DeckName = deckName
	}
	r.touchLocked()
}

// SetCustomDeck replaces the custom deck definition. An empty string keeps
// the previous one.
func (r *Room) SetCustomDeck(customDeck string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if customDeck != "" {
		r.CustomDeck = customDeck
	}
	r.touchLocked()
}
