package room

import (
	"sort"

	"github.com/samber/lo"

	"pointdeck/internal/deck"
)

// MaskedVote is the placeholder sent in place of every vote value while the
// round is unrevealed. Clients can still count who has voted.
const MaskedVote = "🂠"

// TimerView is the client-visible slice of the timer; the cancel handle
// never leaves the room.
type TimerView struct {
	Running bool `json:"running"`
	Seconds int  `json:"seconds"`
}

// Snapshot is the complete client-safe projection of a room. It is built
// fresh after every mutation and broadcast whole; there is no diffing.
type Snapshot struct {
	ID             string            `json:"id"`
	RoomName       string            `json:"roomName"`
	DeckName       string            `json:"deckName"`
	CustomDeck     string            `json:"customDeck"`
	DeckValues     []string          `json:"deckValues"`
	Stories        []Story           `json:"stories"`
	Participants   []Participant     `json:"participants"`
	CurrentStoryID *string           `json:"currentStoryId"`
	Votes          map[string]string `json:"votes"`
	Revealed       bool              `json:"revealed"`
	Timer          TimerView         `json:"timer"`
	CreatedAt      int64             `json:"createdAt"`
}

// Snapshot projects the room into its public view. Votes are masked until
// the round is revealed, preserving the set of voters.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	stories := lo.Map(r.Stories, func(s *Story, _ int) Story {
		return *s
	})

	participants := lo.Values(r.Participants)
	sort.Slice(participants, func(i, j int) bool {
		if participants[i].Name != participants[j].Name {
			return participants[i].Name < participants[j].Name
		}
		return participants[i].ID < participants[j].ID
	})

	votes := r.Votes
	if r.Revealed {
		votes = lo.MapValues(votes, func(v string, _ string) string { return v })
	} else {
		votes = lo.MapValues(votes, func(_ string, _ string) string { return MaskedVote })
	}

	var current *string
	if r.CurrentStoryID != "" {
		id := r.CurrentStoryID
		current = &id
	}

	return Snapshot{
		ID:             r.ID,
		RoomName:       r.Name,
		DeckName:       r.DeckName,
		CustomDeck:     r.CustomDeck,
		DeckValues:     deck.Values(r.DeckName, r.CustomDeck),
		Stories:        stories,
		Participants:   participants,
		CurrentStoryID: current,
		Votes:          votes,
		Revealed:       r.Revealed,
		Timer:          TimerView{Running: r.Timer.Running, Seconds: r.Timer.Seconds},
		CreatedAt:      r.CreatedAt.UnixMilli(),
	}
}
