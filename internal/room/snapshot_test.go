package room

import (
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"pointdeck/internal/deck"
)

func TestSnapshot_MasksVotesUntilReveal(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()
	r.Join("conn-1", "Alice", RoleMember)
	r.Join("conn-2", "Bob", RoleMember)
	r.CastVote("conn-1", "5")
	r.CastVote("conn-2", "13")

	// Before reveal every value is the placeholder, voters still countable
	snap := r.Snapshot()
	req.Len(snap.Votes, 2)
	req.Equal(MaskedVote, snap.Votes["conn-1"])
	req.Equal(MaskedVote, snap.Votes["conn-2"])

	// After reveal the real values pass through
	r.Reveal()
	snap = r.Snapshot()
	req.Equal("5", snap.Votes["conn-1"])
	req.Equal("13", snap.Votes["conn-2"])
}

func TestSnapshot_DeckValuesDerived(t *testing.T) {
	req := require.New(t)
	r := New(clockwork.NewFakeClock(), "Sprint 12", deck.PowersOfTwo, deck.DefaultCustom)

	snap := r.Snapshot()

	req.Equal(deck.PowersOfTwo, snap.DeckName)
	req.Equal([]string{"0", "1", "2", "4", "8", "16", "32", "64", "?", "☕"}, snap.DeckValues)
}

func TestSnapshot_CustomDeckValues(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()
	r.SetDeck(deck.Custom)
	r.SetCustomDeck("XS,S,M,?")

	req.Equal([]string{"XS", "S", "M", "?"}, r.Snapshot().DeckValues)
}

func TestSnapshot_NilCurrentStory(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()

	req.Nil(r.Snapshot().CurrentStoryID)
}

func TestSnapshot_IsDetachedFromRoom(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()
	r.AddStory("Checkout flow")
	r.Join("conn-1", "Alice", RoleMember)
	r.CastVote("conn-1", "5")

	snap := r.Snapshot()
	snap.Stories[0].Title = "mutated"
	snap.Votes["conn-1"] = "mutated"

	// Mutating the projection must not leak back into the room
	fresh := r.Snapshot()
	req.Equal("Checkout flow", fresh.Stories[0].Title)
	r.Reveal()
	req.Equal("5", r.Snapshot().Votes["conn-1"])
}

func TestSnapshot_ParticipantsSortedByName(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()
	r.Join("conn-1", "Zoe", RoleMember)
	r.Join("conn-2", "Alice", RoleFacilitator)

	snap := r.Snapshot()

	req.Equal("Alice", snap.Participants[0].Name)
	req.Equal("Zoe", snap.Participants[1].Name)
}

func TestSnapshot_TimerExposesOnlyRunningAndSeconds(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()

	snap := r.Snapshot()

	req.False(snap.Timer.Running)
	req.Zero(snap.Timer.Seconds)
}
