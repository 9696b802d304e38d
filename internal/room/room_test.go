package room

import (
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"pointdeck/internal/deck"
)

func newTestRoom() *Room {
	return New(clockwork.NewFakeClock(), "Sprint 12", deck.Fibonacci, deck.DefaultCustom)
}

// storyIDs lists the ids currently in the room, for invariant checks.
func storyIDs(r *Room) []string {
	snap := r.Snapshot()
	ids := make([]string, 0, len(snap.Stories))
	for _, s := range snap.Stories {
		ids = append(ids, s.ID)
	}
	return ids
}

func requireCurrentStoryValid(t *testing.T, r *Room) {
	t.Helper()
	snap := r.Snapshot()
	if snap.CurrentStoryID == nil {
		return
	}
	require.Contains(t, storyIDs(r), *snap.CurrentStoryID)
}

func TestAddStory_BecomesCurrentAndResetsRound(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()

	// Given a round in progress
	r.CastVote("p1", "5")
	r.Reveal()

	// When a story is added
	s := r.AddStory("Checkout flow")

	// Then it is current and the round is fresh
	snap := r.Snapshot()
	req.NotNil(snap.CurrentStoryID)
	req.Equal(s.ID, *snap.CurrentStoryID)
	req.Empty(snap.Votes)
	req.False(snap.Revealed)
	requireCurrentStoryValid(t, r)
}

func TestAddStory_EmptyTitleDefaults(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()

	s := r.AddStory("")

	req.Equal(DefaultStoryTitle, s.Title)
}

func TestUpdateStory_MergesPatch(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()
	s := r.AddStory("Checkout flow")

	notes := "blocked on payments API"
	final := "8"
	r.UpdateStory(s.ID, StoryPatch{Notes: &notes, FinalEstimate: &final})

	snap := r.Snapshot()
	req.Equal("Checkout flow", snap.Stories[0].Title)
	req.Equal(notes, snap.Stories[0].Notes)
	req.Equal(final, snap.Stories[0].FinalEstimate)
}

func TestUpdateStory_UnknownIDIsNoop(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()
	r.AddStory("Checkout flow")

	title := "changed"
	r.UpdateStory("nope", StoryPatch{Title: &title})

	req.Equal("Checkout flow", r.Snapshot().Stories[0].Title)
}

func TestRemoveStory_CurrentReassignedToFirstRemaining(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()

	// Given two stories, the second being current with votes cast
	first := r.AddStory("first")
	second := r.AddStory("second")
	r.CastVote("p1", "5")

	// When the current story is removed
	r.RemoveStory(second.ID)

	// Then the first remaining story becomes current and the round resets
	snap := r.Snapshot()
	req.NotNil(snap.CurrentStoryID)
	req.Equal(first.ID, *snap.CurrentStoryID)
	req.Empty(snap.Votes)
	req.False(snap.Revealed)
	requireCurrentStoryValid(t, r)
}

func TestRemoveStory_LastStoryClearsCurrent(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()
	s := r.AddStory("only")

	r.RemoveStory(s.ID)

	snap := r.Snapshot()
	req.Nil(snap.CurrentStoryID)
	req.Empty(snap.Stories)
	requireCurrentStoryValid(t, r)
}

func TestRemoveStory_NonCurrentKeepsRound(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()
	first := r.AddStory("first")
	second := r.AddStory("second")
	r.CastVote("p1", "5")

	r.RemoveStory(first.ID)

	snap := r.Snapshot()
	req.Equal(second.ID, *snap.CurrentStoryID)
	req.Len(snap.Votes, 1)
	requireCurrentStoryValid(t, r)
}

func TestSetCurrentStory_AlwaysResetsRound(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()
	first := r.AddStory("first")
	r.AddStory("second")
	r.CastVote("p1", "13")
	r.Reveal()

	r.SetCurrentStory(first.ID)

	snap := r.Snapshot()
	req.Equal(first.ID, *snap.CurrentStoryID)
	req.Empty(snap.Votes)
	req.False(snap.Revealed)
	req.Zero(snap.Timer.Seconds)
}

func TestSetCurrentStory_EmptyClearsSelection(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()
	r.AddStory("first")

	req.True(r.SetCurrentStory(""))

	req.Nil(r.Snapshot().CurrentStoryID)
}

func TestSetCurrentStory_UnknownIDIsRejected(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()
	s := r.AddStory("first")
	r.CastVote("p1", "5")

	// An id outside the backlog leaves the selection and the round alone
	req.False(r.SetCurrentStory("bogus123"))

	snap := r.Snapshot()
	req.Equal(s.ID, *snap.CurrentStoryID)
	req.Len(snap.Votes, 1)
	requireCurrentStoryValid(t, r)
}

func TestCastVote_LastWriteWins(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()

	r.CastVote("p1", "3")
	r.CastVote("p1", "8")
	r.Reveal()

	req.Equal("8", r.Snapshot().Votes["p1"])
}

func TestReveal_KeepsVotes(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()
	r.CastVote("p1", "5")

	r.Reveal()

	snap := r.Snapshot()
	req.True(snap.Revealed)
	req.Equal("5", snap.Votes["p1"])
	req.False(snap.Timer.Running)
}

func TestResetRound_ClearsVotesRevealTimerAndSeconds(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()
	r.CastVote("p1", "5")
	r.Reveal()
	r.StartTimer(nil)

	r.ResetRound()

	snap := r.Snapshot()
	req.Empty(snap.Votes)
	req.False(snap.Revealed)
	req.False(snap.Timer.Running)
	req.Zero(snap.Timer.Seconds)
}

func TestSetFinalEstimate_RequiresCurrentStory(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()

	// Given no current story, setting a final estimate is a no-op
	req.False(r.SetFinalEstimate("8"))
	req.Empty(r.Snapshot().Stories)

	// Given a current story, the estimate lands on it
	s := r.AddStory("Checkout flow")
	req.True(r.SetFinalEstimate("8"))

	snap := r.Snapshot()
	req.Equal(s.ID, snap.Stories[0].ID)
	req.Equal("8", snap.Stories[0].FinalEstimate)
}

func TestSetDeck_EmptyNameKeepsPrevious(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()

	r.SetDeck("")
	req.Equal(deck.Fibonacci, r.Snapshot().DeckName)

	r.SetDeck(deck.TShirt)
	req.Equal(deck.TShirt, r.Snapshot().DeckName)
}

func TestSetDeck_DoesNotResetRound(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()
	r.CastVote("p1", "5")

	// Switching decks mid-round leaves the in-flight vote alone
	r.SetDeck(deck.PowersOfTwo)

	req.Len(r.Snapshot().Votes, 1)
}

func TestSetCustomDeck_EmptyKeepsPrevious(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()

	r.SetCustomDeck("")
	req.Equal(deck.DefaultCustom, r.Snapshot().CustomDeck)

	r.SetCustomDeck("1,2,4")
	req.Equal("1,2,4", r.Snapshot().CustomDeck)
}

func TestJoin_DefaultsNameAndRole(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()

	p := r.Join("conn-1", "", "")

	req.Equal("Anonymous", p.Name)
	req.Equal(RoleMember, p.Role)

	fac := r.Join("conn-2", "Dana", RoleFacilitator)
	req.Equal(RoleFacilitator, fac.Role)
}

func TestLeave_RemovesParticipantAndVote(t *testing.T) {
	req := require.New(t)
	r := newTestRoom()

	// Given two participants with votes
	r.Join("conn-1", "Alice", RoleMember)
	r.Join("conn-2", "Bob", RoleMember)
	r.CastVote("conn-1", "5")
	r.CastVote("conn-2", "8")

	// When one leaves
	req.True(r.Leave("conn-1"))

	// Then only that participant and vote are gone
	r.Reveal()
	snap := r.Snapshot()
	req.Len(snap.Participants, 1)
	req.Equal("Bob", snap.Participants[0].Name)
	req.Equal(map[string]string{"conn-2": "8"}, snap.Votes)

	// Leaving twice reports absence
	req.False(r.Leave("conn-1"))
}
