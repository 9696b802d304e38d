package gateway

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"pointdeck/internal/room"
)

// Dispatcher routes inbound events to room mutations and broadcasts the
// refreshed snapshot. Every applied event except timer:start ends in a
// full-room broadcast; timer:start leaves the first broadcast to the first
// tick, and a mutation that changes nothing broadcasts nothing.
type Dispatcher struct {
	store room.Store
	hub   *Hub
}

// NewDispatcher creates a dispatcher over the given store and hub.
func NewDispatcher(store room.Store, hub *Hub) *Dispatcher {
	return &Dispatcher{store: store, hub: hub}
}

// Dispatch handles one inbound event from a connection. A join on a missing
// room answers the sender with a room:error; every other event on a missing
// room is silently ignored, matching the presence semantics clients expect.
// Malformed payloads are rejected with a room:error to the sender.
func (d *Dispatcher) Dispatch(c *Connection, event ClientEvent) {
	switch event.Type {
	case EventJoin:
		d.handleJoin(c, event.Data)
	case EventStoryAdd:
		handle(d, c, event.Data, func(r *room.Room, p StoryAddPayload) bool {
			r.AddStory(p.Title)
			return true
		})
	case EventStoryUpdate:
		handle(d, c, event.Data, func(r *room.Room, p StoryUpdatePayload) bool {
			r.UpdateStory(p.ID, p.Patch)
			return true
		})
	case EventStoryRemove:
		handle(d, c, event.Data, func(r *room.Room, p StoryRemovePayload) bool {
			r.RemoveStory(p.ID)
			return true
		})
	case EventStorySetCurrent:
		handle(d, c, event.Data, func(r *room.Room, p StorySetCurrentPayload) bool {
			return r.SetCurrentStory(p.ID)
		})
	case EventVoteCast:
		handle(d, c, event.Data, func(r *room.Room, p VoteCastPayload) bool {
			r.CastVote(p.ParticipantID, p.Value)
			return true
		})
	case EventRoundReveal:
		handle(d, c, event.Data, func(r *room.Room, p RoomPayload) bool {
			r.Reveal()
			return true
		})
	case EventRoundReset:
		handle(d, c, event.Data, func(r *room.Room, p RoomPayload) bool {
			r.ResetRound()
			return true
		})
	case EventRoundSetFinal:
		handle(d, c, event.Data, func(r *room.Room, p SetFinalPayload) bool {
			return r.SetFinalEstimate(p.Value)
		})
	case EventDeckSet:
		handle(d, c, event.Data, func(r *room.Room, p DeckSetPayload) bool {
			r.SetDeck(p.DeckName)
			return true
		})
	case EventDeckSetCustom:
		handle(d, c, event.Data, func(r *room.Room, p DeckSetCustomPayload) bool {
			r.SetCustomDeck(p.CustomDeck)
			return true
		})
	case EventTimerStart:
		d.handleTimerStart(c, event.Data)
	case EventTimerStop:
		handle(d, c, event.Data, func(r *room.Room, p RoomPayload) bool {
			r.StopTimer()
			return true
		})
	default:
		log.Debug().
			Str("connection_id", c.ID).
			Str("event_type", event.Type).
			Msg("ignoring unknown event type")
	}
}

// roomIDCarrier lets the generic handler pull the room id out of any payload.
type roomIDCarrier interface {
	roomID() string
}

func (p JoinPayload) roomID() string            { return p.RoomID }
func (p StoryAddPayload) roomID() string        { return p.RoomID }
func (p StoryUpdatePayload) roomID() string     { return p.RoomID }
func (p StoryRemovePayload) roomID() string     { return p.RoomID }
func (p StorySetCurrentPayload) roomID() string { return p.RoomID }
func (p VoteCastPayload) roomID() string        { return p.RoomID }
func (p RoomPayload) roomID() string            { return p.RoomID }
func (p SetFinalPayload) roomID() string        { return p.RoomID }
func (p DeckSetPayload) roomID() string         { return p.RoomID }
func (p DeckSetCustomPayload) roomID() string   { return p.RoomID }

// handle decodes and validates the payload, resolves the room, applies the
// mutation and broadcasts the refreshed snapshot. apply reports whether the
// mutation took effect; rejected no-ops broadcast nothing.
func handle[T roomIDCarrier](d *Dispatcher, c *Connection, data json.RawMessage, apply func(*room.Room, T) bool) {
	payload, err := decodePayload[T](data)
	if err != nil {
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("rejecting invalid payload")
		d.hub.sendTo(c, errorEvent("invalid payload"))
		return
	}

	r, err := d.store.Get(payload.roomID())
	if err != nil {
		log.Debug().
			Str("connection_id", c.ID).
			Str("room_id", payload.roomID()).
			Msg("ignoring event for unknown room")
		return
	}

	if apply(r, payload) {
		d.broadcastState(r)
	}
}

func (d *Dispatcher) handleJoin(c *Connection, data json.RawMessage) {
	payload, err := decodePayload[JoinPayload](data)
	if err != nil {
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("rejecting invalid join")
		d.hub.sendTo(c, errorEvent("invalid payload"))
		return
	}

	r, err := d.store.Get(payload.RoomID)
	if err != nil {
		// Only join reports a missing room, and only to the requester.
		d.hub.sendTo(c, errorEvent("room not found"))
		return
	}

	d.hub.joinRoom(c, r.ID)
	p := r.Join(c.ID, payload.Name, room.Role(payload.Role))

	log.Info().
		Str("connection_id", c.ID).
		Str("room_id", r.ID).
		Str("name", p.Name).
		Str("role", string(p.Role)).
		Msg("participant joined")

	d.broadcastState(r)
}

// handleTimerStart starts the shared timer without broadcasting; the first
// tick, one second later, carries the first updated snapshot.
func (d *Dispatcher) handleTimerStart(c *Connection, data json.RawMessage) {
	payload, err := decodePayload[RoomPayload](data)
	if err != nil {
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("rejecting invalid payload")
		d.hub.sendTo(c, errorEvent("invalid payload"))
		return
	}

	r, err := d.store.Get(payload.RoomID)
	if err != nil {
		return
	}

	r.StartTimer(func() {
		d.broadcastState(r)
	})
}

// HandleDisconnect removes the participant bound to a closed connection from
// every room still carrying it. A second join moves the connection between
// hub pools but leaves the earlier participant entry behind, so the cleanup
// scans the whole store rather than trusting the hub's single binding.
func (d *Dispatcher) HandleDisconnect(c *Connection) {
	d.store.ForEach(func(r *room.Room) {
		if !r.Leave(c.ID) {
			return
		}
		log.Info().
			Str("connection_id", c.ID).
			Str("room_id", r.ID).
			Msg("participant left")
		d.broadcastState(r)
	})
}

func (d *Dispatcher) broadcastState(r *room.Room) {
	d.hub.Broadcast(r.ID, stateEvent(r.Snapshot()))
}
