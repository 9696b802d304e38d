package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"pointdeck/internal/room"
)

// ClientEvent is the tagged envelope for every inbound websocket message.
type ClientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ServerEvent is the envelope for everything the server pushes.
type ServerEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Inbound event types.
const (
	EventJoin            = "room:join"
	EventStoryAdd        = "story:add"
	EventStoryUpdate     = "story:update"
	EventStoryRemove     = "story:remove"
	EventStorySetCurrent = "story:setCurrent"
	EventVoteCast        = "vote:cast"
	EventRoundReveal     = "round:reveal"
	EventRoundReset      = "round:reset"
	EventRoundSetFinal   = "round:setFinal"
	EventDeckSet         = "deck:set"
	EventDeckSetCustom   = "deck:setCustom"
	EventTimerStart      = "timer:start"
	EventTimerStop       = "timer:stop"
)

// Outbound event types.
const (
	EventRoomState = "room:state"
	EventRoomError = "room:error"
)

// Payloads. Required fields are enforced at the dispatcher boundary; a
// message missing them is rejected with a room:error instead of mutating
// state with zero values.

type JoinPayload struct {
	RoomID string `json:"roomId" validate:"required"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type StoryAddPayload struct {
	RoomID string `json:"roomId" validate:"required"`
	Title  string `json:"title"`
}

type StoryUpdatePayload struct {
	RoomID string          `json:"roomId" validate:"required"`
	ID     string          `json:"id" validate:"required"`
	Patch  room.StoryPatch `json:"patch"`
}

type StoryRemovePayload struct {
	RoomID string `json:"roomId" validate:"required"`
	ID     string `json:"id" validate:"required"`
}

// StorySetCurrentPayload allows an empty id: clearing the current story is a
// valid selection.
type StorySetCurrentPayload struct {
	RoomID string `json:"roomId" validate:"required"`
	ID     string `json:"id"`
}

type VoteCastPayload struct {
	RoomID        string `json:"roomId" validate:"required"`
	ParticipantID string `json:"participantId" validate:"required"`
	Value         string `json:"value" validate:"required"`
}

// RoomPayload covers the events that carry nothing but the room id.
type RoomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}

type SetFinalPayload struct {
	RoomID string `json:"roomId" validate:"required"`
	Value  string `json:"value"`
}

type DeckSetPayload struct {
	RoomID   string `json:"roomId" validate:"required"`
	DeckName string `json:"deckName"`
}

type DeckSetCustomPayload struct {
	RoomID     string `json:"roomId" validate:"required"`
	CustomDeck string `json:"customDeck"`
}

var validate = validator.New()

// decodePayload unmarshals and validates an event payload in one step.
func decodePayload[T any](data json.RawMessage) (T, error) {
	var payload T
	if len(data) == 0 {
		return payload, fmt.Errorf("missing payload")
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("decode payload: %w", err)
	}
	if err := validate.Struct(&payload); err != nil {
		return payload, fmt.Errorf("validate payload: %w", err)
	}
	return payload, nil
}

// stateEvent wraps a snapshot for broadcast.
func stateEvent(snap room.Snapshot) ServerEvent {
	return ServerEvent{Type: EventRoomState, Data: snap}
}

// errorEvent wraps a user-visible error message.
func errorEvent(message string) ServerEvent {
	return ServerEvent{Type: EventRoomError, Data: map[string]string{"message": message}}
}
