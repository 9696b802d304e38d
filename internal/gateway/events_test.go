package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodePayload_RequiredFields(t *testing.T) {
	req := require.New(t)

	// Complete payload passes
	p, err := decodePayload[VoteCastPayload](json.RawMessage(`{"roomId":"r1","participantId":"p1","value":"5"}`))
	req.NoError(err)
	req.Equal("5", p.Value)

	// Missing required field is rejected, not defaulted
	_, err = decodePayload[VoteCastPayload](json.RawMessage(`{"roomId":"r1","participantId":"p1"}`))
	req.Error(err)

	_, err = decodePayload[RoomPayload](json.RawMessage(`{}`))
	req.Error(err)
}

func TestDecodePayload_MalformedJSON(t *testing.T) {
	req := require.New(t)

	_, err := decodePayload[RoomPayload](json.RawMessage(`{"roomId":`))
	req.Error(err)

	_, err = decodePayload[RoomPayload](nil)
	req.Error(err)
}

func TestDecodePayload_OptionalFieldsMayBeAbsent(t *testing.T) {
	req := require.New(t)

	p, err := decodePayload[StoryAddPayload](json.RawMessage(`{"roomId":"r1"}`))
	req.NoError(err)
	req.Empty(p.Title)

	// story:setCurrent with an empty id clears the selection
	sc, err := decodePayload[StorySetCurrentPayload](json.RawMessage(`{"roomId":"r1","id":""}`))
	req.NoError(err)
	req.Empty(sc.ID)
}
