package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"pointdeck/internal/room"
)

// Handler serves the thin room-creation REST surface. Everything after
// creation happens over the websocket gateway.
type Handler struct {
	store room.Store
}

// NewHandler creates the REST handler over the given store.
func NewHandler(store room.Store) *Handler {
	return &Handler{store: store}
}

type createRoomRequest struct {
	RoomName   string `json:"roomName"`
	DeckName   string `json:"deckName"`
	CustomDeck string `json:"customDeck"`
}

type createRoomResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleCreateRoom handles POST /api/rooms. All fields are optional; an empty
// body creates a room with defaults.
func (h *Handler) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if r.Body != nil {
		// A missing or empty body is fine, malformed JSON is not.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
	}

	created := h.store.Create(room.CreateConfig{
		Name:       req.RoomName,
		DeckName:   req.DeckName,
		CustomDeck: req.CustomDeck,
	})

	log.Info().
		Str("room_id", created.ID).
		Str("deck", created.DeckName).
		Msg("room created")

	writeJSON(w, http.StatusOK, createRoomResponse{ID: created.ID})
}

// HandleGetRoom handles GET /api/rooms/{id}, returning the projected public
// snapshot.
func (h *Handler) HandleGetRoom(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rm, err := h.store.Get(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "room not found"})
		return
	}

	writeJSON(w, http.StatusOK, rm.Snapshot())
}

// RegisterRoutes registers the REST routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/rooms", h.HandleCreateRoom)
	mux.HandleFunc("GET /api/rooms/{id}", h.HandleGetRoom)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
