package gateway

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Handler upgrades HTTP requests to websocket connections. Room membership is
// established afterwards with a room:join event, not at upgrade time.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates the websocket endpoint handler.
func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  hub.config.ReadBufferSize,
			WriteBufferSize: hub.config.WriteBufferSize,
			CheckOrigin:     hub.config.CheckOrigin,
		},
	}
}

// HandleConnection upgrades the request and starts the connection pumps.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade websocket connection")
		return
	}

	c := &Connection{
		ID:          uuid.NewString(),
		conn:        conn,
		send:        make(chan []byte, h.hub.config.SendBufferSize),
		hub:         h.hub,
		ConnectedAt: time.Now(),
	}
	h.hub.track(c)

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("websocket connection established")
}

// RegisterRoutes registers the websocket endpoint on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleConnection)
}
