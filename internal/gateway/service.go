package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"pointdeck/internal/room"
)

// Service wires the hub, dispatcher and websocket handler together.
type Service struct {
	hub        *Hub
	dispatcher *Dispatcher
	handler    *Handler
}

// NewService builds the realtime gateway over the given room store.
func NewService(config Config, store room.Store) *Service {
	hub := NewHub(config)
	dispatcher := NewDispatcher(store, hub)
	hub.SetDispatcher(dispatcher)

	return &Service{
		hub:        hub,
		dispatcher: dispatcher,
		handler:    NewHandler(hub),
	}
}

// Start runs the broadcast loop until the context is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.hub.Run(ctx)
}

// RegisterRoutes registers the websocket route.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.handler.RegisterRoutes(mux)
	log.Info().Msg("gateway routes registered")
}

// Stats reports live connection counts.
func (s *Service) Stats() (connections int, rooms int) {
	return s.hub.ConnectionStats()
}
