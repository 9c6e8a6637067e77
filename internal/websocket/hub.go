package websocket

import (
	"context"

	"github.com/rs/zerolog"

	"notifyhub/internal/center"
)

// Hub tracks the active notification connections, one per user. A new
// connection for a user replaces the old one; the replaced connection's
// center is stopped so its feed subscriptions are released.
type Hub struct {
	clients map[uint]*Client

	register   chan *Client
	unregister chan *Client

	backend center.Backend
	logger  zerolog.Logger
}

// NewHub creates a new Hub over the given backend.
func NewHub(backend center.Backend, logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uint]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		backend:    backend,
		logger:     logger.With().Str("component", "hub").Logger(),
	}
}

// Run is the hub's select loop. It owns the clients map; register and
// unregister are only ever touched from here. Run returns when ctx ends,
// stopping every remaining center on the way out.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info().Msg("hub started")
	for {
		select {
		case <-ctx.Done():
			for userID, client := range h.clients {
				client.center.Stop()
				client.closeSend()
				delete(h.clients, userID)
			}
			h.logger.Info().Msg("hub stopped")
			return

		case client := <-h.register:
			if existing, ok := h.clients[client.UserID]; ok {
				h.logger.Warn().Uint("userId", client.UserID).Msg("replacing existing connection")
				existing.center.Stop()
				existing.closeSend()
			}
			h.clients[client.UserID] = client
			h.logger.Info().Uint("userId", client.UserID).Msg("client registered")

		case client := <-h.unregister:
			if stored, ok := h.clients[client.UserID]; ok && stored == client {
				client.center.Stop()
				client.closeSend()
				delete(h.clients, client.UserID)
				h.logger.Info().Uint("userId", client.UserID).Msg("client unregistered")
			}
		}
	}
}
