package feedserver

import (
	"net/http"

	"github.com/rs/zerolog"

	"notifyhub/internal/auth"
	"notifyhub/internal/config"
	ws "notifyhub/internal/websocket"
)

// WebSocketHandler authenticates and upgrades incoming feed connections.
type WebSocketHandler struct {
	hub       *ws.Hub
	blacklist auth.TokenBlacklist
	cfg       config.Config
	logger    zerolog.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler instance.
func NewWebSocketHandler(hub *ws.Hub, blacklist auth.TokenBlacklist, cfg config.Config, logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		blacklist: blacklist,
		cfg:       cfg,
		logger:    logger.With().Str("component", "ws_handler").Logger(),
	}
}

// ServeWS validates the token from the query string and hands the
// connection to the hub. Anonymous connections are rejected; the feed
// is always scoped to one signed-in user.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateToken(r.Context(), token, h.cfg.Auth.JWTSecretKey, h.blacklist)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket auth failed")
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	ws.ServeWs(h.hub, claims.UserID, w, r, h.cfg.WebSocket, h.logger)
}
