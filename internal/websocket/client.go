package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"notifyhub/internal/center"
	"notifyhub/internal/config"
)

// Command is one inbound frame from the client. Every frame maps to one
// Center entry point; unknown types are logged and dropped.
type Command struct {
	Type           string `json:"type"`
	RequestID      uint   `json:"requestId,omitempty"`
	NotificationID string `json:"notificationId,omitempty"`
	Enabled        bool   `json:"enabled,omitempty"`
}

// SelectionState mirrors the center's selection for the client.
type SelectionState struct {
	Mode     bool     `json:"mode"`
	Selected []string `json:"selected"`
}

// ViewFrame is the outbound frame carrying a full aggregated view.
type ViewFrame struct {
	Type      string                `json:"type"` // "view"
	View      center.AggregatedView `json:"view"`
	Selection SelectionState        `json:"selection"`
}

// NoticeFrame is the outbound frame for transient user-facing notices.
type NoticeFrame struct {
	Type    string `json:"type"` // "notice"
	Message string `json:"message"`
}

// Client is a middleman between one websocket connection and that
// user's Center.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// send is closed exactly once, by closeSend. Center callbacks can
	// still fire after the hub tears a client down (an action blocked
	// on the backend fails after the disconnect); sendMu and closed
	// keep those late frames from hitting a closed channel.
	sendMu sync.Mutex
	send   chan []byte
	closed bool

	UserID uint
	center *center.Center
	logger zerolog.Logger
}

// readPump pumps command frames from the connection into the Center.
func (c *Client) readPump(wsCfg config.WebSocketConfig) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(int64(wsCfg.MaxMessageSizeBytes))
	c.conn.SetReadDeadline(time.Now().Add(time.Duration(wsCfg.PongWaitSeconds) * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(time.Duration(wsCfg.PongWaitSeconds) * time.Second))
		return nil
	})

	for {
		messageType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("websocket closed unexpectedly")
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var cmd Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.logger.Warn().Err(err).Str("raw", string(raw)).Msg("malformed command frame")
			continue
		}
		c.dispatch(cmd)
	}
}

// dispatch routes one command to the Center. Action errors have already
// been surfaced to the user as notices by the Center, so they are only
// logged here.
func (c *Client) dispatch(cmd Command) {
	var err error
	switch cmd.Type {
	case "acceptRequest":
		err = c.center.AcceptFriendRequest(cmd.RequestID)
	case "declineRequest":
		err = c.center.DeclineFriendRequest(cmd.RequestID)
	case "acceptInvitation":
		err = c.center.AcceptGroupInvitation(cmd.NotificationID)
	case "declineInvitation":
		err = c.center.DeclineGroupInvitation(cmd.NotificationID)
	case "markRead":
		err = c.center.MarkRead(cmd.NotificationID)
	case "setSelectionMode":
		c.center.SetSelectionMode(cmd.Enabled)
	case "toggleSelected":
		c.center.ToggleSelected(cmd.NotificationID)
	case "deleteSelected":
		err = c.center.DeleteSelected()
	case "clearAll":
		err = c.center.ClearAll()
	case "refresh":
		err = c.center.Refresh()
	default:
		c.logger.Warn().Str("type", cmd.Type).Msg("unknown command type")
		return
	}
	if err != nil {
		c.logger.Debug().Err(err).Str("type", cmd.Type).Msg("command failed")
	}
}

// writePump pumps outbound frames to the connection and keeps the
// connection alive with pings.
func (c *Client) writePump(wsCfg config.WebSocketConfig) {
	ticker := time.NewTicker(time.Duration(wsCfg.PingPeriodSeconds) * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(time.Duration(wsCfg.WriteWaitSeconds) * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(time.Duration(wsCfg.WriteWaitSeconds) * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue drops the frame rather than block the Center's callbacks when
// the connection cannot keep up or is already torn down; the next view
// frame supersedes it.
func (c *Client) enqueue(payload []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
		c.logger.Warn().Msg("send buffer full, dropping frame")
	}
}

// closeSend closes the outbound channel. Nothing else may close it.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) pushView(view center.AggregatedView) {
	frame := ViewFrame{
		Type: "view",
		View: view,
		Selection: SelectionState{
			Mode:     c.center.SelectionMode(),
			Selected: c.center.SelectedIDs(),
		},
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		c.logger.Error().Err(err).Msg("marshaling view frame")
		return
	}
	c.enqueue(payload)
}

func (c *Client) pushNotice(message string) {
	payload, err := json.Marshal(NoticeFrame{Type: "notice", Message: message})
	if err != nil {
		c.logger.Error().Err(err).Msg("marshaling notice frame")
		return
	}
	c.enqueue(payload)
}

// ServeWs upgrades the request, builds a Center for the authenticated
// user and wires it to the connection. The initial view is pushed as
// soon as the feed subscriptions deliver their first snapshots.
func ServeWs(hub *Hub, userID uint, w http.ResponseWriter, r *http.Request, wsCfg config.WebSocketConfig, logger zerolog.Logger) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		UserID: userID,
		logger: logger.With().Uint("userId", userID).Logger(),
	}

	c := center.New(hub.backend, userID, client.logger)
	c.SetOnChange(client.pushView)
	c.SetOnNotice(client.pushNotice)
	client.center = c

	if err := c.Start(context.Background()); err != nil {
		client.logger.Error().Err(err).Msg("starting notification center")
		conn.Close()
		return
	}

	client.hub.register <- client

	go client.writePump(wsCfg)
	go client.readPump(wsCfg)
}
