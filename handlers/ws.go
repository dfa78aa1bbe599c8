package handlers

import (
	"encoding/json"
	"time"

	"github.com/LovationAdmin/trainer-api/middleware"
	"github.com/LovationAdmin/trainer-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
)

// ChangeEvent is pushed to every open dashboard after a successful mutation.
type ChangeEvent struct {
	Type     string `json:"type"`
	Action   string `json:"action"`
	ClientID int64  `json:"client_id,omitempty"`
}

type WSHandler struct {
	M *melody.Melody
}

func NewWSHandler() *WSHandler {
	m := melody.New()
	m.Config.MaxMessageSize = 1024

	// Keep-alive for hosts that drop idle connections
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		user, _ := s.Get("user")
		utils.SafeDebug("WebSocket connected: %v", user)
	})
	m.HandleDisconnect(func(s *melody.Session) {
		user, _ := s.Get("user")
		utils.SafeDebug("WebSocket disconnected: %v", user)
	})
	m.HandleError(func(s *melody.Session, err error) {
		utils.SafeWarn("WebSocket error: %v", err)
	})

	return &WSHandler{M: m}
}

// HandleWS upgrades an authenticated request.
func (h *WSHandler) HandleWS(c *gin.Context) {
	keys := map[string]interface{}{}
	if s := middleware.GetSession(c); s != nil {
		keys["user"] = s.Username
	}
	if err := h.M.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
		utils.SafeWarn("Failed to upgrade websocket: %v", err)
	}
}

// BroadcastChange tells every connected dashboard to reload.
func (h *WSHandler) BroadcastChange(action string, clientID int64) {
	msg, err := json.Marshal(ChangeEvent{Type: "clients_changed", Action: action, ClientID: clientID})
	if err != nil {
		return
	}
	if err := h.M.Broadcast(msg); err != nil {
		utils.SafeWarn("Error broadcasting %s: %v", action, err)
	}
}

func (h *WSHandler) Close() error {
	return h.M.Close()
}
