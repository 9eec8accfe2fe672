package handler

import (
	"net/http"
	"time"

	"vpnshop/config"
	"vpnshop/internal/auth"
	"vpnshop/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	alertWriteWait  = 10 * time.Second
	alertPongWait   = 60 * time.Second
	alertPingPeriod = (alertPongWait * 9) / 10
)

var alertUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// UpgradeAlertWS upgrades an operator console to the live reconciliation
// alert feed; auth via the service token in the "token" query parameter.
func UpgradeAlertWS(cfg *config.AuthConfig, hub *ws.AlertHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}
		if _, err := auth.ParseServiceToken(cfg, token); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		conn, err := alertUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := &ws.Client{Send: make(chan []byte, 16)}
		hub.Register(client)
		defer client.Close()

		// Reader only consumes control frames; the feed is one-way.
		go func() {
			conn.SetReadLimit(512)
			_ = conn.SetReadDeadline(time.Now().Add(alertPongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(alertPongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					client.Close()
					return
				}
			}
		}()

		ticker := time.NewTicker(alertPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case msg, ok := <-client.Send:
				_ = conn.SetWriteDeadline(time.Now().Add(alertWriteWait))
				if !ok {
					_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(alertWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}
