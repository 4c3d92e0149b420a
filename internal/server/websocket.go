package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/model"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// alertMessage is one live alert as sent over the websocket.
type alertMessage struct {
	model.ProcessedLogEntry
	Severity model.Severity `json:"severity"`
}

// handleWebSocket upgrades to WebSocket and streams live alerts to the client.
// GET /ws
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	alerts := s.opts.Hub.Subscribe()
	defer s.opts.Hub.Unsubscribe(alerts)

	// Read pump: detect client disconnect.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-c.Request.Context().Done():
			return
		case alert, ok := <-alerts:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "pipeline stopped"),
					time.Now().Add(writeWait))
				return
			}
			msg := alertMessage{
				ProcessedLogEntry: alert,
				Severity:          s.opts.Registry.Severity(alert.AttackType),
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}
