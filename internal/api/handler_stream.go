package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const streamWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	// CORS middleware already vets browser origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamMessage is one frame pushed over the status stream.
type StreamMessage struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// StreamStatus handles GET /api/supply-chain/stream. It upgrades to a websocket
// and pushes today's status immediately and then on every tick until the client
// goes away or the server shuts down. A hijacked connection is not tracked by
// http.Server.Shutdown, so the handler watches the server-lifetime context.
func (h *Handler) StreamStatus(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	h.log.Info("status stream opened", "client", c.ClientIP())

	// The reader only exists to notice the client closing the connection.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Warn("status stream read failed", "error", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		if err := h.pushStatus(c, conn); err != nil {
			h.log.Info("status stream closed", "client", c.ClientIP(), "reason", err)
			return
		}
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case <-h.ctx.Done():
			h.log.Info("status stream closed", "client", c.ClientIP(), "reason", "server shutting down")
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(streamWriteTimeout))
			return
		case <-ticker.C:
		}
	}
}

func (h *Handler) pushStatus(c *gin.Context, conn *websocket.Conn) error {
	msg := StreamMessage{Type: "supply_chain_status", Timestamp: time.Now().UTC()}
	status, err := h.supply.CurrentStatus(c.Request.Context())
	if err != nil {
		h.log.Error("failed to compute status for stream", "error", err)
		msg.Type = "error"
		msg.Data = gin.H{"error": "failed to compute status"}
	} else {
		msg.Data = status
	}

	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
