package adminapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/intervaldb/intervaldb/internal/model"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleEventBridge upgrades to a WebSocket and relays a tenant resource's
// NotifyHub events to the connected debug client, one resource id per
// query parameter. It's a thin read-only mirror of the engine's
// subscription mechanism for operators watching live activity, not a
// path any booking traffic flows through.
func (s *Server) handleEventBridge(c *gin.Context) {
	name := c.Param("name")
	resourceIDText := c.Query("resource_id")
	eng, err := s.tenants.Get(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	resourceID, err := model.ParseID(resourceIDText)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resource_id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("admin ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := eng.Subscribe(resourceID)
	defer sub.Close()

	done := make(chan struct{})
	go readPump(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-sub.Events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(eventPayload(ev)); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains (and discards) client frames purely to detect a closed
// connection; the bridge is one-directional (server -> client).
func readPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func eventPayload(ev model.Event) gin.H {
	switch e := ev.(type) {
	case model.ResourceCreated:
		return gin.H{"type": "resource_created", "id": e.ID.String()}
	case model.ResourceUpdated:
		return gin.H{"type": "resource_updated", "id": e.ID.String()}
	case model.ResourceDeleted:
		return gin.H{"type": "resource_deleted", "id": e.ID.String()}
	case model.RuleAdded:
		return gin.H{"type": "rule_added", "id": e.ID.String(), "resource_id": e.ResourceID.String()}
	case model.RuleRemoved:
		return gin.H{"type": "rule_removed", "id": e.ID.String()}
	case model.RuleUpdated:
		return gin.H{"type": "rule_updated", "id": e.ID.String()}
	case model.HoldPlaced:
		return gin.H{"type": "hold_placed", "id": e.ID.String(), "resource_id": e.ResourceID.String()}
	case model.HoldReleased:
		return gin.H{"type": "hold_released", "id": e.ID.String()}
	case model.BookingConfirmed:
		return gin.H{"type": "booking_confirmed", "id": e.ID.String(), "resource_id": e.ResourceID.String()}
	case model.BookingCancelled:
		return gin.H{"type": "booking_cancelled", "id": e.ID.String()}
	default:
		return gin.H{"type": "unknown"}
	}
}
