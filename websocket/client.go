package websocket

import (
	"net/http"
	"time"

	"crossfade/services"
	"crossfade/types"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// upgrader with permissive origin checking; cross-origin policy is
// enforced by the CORS middleware in front of the upgrade.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Upgrade upgrades an HTTP request to a websocket connection.
func Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return upgrader.Upgrade(w, r, nil)
}

// Client bridges one websocket connection to a task's progress
// subscription. Snapshots flow from the registry's subscriber channel to
// the socket; once that channel closes (the task reached a terminal
// status) the connection is closed with a normal closure. A client
// disconnecting only detaches its subscription, never the transfer.
type Client struct {
	registry *services.TaskRegistry
	conn     *websocket.Conn
	taskID   string
	updates  <-chan types.TaskSnapshot
	logger   *log.Logger
}

// NewClient subscribes to the task and wraps the connection.
func NewClient(registry *services.TaskRegistry, conn *websocket.Conn, taskID string, logger *log.Logger) *Client {
	return &Client{
		registry: registry,
		conn:     conn,
		taskID:   taskID,
		updates:  registry.Subscribe(taskID),
		logger:   logger,
	}
}

// StartPumps starts the read and write pumps for the client.
func (c *Client) StartPumps() {
	go c.writePump()
	go c.readPump()
}

// readPump discards inbound frames; its job is noticing the peer going
// away so the subscription gets detached.
func (c *Client) readPump() {
	defer func() {
		c.registry.Unsubscribe(c.taskID, c.updates)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "taskId", c.taskID, "err", err)
			}
			return
		}
	}
}

// writePump forwards snapshots to the socket until the subscription ends.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case snapshot, ok := <-c.updates:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Task completed")
				c.conn.WriteMessage(websocket.CloseMessage, message)
				return
			}

			if err := c.conn.WriteJSON(snapshot); err != nil {
				c.logger.Warn("websocket write error", "taskId", c.taskID, "err", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
