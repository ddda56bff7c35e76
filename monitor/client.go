package monitor

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/user/blesniffer/logger"
)

const (
	writeWait      = 10 * time.Second    // per-message write allowance
	pongWait       = 60 * time.Second    // read deadline refreshed by pongs
	pingPeriod     = (pongWait * 9) / 10 // must stay below pongWait
	maxMessageSize = 512                 // feed clients only send control frames
	clientQueue    = 64                  // outbound lines buffered per client
)

// client couples one websocket connection to the hub.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn) *client {
	return &client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, clientQueue),
	}
}

// readPump drains the connection so control frames are processed; the
// feed is one-way and inbound data is discarded. Exits on any read
// error, detaching the client.
func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Debug("MONITOR", "Feed read error: %v", err)
			}
			return
		}
	}
}

// writePump pushes queued lines to the connection and keeps it alive
// with pings. A closed send channel means the hub dropped us.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
