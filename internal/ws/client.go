package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"rps_webapp/internal/room"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client is one live websocket. The gateway owns send: only the gateway
// loop enqueues to it and closes it.
type Client struct {
	ID     room.ConnID
	UserID int64

	conn    *websocket.Conn
	send    chan []byte
	gateway *Gateway

	closeOnce sync.Once
}

func NewClient(g *Gateway, conn *websocket.Conn, userID int64) *Client {
	return &Client{
		ID:      room.ConnID(uuid.NewString()),
		UserID:  userID,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		gateway: g,
	}
}

// Run registers the client and pumps until the connection ends
func (c *Client) Run() {
	if !c.gateway.Register(c) {
		c.close()
		return
	}

	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.gateway.Unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.gateway.logger.Debug("read error", "conn", c.ID, "error", err)
			}
			return
		}
		if !c.gateway.Dispatch(c, msg) {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.gateway.logger.Debug("write error", "conn", c.ID, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close drops the socket; the read pump then unregisters the client
func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}
