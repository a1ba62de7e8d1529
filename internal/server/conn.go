package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bethropolis/collabmd/internal/logger"
	"github.com/bethropolis/collabmd/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 256
)

// conn is one websocket client. readPump owns the document membership;
// writePump owns all writes to the socket.
type conn struct {
	hub  *Hub
	ws   *websocket.Conn
	send chan []byte
	id   string
	user string

	closeOnce sync.Once
}

func newConn(hub *Hub, ws *websocket.Conn) *conn {
	return &conn{
		hub:  hub,
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		id:   uuid.NewString(),
	}
}

func (c *conn) ClientID() string { return c.id }
func (c *conn) UserName() string { return c.user }

// deliver queues data without blocking. A peer that cannot keep up is disconnected.
func (c *conn) deliver(data []byte) {
	select {
	case c.send <- data:
	default:
		logger.WarnTagf("server", "client %s too slow, disconnecting", c.id)
		c.closeSocket()
	}
}

func (c *conn) closeSocket() {
	c.closeOnce.Do(func() { c.ws.Close() })
}

func (c *conn) reply(msg protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		logger.ErrorTagf("server", "encode reply: %v", err)
		return
	}
	c.deliver(data)
}

func (c *conn) readPump(ctx context.Context) {
	var doc *Document
	defer func() {
		if doc != nil {
			c.hub.Leave(context.WithoutCancel(ctx), doc, c)
		}
		// writePump sends what is queued, then closes the socket.
		close(c.send)
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WarnTagf("server", "client %s read: %v", c.id, err)
			}
			return
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			c.reply(protocol.Error("%v", err))
			continue
		}

		switch {
		case msg.Type == protocol.TypeJoin && doc == nil:
			c.user = msg.UserName
			if c.user == "" {
				c.user = "anonymous"
			}
			joined, err := c.hub.Join(ctx, msg.DocID, c)
			if err != nil {
				logger.WarnTagf("server", "client %s join %q: %v", c.id, msg.DocID, err)
				c.reply(protocol.Error("%v", err))
				continue
			}
			doc = joined
		case msg.Type == protocol.TypeUpdate && doc != nil:
			if _, err := doc.ApplyUpdate(c.id, msg.BaseRev, msg.Ops); err != nil {
				logger.WarnTagf("server", "client %s update on %s: %v", c.id, doc.ID(), err)
				// The client's in-flight patch will never be acknowledged, so
				// it has to rejoin.
				c.reply(protocol.Error("%v", err))
				return
			}
		default:
			c.reply(protocol.Error("unexpected %s message", msg.Type))
		}
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeSocket()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
