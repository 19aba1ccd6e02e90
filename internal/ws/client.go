package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"stablecircle/internal/domain"
	"stablecircle/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxFrameSize   = 4096
	sendBufferSize = 256
	sendTimeout    = 5 * time.Second
)

// Chat is the slice of service.ChatService the socket needs.
type Chat interface {
	CanJoin(ctx context.Context, hubID, wallet string) error
	Send(ctx context.Context, hubID, wallet, content string) (*domain.Message, error)
}

type Client struct {
	Wallet string
	HubID  string
	Conn   *websocket.Conn

	send    chan []byte
	hub     *Hub
	chat    Chat
	closeMu sync.Mutex
	closed  bool
	Done    chan struct{}
}

func NewClient(wallet, hubID string, conn *websocket.Conn, hub *Hub, chat Chat) *Client {
	return &Client{
		Wallet: wallet,
		HubID:  hubID,
		Conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		hub:    hub,
		chat:   chat,
		Done:   make(chan struct{}),
	}
}

// Run joins the hub's room and blocks until the connection drops.
func (c *Client) Run() {
	go c.writePump()
	c.hub.join(c)
	c.enqueue(encode(MsgReady, nil))
	c.readPump()
}

func (c *Client) enqueue(data []byte) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.close()
		close(c.Done)
	}()

	c.Conn.SetReadLimit(maxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger().Warn("ws read error", "error", err)
			}
			return
		}
		c.handle(raw)
	}
}

func (c *Client) handle(raw []byte) {
	var in InboundFrame
	if err := json.Unmarshal(raw, &in); err != nil {
		c.enqueue(encode(MsgError, ErrorPayload{Message: "malformed frame"}))
		return
	}
	switch in.Type {
	case MsgPing:
		c.enqueue(encode(MsgPong, nil))
	case MsgMessage:
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		// the stored message comes back through Hub.Broadcast
		if _, err := c.chat.Send(ctx, c.HubID, c.Wallet, in.Content); err != nil {
			c.enqueue(encode(MsgError, ErrorPayload{Message: c.frameError(err)}))
		}
	default:
		c.enqueue(encode(MsgError, ErrorPayload{Message: "unknown frame type"}))
	}
}

func (c *Client) logger() *slog.Logger {
	return logger.With("wallet", c.Wallet, "hub_id", c.HubID)
}

func (c *Client) frameError(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return err.Error()
	case errors.Is(err, domain.ErrNotMember):
		return "not a member of this hub"
	}
	c.logger().Error("ws message failed", "error", err)
	return "message could not be sent"
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger().Debug("ws write failed", "error", err)
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
