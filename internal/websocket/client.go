package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Send pings to peer with this period
	pingPeriod = 30 * time.Second

	// Maximum message size allowed from peer (clients only send pings)
	maxMessageSize = 512
)

// Client represents a single WebSocket session of a participant
type Client struct {
	participantID string
	sessionID     string
	conn          *websocket.Conn
	hub           *Hub
	send          chan []byte
	log           *slog.Logger

	// Owned by the hub goroutine
	lastVersion uint64

	// Set by the hub before it closes send
	closeStatus websocket.StatusCode
	closeReason string
}

// NewClient creates a new client instance
func NewClient(participantID, sessionID string, conn *websocket.Conn, hub *Hub, sendBuffer int, log *slog.Logger) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 16
	}
	return &Client{
		participantID: participantID,
		sessionID:     sessionID,
		conn:          conn,
		hub:           hub,
		send:          make(chan []byte, sendBuffer),
		log:           log.With("participant_id", participantID, "session_id", sessionID),
		closeStatus:   websocket.StatusNormalClosure,
	}
}

func (c *Client) key() sessionKey {
	return sessionKey{participantID: c.participantID, sessionID: c.sessionID}
}

// enqueue queues a control message without blocking. Only the hub calls it.
func (c *Client) enqueue(msg ServerMessage) {
	data, err := msg.ToJSON()
	if err != nil {
		c.log.Error("failed to marshal message", "type", msg.Type, "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Debug("dropping control message, buffer full", "type", msg.Type)
	}
}

// readPump reads from the connection until it fails, answering pings.
// Room changes never arrive this way: they go through the HTTP API.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				c.log.Debug("client disconnected normally")
			} else if ctx.Err() == nil {
				c.log.Debug("websocket read ended", "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != TypePing {
			c.reply(ctx, newMessage(TypeError, ErrorData{Code: "InvalidArgument", Message: "unsupported message"}))
			continue
		}
		c.reply(ctx, newMessage(TypePong, nil))
	}
}

// reply writes directly to the connection. coder/websocket allows writes
// concurrent with the write pump.
func (c *Client) reply(ctx context.Context, msg ServerMessage) {
	data, err := msg.ToJSON()
	if err != nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	if err := c.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		c.log.Debug("failed to write reply", "error", err)
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				c.conn.Close(c.closeStatus, c.closeReason)
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()

			if err != nil {
				c.log.Debug("failed to write message", "error", err)
				c.conn.Close(websocket.StatusInternalError, "write failed")
				return
			}

		case <-ticker.C:
			// Send ping to keep connection alive
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(writeCtx)
			cancel()

			if err != nil {
				c.log.Debug("failed to send ping", "error", err)
				c.conn.Close(websocket.StatusGoingAway, "ping failed")
				return
			}

		case <-ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "")
			return
		}
	}
}
