package websocket

import (
	"encoding/json"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Client -> Server
	TypePing MessageType = "ping"

	// Server -> Client
	TypePong          MessageType = "pong"
	TypeConnectionAck MessageType = "connection_ack"
	TypeRoomState     MessageType = "room_state"
	TypeRoomClosed    MessageType = "room_closed"
	TypeLeftRoom      MessageType = "left_room"
	TypeError         MessageType = "error"
)

// ClientMessage represents any message from client
type ClientMessage struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ServerMessage represents any message to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Data      any         `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ConnectionAckData confirms a registered session
type ConnectionAckData struct {
	RoomID        string `json:"room_id"`
	ParticipantID string `json:"participant_id"`
	SessionID     string `json:"session_id"`
}

// RoomClosedData tells sessions why their room went away
type RoomClosedData struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"`
}

// ErrorData represents an error message
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newMessage(t MessageType, data any) ServerMessage {
	return ServerMessage{Type: t, Data: data, Timestamp: time.Now().Unix()}
}

// ToJSON converts a message to JSON bytes
func (m ServerMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
