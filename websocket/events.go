package websocket

import (
	"encoding/json"
)

// Event is an incoming websocket frame
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerEvent is an outgoing websocket frame
type ServerEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type JoinRoomPayload struct {
	RoomID uint `json:"roomId"`
}

type SendMessagePayload struct {
	RoomID  uint   `json:"roomId"`
	UserID  uint   `json:"userId"`
	Content string `json:"content"`
}

type CodeUpdatePayload struct {
	RoomID uint   `json:"roomId"`
	Code   string `json:"code"`
}

type CursorMovementPayload struct {
	RoomID   uint            `json:"roomId"`
	Username string          `json:"username"`
	Position json.RawMessage `json:"position"`
}

type LanguageChangePayload struct {
	RoomID   uint   `json:"roomId"`
	Language string `json:"language"`
}

type OutputChangePayload struct {
	RoomID uint   `json:"roomId"`
	Output string `json:"output"`
	Error  string `json:"error"`
}

type LeaveRoomPayload struct {
	RoomID uint `json:"roomId"`
	UserID uint `json:"userId"`
}
