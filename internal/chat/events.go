package chat

import (
	"encoding/json"
	"time"
)

// Inbound events.
const (
	EventCreateRoom  = "create_room"
	EventDeleteRoom  = "delete_room"
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventSendMessage = "send_message"
)

// Outbound events.
const (
	EventRoomListUpdate = "room_list_update"
	EventRoomCreated    = "room_created"
	EventRoomDeleted    = "room_deleted"
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventNewMessage     = "new_message"
	EventError          = "error"
)

// Envelope is the frame exchanged in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type RoomRef struct {
	RoomName string `json:"roomName"`
}

type Presence struct {
	Username  string    `json:"username"`
	RoomName  string    `json:"roomName"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatMessage struct {
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func encode(event string, data any) ([]byte, error) {
	return json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{event, data})
}
