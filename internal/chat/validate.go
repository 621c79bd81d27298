package chat

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the longest accepted chat message, in code points,
// after trimming.
const MaxMessageLength = 500

// NormalizeRoomName trims raw and rejects names that are empty afterwards.
func NormalizeRoomName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

// ValidateMessage returns the trimmed text of a chat message. A nil text
// means the field was absent.
func ValidateMessage(text *string) (string, error) {
	if text == nil {
		return "", ErrInvalidMessage
	}
	msg := strings.TrimSpace(*text)
	if msg == "" {
		return "", errEmptyMessage
	}
	if utf8.RuneCountInString(msg) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return msg, nil
}

// decodeRoomName reads the payload of the room events, which must be a
// JSON string.
func decodeRoomName(data json.RawMessage) (string, error) {
	var raw string
	if len(data) == 0 || json.Unmarshal(data, &raw) != nil {
		return "", ErrInvalidName
	}
	return NormalizeRoomName(raw)
}

// messageText extracts the message field of a send_message payload of the
// form {"message": "..."}. It returns nil when the field is missing or not
// a string.
func messageText(data json.RawMessage) *string {
	var in struct {
		Message *string `json:"message"`
	}
	if len(data) == 0 || json.Unmarshal(data, &in) != nil {
		return nil
	}
	return in.Message
}
