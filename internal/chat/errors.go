package chat

// Kind classifies a failed chat operation.
type Kind int

const (
	KindInvalidName Kind = iota + 1
	KindRoomExists
	KindRoomNotFound
	KindNotOwner
	KindNotInRoom
	KindInvalidMessage
	KindMessageTooLong
	KindAuthRejected
	KindBadEvent
)

// Error is the result of a rejected operation. The message is what the
// caller sees in its error event; errors.Is matches on Kind only.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidName    = &Error{KindInvalidName, "Invalid room name"}
	ErrRoomExists     = &Error{KindRoomExists, "Room already exists"}
	ErrRoomNotFound   = &Error{KindRoomNotFound, "Room does not exist"}
	ErrNotOwner       = &Error{KindNotOwner, "Only room creator can delete the room"}
	ErrNotInRoom      = &Error{KindNotInRoom, "You must join a room first"}
	ErrInvalidMessage = &Error{KindInvalidMessage, "Invalid message"}
	ErrMessageTooLong = &Error{KindMessageTooLong, "Message too long (max 500 characters)"}
	ErrAuthRejected   = &Error{KindAuthRejected, "Authentication required"}
	ErrBadEvent       = &Error{KindBadEvent, "Unknown or malformed event"}

	errEmptyMessage = &Error{KindInvalidMessage, "Message cannot be empty"}
)
