package chat

import (
	"encoding/json"
	"errors"
)

// Dispatch decodes one inbound frame from c and applies it. A rejected
// operation is reported to c alone as an error event.
func (e *Engine) Dispatch(c Conn, raw []byte) error {
	err := e.dispatch(c, raw)
	if err == nil {
		return nil
	}
	var cerr *Error
	if !errors.As(err, &cerr) {
		e.log.Error("dispatch", "conn", c.ID(), "err", err)
		return err
	}
	e.log.Debug("event rejected", "conn", c.ID(), "username", c.Username(), "err", cerr.Message)
	e.reply(c, EventError, ErrorPayload{Message: cerr.Message})
	return err
}

func (e *Engine) dispatch(c Conn, raw []byte) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ErrBadEvent
	}

	switch env.Event {
	case EventSendMessage:
		return e.SendMessage(c, messageText(env.Data))
	case EventCreateRoom, EventDeleteRoom, EventJoinRoom, EventLeaveRoom:
	default:
		return ErrBadEvent
	}

	name, err := decodeRoomName(env.Data)
	if err != nil {
		return err
	}
	switch env.Event {
	case EventCreateRoom:
		return e.CreateRoom(c, name)
	case EventDeleteRoom:
		return e.DeleteRoom(c, name)
	case EventJoinRoom:
		return e.JoinRoom(c, name)
	default:
		return e.LeaveRoom(c, name)
	}
}
