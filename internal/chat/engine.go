package chat

import (
	"log/slog"
	"sync"
	"time"
)

// Engine owns the room registry, the membership tracker, and the hub of
// admitted connections. Every operation runs under one lock and queues its
// outbound events before releasing it, so each connection observes events
// in the order the mutations happened.
type Engine struct {
	mu      sync.Mutex
	rooms   *Registry
	members *Membership
	hub     *Hub
	now     func() time.Time
	log     *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		rooms:   NewRegistry(),
		members: NewMembership(),
		hub:     NewHub(),
		now:     func() time.Time { return time.Now().UTC() },
		log:     logger.With("component", "chat"),
	}
}

// Admit registers c and sends it, alone, the current room list.
func (e *Engine) Admit(c Conn) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.hub.Add(c)
	e.send([]Conn{c}, EventRoomListUpdate, e.rooms.ListAll())
	e.log.Info("connection admitted", "conn", c.ID(), "username", c.Username(), "connections", e.hub.Len())
}

// Disconnect forgets c. If it was in a room, the room's count is refreshed
// before the new room list goes out.
func (e *Engine) Disconnect(c Conn) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hub.Remove(c) {
		return
	}
	room, had := e.members.Clear(c.ID())
	if had {
		e.rooms.RecomputeMemberCount(room, e.members)
		e.broadcastRoomList()
	}
	e.log.Info("connection closed", "conn", c.ID(), "username", c.Username(), "room", room, "connections", e.hub.Len())
}

func (e *Engine) CreateRoom(c Conn, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, err := e.rooms.Create(name, c.Username(), e.now())
	if err != nil {
		return err
	}
	e.broadcastRoomList()
	e.send([]Conn{c}, EventRoomCreated, RoomRef{RoomName: room.Name})
	e.log.Info("room created", "room", room.Name, "username", c.Username())
	return nil
}

// DeleteRoom removes a room owned by c. Members get room_deleted and lose
// their membership before the room disappears from the public list.
func (e *Engine) DeleteRoom(c Conn, name string) error {
	name, err := NormalizeRoomName(name)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.rooms.CheckOwner(name, c.Username()); err != nil {
		return err
	}
	ids := e.members.Members(name)
	e.send(e.hub.Lookup(ids, nil), EventRoomDeleted, RoomRef{RoomName: name})
	e.members.Evict(name)
	if _, err := e.rooms.Delete(name, c.Username()); err != nil {
		return err
	}
	e.broadcastRoomList()
	e.log.Info("room deleted", "room", name, "username", c.Username(), "evicted", len(ids))
	return nil
}

// JoinRoom moves c into name, leaving any room it held before.
func (e *Engine) JoinRoom(c Conn, name string) error {
	name, err := NormalizeRoomName(name)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.rooms.Exists(name) {
		return ErrRoomNotFound
	}
	if cur, ok := e.members.Current(c.ID()); ok && cur == name {
		e.broadcastRoomList()
		return nil
	}

	prev, had := e.members.Set(c.ID(), name)
	if had {
		e.rooms.RecomputeMemberCount(prev, e.members)
	}
	e.rooms.RecomputeMemberCount(name, e.members)
	e.broadcastRoomList()

	now := e.now()
	if had {
		e.sendToRoom(prev, nil, EventUserLeft, Presence{Username: c.Username(), RoomName: prev, Timestamp: now})
	}
	e.sendToRoom(name, c, EventUserJoined, Presence{Username: c.Username(), RoomName: name, Timestamp: now})
	e.log.Info("joined room", "room", name, "username", c.Username(), "previous", prev)
	return nil
}

// LeaveRoom takes c out of name. Leaving a room c is not in only
// rebroadcasts the room list.
func (e *Engine) LeaveRoom(c Conn, name string) error {
	name, err := NormalizeRoomName(name)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cur, ok := e.members.Current(c.ID())
	left := ok && cur == name
	if left {
		e.members.Clear(c.ID())
		e.rooms.RecomputeMemberCount(name, e.members)
	}
	e.broadcastRoomList()
	if left {
		e.sendToRoom(name, nil, EventUserLeft, Presence{Username: c.Username(), RoomName: name, Timestamp: e.now()})
		e.log.Info("left room", "room", name, "username", c.Username())
	}
	return nil
}

// SendMessage delivers text to everyone in c's room, c included.
func (e *Engine) SendMessage(c Conn, text *string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, ok := e.members.Current(c.ID())
	if !ok {
		return ErrNotInRoom
	}
	msg, err := ValidateMessage(text)
	if err != nil {
		return err
	}
	e.sendToRoom(room, nil, EventNewMessage, ChatMessage{Username: c.Username(), Message: msg, Timestamp: e.now()})
	e.log.Debug("message sent", "room", room, "username", c.Username(), "message", truncate(msg, 50))
	return nil
}

// Rooms returns a snapshot of the registry.
func (e *Engine) Rooms() []Room {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rooms.ListAll()
}

func (e *Engine) CurrentRoom(c Conn) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.members.Current(c.ID())
}

// Stats reports the number of rooms and admitted connections.
func (e *Engine) Stats() (rooms, conns int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rooms.Len(), e.hub.Len()
}

// Shutdown closes every admitted connection. Their disconnects are handled
// as they arrive.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	conns := e.hub.All()
	e.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	e.log.Info("closed all connections", "count", len(conns))
}

// reply sends a single event to c outside of any registry mutation.
func (e *Engine) reply(c Conn, event string, data any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.send([]Conn{c}, event, data)
}

func (e *Engine) broadcastRoomList() {
	e.send(e.hub.All(), EventRoomListUpdate, e.rooms.ListAll())
}

func (e *Engine) sendToRoom(room string, exclude Conn, event string, data any) {
	e.send(e.hub.Lookup(e.members.Members(room), exclude), event, data)
}

// send encodes once and queues on every target. Targets whose queue is
// full are closed; their disconnect runs later through the read loop.
func (e *Engine) send(targets []Conn, event string, data any) {
	if len(targets) == 0 {
		return
	}
	payload, err := encode(event, data)
	if err != nil {
		e.log.Error("encode event", "event", event, "err", err)
		return
	}
	for _, c := range e.hub.Broadcast(targets, payload) {
		e.log.Warn("dropping slow connection", "conn", c.ID(), "username", c.Username(), "event", event)
		c.Close()
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
