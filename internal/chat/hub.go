package chat

import "sort"

// Conn is an admitted connection as seen by the engine. Send must not
// block; it reports false when the payload could not be queued.
type Conn interface {
	ID() string
	Username() string
	Send(payload []byte) bool
	Close()
}

// Hub is the directory of admitted connections and the fan-out over it.
// Guarded by the Engine lock.
type Hub struct {
	conns map[string]Conn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]Conn)}
}

func (h *Hub) Add(c Conn) {
	h.conns[c.ID()] = c
}

func (h *Hub) Remove(c Conn) bool {
	if cur, ok := h.conns[c.ID()]; !ok || cur != c {
		return false
	}
	delete(h.conns, c.ID())
	return true
}

func (h *Hub) Len() int { return len(h.conns) }

// All returns every admitted connection ordered by ID.
func (h *Hub) All() []Conn {
	out := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Lookup resolves connection IDs, skipping exclude and IDs no longer admitted.
func (h *Hub) Lookup(ids []string, exclude Conn) []Conn {
	out := make([]Conn, 0, len(ids))
	for _, id := range ids {
		c, ok := h.conns[id]
		if !ok || c == exclude {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Broadcast queues payload on every target and returns the ones that
// refused it.
func (h *Hub) Broadcast(targets []Conn, payload []byte) []Conn {
	var failed []Conn
	for _, c := range targets {
		if !c.Send(payload) {
			failed = append(failed, c)
		}
	}
	return failed
}
