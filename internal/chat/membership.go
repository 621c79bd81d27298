package chat

import "sort"

// Membership records the one room, if any, each connection occupies,
// keyed by connection ID. Like Registry it relies on the Engine lock.
type Membership struct {
	byConn map[string]string
	byRoom map[string]map[string]struct{}
}

func NewMembership() *Membership {
	return &Membership{
		byConn: make(map[string]string),
		byRoom: make(map[string]map[string]struct{}),
	}
}

func (m *Membership) Current(connID string) (string, bool) {
	room, ok := m.byConn[connID]
	return room, ok
}

// Set moves connID into room, returning the room it held before.
func (m *Membership) Set(connID, room string) (string, bool) {
	prev, had := m.Clear(connID)
	m.byConn[connID] = room
	if m.byRoom[room] == nil {
		m.byRoom[room] = make(map[string]struct{})
	}
	m.byRoom[room][connID] = struct{}{}
	return prev, had
}

// Clear puts connID back into the no-room state.
func (m *Membership) Clear(connID string) (string, bool) {
	prev, had := m.byConn[connID]
	if !had {
		return "", false
	}
	delete(m.byConn, connID)
	if set, ok := m.byRoom[prev]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(m.byRoom, prev)
		}
	}
	return prev, true
}

func (m *Membership) Count(room string) int {
	return len(m.byRoom[room])
}

// Members returns the IDs of the connections in room, sorted.
func (m *Membership) Members(room string) []string {
	set := m.byRoom[room]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Evict clears every connection in room and returns their IDs.
func (m *Membership) Evict(room string) []string {
	ids := m.Members(room)
	for _, id := range ids {
		delete(m.byConn, id)
	}
	delete(m.byRoom, room)
	return ids
}
