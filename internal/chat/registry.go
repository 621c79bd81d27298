package chat

import (
	"sort"
	"time"
)

// Room is the registry entry for a named channel. MemberCount is derived
// from Membership and refreshed by RecomputeMemberCount.
type Room struct {
	Name        string    `json:"name"`
	Creator     string    `json:"creator"`
	CreatedAt   time.Time `json:"createdAt"`
	MemberCount int       `json:"memberCount"`
}

// Registry maps room names to rooms. It has no lock of its own: the Engine
// serializes every access together with Membership.
type Registry struct {
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

func (r *Registry) Create(name, creator string, now time.Time) (Room, error) {
	name, err := NormalizeRoomName(name)
	if err != nil {
		return Room{}, err
	}
	if _, ok := r.rooms[name]; ok {
		return Room{}, ErrRoomExists
	}
	room := &Room{Name: name, Creator: creator, CreatedAt: now.UTC()}
	r.rooms[name] = room
	return *room, nil
}

// CheckOwner reports whether requester may delete the room.
func (r *Registry) CheckOwner(name, requester string) error {
	room, ok := r.rooms[name]
	if !ok {
		return ErrRoomNotFound
	}
	if room.Creator != requester {
		return ErrNotOwner
	}
	return nil
}

// Delete removes the room and returns how many members it had.
func (r *Registry) Delete(name, requester string) (int, error) {
	if err := r.CheckOwner(name, requester); err != nil {
		return 0, err
	}
	n := r.rooms[name].MemberCount
	delete(r.rooms, name)
	return n, nil
}

func (r *Registry) Exists(name string) bool {
	_, ok := r.rooms[name]
	return ok
}

func (r *Registry) Get(name string) (Room, bool) {
	room, ok := r.rooms[name]
	if !ok {
		return Room{}, false
	}
	return *room, true
}

func (r *Registry) RecomputeMemberCount(name string, m *Membership) {
	if room, ok := r.rooms[name]; ok {
		room.MemberCount = m.Count(name)
	}
}

// ListAll returns a copy of every room, sorted by name.
func (r *Registry) ListAll() []Room {
	out := make([]Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, *room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) Len() int { return len(r.rooms) }
