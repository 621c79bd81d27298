package chat

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	e := NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
	e.now = func() time.Time { return testNow }
	return e
}

type received struct {
	Event string
	Data  json.RawMessage
}

type fakeConn struct {
	id   string
	user string

	mu     sync.Mutex
	frames [][]byte
	full   bool
	closed bool
}

func newFake(id, user string) *fakeConn {
	return &fakeConn{id: id, user: user}
}

func (f *fakeConn) ID() string       { return f.id }
func (f *fakeConn) Username() string { return f.user }

func (f *fakeConn) Send(p []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full || f.closed {
		return false
	}
	f.frames = append(f.frames, p)
	return true
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	f.frames = nil
	f.mu.Unlock()
}

func (f *fakeConn) events(t *testing.T) []received {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]received, 0, len(f.frames))
	for _, fr := range f.frames {
		var r received
		require.NoError(t, json.Unmarshal(fr, &r))
		out = append(out, r)
	}
	return out
}

func (f *fakeConn) names(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, r := range f.events(t) {
		out = append(out, r.Event)
	}
	return out
}

func (f *fakeConn) named(t *testing.T, event string) []json.RawMessage {
	t.Helper()
	var out []json.RawMessage
	for _, r := range f.events(t) {
		if r.Event == event {
			out = append(out, r.Data)
		}
	}
	return out
}

func (f *fakeConn) lastRoomList(t *testing.T) []Room {
	t.Helper()
	lists := f.named(t, EventRoomListUpdate)
	require.NotEmpty(t, lists, "no room_list_update received by %s", f.id)
	var rooms []Room
	require.NoError(t, json.Unmarshal(lists[len(lists)-1], &rooms))
	return rooms
}

func decodeAs[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func strptr(s string) *string { return &s }
