package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapVerifier map[string]string

func (m mapVerifier) Verify(token string) (string, error) {
	if u, ok := m[token]; ok {
		return u, nil
	}
	return "", errors.New("bad token")
}

type panicVerifier struct{}

func (panicVerifier) Verify(string) (string, error) { panic("boom") }

func newTestServer(t *testing.T) (*httptest.Server, *Engine) {
	t.Helper()
	e := newTestEngine()
	svc := NewService(e, mapVerifier{"tok-alice": "alice", "tok-bob": "bob"}, Options{
		AllowedOrigins: []string{"http://localhost:3000"},
		Logger:         e.log,
	})
	srv := httptest.NewServer(http.HandlerFunc(svc.ServeWS))
	t.Cleanup(srv.Close)
	return srv, e
}

func dial(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	h := http.Header{}
	if token != "" {
		h.Set("Cookie", "token="+token)
	}
	return websocket.DefaultDialer.Dial(url, h)
}

func mustDial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := dial(t, srv, token)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func write(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Envelope{Event: event, Data: raw}))
}

// readUntil reads frames until one named event satisfies match.
func readUntil(t *testing.T, conn *websocket.Conn, event string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var env Envelope
		require.NoError(t, conn.ReadJSON(&env), "waiting for %s", event)
		if env.Event == event && (match == nil || match(env.Data)) {
			return env.Data
		}
	}
}

func TestServeWSRejectsWithoutCredential(t *testing.T) {
	srv, e := newTestServer(t)

	for _, tok := range []string{"", "forged"} {
		_, resp, err := dial(t, srv, tok)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	_, conns := e.Stats()
	assert.Zero(t, conns)
}

func TestServeWSRejectsForeignOrigin(t *testing.T) {
	srv, _ := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	h := http.Header{"Cookie": {"token=tok-alice"}, "Origin": {"http://evil.example"}}

	_, resp, err := websocket.DefaultDialer.Dial(url, h)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServeWSEndToEnd(t *testing.T) {
	srv, e := newTestServer(t)

	alice := mustDial(t, srv, "tok-alice")
	readUntil(t, alice, EventRoomListUpdate, nil)

	write(t, alice, EventCreateRoom, "general")
	ref := readUntil(t, alice, EventRoomCreated, nil)
	assert.JSONEq(t, `{"roomName":"general"}`, string(ref))

	bob := mustDial(t, srv, "tok-bob")
	snapshot := readUntil(t, bob, EventRoomListUpdate, nil)
	var rooms []Room
	require.NoError(t, json.Unmarshal(snapshot, &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, "alice", rooms[0].Creator)

	write(t, alice, EventJoinRoom, "general")
	readUntil(t, alice, EventRoomListUpdate, func(raw json.RawMessage) bool {
		var rs []Room
		return json.Unmarshal(raw, &rs) == nil && len(rs) == 1 && rs[0].MemberCount == 1
	})
	write(t, bob, EventJoinRoom, "general")
	joined := readUntil(t, alice, EventUserJoined, nil)
	assert.Equal(t, "bob", decodeAs[Presence](t, joined).Username)

	write(t, bob, EventSendMessage, map[string]string{"message": " hello "})
	for _, c := range []*websocket.Conn{alice, bob} {
		raw := readUntil(t, c, EventNewMessage, nil)
		m := decodeAs[ChatMessage](t, raw)
		assert.Equal(t, "bob", m.Username)
		assert.Equal(t, "hello", m.Message)
	}

	write(t, bob, EventDeleteRoom, "general")
	errPayload := readUntil(t, bob, EventError, nil)
	assert.Equal(t, "Only room creator can delete the room", decodeAs[ErrorPayload](t, errPayload).Message)

	// bob drops; alice sees the count fall back to one.
	require.NoError(t, bob.Close())
	readUntil(t, alice, EventRoomListUpdate, func(raw json.RawMessage) bool {
		var rs []Room
		return json.Unmarshal(raw, &rs) == nil && len(rs) == 1 && rs[0].MemberCount == 1
	})
	assert.Eventually(t, func() bool {
		_, conns := e.Stats()
		return conns == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAuthenticateTreatsVerifierPanicAsRejection(t *testing.T) {
	svc := NewService(newTestEngine(), panicVerifier{}, Options{})
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: "x"})

	_, err := svc.authenticate(r)
	assert.ErrorIs(t, err, ErrAuthRejected)
}

func TestAuthenticateUsesConfiguredCookie(t *testing.T) {
	svc := NewService(newTestEngine(), mapVerifier{"t": "alice"}, Options{CookieName: "sid"})

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: "t"})
	_, err := svc.authenticate(r)
	assert.ErrorIs(t, err, ErrAuthRejected)

	r = httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: "t"})
	user, err := svc.authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
}

func TestOriginChecker(t *testing.T) {
	check := newOriginChecker([]string{"http://LOCALHOST:3000", "not a url"})
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, check(req("")))
	assert.True(t, check(req("http://localhost:3000")))
	assert.False(t, check(req("http://localhost:4000")))
	assert.False(t, check(req("::bad")))

	all := newOriginChecker([]string{"*"})
	assert.True(t, all(req("https://anything.example")))
}
