package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsFrame struct {
	Type      string         `json:"type"`
	RequestID string         `json:"request_id"`
	Version   int64          `json:"version"`
	Error     string         `json:"error"`
	SessionID string         `json:"session_id"`
	Seq       uint64         `json:"seq"`
	Payload   map[string]any `json:"payload"`
}

func (s *testServer) dial(t *testing.T, sessionID, userID string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(s.wsURL(t, sessionID, userID), nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (s *testServer) wsURL(t *testing.T, sessionID, userID string) string {
	t.Helper()
	u := "ws" + strings.TrimPrefix(s.URL, "http") + "/api/sessions/" + sessionID + "/ws"
	if userID != "" {
		u += "?access_token=" + url.QueryEscape(s.token(t, userID))
	}
	return u
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame wsFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	var frame wsFrame
	err := conn.ReadJSON(&frame)
	require.Error(t, err, "unexpected frame %+v", frame)
}

func TestWebsocketRequiresToken(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createSession(t, "alice", map[string]any{}).Session.ID

	_, resp, err := websocket.DefaultDialer.Dial(srv.wsURL(t, id, ""), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebsocketRejectsFullSessionBeforeUpgrade(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createSession(t, "alice", map[string]any{"max_participants": 1}).Session.ID

	_, resp, err := websocket.DefaultDialer.Dial(srv.wsURL(t, id, "bob"), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestWebsocketTargetedSignalReachesOnlyTarget(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createSession(t, "alice", map[string]any{}).Session.ID
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/sessions/"+id+"/join", "bob", nil, nil))
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/sessions/"+id+"/join", "carol", nil, nil))

	alice := srv.dial(t, id, "alice")
	bob := srv.dial(t, id, "bob")
	carol := srv.dial(t, id, "carol")

	require.NoError(t, alice.WriteJSON(map[string]any{
		"type":       "signal",
		"request_id": "r1",
		"to_user_id": "bob",
		"kind":       "offer",
		"payload": map[string]any{
			"sdp": map[string]any{"type": "offer", "sdp": "v=0\r\n"},
		},
	}))

	ack := readFrame(t, alice)
	assert.Equal(t, "ack", ack.Type)
	assert.Equal(t, "r1", ack.RequestID)

	ev := readFrame(t, bob)
	assert.Equal(t, "webrtc-signal", ev.Type)
	assert.Equal(t, id, ev.SessionID)
	assert.Equal(t, "alice", ev.Payload["from_user_id"])
	assert.Equal(t, "bob", ev.Payload["to_user_id"])

	expectSilence(t, carol)
	expectSilence(t, alice)
}

func TestWebsocketBroadcastSignalSkipsSender(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createSession(t, "alice", map[string]any{}).Session.ID
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/sessions/"+id+"/join", "bob", nil, nil))

	alice := srv.dial(t, id, "alice")
	bob := srv.dial(t, id, "bob")

	require.NoError(t, bob.WriteJSON(map[string]any{
		"type": "signal",
		"kind": "ice-candidate",
		"payload": map[string]any{
			"candidate": map[string]any{"candidate": "candidate:1 1 UDP 2122252543 192.0.2.1 54400 typ host"},
		},
	}))

	assert.Equal(t, "ack", readFrame(t, bob).Type)

	ev := readFrame(t, alice)
	assert.Equal(t, "webrtc-signal", ev.Type)
	assert.Equal(t, "bob", ev.Payload["from_user_id"])

	expectSilence(t, bob)
}

func TestWebsocketCodeAndErrors(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createSession(t, "alice", map[string]any{}).Session.ID
	alice := srv.dial(t, id, "alice")

	require.NoError(t, alice.WriteJSON(map[string]any{"type": "code", "request_id": "c1", "content": "x := 1"}))

	// the editor is a subscriber too, so the event and the ack both arrive
	got := map[string]wsFrame{}
	for i := 0; i < 2; i++ {
		f := readFrame(t, alice)
		got[f.Type] = f
	}
	require.Contains(t, got, "ack")
	require.Contains(t, got, "code-updated")
	assert.Equal(t, int64(2), got["ack"].Version)
	assert.Equal(t, "x := 1", got["code-updated"].Payload["content"])

	require.NoError(t, alice.WriteJSON(map[string]any{"type": "chat", "request_id": "m1", "text": ""}))
	errFrame := readFrame(t, alice)
	assert.Equal(t, "error", errFrame.Type)
	assert.Equal(t, "m1", errFrame.RequestID)
	assert.NotEmpty(t, errFrame.Error)

	require.NoError(t, alice.WriteJSON(map[string]any{"type": "dance", "request_id": "d1"}))
	errFrame = readFrame(t, alice)
	assert.Equal(t, "error", errFrame.Type)
	assert.Equal(t, "unknown frame type", errFrame.Error)

	require.NoError(t, alice.WriteJSON(map[string]any{"type": "ping", "request_id": "p1"}))
	assert.Equal(t, "pong", readFrame(t, alice).Type)
}

func TestFrameReadLimitCoversEscapedDocument(t *testing.T) {
	doc := strings.Repeat("\x01", 1024)
	frame, err := json.Marshal(map[string]any{"type": "code", "request_id": "c1", "content": doc})
	require.NoError(t, err)
	assert.LessOrEqual(t, int64(len(frame)), frameReadLimit(1024))
}

func TestWebsocketAcceptsHeavilyEscapedDocumentAtLimit(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createSession(t, "alice", map[string]any{}).Session.ID
	alice := srv.dial(t, id, "alice")

	// every byte escapes to six, well past the raw document size
	doc := strings.Repeat("\x01", 1024)
	require.NoError(t, alice.WriteJSON(map[string]any{"type": "code", "request_id": "c1", "content": doc}))

	got := map[string]wsFrame{}
	for i := 0; i < 2; i++ {
		f := readFrame(t, alice)
		got[f.Type] = f
	}
	require.Contains(t, got, "ack")
	assert.Equal(t, int64(2), got["ack"].Version)
	require.Contains(t, got, "code-updated")

	require.NoError(t, alice.WriteJSON(map[string]any{"type": "code", "request_id": "c2", "content": doc + "x"}))
	errFrame := readFrame(t, alice)
	assert.Equal(t, "error", errFrame.Type)
	assert.Equal(t, "c2", errFrame.RequestID)
}

func TestWebsocketClosesAfterSessionEnded(t *testing.T) {
	srv := newTestServer(t)
	id := srv.createSession(t, "alice", map[string]any{}).Session.ID
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/sessions/"+id+"/join", "bob", nil, nil))

	bob := srv.dial(t, id, "bob")

	require.Equal(t, http.StatusNoContent, srv.do(t, http.MethodPost, "/api/sessions/"+id+"/end", "alice", nil, nil))

	ev := readFrame(t, bob)
	assert.Equal(t, "session-ended", ev.Type)
	assert.Equal(t, "ended", ev.Payload["reason"])

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame wsFrame
	err := bob.ReadJSON(&frame)
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
