package notify

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/notesync/internal/logging"
)

func testHub() *Hub {
	return NewHub(logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestHub_NotifyPushedReachesAllUserSessions(t *testing.T) {
	h := testHub()

	s1 := &Session{hub: h, send: make(chan []byte, 1), userID: "u1"}
	s2 := &Session{hub: h, send: make(chan []byte, 1), userID: "u1"}
	other := &Session{hub: h, send: make(chan []byte, 1), userID: "u2"}
	h.register(s1)
	h.register(s2)
	h.register(other)

	h.NotifyPushed("u1")

	assert.Len(t, s1.send, 1)
	assert.Len(t, s2.send, 1)
	assert.Len(t, other.send, 0)
	assert.Equal(t, `{"type":"sync"}`, string(<-s1.send))
}

func TestHub_NotifyPushedSkipsFullBuffers(t *testing.T) {
	h := testHub()

	s := &Session{hub: h, send: make(chan []byte, 1), userID: "u1"}
	h.register(s)

	h.NotifyPushed("u1")
	h.NotifyPushed("u1") // buffer full, must not block

	assert.Len(t, s.send, 1)
}

func TestHub_UnregisterClosesSendAndDropsUser(t *testing.T) {
	h := testHub()

	s := &Session{hub: h, send: make(chan []byte, 1), userID: "u1"}
	h.register(s)
	require.Equal(t, 1, h.SessionCount("u1"))

	h.unregister(s)
	assert.Equal(t, 0, h.SessionCount("u1"))

	_, open := <-s.send
	assert.False(t, open, "send channel must be closed on unregister")

	// double unregister is a no-op
	h.unregister(s)
}

func TestHub_ServeWS_EndToEnd(t *testing.T) {
	h := testHub()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeWS("u1", w, r)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	// wait for registration to land
	require.Eventually(t, func() bool { return h.SessionCount("u1") == 1 }, time.Second, 10*time.Millisecond)

	h.NotifyPushed("u1")

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"sync"}`, string(msg))
}
