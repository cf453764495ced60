package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keylatch/internal/capture"
	"keylatch/internal/protocol"
)

func TestClientDecodesStreamAndSendsCommands(t *testing.T) {
	received := make(chan protocol.Envelope, 1)
	gotAuth := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")
		up := websocket.Upgrader{}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"capture_state","payload":{"active":true,"mode":"wasd"}}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`garbage`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"global_key","payload":{"code":"KeyW","text":"w","phase":"down"}}`))

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := protocol.Decode(data)
		if err == nil {
			received <- env
		}
		conn.ReadMessage()
	}))
	defer srv.Close()

	c := NewWSClient(strings.TrimPrefix(srv.URL, "http://"), "tok", zerolog.Nop())
	states := make(chan capture.Snapshot, 1)
	keysSeen := make(chan capture.GlobalKeyEvent, 1)
	c.OnState = func(s capture.Snapshot) { states <- s }
	c.OnKey = func(ev capture.GlobalKeyEvent) { keysSeen <- ev }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	assert.Equal(t, "Bearer tok", <-gotAuth)

	select {
	case s := <-states:
		assert.True(t, s.Active)
		assert.Equal(t, "wasd", s.Mode)
	case <-time.After(2 * time.Second):
		t.Fatal("no state")
	}

	select {
	case ev := <-keysSeen:
		assert.Equal(t, "KeyW", ev.Code)
		require.NotNil(t, ev.Text)
		assert.Equal(t, "w", *ev.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("no key event")
	}
	assert.True(t, c.IsConnected())

	c.SendStop()
	select {
	case env := <-received:
		assert.Equal(t, protocol.TypeStopCapture, env.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("command not sent")
	}
}

func TestURL(t *testing.T) {
	c := NewWSClient("127.0.0.1:18091", "", zerolog.Nop())
	assert.Equal(t, "ws://127.0.0.1:18091/ws", c.URL())
}
