// Package network holds the WebSocket client used to watch a running engine.
package network

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"keylatch/internal/capture"
	"keylatch/internal/protocol"
)

// WSClient handles the WebSocket connection to a running keylatch
type WSClient struct {
	hostAddr string
	token    string
	retry    time.Duration
	send     chan protocol.Message
	log      zerolog.Logger

	// Callbacks
	OnKey   func(capture.GlobalKeyEvent)
	OnState func(capture.Snapshot)
	OnError func(string)

	mu          sync.Mutex
	isConnected bool
}

// NewWSClient creates a new WebSocket client
func NewWSClient(hostAddr, token string, log zerolog.Logger) *WSClient {
	return &WSClient{
		hostAddr: hostAddr,
		token:    token,
		retry:    5 * time.Second,
		send:     make(chan protocol.Message, 100),
		log:      log,
	}
}

// Run connects and reconnects until ctx is done.
func (c *WSClient) Run(ctx context.Context) {
	for {
		c.connect(ctx)

		// If connect returns, it means we disconnected. Wait a bit and retry.
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.retry):
			c.log.Debug().Msg("attempting reconnection")
		}
	}
}

// URL is the stream endpoint this client dials.
func (c *WSClient) URL() string {
	u := url.URL{Scheme: "ws", Host: c.hostAddr, Path: "/ws"}
	return u.String()
}

func (c *WSClient) connect(ctx context.Context) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL(), header)
	if err != nil {
		c.log.Warn().Err(err).Str("url", c.URL()).Msg("connection failed")
		return
	}
	defer conn.Close()

	c.setConnected(true)
	defer c.setConnected(false)
	c.log.Info().Str("url", c.URL()).Msg("connected")

	connDone := make(chan struct{})
	go func() {
		defer close(connDone)
		c.writePump(ctx, conn)
	}()

	c.readPump(conn)

	// Ensure write pump stops
	conn.Close()
	<-connDone
}

func (c *WSClient) setConnected(v bool) {
	c.mu.Lock()
	c.isConnected = v
	c.mu.Unlock()
}

func (c *WSClient) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(1 << 16)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("read error")
			}
			return
		}

		env, err := protocol.Decode(data)
		if err != nil {
			c.log.Debug().Err(err).Msg("skipping message")
			continue
		}
		c.handleMessage(env)
	}
}

func (c *WSClient) writePump(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second) // Ping ticker
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				c.log.Warn().Err(err).Msg("write error")
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

func (c *WSClient) handleMessage(env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeGlobalKey:
		var ev capture.GlobalKeyEvent
		if err := env.Into(&ev); err != nil {
			c.log.Debug().Err(err).Send()
			return
		}
		if c.OnKey != nil {
			c.OnKey(ev)
		}

	case protocol.TypeCaptureState:
		var snap capture.Snapshot
		if err := env.Into(&snap); err != nil {
			c.log.Debug().Err(err).Send()
			return
		}
		if c.OnState != nil {
			c.OnState(snap)
		}

	case protocol.TypeError:
		var payload protocol.ErrorPayload
		_ = env.Into(&payload)
		if c.OnError != nil {
			c.OnError(payload.Error)
		}
	}
}

// SendStart asks the server to start capture.
func (c *WSClient) SendStart(mode, inputMode string) {
	c.send <- protocol.Message{
		Type:    protocol.TypeStartCapture,
		Payload: protocol.StartCapturePayload{Mode: mode, InputMode: inputMode},
	}
}

// SendStop asks the server to stop capture.
func (c *WSClient) SendStop() {
	c.send <- protocol.Message{Type: protocol.TypeStopCapture}
}

// IsConnected returns true if client is connected
func (c *WSClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected
}
