package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"keylatch/internal/protocol"
)

const (
	eventBuffer = 256
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 50 * time.Second
)

// WSManager handles WebSocket connections and broadcasting
type WSManager struct {
	server     *Server
	upgrader   websocket.Upgrader
	clients    map[*WebSocketClient]bool
	clientsMu  sync.RWMutex
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	done       chan struct{}
}

// WebSocketClient represents a connected overlay or monitor
type WebSocketClient struct {
	manager *WSManager
	conn    *websocket.Conn
	send    chan []byte
	ip      string
}

func newWSManager(s *Server) *WSManager {
	return &WSManager{
		server: s,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The overlay runs on its own localhost port, so the default
			// same-host rule is replaced by the configured allow-list.
			CheckOrigin: s.allowsOrigin,
		},
		clients:    make(map[*WebSocketClient]bool),
		register:   make(chan *WebSocketClient),
		unregister: make(chan *WebSocketClient),
		done:       make(chan struct{}),
	}
}

// start forwards engine streams to every client until ctx is done.
func (m *WSManager) start(ctx context.Context) {
	events, unsubEvents := m.server.ctrl.Subscribe(eventBuffer)
	defer unsubEvents()
	states, unsubStates := m.server.ctrl.SubscribeState(eventBuffer)
	defer unsubStates()

	log := m.server.log
	for {
		select {
		case client := <-m.register:
			m.clientsMu.Lock()
			m.clients[client] = true
			total := len(m.clients)
			m.clientsMu.Unlock()
			log.Debug().Str("remote", client.ip).Int("clients", total).Msg("ws client registered")

		case client := <-m.unregister:
			m.drop(client)

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			m.broadcastMessage(protocol.Message{Type: protocol.TypeGlobalKey, Payload: ev})

		case snap, ok := <-states:
			if !ok {
				states = nil
				continue
			}
			m.broadcastMessage(protocol.Message{Type: protocol.TypeCaptureState, Payload: snap})

		case <-ctx.Done():
			close(m.done)
			m.clientsMu.Lock()
			for client := range m.clients {
				delete(m.clients, client)
				close(client.send)
			}
			m.clientsMu.Unlock()
			return
		}
	}
}

func (m *WSManager) drop(client *WebSocketClient) {
	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()
	if _, ok := m.clients[client]; ok {
		delete(m.clients, client)
		close(client.send)
		m.server.log.Debug().Str("remote", client.ip).Int("clients", len(m.clients)).Msg("ws client unregistered")
	}
}

func (m *WSManager) broadcastMessage(message protocol.Message) {
	jsonMsg, err := json.Marshal(message)
	if err != nil {
		m.server.log.Error().Err(err).Msg("marshal broadcast message")
		return
	}

	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()

	for client := range m.clients {
		select {
		case client.send <- jsonMsg:
		default:
			// Slow consumer.
			close(client.send)
			delete(m.clients, client)
		}
	}
}

func (m *WSManager) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.server.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &WebSocketClient{
		manager: m,
		conn:    conn,
		send:    make(chan []byte, eventBuffer),
		ip:      r.RemoteAddr,
	}

	// Nothing else can close send before the client is registered.
	if snap, err := m.server.ctrl.Snapshot(); err == nil {
		if b, err := json.Marshal(protocol.Message{Type: protocol.TypeCaptureState, Payload: snap}); err == nil {
			client.send <- b
		}
	}

	select {
	case m.register <- client:
	case <-m.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump pumps commands from the websocket connection to the engine.
func (c *WebSocketClient) readPump() {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-c.manager.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.manager.server.log.Debug().Err(err).Msg("ws read error")
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WebSocketClient) handleMessage(data []byte) {
	log := c.manager.server.log
	env, err := protocol.Decode(data)
	if err != nil {
		c.replyError(err)
		return
	}

	switch env.Type {
	case protocol.TypeStartCapture:
		var payload protocol.StartCapturePayload
		if err := env.Into(&payload); err != nil {
			c.replyError(err)
			return
		}
		log.Info().Str("remote", c.ip).Str("mode", payload.Mode).Str("input_mode", payload.InputMode).Msg("ws start capture")
		if err := c.manager.server.ctrl.StartCapture(payload.Mode, payload.InputMode); err != nil {
			c.replyError(err)
		}

	case protocol.TypeStopCapture:
		log.Info().Str("remote", c.ip).Msg("ws stop capture")
		if err := c.manager.server.ctrl.StopCapture(); err != nil {
			c.replyError(err)
		}

	default:
		log.Debug().Str("type", string(env.Type)).Msg("ignoring ws message")
	}
}

func (c *WebSocketClient) replyError(err error) {
	c.reply(protocol.Message{Type: protocol.TypeError, Payload: protocol.ErrorPayload{Error: err.Error()}})
}

// reply queues a message for this client only. send is closed only after
// the client leaves the map, so membership is checked under the lock.
func (c *WebSocketClient) reply(msg protocol.Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.manager.clientsMu.RLock()
	defer c.manager.clientsMu.RUnlock()
	if !c.manager.clients[c] {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}
