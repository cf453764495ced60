// Package protocol defines the messages exchanged over the WebSocket stream.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeGlobalKey carries one observed key transition (server to client).
	TypeGlobalKey MessageType = "global_key"

	// TypeCaptureState carries the engine snapshot after a state change.
	TypeCaptureState MessageType = "capture_state"

	// TypeStartCapture asks the server to start or restart capture.
	TypeStartCapture MessageType = "start_capture"

	// TypeStopCapture asks the server to end capture.
	TypeStopCapture MessageType = "stop_capture"

	// TypeError reports a rejected command back to the sender.
	TypeError MessageType = "error"
)

// Message is the generic container for all outbound WebSocket messages
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Envelope is a received message whose payload is decoded on demand.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StartCapturePayload is the payload for TypeStartCapture and the body of
// POST /api/capture/start.
type StartCapturePayload struct {
	Mode      string `json:"mode"`
	InputMode string `json:"input_mode"`
}

// ErrorPayload is the payload for TypeError and the body of failed HTTP calls.
type ErrorPayload struct {
	Error string `json:"error"`
}

// Decode parses a raw WebSocket frame.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("invalid message: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("invalid message: missing type")
	}
	return env, nil
}

// Into decodes the payload into v. An absent payload leaves v untouched.
func (e Envelope) Into(v interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", e.Type, err)
	}
	return nil
}
