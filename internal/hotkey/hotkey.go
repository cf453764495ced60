// Package hotkey matches global key chords against the observed key stream.
package hotkey

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"keylatch/internal/capture"
)

// Manager handles global hotkey registration and matching
type Manager struct {
	mu           sync.RWMutex
	hotkeys      []*registeredHotkey
	held         map[string]bool // key codes currently down
	currentState map[string]int  // chord token -> number of held codes mapping to it
	log          zerolog.Logger
}

type registeredHotkey struct {
	parts    []string // e.g., ["CTRL", "SHIFT", "F12"]
	original string
	callback func()
}

// NewManager creates a new hotkey manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		held:         make(map[string]bool),
		currentState: make(map[string]int),
		log:          log,
	}
}

// Register registers a hotkey string (e.g. "Ctrl+Shift+F12") and a callback.
// An empty string registers nothing.
func (m *Manager) Register(hotkeyStr string, callback func()) (int, error) {
	if strings.TrimSpace(hotkeyStr) == "" {
		return -1, nil
	}

	parts, err := Parse(hotkeyStr)
	if err != nil {
		return -1, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.hotkeys = append(m.hotkeys, &registeredHotkey{
		parts:    parts,
		original: hotkeyStr,
		callback: callback,
	})

	return len(m.hotkeys) - 1, nil
}

// Parse normalizes a chord into its tokens.
func Parse(hotkeyStr string) ([]string, error) {
	raw := strings.Split(strings.ToUpper(hotkeyStr), "+")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("hotkey %q has an empty part", hotkeyStr)
		}
		if alias, ok := aliases[p]; ok {
			p = alias
		}
		parts = append(parts, p)
	}
	return parts, nil
}

// Clear removes all registered hotkeys
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = nil
}

// Run feeds the manager from a key stream until ctx is done or the stream
// closes.
func (m *Manager) Run(ctx context.Context, events <-chan capture.GlobalKeyEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.Observe(ev)
		}
	}
}

// Observe updates the pressed state from one key event.
func (m *Manager) Observe(ev capture.GlobalKeyEvent) {
	down := ev.Phase == capture.PhaseDown
	m.UpdateState(ev.Code, down)
	if down && !ev.Repeat {
		m.checkMatches()
	}
}

// UpdateState records a transition of one key code. Left and right variants
// share a token, which stays pressed until both are up.
func (m *Manager) UpdateState(code string, isDown bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := Token(code)
	switch {
	case isDown && !m.held[code]:
		m.held[code] = true
		m.currentState[token]++
	case !isDown && m.held[code]:
		delete(m.held, code)
		if m.currentState[token]--; m.currentState[token] <= 0 {
			delete(m.currentState, token)
		}
	}
}

func (m *Manager) checkMatches() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, hk := range m.hotkeys {
		match := true
		// All parts of the hotkey must be in currentState
		for _, part := range hk.parts {
			if m.currentState[part] == 0 {
				match = false
				break
			}
		}

		if match {
			m.log.Info().Str("hotkey", hk.original).Msg("hotkey triggered")
			go hk.callback()
		}
	}
}
