package hotkey

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keylatch/internal/capture"
)

func key(code string, phase capture.Phase) capture.GlobalKeyEvent {
	return capture.GlobalKeyEvent{Code: code, Phase: phase}
}

func TestToken(t *testing.T) {
	assert.Equal(t, "CTRL", Token("ControlRight"))
	assert.Equal(t, "SHIFT", Token("ShiftLeft"))
	assert.Equal(t, "WIN", Token("MetaLeft"))
	assert.Equal(t, "ESC", Token("Escape"))
	assert.Equal(t, "W", Token("KeyW"))
	assert.Equal(t, "7", Token("Digit7"))
	assert.Equal(t, "F12", Token("F12"))
	assert.Equal(t, "NUMPAD7", Token("Numpad7"))
}

func TestParse(t *testing.T) {
	parts, err := Parse("Control + shift+Escape")
	require.NoError(t, err)
	assert.Equal(t, []string{"CTRL", "SHIFT", "ESC"}, parts)

	_, err = Parse("Ctrl++A")
	assert.Error(t, err)
}

func TestChordFiresOnce(t *testing.T) {
	m := NewManager(zerolog.Nop())
	var fired atomic.Int32
	_, err := m.Register("Ctrl+Shift+F12", func() { fired.Add(1) })
	require.NoError(t, err)

	m.Observe(key("ControlLeft", capture.PhaseDown))
	m.Observe(key("ShiftRight", capture.PhaseDown))
	assert.Zero(t, fired.Load())

	m.Observe(key("F12", capture.PhaseDown))
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)

	repeat := key("F12", capture.PhaseDown)
	repeat.Repeat = true
	m.Observe(repeat)
	m.Observe(key("F12", capture.PhaseUp))
	m.Observe(key("ShiftRight", capture.PhaseUp))
	m.Observe(key("F12", capture.PhaseDown))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestRegisterEmptyIsNoop(t *testing.T) {
	m := NewManager(zerolog.Nop())
	id, err := m.Register("  ", func() { t.Fatal("must not fire") })
	require.NoError(t, err)
	assert.Equal(t, -1, id)
	m.Observe(key("KeyA", capture.PhaseDown))
}

func TestRunConsumesStream(t *testing.T) {
	m := NewManager(zerolog.Nop())
	fired := make(chan struct{}, 1)
	_, err := m.Register("Ctrl+Q", func() { fired <- struct{}{} })
	require.NoError(t, err)

	events := make(chan capture.GlobalKeyEvent, 2)
	events <- key("ControlLeft", capture.PhaseDown)
	events <- key("KeyQ", capture.PhaseDown)
	close(events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Run(ctx, events)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("hotkey did not fire")
	}

	m.Clear()
}

func TestModifierHeldOnEitherSideStaysDown(t *testing.T) {
	m := NewManager(zerolog.Nop())
	var fired atomic.Int32
	_, err := m.Register("Ctrl+Shift+F12", func() { fired.Add(1) })
	require.NoError(t, err)

	m.Observe(key("ControlLeft", capture.PhaseDown))
	m.Observe(key("ShiftLeft", capture.PhaseDown))
	m.Observe(key("ShiftRight", capture.PhaseDown))
	m.Observe(key("ShiftLeft", capture.PhaseUp))

	m.Observe(key("F12", capture.PhaseDown))
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)

	m.Observe(key("F12", capture.PhaseUp))
	m.Observe(key("ShiftRight", capture.PhaseUp))
	m.Observe(key("ShiftRight", capture.PhaseUp))
	m.Observe(key("F12", capture.PhaseDown))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load(), "shift is fully released")
}
