package input

import (
	"context"
	"errors"
	"testing"

	hook "github.com/robotn/gohook"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"keylatch/internal/capture"
	"keylatch/internal/keys"
)

type fakeSource struct {
	name   string
	veto   bool
	err    error
	events []capture.RawEvent
	ran    bool
}

func (f *fakeSource) Name() string  { return f.name }
func (f *fakeSource) CanVeto() bool { return f.veto }

func (f *fakeSource) Run(ctx context.Context, h Handler, ready func()) error {
	f.ran = true
	if f.err != nil {
		return f.err
	}
	ready()
	for _, ev := range f.events {
		h.HandleEvent(ev, f.veto)
	}
	return nil
}

type targetMock struct {
	mock.Mock
}

func (m *targetMock) HandleEvent(ev capture.RawEvent, vetoCapable bool) bool {
	return m.Called(ev, vetoCapable).Bool(0)
}

func (m *targetMock) SetSuppressionAvailable(available bool) {
	m.Called(available)
}

func TestListenerUsesHookWhenAvailable(t *testing.T) {
	ev := capture.RawEvent{Key: keys.KeyW, Phase: capture.PhaseDown}
	primary := &fakeSource{name: "hook", veto: true, events: []capture.RawEvent{ev}}
	fallback := &fakeSource{name: "passive"}

	target := &targetMock{}
	target.On("SetSuppressionAvailable", true).Once()
	target.On("HandleEvent", ev, true).Return(true).Once()

	l := &Listener{primary: primary, fallback: fallback, log: zerolog.Nop()}
	require.NoError(t, l.Run(context.Background(), target))

	assert.False(t, fallback.ran)
	target.AssertExpectations(t)
}

func TestListenerFallsBackToPassive(t *testing.T) {
	ev := capture.RawEvent{Key: keys.KeyA, Phase: capture.PhaseUp}
	primary := &fakeSource{name: "hook", veto: true, err: ErrHookUnavailable}
	fallback := &fakeSource{name: "passive", events: []capture.RawEvent{ev}}

	target := &targetMock{}
	target.On("SetSuppressionAvailable", false).Twice()
	target.On("HandleEvent", ev, false).Return(false).Once()

	l := &Listener{primary: primary, fallback: fallback, log: zerolog.Nop()}
	require.NoError(t, l.Run(context.Background(), target))

	assert.True(t, fallback.ran)
	target.AssertExpectations(t)
}

func TestListenerReportsOtherHookErrors(t *testing.T) {
	primary := &fakeSource{name: "hook", err: errors.New("boom")}
	fallback := &fakeSource{name: "passive"}

	l := &Listener{primary: primary, fallback: fallback, log: zerolog.Nop()}
	err := l.Run(context.Background(), &targetMock{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hook")
	assert.False(t, fallback.ran)
}

func TestListenerReportsPassiveFailure(t *testing.T) {
	primary := &fakeSource{name: "hook", err: ErrHookUnavailable}
	fallback := &fakeSource{name: "passive", err: errors.New("no display")}

	target := &targetMock{}
	target.On("SetSuppressionAvailable", false)

	l := &Listener{primary: primary, fallback: fallback, log: zerolog.Nop()}
	err := l.Run(context.Background(), target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no display")
}

func TestTranslatePassive(t *testing.T) {
	ev, ok := translatePassive(hook.Event{Kind: hook.KeyHold, Keycode: 0x0011})
	require.True(t, ok)
	assert.Equal(t, capture.RawEvent{Key: keys.KeyW, Phase: capture.PhaseDown}, ev)

	ev, ok = translatePassive(hook.Event{Kind: hook.KeyUp, Keycode: 0x0E1C})
	require.True(t, ok)
	assert.Equal(t, capture.RawEvent{Key: keys.NumpadEnter, Phase: capture.PhaseUp}, ev)

	_, ok = translatePassive(hook.Event{Kind: hook.KeyDown, Keycode: 0x0011})
	assert.False(t, ok, "typed-character events are not transitions")

	_, ok = translatePassive(hook.Event{Kind: hook.MouseMove})
	assert.False(t, ok)
}

func TestProcessFocusMatching(t *testing.T) {
	f := NewProcessFocus([]string{"RobloxPlayerBeta.exe", "  ", ""})

	assert.True(t, f.matches(4242, `C:\Users\me\AppData\Local\Roblox\Versions\v1\RobloxPlayerBeta.exe`))
	assert.True(t, f.matches(4242, "robloxplayerbeta.EXE"))
	assert.False(t, f.matches(4242, `C:\Windows\explorer.exe`))
	assert.False(t, f.matches(4242, ""))
	assert.False(t, f.matches(f.self, "RobloxPlayerBeta.exe"), "our own window never counts")

	f.SetTargets([]string{"game.exe"})
	assert.False(t, f.matches(4242, "RobloxPlayerBeta.exe"))
	assert.True(t, f.matches(4242, "/opt/game/Game.exe"))
}
