package capture

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"keylatch/internal/keys"
)

func TestWasdStartLatchesOnlyMovementKeys(t *testing.T) {
	for _, k := range keys.All() {
		te := newTestEngine(t, alwaysFocused())
		te.down(k)
		require.NoError(t, te.StartCapture("wasd", "focusless"))

		snap := te.snapshot(t)
		if keys.IsMovement(k) {
			assert.Equal(t, []string{k.Code()}, snap.Latched)
		} else {
			assert.Emptyf(t, snap.Latched, "%s must not latch", k)
		}
	}
}

func TestFreshKeyDownIsSuppressedWhileActive(t *testing.T) {
	for _, k := range keys.All() {
		switch k {
		case keys.AltLeft, keys.AltRight, keys.MetaLeft, keys.MetaRight:
			continue
		}
		te := newTestEngine(t, alwaysFocused())
		require.NoError(t, te.StartCapture("full", "focusless"))
		assert.Truef(t, te.down(k), "%s down should be suppressed", k)
	}
}

func TestKeyUpOfKeyHeldAtStartPassesExactlyOnce(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	te.down(keys.KeyQ)
	require.NoError(t, te.StartCapture("wasd", "focusless"))
	assert.Equal(t, []string{"KeyQ"}, te.snapshot(t).CaptureStartedDown)

	assert.False(t, te.up(keys.KeyQ))
	assert.Empty(t, te.snapshot(t).CaptureStartedDown)

	assert.True(t, te.down(keys.KeyQ))
	assert.True(t, te.up(keys.KeyQ), "a second release is chat typing")
}

func TestStartSeedsPressForLatchedKeys(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	te.down(keys.KeyW)
	te.down(keys.KeyA)
	te.down(keys.F5)

	require.NoError(t, te.StartCapture("full", "focusless"))

	snap := te.snapshot(t)
	assert.True(t, snap.Active)
	assert.NotEmpty(t, snap.SessionID)
	assert.ElementsMatch(t, []string{"KeyW", "KeyA"}, snap.Latched)
	assert.ElementsMatch(t, []string{"KeyW", "KeyA", "F5"}, snap.CaptureStartedDown)
	assert.ElementsMatch(t, []injection{
		{Key: keys.KeyW, Release: false},
		{Key: keys.KeyA, Release: false},
	}, te.injector.Calls())
}

func TestStopReleasesLatchedKeysInFourPasses(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	te.down(keys.KeyW)
	te.down(keys.KeyA)
	require.NoError(t, te.StartCapture("wasd", "focusless"))
	te.injector.Reset()

	require.NoError(t, te.StopCapture())
	snap := te.snapshot(t)
	assert.False(t, snap.Active)
	assert.Empty(t, snap.Latched)
	assert.Empty(t, snap.CaptureStartedDown)

	te.step(t, 8*time.Millisecond)
	for pass := 1; pass <= 4; pass++ {
		want := 2 * pass
		require.Eventually(t, func() bool { return te.injector.Count() == want }, time.Second, time.Millisecond)
		if pass < 4 {
			te.step(t, 14*time.Millisecond)
		}
	}

	calls := te.injector.Calls()
	for pass := 0; pass < 4; pass++ {
		assert.ElementsMatch(t, []injection{
			{Key: keys.KeyA, Release: true},
			{Key: keys.KeyW, Release: true},
		}, calls[2*pass:2*pass+2])
	}
}

func TestStopWhenInactiveIsNoop(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	require.NoError(t, te.StopCapture())
	assert.False(t, te.clock.HasWaiters())
	assert.Zero(t, te.injector.Count())
}

func TestEscapeForcesStopAndIsSuppressed(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	states, unsubscribe := te.SubscribeState(4)
	defer unsubscribe()

	te.down(keys.KeyD)
	require.NoError(t, te.StartCapture("wasd", "focusless"))
	<-states

	assert.True(t, te.down(keys.Escape))

	snap := te.snapshot(t)
	assert.False(t, snap.Active)
	assert.Empty(t, snap.Latched)

	select {
	case st := <-states:
		assert.False(t, st.Active)
	case <-time.After(time.Second):
		t.Fatal("no state change published")
	}

	te.injector.Reset()
	te.step(t, 8*time.Millisecond)
	require.Eventually(t, func() bool { return te.injector.Count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, injection{Key: keys.KeyD, Release: true}, te.injector.Calls()[0])
}

func TestTerminatorAlwaysSuppressedEvenIfHeldAtStart(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	te.down(keys.MetaLeft)
	require.NoError(t, te.StartCapture("none", "focusless"))

	// Meta held would allow-list any key, but Enter still ends capture and is withheld.
	assert.True(t, te.down(keys.NumpadEnter))
	assert.False(t, te.snapshot(t).Active)
}

func TestTerminatorInImeLikeModeDoesNotStop(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	require.NoError(t, te.StartCapture("full", "ime"))
	assert.False(t, te.down(keys.Enter))
	assert.True(t, te.snapshot(t).Active)
}

func TestFullScenario(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	te.down(keys.KeyW)
	te.down(keys.ShiftLeft)

	require.NoError(t, te.StartCapture("full", "focusless"))
	assert.ElementsMatch(t, []string{"KeyW", "ShiftLeft"}, te.snapshot(t).Latched)

	assert.False(t, te.down(keys.AltLeft), "alt itself is allow-listed")
	assert.False(t, te.down(keys.Tab), "alt+tab is allow-listed")
	assert.False(t, te.up(keys.Tab))
	assert.False(t, te.up(keys.AltLeft))

	te.injector.Reset()
	assert.True(t, te.down(keys.Enter))
	snap := te.snapshot(t)
	assert.False(t, snap.Active)
	assert.Empty(t, snap.Latched)

	te.step(t, 8*time.Millisecond)
	require.Eventually(t, func() bool { return te.injector.Count() == 2 }, time.Second, time.Millisecond)
	assert.ElementsMatch(t, []injection{
		{Key: keys.KeyW, Release: true},
		{Key: keys.ShiftLeft, Release: true},
	}, te.injector.Calls())
}

func TestInactiveSuppressesOnlyOpenChatKey(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	assert.True(t, te.down(keys.Slash))
	assert.True(t, te.up(keys.Slash))
	assert.False(t, te.down(keys.KeyW))
	assert.False(t, te.up(keys.KeyW))

	require.NoError(t, te.SetOpenChatKey(keys.KeyT))
	assert.False(t, te.down(keys.Slash))
	assert.True(t, te.down(keys.KeyT))
}

func TestNothingSuppressedWithoutFocus(t *testing.T) {
	focus := &focusMock{}
	focus.On("ShouldIntercept").Return(false)
	te := newTestEngine(t, focus)

	assert.False(t, te.down(keys.Slash))
	require.NoError(t, te.StartCapture("full", "focusless"))
	assert.False(t, te.down(keys.KeyQ))
	focus.AssertExpectations(t)
}

func TestPassiveSourceNeverConsultsFocus(t *testing.T) {
	focus := &focusMock{}
	te := newTestEngine(t, focus)
	require.NoError(t, te.StartCapture("full", "focusless"))

	assert.False(t, te.HandleEvent(RawEvent{Key: keys.KeyQ, Phase: PhaseDown}, false))
	assert.False(t, te.HandleEvent(RawEvent{Key: keys.Escape, Phase: PhaseDown}, false))
	assert.False(t, te.snapshot(t).Active, "auto-stop still happens when observing passively")
	focus.AssertNotCalled(t, "ShouldIntercept")
}

func TestLeakedLatchedKeyUpIsPressedAgain(t *testing.T) {
	focused := true
	te := newTestEngine(t, FocusFunc(func() bool { return focused }))
	te.down(keys.KeyW)
	require.NoError(t, te.StartCapture("wasd", "focusless"))
	te.injector.Reset()

	focused = false
	assert.False(t, te.up(keys.KeyW))
	assert.Equal(t, []injection{{Key: keys.KeyW, Release: false}}, te.injector.Calls())

	te.injector.Reset()
	focused = true
	te.down(keys.KeyW)
	assert.True(t, te.up(keys.KeyW))
	assert.Zero(t, te.injector.Count(), "a suppressed release needs no compensation")
}

func TestRestartWhileActiveReleasesDroppedLatches(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	te.down(keys.KeyW)
	te.down(keys.KeyQ)
	require.NoError(t, te.StartCapture("full", "focusless"))
	id := te.snapshot(t).SessionID

	te.injector.Reset()
	require.NoError(t, te.StartCapture("wasd", "focusless"))
	snap := te.snapshot(t)
	assert.Equal(t, []string{"KeyW"}, snap.Latched)
	assert.Equal(t, id, snap.SessionID)

	te.step(t, 8*time.Millisecond)
	require.Eventually(t, func() bool {
		for _, c := range te.injector.Calls() {
			if c == (injection{Key: keys.KeyQ, Release: true}) {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

func TestSyntheticEventsAreNotTracked(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	events, unsubscribe := te.Subscribe(8)
	defer unsubscribe()

	te.down(keys.KeyW)
	<-events
	require.NoError(t, te.StartCapture("wasd", "focusless"))

	assert.True(t, te.HandleEvent(RawEvent{Key: keys.KeyW, Phase: PhaseUp, Synthetic: true}, true),
		"a stale release must not undo a live latch")
	assert.False(t, te.HandleEvent(RawEvent{Key: keys.KeyW, Phase: PhaseDown, Synthetic: true}, true))
	assert.False(t, te.HandleEvent(RawEvent{Key: keys.KeyE, Phase: PhaseDown, Synthetic: true}, true))

	snap := te.snapshot(t)
	assert.Equal(t, []string{"KeyW"}, snap.PhysicalDown)

	select {
	case ev := <-events:
		t.Fatalf("synthetic event emitted: %+v", ev)
	default:
	}

	require.NoError(t, te.StopCapture())
	assert.False(t, te.HandleEvent(RawEvent{Key: keys.KeyW, Phase: PhaseUp, Synthetic: true}, true))
}

func TestGlobalKeyEventForEveryRawEvent(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	events, unsubscribe := te.Subscribe(8)
	defer unsubscribe()

	require.NoError(t, te.StartCapture("full", "focusless"))
	te.down(keys.ShiftLeft)
	te.HandleEvent(RawEvent{Key: keys.KeyH, Phase: PhaseDown, Text: "H"}, true)
	te.HandleEvent(RawEvent{Key: keys.KeyH, Phase: PhaseDown, Text: "H"}, true)
	te.up(keys.KeyH)

	next := func() GlobalKeyEvent {
		select {
		case ev := <-events:
			return ev
		case <-time.After(time.Second):
			t.Fatal("no event")
			return GlobalKeyEvent{}
		}
	}

	shift := next()
	assert.Equal(t, "ShiftLeft", shift.Code)
	assert.True(t, shift.Shift)

	first := next()
	assert.Equal(t, "KeyH", first.Code)
	assert.Equal(t, PhaseDown, first.Phase)
	require.NotNil(t, first.Text)
	assert.Equal(t, "H", *first.Text)
	assert.True(t, first.Shift)
	assert.False(t, first.Ctrl)
	assert.False(t, first.Repeat)
	assert.Equal(t, te.clock.Now().UnixMilli(), first.TimestampMs)

	assert.True(t, next().Repeat)

	up := next()
	assert.Equal(t, PhaseUp, up.Phase)
	assert.Nil(t, up.Text)
	assert.False(t, up.Repeat)
}

func TestCapsFlagComesFromOS(t *testing.T) {
	inj := &recordingInjector{}
	e := NewEngine(Options{Injector: inj, CapsLock: func() bool { return true }})
	events, unsubscribe := e.Subscribe(1)
	defer unsubscribe()

	e.HandleEvent(RawEvent{Key: keys.KeyA, Phase: PhaseDown}, false)
	ev := <-events
	assert.True(t, ev.Caps)
}

func TestUnknownKeysAreTrackedButNeverLatched(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	odd := keys.UnknownKey(0xE9)
	te.down(odd)
	require.NoError(t, te.StartCapture("full", "focusless"))

	snap := te.snapshot(t)
	assert.Equal(t, []string{"Unknown(233)"}, snap.PhysicalDown)
	assert.Empty(t, snap.Latched)
	assert.False(t, te.up(odd), "held since capture start")
}

func TestPoisonedSessionFailsCommandsAndForwardsEvents(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())

	err := te.locked(func() { panic("boom") })
	require.ErrorIs(t, err, ErrSessionPoisoned)

	assert.True(t, errors.Is(te.StartCapture("full", "focusless"), ErrSessionPoisoned))
	assert.True(t, errors.Is(te.StopCapture(), ErrSessionPoisoned))
	_, err = te.Snapshot()
	assert.ErrorIs(t, err, ErrSessionPoisoned)

	assert.False(t, te.down(keys.Slash))
}

func TestUnsubscribeClosesStream(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	events, unsubscribe := te.Subscribe(1)
	unsubscribe()
	unsubscribe()

	_, ok := <-events
	assert.False(t, ok)
	te.down(keys.KeyA)
}

func TestShutdownWaitsForReleasePasses(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	te.down(keys.KeyW)
	require.NoError(t, te.StartCapture("wasd", "focusless"))
	te.injector.Reset()

	done := make(chan error, 1)
	go func() { done <- te.Shutdown(context.Background()) }()

	te.step(t, 8*time.Millisecond)
	for pass := 1; pass < 4; pass++ {
		want := pass
		require.Eventually(t, func() bool { return te.injector.Count() == want }, time.Second, time.Millisecond)
		select {
		case <-done:
			t.Fatal("shutdown returned before the last pass")
		default:
		}
		te.step(t, 14*time.Millisecond)
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("shutdown did not return")
	}
	assert.Equal(t, 4, te.injector.Count())
}

func TestShutdownHonoursContext(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	te.down(keys.KeyW)
	require.NoError(t, te.StartCapture("wasd", "focusless"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, te.Shutdown(ctx), context.Canceled)
}

func TestStopDuringSeedPressWins(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	te.down(keys.KeyW)

	var fired atomic.Bool
	te.injector.OnInject(func(call injection) {
		if call.Key == keys.KeyW && !call.Release && fired.CompareAndSwap(false, true) {
			require.NoError(t, te.StopCapture())
		}
	})

	require.NoError(t, te.StartCapture("wasd", "focusless"))

	snap := te.snapshot(t)
	assert.False(t, snap.Active, "a stop issued mid-start must not be undone")
	assert.Empty(t, snap.Latched)
	assert.Empty(t, snap.SessionID)
	assert.False(t, te.down(keys.KeyQ), "nothing is suppressed after the stop")

	te.step(t, 8*time.Millisecond)
	require.Eventually(t, func() bool {
		for _, c := range te.injector.Calls() {
			if c == (injection{Key: keys.KeyW, Release: true}) {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond, "the seeded W press is released")
}

func TestStartDuringSeedPressKeepsNewerSession(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())
	te.down(keys.KeyW)
	te.down(keys.KeyE)

	// The nested start seeds its own press, so the hook must only fire once.
	var fired atomic.Bool
	te.injector.OnInject(func(call injection) {
		if !call.Release && fired.CompareAndSwap(false, true) {
			require.NoError(t, te.StartCapture("wasd", "focusless"))
		}
	})

	require.NoError(t, te.StartCapture("full", "focusless"))

	snap := te.snapshot(t)
	assert.True(t, snap.Active)
	assert.Equal(t, "wasd", snap.Mode)
	assert.Equal(t, []string{"KeyW"}, snap.Latched)

	// E was seeded by the superseded full-mode start and is no longer latched.
	te.step(t, 8*time.Millisecond)
	require.Eventually(t, func() bool {
		for _, c := range te.injector.Calls() {
			if c == (injection{Key: keys.KeyE, Release: true}) {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

func TestConcurrentCommandsLeaveConsistentState(t *testing.T) {
	te := newTestEngine(t, alwaysFocused())

	var g errgroup.Group
	for w := 0; w < 4; w++ {
		g.Go(func() error {
			for i := 0; i < 200; i++ {
				if err := te.StartCapture("full", "focusless"); err != nil {
					return err
				}
				if err := te.StopCapture(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		movement := []keys.Key{keys.KeyW, keys.KeyA, keys.KeyS, keys.KeyD}
		for i := 0; i < 800; i++ {
			k := movement[i%len(movement)]
			te.down(k)
			te.up(k)
		}
		return nil
	})
	require.NoError(t, g.Wait())

	require.NoError(t, te.StopCapture())
	snap := te.snapshot(t)
	assert.False(t, snap.Active)
	assert.Empty(t, snap.Latched)
	assert.Empty(t, snap.CaptureStartedDown)
	assert.Empty(t, snap.PhysicalDown)
	assert.False(t, te.down(keys.KeyQ))
}
