package capture

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"keylatch/internal/keys"
)

type injection struct {
	Key     keys.Key
	Release bool
}

type recordingInjector struct {
	mu    sync.Mutex
	calls []injection

	// onInject runs after a call is recorded, outside the recorder's lock.
	onInject func(injection)
}

func (r *recordingInjector) InjectKey(k keys.Key, release bool) error {
	call := injection{Key: k, Release: release}
	r.mu.Lock()
	r.calls = append(r.calls, call)
	hook := r.onInject
	r.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	return nil
}

func (r *recordingInjector) OnInject(fn func(injection)) {
	r.mu.Lock()
	r.onInject = fn
	r.mu.Unlock()
}

func (r *recordingInjector) Calls() []injection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]injection(nil), r.calls...)
}

func (r *recordingInjector) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recordingInjector) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

type focusMock struct {
	mock.Mock
}

func (m *focusMock) ShouldIntercept() bool {
	return m.Called().Bool(0)
}

func alwaysFocused() FocusOracle {
	return FocusFunc(func() bool { return true })
}

type testEngine struct {
	*Engine
	injector *recordingInjector
	clock    *testingclock.FakeClock
}

func newTestEngine(t *testing.T, focus FocusOracle) *testEngine {
	t.Helper()
	inj := &recordingInjector{}
	clk := testingclock.NewFakeClock(time.UnixMilli(1_700_000_000_000))
	e := NewEngine(Options{
		Injector: inj,
		Focus:    focus,
		Clock:    clk,
		Logger:   zerolog.Nop(),
	})
	return &testEngine{Engine: e, injector: inj, clock: clk}
}

func (te *testEngine) down(k keys.Key) bool {
	return te.HandleEvent(RawEvent{Key: k, Phase: PhaseDown}, true)
}

func (te *testEngine) up(k keys.Key) bool {
	return te.HandleEvent(RawEvent{Key: k, Phase: PhaseUp}, true)
}

func (te *testEngine) snapshot(t *testing.T) Snapshot {
	t.Helper()
	snap, err := te.Snapshot()
	require.NoError(t, err)
	return snap
}

// step waits for the scheduler goroutine to block on the clock, then
// advances it.
func (te *testEngine) step(t *testing.T, d time.Duration) {
	t.Helper()
	require.Eventually(t, te.clock.HasWaiters, time.Second, time.Millisecond)
	te.clock.Step(d)
}
