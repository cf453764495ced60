// Package capture holds the keyboard capture session: the physical key
// tracker, the latch bookkeeping, the suppression decision and the release
// scheduler, all behind a single lock shared by the event thread and the
// command handlers.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"k8s.io/utils/clock"

	"keylatch/internal/keys"
)

// ErrSessionPoisoned is returned once a panic has left the session state
// unusable. The process keeps running but capture commands fail.
var ErrSessionPoisoned = errors.New("capture session state poisoned")

// FocusOracle reports whether the gameplay target is in the foreground and
// our own UI is not.
type FocusOracle interface {
	ShouldIntercept() bool
}

// FocusFunc adapts a plain function to FocusOracle.
type FocusFunc func() bool

func (f FocusFunc) ShouldIntercept() bool { return f() }

// Options configures an Engine. Zero values get sensible defaults.
type Options struct {
	Injector    Injector
	Focus       FocusOracle
	Clock       clock.Clock
	Release     ReleaseTiming
	OpenChatKey keys.Key
	// CapsLock reports the OS caps-lock toggle.
	CapsLock func() bool
	Logger   zerolog.Logger
}

// Snapshot is a point-in-time view of the engine for status reporting.
type Snapshot struct {
	Active               bool     `json:"active"`
	SessionID            string   `json:"session_id,omitempty"`
	Mode                 string   `json:"mode"`
	InputMode            string   `json:"input_mode"`
	OpenChatKey          string   `json:"open_chat_key"`
	Latched              []string `json:"latched"`
	CaptureStartedDown   []string `json:"capture_started_down"`
	PhysicalDown         []string `json:"physical_down"`
	SuppressionAvailable bool     `json:"suppression_available"`
}

// Engine is the lock-guarded capture aggregate.
type Engine struct {
	mu       sync.Mutex
	session  Session
	physical *PhysicalKeys
	poisoned bool

	injector  Injector
	focus     FocusOracle
	clock     clock.Clock
	capsLock  func() bool
	scheduler *ReleaseScheduler
	log       zerolog.Logger

	suppressionAvailable atomic.Bool

	events *hub[GlobalKeyEvent]
	states *hub[Snapshot]
}

type nopInjector struct{}

func (nopInjector) InjectKey(keys.Key, bool) error { return nil }

// NewEngine creates an inactive engine.
func NewEngine(opts Options) *Engine {
	if opts.Injector == nil {
		opts.Injector = nopInjector{}
	}
	if opts.Focus == nil {
		opts.Focus = FocusFunc(func() bool { return true })
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Release == (ReleaseTiming{}) {
		opts.Release = DefaultReleaseTiming()
	}
	if opts.OpenChatKey == keys.None {
		opts.OpenChatKey = keys.Slash
	}
	if opts.CapsLock == nil {
		opts.CapsLock = func() bool { return false }
	}

	return &Engine{
		session:   newSession(opts.OpenChatKey),
		physical:  NewPhysicalKeys(),
		injector:  opts.Injector,
		focus:     opts.Focus,
		clock:     opts.Clock,
		capsLock:  opts.CapsLock,
		scheduler: NewReleaseScheduler(opts.Injector, opts.Clock, opts.Release, opts.Logger),
		log:       opts.Logger,
		events:    newHub[GlobalKeyEvent](),
		states:    newHub[Snapshot](),
	}
}

// locked runs fn with the session lock held. A panic in fn poisons the
// session.
func (e *Engine) locked(fn func()) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.poisoned {
		return ErrSessionPoisoned
	}
	defer func() {
		if r := recover(); r != nil {
			e.poisoned = true
			e.log.Error().Interface("panic", r).Msg("capture session poisoned")
			err = fmt.Errorf("%w: %v", ErrSessionPoisoned, r)
		}
	}()
	fn()
	return nil
}

// StartCapture activates the session. Unrecognized mode strings fall back to
// full persistence and focusless input.
func (e *Engine) StartCapture(mode, inputMode string) error {
	pm := ParsePersistenceMode(mode)
	im := ParseInputMode(inputMode)

	var (
		press, release []keys.Key
		gen            uint64
	)
	err := e.locked(func() {
		wasActive := e.session.Active
		previous := e.session.begin(pm, im, e.physical.Down())
		gen = e.session.generation
		press = e.session.Latched.Sorted()
		if wasActive {
			release = previous.Without(e.session.Latched).Sorted()
		}
	})
	if err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	e.scheduler.Schedule(release)

	// Seed a synthetic press so the later synthetic release has something to end.
	for _, k := range press {
		e.inject(k, false)
	}

	var (
		snap       Snapshot
		orphaned   []keys.Key
		superseded bool
	)
	err = e.locked(func() {
		if e.session.generation != gen {
			// A stop or another start ran while the lock was released. Whatever
			// it left in place wins; keys seeded here and no longer latched
			// still need their release.
			superseded = true
			orphaned = NewKeySet(press...).Without(e.session.Latched).Sorted()
			return
		}
		e.session.Active = true
		snap = e.snapshotLocked()
	})
	if err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	if superseded {
		e.log.Debug().Strs("orphaned", codes(orphaned)).Msg("capture start superseded")
		e.scheduler.Schedule(orphaned)
		return nil
	}

	e.log.Info().
		Str("session", snap.SessionID).
		Str("mode", snap.Mode).
		Str("input_mode", snap.InputMode).
		Strs("latched", snap.Latched).
		Msg("capture started")
	e.states.publish(snap)
	return nil
}

// StopCapture deactivates the session and schedules the release of every
// latched key. Stopping an inactive session is a no-op.
func (e *Engine) StopCapture() error {
	_, err := e.stop()
	return err
}

// Shutdown stops capture and waits until the release passes have been
// issued, so no latched key stays held after the process exits.
func (e *Engine) Shutdown(ctx context.Context) error {
	done, err := e.stop()
	if err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) stop() (<-chan struct{}, error) {
	var released []keys.Key
	var snap Snapshot
	var wasActive bool
	err := e.locked(func() {
		wasActive = e.session.Active
		released = e.session.end().Sorted()
		snap = e.snapshotLocked()
	})
	if err != nil {
		return nil, fmt.Errorf("stop capture: %w", err)
	}

	done := e.scheduler.Schedule(released)

	if wasActive {
		e.log.Info().Strs("released", codes(released)).Msg("capture stopped")
		e.states.publish(snap)
	}
	return done, nil
}

// HandleEvent processes one raw event and reports whether it must be
// withheld from the foreground application. vetoCapable is false for
// sources that can only observe.
func (e *Engine) HandleEvent(ev RawEvent, vetoCapable bool) bool {
	canSuppress := vetoCapable && e.focus.ShouldIntercept()

	switch {
	case ev.Synthetic:
		return e.handleSynthetic(ev, canSuppress)
	case ev.Phase == PhaseUp:
		return e.handleUp(ev, canSuppress)
	default:
		return e.handleDown(ev, canSuppress)
	}
}

func (e *Engine) handleDown(ev RawEvent, canSuppress bool) bool {
	var (
		out      GlobalKeyEvent
		suppress bool
		stopped  bool
		released []keys.Key
		snap     Snapshot
	)
	err := e.locked(func() {
		repeat := e.physical.Press(ev.Key)
		s := &e.session

		if s.Active && s.InputMode == InputFocusless && isTerminator(ev.Key) {
			stopped = true
			suppress = canSuppress
			released = s.end().Sorted()
			snap = e.snapshotLocked()
		} else {
			suppress = canSuppress && ShouldSuppress(s, e.physical.Down(), ev.Key, PhaseDown, false)
		}

		out = GlobalKeyEvent{
			Code:   ev.Key.Code(),
			Text:   SanitizeText(ev.Text),
			Phase:  PhaseDown,
			Repeat: repeat,
		}
		modifiers(&out, e.physical.Down())
	})
	if err != nil {
		return false
	}

	if stopped {
		e.scheduler.Schedule(released)
		e.log.Info().Str("key", ev.Key.Code()).Strs("released", codes(released)).Msg("capture stopped by chat key")
		e.states.publish(snap)
	}

	e.emit(out)
	return suppress
}

func (e *Engine) handleUp(ev RawEvent, canSuppress bool) bool {
	var (
		out      GlobalKeyEvent
		suppress bool
		repress  bool
	)
	err := e.locked(func() {
		s := &e.session
		wasDown := s.CaptureStartedDown.Remove(ev.Key)
		suppress = canSuppress && ShouldSuppress(s, e.physical.Down(), ev.Key, PhaseUp, wasDown)
		e.physical.Release(ev.Key)
		repress = s.Active && s.Latched.Has(ev.Key) && !suppress

		out = GlobalKeyEvent{Code: ev.Key.Code(), Phase: PhaseUp}
		modifiers(&out, e.physical.Down())
	})
	if err != nil {
		return false
	}

	// The release leaked through; hold the key again for the foreground app.
	if repress {
		e.inject(ev.Key, false)
	}

	e.emit(out)
	return suppress
}

// Our own injections never reach the tracker. The only one withheld is a
// late release of a key the live session has latched.
func (e *Engine) handleSynthetic(ev RawEvent, canSuppress bool) bool {
	var suppress bool
	err := e.locked(func() {
		suppress = canSuppress &&
			ev.Phase == PhaseUp &&
			e.session.Active &&
			e.session.Latched.Has(ev.Key)
	})
	return err == nil && suppress
}

func (e *Engine) emit(ev GlobalKeyEvent) {
	ev.Caps = e.capsLock()
	ev.TimestampMs = e.clock.Now().UnixMilli()
	e.events.publish(ev)
}

func (e *Engine) inject(k keys.Key, release bool) {
	if err := e.injector.InjectKey(k, release); err != nil {
		e.log.Debug().Err(err).Str("key", k.Code()).Bool("release", release).Msg("injection failed")
	}
}

// SetSuppressionAvailable records whether the running event source can veto
// events. It is informational only.
func (e *Engine) SetSuppressionAvailable(available bool) {
	if e.suppressionAvailable.Swap(available) != available {
		snap, err := e.Snapshot()
		if err == nil {
			e.states.publish(snap)
		}
	}
}

// SetOpenChatKey changes the key reserved while capture is inactive.
func (e *Engine) SetOpenChatKey(k keys.Key) error {
	return e.locked(func() { e.session.OpenChatKey = k })
}

// SetReleaseTiming applies to release schedules started afterwards.
func (e *Engine) SetReleaseTiming(timing ReleaseTiming) {
	e.scheduler.SetTiming(timing)
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := e.locked(func() { snap = e.snapshotLocked() })
	return snap, err
}

func (e *Engine) snapshotLocked() Snapshot {
	s := &e.session
	snap := Snapshot{
		Active:               s.Active,
		Mode:                 s.Mode.String(),
		InputMode:            s.InputMode.String(),
		OpenChatKey:          s.OpenChatKey.Code(),
		Latched:              s.Latched.Codes(),
		CaptureStartedDown:   s.CaptureStartedDown.Codes(),
		PhysicalDown:         e.physical.Down().Codes(),
		SuppressionAvailable: e.suppressionAvailable.Load(),
	}
	if s.Active {
		snap.SessionID = s.ID
	}
	return snap
}

// Subscribe returns a stream of every observed key event. Slow subscribers
// drop events.
func (e *Engine) Subscribe(buffer int) (<-chan GlobalKeyEvent, func()) {
	return e.events.subscribe(buffer)
}

// SubscribeState returns a stream of snapshots published on every session
// transition.
func (e *Engine) SubscribeState(buffer int) (<-chan Snapshot, func()) {
	return e.states.subscribe(buffer)
}
