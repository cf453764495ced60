package capture

import (
	"github.com/google/uuid"

	"keylatch/internal/keys"
)

// PhysicalKeys tracks which keys are held down on the hardware.
type PhysicalKeys struct {
	down KeySet
}

func NewPhysicalKeys() *PhysicalKeys {
	return &PhysicalKeys{down: make(KeySet)}
}

// Press records a key-down and reports whether the key was already down.
func (p *PhysicalKeys) Press(k keys.Key) (repeat bool) {
	return !p.down.Add(k)
}

// Release records a key-up.
func (p *PhysicalKeys) Release(k keys.Key) {
	p.down.Remove(k)
}

// Down returns the live set. Callers must not keep it past the lock.
func (p *PhysicalKeys) Down() KeySet {
	return p.down
}

// Session is the mutable capture record. It is only touched with the engine
// lock held.
type Session struct {
	ID                 string
	Active             bool
	Mode               PersistenceMode
	InputMode          InputMode
	Latched            KeySet
	CaptureStartedDown KeySet
	OpenChatKey        keys.Key

	// generation changes on every begin and end, so a start that dropped the
	// lock can tell whether another command ran in between.
	generation uint64
}

func newSession(openChat keys.Key) Session {
	return Session{
		Latched:            make(KeySet),
		CaptureStartedDown: make(KeySet),
		OpenChatKey:        openChat,
	}
}

// begin prepares a session from the current physical state and returns the
// latch set it previously held. Active is flipped by the caller once the
// latched keys have been pressed again.
func (s *Session) begin(mode PersistenceMode, inputMode InputMode, physical KeySet) (previous KeySet) {
	previous = s.Latched
	s.generation++
	if !s.Active || s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.Mode = mode
	s.InputMode = inputMode
	s.CaptureStartedDown = physical.Clone()
	s.Latched = SelectLatched(physical, mode, s.OpenChatKey)
	return previous
}

// end deactivates the session and hands back ownership of the latched keys.
func (s *Session) end() KeySet {
	taken := s.Latched
	s.generation++
	s.Latched = make(KeySet)
	s.CaptureStartedDown = make(KeySet)
	s.Active = false
	return taken
}

// SelectLatched filters the keys down at capture start through the
// persistence mode.
func SelectLatched(physical KeySet, mode PersistenceMode, openChat keys.Key) KeySet {
	out := make(KeySet)
	switch mode {
	case PersistNone:
	case PersistWasdOnly:
		for k := range physical {
			if keys.IsMovement(k) {
				out.Add(k)
			}
		}
	default:
		for k := range physical {
			if fullLatchEligible(k, openChat) {
				out.Add(k)
			}
		}
	}
	return out
}

func fullLatchEligible(k, openChat keys.Key) bool {
	if isTerminator(k) || k == openChat {
		return false
	}
	return keys.Injectable(k)
}

// isTerminator reports the keys that submit or cancel chat.
func isTerminator(k keys.Key) bool {
	return k == keys.Enter || k == keys.NumpadEnter || k == keys.Escape
}
