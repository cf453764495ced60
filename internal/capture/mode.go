package capture

import "strings"

// PersistenceMode selects which keys already held at capture start get
// latched for the foreground application.
type PersistenceMode int

const (
	PersistFull PersistenceMode = iota
	PersistWasdOnly
	PersistNone
)

// ParsePersistenceMode is case-insensitive and falls back to PersistFull for
// anything it does not recognize.
func ParsePersistenceMode(value string) PersistenceMode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none":
		return PersistNone
	case "wasd", "wasdonly", "wasd_only", "wasd-only":
		return PersistWasdOnly
	default:
		return PersistFull
	}
}

func (m PersistenceMode) String() string {
	switch m {
	case PersistNone:
		return "none"
	case PersistWasdOnly:
		return "wasd"
	default:
		return "full"
	}
}

// InputMode selects how chat text reaches the overlay.
type InputMode int

const (
	// InputFocusless keeps focus on the game and suppresses typing from it.
	InputFocusless InputMode = iota
	// InputImeLike never suppresses anything.
	InputImeLike
)

// ParseInputMode is case-insensitive and falls back to InputFocusless.
func ParseInputMode(value string) InputMode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ime", "imelike", "ime_like", "ime-like":
		return InputImeLike
	default:
		return InputFocusless
	}
}

func (m InputMode) String() string {
	if m == InputImeLike {
		return "ime"
	}
	return "focusless"
}
