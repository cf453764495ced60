package capture

import (
	"strings"
	"unicode"

	"keylatch/internal/keys"
)

// Phase is the direction of a key transition.
type Phase string

const (
	PhaseDown Phase = "down"
	PhaseUp   Phase = "up"
)

// RawEvent is one notification from an event source.
type RawEvent struct {
	Key   keys.Key
	Phase Phase
	// Text is the decoded character(s) for a key-down, if the source can
	// decode them. Empty otherwise.
	Text string
	// Synthetic marks events this process injected itself.
	Synthetic bool
}

// GlobalKeyEvent is the outward record emitted for every observed raw event,
// whether or not it was suppressed.
type GlobalKeyEvent struct {
	Code        string  `json:"code"`
	Text        *string `json:"text"`
	Phase       Phase   `json:"phase"`
	Ctrl        bool    `json:"ctrl"`
	Shift       bool    `json:"shift"`
	Caps        bool    `json:"caps"`
	Alt         bool    `json:"alt"`
	Meta        bool    `json:"meta"`
	Repeat      bool    `json:"repeat"`
	TimestampMs int64   `json:"timestamp_ms"`
}

// SanitizeText drops carriage returns and rejects anything that would not
// render as chat text.
func SanitizeText(text string) *string {
	if text == "" {
		return nil
	}
	cleaned := strings.ReplaceAll(text, "\r", "")
	if cleaned == "" {
		return nil
	}
	for _, r := range cleaned {
		if unicode.IsControl(r) {
			return nil
		}
	}
	return &cleaned
}

// modifiers reads the modifier flags from the physical set. Caps comes from
// the OS toggle state and is filled in by the caller.
func modifiers(ev *GlobalKeyEvent, physical KeySet) {
	ev.Ctrl = physical.HasAny(keys.ControlLeft, keys.ControlRight)
	ev.Shift = physical.HasAny(keys.ShiftLeft, keys.ShiftRight)
	ev.Alt = physical.HasAny(keys.AltLeft, keys.AltRight)
	ev.Meta = physical.HasAny(keys.MetaLeft, keys.MetaRight)
}
