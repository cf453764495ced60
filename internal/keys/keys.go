// Package keys classifies keyboard keys: it maps a key to the logical code
// string reported to the UI and to the platform values used for injection.
//
// Every lookup here is a pure function. An unmapped key is a normal outcome
// reported through the boolean result, never an error.
package keys

import (
	"fmt"
	"strings"
)

// Key identifies a physical key independent of platform.
//
// Keys the classifier does not know keep their platform raw code so that the
// physical tracker can still tell them apart; see UnknownKey.
type Key uint32

const unknownFlag Key = 1 << 16

// None is the zero Key. It never appears in an event.
const None Key = 0

const (
	KeyA Key = iota + 1
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Digit0
	Digit1
	Digit2
	Digit3
	Digit4
	Digit5
	Digit6
	Digit7
	Digit8
	Digit9
	Escape
	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
	Backquote
	Minus
	Equal
	Backspace
	Tab
	BracketLeft
	BracketRight
	Backslash
	CapsLock
	Semicolon
	Quote
	Enter
	ShiftLeft
	ShiftRight
	ControlLeft
	ControlRight
	AltLeft
	AltRight
	MetaLeft
	MetaRight
	Space
	PrintScreen
	ScrollLock
	Pause
	Insert
	Home
	PageUp
	Delete
	End
	PageDown
	ArrowRight
	ArrowLeft
	ArrowDown
	ArrowUp
	NumLock
	Numpad0
	Numpad1
	Numpad2
	Numpad3
	Numpad4
	Numpad5
	Numpad6
	Numpad7
	Numpad8
	Numpad9
	NumpadMultiply
	NumpadAdd
	NumpadSubtract
	NumpadDecimal
	NumpadDivide
	NumpadEnter
	Slash
	Period
	Comma

	lastKnown
)

var codeNames = map[Key]string{
	KeyA: "KeyA", KeyB: "KeyB", KeyC: "KeyC", KeyD: "KeyD", KeyE: "KeyE",
	KeyF: "KeyF", KeyG: "KeyG", KeyH: "KeyH", KeyI: "KeyI", KeyJ: "KeyJ",
	KeyK: "KeyK", KeyL: "KeyL", KeyM: "KeyM", KeyN: "KeyN", KeyO: "KeyO",
	KeyP: "KeyP", KeyQ: "KeyQ", KeyR: "KeyR", KeyS: "KeyS", KeyT: "KeyT",
	KeyU: "KeyU", KeyV: "KeyV", KeyW: "KeyW", KeyX: "KeyX", KeyY: "KeyY",
	KeyZ: "KeyZ",

	Digit0: "Digit0", Digit1: "Digit1", Digit2: "Digit2", Digit3: "Digit3",
	Digit4: "Digit4", Digit5: "Digit5", Digit6: "Digit6", Digit7: "Digit7",
	Digit8: "Digit8", Digit9: "Digit9",

	F1: "F1", F2: "F2", F3: "F3", F4: "F4", F5: "F5", F6: "F6",
	F7: "F7", F8: "F8", F9: "F9", F10: "F10", F11: "F11", F12: "F12",

	Escape:       "Escape",
	Backquote:    "Backquote",
	Minus:        "Minus",
	Equal:        "Equal",
	Backspace:    "Backspace",
	Tab:          "Tab",
	BracketLeft:  "BracketLeft",
	BracketRight: "BracketRight",
	Backslash:    "Backslash",
	CapsLock:     "CapsLock",
	Semicolon:    "Semicolon",
	Quote:        "Quote",
	Enter:        "Enter",
	ShiftLeft:    "ShiftLeft",
	ShiftRight:   "ShiftRight",
	ControlLeft:  "ControlLeft",
	ControlRight: "ControlRight",
	AltLeft:      "AltLeft",
	AltRight:     "AltRight",
	MetaLeft:     "MetaLeft",
	MetaRight:    "MetaRight",
	Space:        "Space",
	PrintScreen:  "PrintScreen",
	ScrollLock:   "ScrollLock",
	Pause:        "Pause",
	Insert:       "Insert",
	Home:         "Home",
	PageUp:       "PageUp",
	Delete:       "Delete",
	End:          "End",
	PageDown:     "PageDown",
	ArrowRight:   "ArrowRight",
	ArrowLeft:    "ArrowLeft",
	ArrowDown:    "ArrowDown",
	ArrowUp:      "ArrowUp",
	NumLock:      "NumLock",

	Numpad0: "Numpad0", Numpad1: "Numpad1", Numpad2: "Numpad2", Numpad3: "Numpad3",
	Numpad4: "Numpad4", Numpad5: "Numpad5", Numpad6: "Numpad6", Numpad7: "Numpad7",
	Numpad8: "Numpad8", Numpad9: "Numpad9",

	NumpadMultiply: "NumpadMultiply",
	NumpadAdd:      "NumpadAdd",
	NumpadSubtract: "NumpadSubtract",
	NumpadDecimal:  "NumpadDecimal",
	NumpadDivide:   "NumpadDivide",
	NumpadEnter:    "NumpadEnter",
	Slash:          "Slash",
	Period:         "Period",
	Comma:          "Comma",
}

var byCode = func() map[string]Key {
	m := make(map[string]Key, len(codeNames))
	for k, name := range codeNames {
		m[strings.ToLower(name)] = k
	}
	return m
}()

// UnknownKey wraps a platform raw code the classifier has no name for.
func UnknownKey(raw uint16) Key {
	return unknownFlag | Key(raw)
}

// IsUnknown reports whether k was built by UnknownKey.
func (k Key) IsUnknown() bool {
	return k&unknownFlag != 0
}

// Code returns the stable logical code string for k, e.g. "KeyW" or
// "NumpadEnter". Unknown keys render as "Unknown(<raw>)".
func (k Key) Code() string {
	if k.IsUnknown() {
		return fmt.Sprintf("Unknown(%d)", uint16(k))
	}
	if name, ok := codeNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Key(%d)", uint32(k))
}

func (k Key) String() string {
	return k.Code()
}

// ParseCode resolves a logical code string (case-insensitive) back to a Key.
func ParseCode(code string) (Key, bool) {
	k, ok := byCode[strings.ToLower(strings.TrimSpace(code))]
	return k, ok
}

// All returns every named key in declaration order.
func All() []Key {
	out := make([]Key, 0, int(lastKnown)-1)
	for k := KeyA; k < lastKnown; k++ {
		out = append(out, k)
	}
	return out
}

// IsMovement reports whether k is one of W, A, S or D.
func IsMovement(k Key) bool {
	switch k {
	case KeyW, KeyA, KeyS, KeyD:
		return true
	}
	return false
}
