package keys

// Windows virtual-key codes used for injection. Keys missing from this table
// cannot be synthetically pressed or released, which also makes them
// ineligible for latching.
var virtualKeys = map[Key]uint16{
	KeyA: 0x41, KeyB: 0x42, KeyC: 0x43, KeyD: 0x44, KeyE: 0x45,
	KeyF: 0x46, KeyG: 0x47, KeyH: 0x48, KeyI: 0x49, KeyJ: 0x4A,
	KeyK: 0x4B, KeyL: 0x4C, KeyM: 0x4D, KeyN: 0x4E, KeyO: 0x4F,
	KeyP: 0x50, KeyQ: 0x51, KeyR: 0x52, KeyS: 0x53, KeyT: 0x54,
	KeyU: 0x55, KeyV: 0x56, KeyW: 0x57, KeyX: 0x58, KeyY: 0x59,
	KeyZ: 0x5A,

	Digit0: 0x30, Digit1: 0x31, Digit2: 0x32, Digit3: 0x33, Digit4: 0x34,
	Digit5: 0x35, Digit6: 0x36, Digit7: 0x37, Digit8: 0x38, Digit9: 0x39,

	Escape:       0x1B,
	Backquote:    0xC0,
	Minus:        0xBD,
	Equal:        0xBB,
	Backspace:    0x08,
	Tab:          0x09,
	BracketLeft:  0xDB,
	BracketRight: 0xDD,
	Backslash:    0xDC,
	CapsLock:     0x14,
	Semicolon:    0xBA,
	Quote:        0xDE,
	Enter:        0x0D,
	ShiftLeft:    0xA0,
	ShiftRight:   0xA1,
	ControlLeft:  0xA2,
	ControlRight: 0xA3,
	AltLeft:      0xA4,
	AltRight:     0xA5,
	MetaLeft:     0x5B,
	MetaRight:    0x5C,
	Space:        0x20,
	PrintScreen:  0x2C,
	ScrollLock:   0x91,
	Pause:        0x13,
	Insert:       0x2D,
	Home:         0x24,
	PageUp:       0x21,
	Delete:       0x2E,
	End:          0x23,
	PageDown:     0x22,
	ArrowRight:   0x27,
	ArrowLeft:    0x25,
	ArrowDown:    0x28,
	ArrowUp:      0x26,
	NumLock:      0x90,

	Numpad0: 0x60, Numpad1: 0x61, Numpad2: 0x62, Numpad3: 0x63, Numpad4: 0x64,
	Numpad5: 0x65, Numpad6: 0x66, Numpad7: 0x67, Numpad8: 0x68, Numpad9: 0x69,

	NumpadMultiply: 0x6A,
	NumpadAdd:      0x6B,
	NumpadSubtract: 0x6D,
	NumpadDecimal:  0x6E,
	NumpadDivide:   0x6F,
	NumpadEnter:    0x0D,
	Slash:          0xBF,
	Period:         0xBE,
	Comma:          0xBC,
}

// Numpad Enter shares VK_RETURN and is told apart by the extended flag.
var fromVirtualKey = func() map[uint16]Key {
	m := make(map[uint16]Key, len(virtualKeys))
	for k, vk := range virtualKeys {
		if k == NumpadEnter {
			continue
		}
		m[vk] = k
	}
	return m
}()

// VirtualKey returns the Windows virtual-key code used to inject k.
func VirtualKey(k Key) (uint16, bool) {
	vk, ok := virtualKeys[k]
	return vk, ok
}

// Injectable reports whether k has a virtual-key mapping.
func Injectable(k Key) bool {
	_, ok := virtualKeys[k]
	return ok
}

// FromVirtualKey decodes a virtual-key code as delivered by a low-level
// keyboard hook. extended is the LLKHF_EXTENDED flag.
func FromVirtualKey(vk uint16, extended bool) Key {
	switch {
	case vk == 0x0D && extended:
		return NumpadEnter
	case vk >= 0x70 && vk <= 0x7B:
		return F1 + Key(vk-0x70)
	case vk == 0x10:
		return ShiftLeft
	case vk == 0x11:
		if extended {
			return ControlRight
		}
		return ControlLeft
	case vk == 0x12:
		if extended {
			return AltRight
		}
		return AltLeft
	}
	if k, ok := fromVirtualKey[vk]; ok {
		return k
	}
	return UnknownKey(vk)
}
