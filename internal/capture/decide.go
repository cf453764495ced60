package capture

import "keylatch/internal/keys"

// ShouldSuppress decides whether a hardware event may reach the foreground
// application. It is only consulted when suppression is possible at all.
//
// wasDownAtCapture is true for a key-up whose key was held when the session
// started and has not been released since.
func ShouldSuppress(s *Session, physical KeySet, k keys.Key, phase Phase, wasDownAtCapture bool) bool {
	if !s.Active {
		return k == s.OpenChatKey
	}
	if s.InputMode == InputImeLike {
		return false
	}
	if allowSystemShortcut(k, physical) {
		return false
	}
	if s.Latched.Has(k) {
		return true
	}
	if phase == PhaseUp && wasDownAtCapture {
		return false
	}
	return true
}

// allowSystemShortcut keeps OS-level shortcuts working during capture.
func allowSystemShortcut(k keys.Key, physical KeySet) bool {
	switch k {
	case keys.AltLeft, keys.AltRight, keys.MetaLeft, keys.MetaRight:
		return true
	}
	if physical.HasAny(keys.MetaLeft, keys.MetaRight) {
		return true
	}
	if physical.HasAny(keys.AltLeft, keys.AltRight) && (k == keys.Tab || k == keys.F4) {
		return true
	}
	return false
}
