//go:build windows

package input

import (
	"errors"
	"fmt"
	"unsafe"

	"keylatch/internal/keys"
)

// Injector synthesizes key transitions with SendInput.
type Injector struct{}

// NewInjector never fails on Windows.
func NewInjector() (*Injector, error) {
	return &Injector{}, nil
}

// InjectKey sends a scan-code event followed by a virtual-key event for the
// same transition. Games that read either kind then see the change. Keys
// without a virtual-key mapping are ignored.
func (i *Injector) InjectKey(k keys.Key, release bool) error {
	vk, ok := keys.VirtualKey(k)
	if !ok {
		return nil
	}

	var flags uint32
	if release {
		flags |= keyeventfKeyUp
	}

	var errs []error
	if scan, extended, ok := scanCode(vk); ok {
		scanFlags := flags | keyeventfScanCode
		if extended || k == keys.NumpadEnter {
			scanFlags |= keyeventfExtendedKey
		}
		if err := send(keyInput(0, scan, scanFlags)); err != nil {
			errs = append(errs, fmt.Errorf("scan code %#x: %w", scan, err))
		}
	}
	if err := send(keyInput(vk, 0, flags)); err != nil {
		errs = append(errs, fmt.Errorf("virtual key %#x: %w", vk, err))
	}
	return errors.Join(errs...)
}

// scanCode maps a virtual key to its scan code. The high byte of the
// MAPVK_VK_TO_VSC_EX result is the 0xE0/0xE1 prefix of extended keys.
func scanCode(vk uint16) (scan uint16, extended bool, ok bool) {
	r, _, _ := procMapVirtualKeyW.Call(uintptr(vk), mapvkVKToVSCEx)
	if r == 0 {
		return 0, false, false
	}
	prefix := (r >> 8) & 0xFF
	return uint16(r & 0xFF), prefix == 0xE0 || prefix == 0xE1, true
}

func keyInput(vk, scan uint16, flags uint32) sendInputRecord {
	var in sendInputRecord
	in.Type = inputKeyboard
	ki := (*keybdInput)(unsafe.Pointer(&in.Data))
	ki.WVk = vk
	ki.WScan = scan
	ki.DwFlags = flags
	ki.DwExtraInfo = injectionSignature
	return in
}

func send(inputs ...sendInputRecord) error {
	r, _, err := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if r == 0 {
		return err
	}
	return nil
}
