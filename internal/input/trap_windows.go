//go:build windows

package input

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"

	"keylatch/internal/capture"
	"keylatch/internal/keys"
)

// HookSource is the WH_KEYBOARD_LL hook. Its callback runs on a dedicated
// locked OS thread and can withhold an event by not passing it on.
type HookSource struct {
	log      zerolog.Logger
	handler  atomic.Pointer[Handler]
	callback uintptr
}

// NewHookSource prepares the hook; nothing is installed until Run.
func NewHookSource(log zerolog.Logger) *HookSource {
	s := &HookSource{log: log}
	s.callback = windows.NewCallback(s.keyboardHookProc)
	return s
}

func (s *HookSource) Name() string { return "keyboard hook" }

func (s *HookSource) CanVeto() bool { return true }

// Run installs the hook and pumps messages until ctx is done.
func (s *HookSource) Run(ctx context.Context, h Handler, ready func()) error {
	s.handler.Store(&h)
	defer s.handler.Store(nil)

	installed := make(chan error, 1)
	exited := make(chan struct{})
	var threadID atomic.Uint32

	go func() {
		defer close(exited)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		threadID.Store(windows.GetCurrentThreadId())

		hook, _, err := procSetWindowsHookExW.Call(whKeyboardLL, s.callback, 0, 0)
		if hook == 0 {
			installed <- fmt.Errorf("%w: SetWindowsHookExW: %v", ErrHookUnavailable, err)
			return
		}
		defer procUnhookWindowsHookEx.Call(hook)
		installed <- nil

		var m msg
		for {
			r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if int32(r) <= 0 {
				return
			}
			procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
			procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
		}
	}()

	if err := <-installed; err != nil {
		<-exited
		return err
	}
	ready()

	select {
	case <-exited:
		return errors.New("hook message loop exited")
	case <-ctx.Done():
		procPostThreadMessageW.Call(uintptr(threadID.Load()), wmQuit, 0, 0)
		<-exited
		s.log.Debug().Msg("keyboard hook removed")
		return nil
	}
}

// keyboardHookProc must return promptly: the OS holds the event until it
// does.
func (s *HookSource) keyboardHookProc(nCode int32, wParam uintptr, lParam uintptr) uintptr {
	if nCode == hcAction {
		if hp := s.handler.Load(); hp != nil {
			kb := (*kbdllHookStruct)(unsafe.Pointer(lParam))
			if ev, ok := decodeHookEvent(uint32(wParam), kb); ok && (*hp).HandleEvent(ev, true) {
				return 1
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

func decodeHookEvent(message uint32, kb *kbdllHookStruct) (capture.RawEvent, bool) {
	var phase capture.Phase
	switch message {
	case wmKeyDown, wmSysKeyDown:
		phase = capture.PhaseDown
	case wmKeyUp, wmSysKeyUp:
		phase = capture.PhaseUp
	default:
		return capture.RawEvent{}, false
	}

	vk := uint16(kb.VkCode)
	ev := capture.RawEvent{
		Key:       keys.FromVirtualKey(vk, kb.Flags&llkhfExtended != 0),
		Phase:     phase,
		Synthetic: kb.Flags&llkhfInjected != 0 && kb.DwExtraInfo == injectionSignature,
	}
	if phase == capture.PhaseDown && !ev.Synthetic {
		ev.Text = decodeText(vk, uint16(kb.ScanCode))
	}
	return ev, true
}

// decodeText translates a key-down into the characters it types under the
// foreground window's layout. The modifier state is rebuilt from the async
// key state since the hook thread has no keyboard state of its own.
func decodeText(vk, scan uint16) string {
	var state [256]byte
	for _, mod := range modifierVKs {
		if r, _, _ := procGetAsyncKeyState.Call(uintptr(mod)); uint16(r)&0x8000 != 0 {
			state[mod] = 0x80
		}
	}
	if r, _, _ := procGetKeyState.Call(vkCapital); r&1 != 0 {
		state[vkCapital] = 0x01
	}

	var tid uint32
	if fg := windows.GetForegroundWindow(); fg != 0 {
		tid, _ = windows.GetWindowThreadProcessId(fg, nil)
	}
	layout, _, _ := procGetKeyboardLayout.Call(uintptr(tid))

	var buf [8]uint16
	// Flag 0x4 keeps the call from disturbing dead-key state.
	n, _, _ := procToUnicodeEx.Call(
		uintptr(vk),
		uintptr(scan),
		uintptr(unsafe.Pointer(&state[0])),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
		0x4,
		layout,
	)
	if int32(n) <= 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}
