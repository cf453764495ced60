//go:build windows

package input

import "golang.org/x/sys/windows"

func foregroundProcess() (pid uint32, path string, ok bool) {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return 0, "", false
	}
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil || pid == 0 {
		return 0, "", false
	}

	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return pid, "", true
	}
	defer windows.CloseHandle(h)

	buf := make([]uint16, windows.MAX_LONG_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return pid, "", true
	}
	return pid, windows.UTF16ToString(buf[:size]), true
}

// CapsLockOn reads the caps-lock toggle bit.
func CapsLockOn() bool {
	r, _, _ := procGetKeyState.Call(vkCapital)
	return r&1 != 0
}
