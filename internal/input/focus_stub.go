//go:build !windows

package input

// Without a veto hook the answer never matters.
func foregroundProcess() (pid uint32, path string, ok bool) {
	return 0, "", false
}

// CapsLockOn is not queried on this platform.
func CapsLockOn() bool {
	return false
}
