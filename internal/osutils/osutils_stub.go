//go:build !windows

// Package osutils holds small privilege helpers.
package osutils

import (
	"fmt"
	"runtime"
)

// IsAdmin is a stub for non-Windows platforms
func IsAdmin() bool {
	return false
}

// RelaunchElevated is only meaningful on Windows.
func RelaunchElevated([]string) error {
	return fmt.Errorf("elevation not supported on %s", runtime.GOOS)
}
