package autostart

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

func desktopPath() string {
	return filepath.Join(xdg.ConfigHome, "autostart", appName+".desktop")
}

func enable(execPath string) error {
	path := desktopPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeEntry(path, desktopEntryTemplate, execPath)
}

func disable() error {
	return removeEntry(desktopPath())
}

func isEnabled() bool {
	return exists(desktopPath())
}
