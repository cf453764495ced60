package autostart

import (
	"os"
	"path/filepath"
)

func plistPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "LaunchAgents", agentID+".plist"), nil
}

func enable(execPath string) error {
	path, err := plistPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeEntry(path, macLaunchAgentPlist, execPath)
}

func disable() error {
	path, err := plistPath()
	if err != nil {
		return err
	}
	return removeEntry(path)
}

func isEnabled() bool {
	path, err := plistPath()
	return err == nil && exists(path)
}
