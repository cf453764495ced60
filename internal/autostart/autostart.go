// Package autostart registers keylatch to start on login.
package autostart

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
)

const (
	appName = "keylatch"
	agentID = "io.keylatch.agent"
)

const macLaunchAgentPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecutablePath}}</string>
        <string>run</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>
`

const desktopEntryTemplate = `[Desktop Entry]
Type=Application
Name={{.Name}}
Comment=Keyboard capture for the chat overlay
Exec="{{.ExecutablePath}}" run
Terminal=false
X-GNOME-Autostart-enabled=true
`

type launchEntry struct {
	Label          string
	Name           string
	ExecutablePath string
}

// Enable enables auto-start on login
func Enable() error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	return enable(execPath)
}

// Disable disables auto-start on login
func Disable() error {
	return disable()
}

// IsEnabled checks if auto-start is enabled
func IsEnabled() bool {
	return isEnabled()
}

func render(tmpl, execPath string) ([]byte, error) {
	t, err := template.New("entry").Parse(tmpl)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = t.Execute(&buf, launchEntry{Label: agentID, Name: appName, ExecutablePath: execPath})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeEntry(path, tmpl, execPath string) error {
	body, err := render(tmpl, execPath)
	if err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o644)
}

func removeEntry(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
