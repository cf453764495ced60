package autostart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDesktopEntry(t *testing.T) {
	body, err := render(desktopEntryTemplate, "/opt/keylatch/keylatch")
	require.NoError(t, err)
	assert.Contains(t, string(body), "Name=keylatch\n")
	assert.Contains(t, string(body), `Exec="/opt/keylatch/keylatch" run`)
}

func TestRenderLaunchAgent(t *testing.T) {
	body, err := render(macLaunchAgentPlist, "/Applications/keylatch")
	require.NoError(t, err)
	assert.Contains(t, string(body), "<string>io.keylatch.agent</string>")
	assert.Contains(t, string(body), "<string>/Applications/keylatch</string>")
}

func TestEntryLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keylatch.desktop")

	assert.False(t, exists(path))
	require.NoError(t, writeEntry(path, desktopEntryTemplate, "/usr/bin/keylatch"))
	assert.True(t, exists(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/usr/bin/keylatch")

	require.NoError(t, removeEntry(path))
	require.NoError(t, removeEntry(path), "removing twice is fine")
	assert.False(t, exists(path))
}
