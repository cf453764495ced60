// Package config provides configuration management for keylatch.
package config

import (
	"time"

	"keylatch/internal/capture"
	"keylatch/internal/keys"
)

// Config represents the application configuration
type Config struct {
	Capture CaptureConfig `mapstructure:"capture" json:"capture"`
	Target  TargetConfig  `mapstructure:"target" json:"target"`
	API     APIConfig     `mapstructure:"api" json:"api"`
	Hotkeys HotkeyConfig  `mapstructure:"hotkeys" json:"hotkeys"`
	Logging LoggingConfig `mapstructure:"logging" json:"logging"`
	General GeneralConfig `mapstructure:"general" json:"general"`
}

// CaptureConfig holds the defaults used when capture is started without
// explicit modes, e.g. from the tray.
type CaptureConfig struct {
	// Mode is the persistence mode: "full", "wasd" or "none".
	Mode string `mapstructure:"mode" json:"mode"`

	// InputMode is "focusless" or "ime".
	InputMode string `mapstructure:"input_mode" json:"input_mode"`

	// OpenChatKey is the logical code of the key that opens chat. It is
	// withheld from the game while capture is inactive.
	OpenChatKey string `mapstructure:"open_chat_key" json:"open_chat_key"`

	Release ReleaseConfig `mapstructure:"release" json:"release"`
}

// ReleaseConfig controls the redundant release passes after capture stops.
type ReleaseConfig struct {
	InitialDelay time.Duration `mapstructure:"initial_delay" json:"initial_delay"`
	Interval     time.Duration `mapstructure:"interval" json:"interval"`
	Passes       int           `mapstructure:"passes" json:"passes"`
}

// TargetConfig identifies the gameplay window.
type TargetConfig struct {
	// Processes are executable names, matched case-insensitively.
	Processes []string `mapstructure:"processes" json:"processes"`
}

// APIConfig configures the local HTTP and WebSocket surface.
type APIConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Addr    string `mapstructure:"addr" json:"addr"`
	// Token is required as a Bearer token. Load generates one when it is
	// empty and the API is enabled.
	Token string `mapstructure:"token" json:"token,omitempty"`
	// AllowedOrigins lists the browser origins that may call the API. An
	// entry without a port matches any port.
	AllowedOrigins []string `mapstructure:"allowed_origins" json:"allowed_origins"`
}

// HotkeyConfig holds global chords.
type HotkeyConfig struct {
	// StopCapture is the emergency chord that ends capture (e.g. "Ctrl+Shift+F12").
	StopCapture string `mapstructure:"stop_capture" json:"stop_capture"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

type GeneralConfig struct {
	ShowTray bool `mapstructure:"show_tray" json:"show_tray"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	timing := capture.DefaultReleaseTiming()
	return &Config{
		Capture: CaptureConfig{
			Mode:        "full",
			InputMode:   "focusless",
			OpenChatKey: keys.Slash.Code(),
			Release: ReleaseConfig{
				InitialDelay: timing.InitialDelay,
				Interval:     timing.Interval,
				Passes:       timing.Passes,
			},
		},
		Target: TargetConfig{
			Processes: []string{"RobloxPlayerBeta.exe"},
		},
		API: APIConfig{
			Enabled: true,
			Addr:    "127.0.0.1:18091",
			AllowedOrigins: []string{
				"http://localhost",
				"http://127.0.0.1",
				"http://[::1]",
			},
		},
		Hotkeys: HotkeyConfig{
			StopCapture: "Ctrl+Shift+F12",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		General: GeneralConfig{
			ShowTray: true,
		},
	}
}

// ReleaseTiming converts the release settings for the capture engine.
func (c CaptureConfig) ReleaseTiming() capture.ReleaseTiming {
	return capture.ReleaseTiming{
		InitialDelay: c.Release.InitialDelay,
		Interval:     c.Release.Interval,
		Passes:       c.Release.Passes,
	}
}

// OpenChat resolves OpenChatKey. Validation guarantees it parses.
func (c CaptureConfig) OpenChat() keys.Key {
	if k, ok := keys.ParseCode(c.OpenChatKey); ok {
		return k
	}
	return keys.Slash
}
