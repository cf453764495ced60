package config

import (
	"fmt"
	"net/url"
	"strings"

	"keylatch/internal/hotkey"
	"keylatch/internal/keys"
)

// validateConfig collects every problem instead of stopping at the first.
func validateConfig(config *Config) error {
	var validationErrors []string

	validationErrors = append(validationErrors, validateCapture(config)...)
	validationErrors = append(validationErrors, validateAPI(config)...)
	if _, err := hotkey.Parse(config.Hotkeys.StopCapture); config.Hotkeys.StopCapture != "" && err != nil {
		validationErrors = append(validationErrors, "hotkeys.stop_capture: "+err.Error())
	}
	validationErrors = append(validationErrors, validateLogging(config)...)

	if len(validationErrors) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(validationErrors, "\n  - "))
	}
	return nil
}

func validateCapture(config *Config) []string {
	var validationErrors []string
	c := config.Capture

	if _, ok := keys.ParseCode(c.OpenChatKey); !ok {
		validationErrors = append(validationErrors, fmt.Sprintf("capture.open_chat_key %q is not a known key code", c.OpenChatKey))
	}
	if c.Release.InitialDelay < 0 {
		validationErrors = append(validationErrors, "capture.release.initial_delay must be non-negative")
	}
	if c.Release.Interval < 0 {
		validationErrors = append(validationErrors, "capture.release.interval must be non-negative")
	}
	if c.Release.Passes < 1 || c.Release.Passes > 20 {
		validationErrors = append(validationErrors, "capture.release.passes must be between 1 and 20")
	}
	return validationErrors
}

func validateAPI(config *Config) []string {
	var validationErrors []string
	if config.API.Enabled && strings.TrimSpace(config.API.Addr) == "" {
		validationErrors = append(validationErrors, "api.addr is required when the api is enabled")
	}
	for _, origin := range config.API.AllowedOrigins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || (u.Path != "" && u.Path != "/") {
			validationErrors = append(validationErrors, fmt.Sprintf("api.allowed_origins entry %q must look like http://host[:port]", origin))
		}
	}
	return validationErrors
}

func validateLogging(config *Config) []string {
	var validationErrors []string
	switch strings.ToLower(config.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("logging.level %q must be one of trace, debug, info, warn, error", config.Logging.Level))
	}
	switch config.Logging.Format {
	case "json", "console":
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("logging.format %q must be json or console", config.Logging.Format))
	}
	return validationErrors
}
