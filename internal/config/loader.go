package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	appName        = "keylatch"
	configFileName = "config.json"
	dirPerm        = 0o755
	filePerm       = 0o600
)

// Manager handles configuration loading, watching, and reloading.
type Manager struct {
	config    *Config
	viper     *viper.Viper
	dir       string
	log       zerolog.Logger
	mu        sync.RWMutex
	callbacks []func(*Config)
	watching  bool
}

// ConfigDir returns the keylatch directory under the XDG config home.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// NewManager creates a configuration manager for the default directory.
func NewManager(log zerolog.Logger) (*Manager, error) {
	return NewManagerAt(ConfigDir(), log)
}

// NewManagerAt creates a configuration manager reading config.json from dir.
func NewManagerAt(dir string, log zerolog.Logger) (*Manager, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("KEYLATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("logging.level", "KEYLATCH_LOG_LEVEL"); err != nil {
		return nil, fmt.Errorf("failed to bind KEYLATCH_LOG_LEVEL: %w", err)
	}
	if err := v.BindEnv("logging.format", "KEYLATCH_LOG_FORMAT"); err != nil {
		return nil, fmt.Errorf("failed to bind KEYLATCH_LOG_FORMAT: %w", err)
	}

	return &Manager{
		viper: v,
		dir:   dir,
		log:   log,
	}, nil
}

// Load reads the configuration file, writing one with defaults first if
// none exists.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setDefaults()

	if err := m.readConfigFile(); err != nil {
		return err
	}
	if err := m.ensureToken(); err != nil {
		return err
	}

	config, err := m.unmarshalConfig()
	if err != nil {
		return err
	}
	m.config = config
	return nil
}

func (m *Manager) readConfigFile() error {
	err := m.viper.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to read config file at %s: %w", m.Path(), err)
	}
	if err := m.createDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create default config at %s: %w", m.Path(), err)
	}
	if err := m.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read newly created config file: %w", err)
	}
	return nil
}

func (m *Manager) unmarshalConfig() (*Config, error) {
	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", m.viper.ConfigFileUsed(), err)
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func (m *Manager) createDefaultConfig() error {
	if err := os.MkdirAll(m.dir, dirPerm); err != nil {
		return err
	}
	if err := m.viper.SafeWriteConfigAs(m.Path()); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	m.log.Info().Str("path", m.Path()).Msg("created default configuration file")
	return nil
}

// ensureToken stores a random API token in the config file when the API is
// enabled without one, so a fresh install never serves keystrokes
// unauthenticated.
func (m *Manager) ensureToken() error {
	if !m.viper.GetBool("api.enabled") || strings.TrimSpace(m.viper.GetString("api.token")) != "" {
		return nil
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")

	path := m.viper.ConfigFileUsed()
	if err := writeKey(path, "api", "token", token); err != nil {
		return fmt.Errorf("failed to store generated api token in %s: %w", path, err)
	}
	if err := m.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to re-read config after storing api token: %w", err)
	}
	m.log.Info().Str("path", path).Msg("generated api token")
	return nil
}

// writeKey sets section.key in a JSON config file, leaving every other
// setting as written.
func writeKey(path, section, key string, value interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc := map[string]interface{}{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
	}
	sub, _ := doc[section].(map[string]interface{})
	if sub == nil {
		sub = map[string]interface{}{}
	}
	sub[key] = value
	doc[section] = sub

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(out, '\n'), filePerm)
}

// setDefaults sets default configuration values in Viper.
func (m *Manager) setDefaults() {
	d := DefaultConfig()

	m.viper.SetDefault("capture.mode", d.Capture.Mode)
	m.viper.SetDefault("capture.input_mode", d.Capture.InputMode)
	m.viper.SetDefault("capture.open_chat_key", d.Capture.OpenChatKey)
	m.viper.SetDefault("capture.release.initial_delay", d.Capture.Release.InitialDelay.String())
	m.viper.SetDefault("capture.release.interval", d.Capture.Release.Interval.String())
	m.viper.SetDefault("capture.release.passes", d.Capture.Release.Passes)

	m.viper.SetDefault("target.processes", d.Target.Processes)

	m.viper.SetDefault("api.enabled", d.API.Enabled)
	m.viper.SetDefault("api.addr", d.API.Addr)
	m.viper.SetDefault("api.token", d.API.Token)
	m.viper.SetDefault("api.allowed_origins", d.API.AllowedOrigins)

	m.viper.SetDefault("hotkeys.stop_capture", d.Hotkeys.StopCapture)

	m.viper.SetDefault("logging.level", d.Logging.Level)
	m.viper.SetDefault("logging.format", d.Logging.Format)

	m.viper.SetDefault("general.show_tray", d.General.ShowTray)
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return DefaultConfig()
	}
	return m.config
}

// Path is the config file location.
func (m *Manager) Path() string {
	return filepath.Join(m.dir, configFileName)
}
