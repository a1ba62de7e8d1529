// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/bethropolis/collabmd/internal/logger"
)

// Config holds the application's combined configuration.
type Config struct {
	Logger  logger.Config `toml:"logger"`
	Editor  EditorConfig  `toml:"editor"`
	Session SessionConfig `toml:"session"`
	Server  ServerConfig  `toml:"server"`

	// Plugins holds free-form settings per plugin name, e.g. [plugins.autosave].
	Plugins map[string]map[string]interface{} `toml:"plugins"`
}

// EditorConfig holds settings for the terminal editing surface.
type EditorConfig struct {
	TabWidth        int    `toml:"tab_width"`
	SystemClipboard bool   `toml:"system_clipboard"`
	StatusBarHeight int    `toml:"status_bar_height"`
	Inference       string `toml:"inference"` // "caret" or "diff"
	Placeholder     string `toml:"placeholder"`
	Theme           string `toml:"theme"`
}

// SessionConfig holds client connection settings.
type SessionConfig struct {
	ServerURL           string `toml:"server_url"`
	UserName            string `toml:"user_name"`
	ReconnectMaxSeconds int    `toml:"reconnect_max_seconds"`
}

// ServerConfig holds relay server settings.
type ServerConfig struct {
	ListenAddr         string `toml:"listen_addr"`
	Store              string `toml:"store"`
	BoltPath           string `toml:"bolt_path"`
	RedisAddr          string `toml:"redis_addr"`
	PostgresDSN        string `toml:"postgres_dsn"`
	HistoryLimit       int    `toml:"history_limit"`
	SnapshotDebounceMs int    `toml:"snapshot_debounce_ms"`
}

var validStores = []string{StoreMemory, StoreBolt, StoreRedis, StorePostgres}

// NewDefaultConfig creates a Config struct with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: logger.NewConfig(),
		Editor: EditorConfig{
			TabWidth:        DefaultTabWidth,
			SystemClipboard: SystemClipboard,
			StatusBarHeight: StatusBarHeight,
			Inference:       InferenceCaret,
			Placeholder:     "Start typing...",
			Theme:           DefaultThemeName,
		},
		Session: SessionConfig{
			ServerURL:           DefaultServerURL,
			ReconnectMaxSeconds: DefaultReconnectMaxSeconds,
		},
		Server: ServerConfig{
			ListenAddr:         DefaultListenAddr,
			Store:              StoreMemory,
			BoltPath:           DefaultBoltPath,
			RedisAddr:          DefaultRedisAddr,
			PostgresDSN:        DefaultPostgresDSN,
			HistoryLimit:       DefaultHistoryLimit,
			SnapshotDebounceMs: DefaultSnapshotDebounceMs,
		},
	}
}

// DefaultConfigPath returns ~/.config/collabmd/config.toml (or the platform equivalent).
func DefaultConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, AppName, DefaultConfigFileName)
}

// DefaultLogPath returns the client's log file location.
func DefaultLogPath() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return DefaultLogFileName
	}
	return filepath.Join(cacheDir, AppName, DefaultLogFileName)
}

// DefaultThemesDir is where user theme files (*.toml) are looked up.
func DefaultThemesDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, AppName, "themes")
}

// PluginValue returns one plugin setting.
func (c *Config) PluginValue(plugin, key string) (interface{}, bool) {
	settings, ok := c.Plugins[plugin]
	if !ok {
		return nil, false
	}
	v, ok := settings[key]
	return v, ok
}

// loadFile decodes a TOML file over cfg. A missing file is not an error.
// Returns the keys the decoder did not recognise.
func loadFile(filePath string, cfg *Config) ([]string, error) {
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error checking config file '%s': %w", filePath, err)
	}

	metadata, err := toml.DecodeFile(filePath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	var undecoded []string
	for _, key := range metadata.Undecoded() {
		undecoded = append(undecoded, key.String())
	}
	return undecoded, nil
}

// validate checks config values and resets invalid ones to defaults.
func (c *Config) validate() {
	defaults := NewDefaultConfig()

	if c.Editor.TabWidth <= 0 {
		c.Editor.TabWidth = defaults.Editor.TabWidth
	}
	if c.Editor.StatusBarHeight <= 0 {
		c.Editor.StatusBarHeight = defaults.Editor.StatusBarHeight
	}
	if c.Editor.Theme == "" {
		c.Editor.Theme = defaults.Editor.Theme
	}
	if c.Editor.Inference != InferenceCaret && c.Editor.Inference != InferenceDiff {
		c.Editor.Inference = defaults.Editor.Inference
	}

	if c.Logger.LogLevel == "" {
		c.Logger.LogLevel = defaults.Logger.LogLevel
	}

	if c.Session.ServerURL == "" {
		c.Session.ServerURL = defaults.Session.ServerURL
	}
	if c.Session.ReconnectMaxSeconds <= 0 {
		c.Session.ReconnectMaxSeconds = defaults.Session.ReconnectMaxSeconds
	}

	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaults.Server.ListenAddr
	}
	if !slices.Contains(validStores, c.Server.Store) {
		c.Server.Store = defaults.Server.Store
	}
	if c.Server.HistoryLimit <= 0 {
		c.Server.HistoryLimit = defaults.Server.HistoryLimit
	}
	if c.Server.SnapshotDebounceMs < 0 {
		c.Server.SnapshotDebounceMs = defaults.Server.SnapshotDebounceMs
	}
}

// Load orchestrates loading defaults, file, applying flags, and validation.
// configFilePath may be empty to use DefaultConfigPath. flags may be nil.
// Logging is not available yet, so unrecognised keys are returned to the caller.
func Load(configFilePath string, flags *Flags) (*Config, []string, error) {
	cfg := NewDefaultConfig()

	effectivePath := configFilePath
	if effectivePath == "" {
		effectivePath = DefaultConfigPath()
	}

	var undecoded []string
	if effectivePath != "" {
		keys, err := loadFile(effectivePath, cfg)
		if err != nil {
			return nil, nil, err
		}
		undecoded = keys
	}

	if flags != nil {
		flags.ApplyOverrides(cfg)
	}

	cfg.validate()
	return cfg, undecoded, nil
}
