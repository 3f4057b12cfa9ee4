package config

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete redcode configuration
type Config struct {
	Editor  EditorConfig  `mapstructure:"editor" yaml:"editor"`
	Theme   ThemeConfig   `mapstructure:"theme" yaml:"theme"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// EditorConfig controls document defaults and the editing widget
type EditorConfig struct {
	// UntitledPrefix names new documents "<prefix>-1", "<prefix>-2", ...
	UntitledPrefix string `mapstructure:"untitled_prefix" yaml:"untitled_prefix"`
	// DefaultMIMEType picks the extension when save-as is given a bare name
	DefaultMIMEType string `mapstructure:"default_mime_type" yaml:"default_mime_type"`
	// TabWidth is the number of spaces the Tab key inserts (1-16)
	TabWidth int `mapstructure:"tab_width" yaml:"tab_width"`
	// ShowLineNumbers shows a line number gutter
	ShowLineNumbers bool `mapstructure:"show_line_numbers" yaml:"show_line_numbers"`
}

// ThemeConfig selects the color scheme
type ThemeConfig struct {
	// Mode is "light", "dark", or "system" (follow the terminal background)
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// SessionConfig controls workspace persistence
type SessionConfig struct {
	// RestoreOnStart reopens the files that were open when redcode last exited
	RestoreOnStart bool `mapstructure:"restore_on_start" yaml:"restore_on_start"`
	// StateDir holds workspace state and logs. Empty means the XDG state dir.
	StateDir string `mapstructure:"state_dir" yaml:"state_dir"`
}

// WatchConfig controls external change detection
type WatchConfig struct {
	Enabled    bool `mapstructure:"enabled" yaml:"enabled"`
	DebounceMs int  `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled writes a log file to the state directory
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the minimum log level: "debug", "info", "warn", or "error"
	Level string `mapstructure:"level" yaml:"level"`
	// MaxSizeMB is the log size that triggers rotation
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of rotated files kept
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			UntitledPrefix:  "Untitled",
			DefaultMIMEType: "text/plain",
			TabWidth:        4,
			ShowLineNumbers: true,
		},
		Theme: ThemeConfig{
			Mode: "system",
		},
		Session: SessionConfig{
			RestoreOnStart: true,
			StateDir:       "",
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMs: 50,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  5,
			MaxBackups: 2,
		},
	}
}

// Debounce returns the watcher debounce as a time.Duration
func (c *WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// defaultsMap flattens Default() into dotted viper keys.
func defaultsMap() map[string]any {
	d := Default()
	return map[string]any{
		"editor.untitled_prefix":   d.Editor.UntitledPrefix,
		"editor.default_mime_type": d.Editor.DefaultMIMEType,
		"editor.tab_width":         d.Editor.TabWidth,
		"editor.show_line_numbers": d.Editor.ShowLineNumbers,
		"theme.mode":               d.Theme.Mode,
		"session.restore_on_start": d.Session.RestoreOnStart,
		"session.state_dir":        d.Session.StateDir,
		"watch.enabled":            d.Watch.Enabled,
		"watch.debounce_ms":        d.Watch.DebounceMs,
		"logging.enabled":          d.Logging.Enabled,
		"logging.level":            d.Logging.Level,
		"logging.max_size_mb":      d.Logging.MaxSizeMB,
		"logging.max_backups":      d.Logging.MaxBackups,
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	for key, value := range defaultsMap() {
		viper.SetDefault(key, value)
	}
}

// Keys returns every configuration key, sorted.
func Keys() []string {
	m := defaultsMap()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsValidKey reports whether key names a configuration setting.
func IsValidKey(key string) bool {
	_, ok := defaultsMap()[key]
	return ok
}

// DefaultValue returns the default for key. Its dynamic type (string, int or
// bool) is the type the setting accepts.
func DefaultValue(key string) (any, bool) {
	v, ok := defaultsMap()[key]
	return v, ok
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults if it
// cannot be loaded.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "redcode")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".redcode"
	}
	return filepath.Join(home, ".config", "redcode")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultStateDir returns where workspace state and logs go when
// session.state_dir is unset.
func DefaultStateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "redcode")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".redcode"
	}
	return filepath.Join(home, ".local", "state", "redcode")
}

// ResolvedStateDir returns StateDir or the default.
func (c *SessionConfig) ResolvedStateDir() string {
	if c.StateDir != "" {
		return c.StateDir
	}
	return DefaultStateDir()
}

// ValidThemeModes returns the accepted theme.mode values
func ValidThemeModes() []string {
	return []string{"light", "dark", "system"}
}
