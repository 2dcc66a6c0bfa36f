// Package settings holds process-wide configuration and recent-file
// histories.
//
// Grounded on breeze-rmm/agent/internal/config: a viper-backed struct with
// mapstructure tags and a Default() constructor. Settings is lock-protected
// on mutation and read without locking otherwise.
package settings

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/viper"
)

// historyCapacity is the default bound for each recent-file FIFO.
const historyCapacity = 20

// Config is the persisted, process-wide configuration document.
type Config struct {
	OutputWidth  int    `mapstructure:"output_width"`
	OutputHeight int    `mapstructure:"output_height"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"` // "text" or "json"

	OSCPortBase  int `mapstructure:"osc_port_base"`
	HandshakePort int `mapstructure:"handshake_port"`

	// JoystickDeadzone is the minimum normalized axis magnitude that
	// registers as input; default 0.12.
	JoystickDeadzone float64 `mapstructure:"joystick_deadzone"`

	Headless bool `mapstructure:"-"`
	FontSize int  `mapstructure:"font_size"` // UI-layer concern; stored here only so --fontsize round-trips

	Sessions       []string `mapstructure:"recent_sessions"`
	Folders        []string `mapstructure:"recent_folders"`
	Imports        []string `mapstructure:"recent_imports"`
	ImportFolders  []string `mapstructure:"recent_import_folders"`
	Recordings     []string `mapstructure:"recent_recordings"`
}

// Default returns the built-in default configuration (used by --clean).
func Default() *Config {
	return &Config{
		OutputWidth:      1920,
		OutputHeight:     1080,
		LogLevel:         "info",
		LogFormat:        "text",
		OSCPortBase:      7000,
		HandshakePort:    7890,
		JoystickDeadzone: 0.12,
		FontSize:         14,
	}
}

// Settings is the mutex-guarded, process-wide holder for Config plus the
// five recent-file histories.
type Settings struct {
	mu  sync.RWMutex
	cfg *Config

	sessionsHist      *History
	foldersHist       *History
	importsHist       *History
	importFoldersHist *History
	recordingsHist    *History
}

// New builds a Settings around cfg, materializing the five History FIFOs
// from whatever lists cfg carried in from disk.
func New(cfg *Config) *Settings {
	if cfg == nil {
		cfg = Default()
	}
	return &Settings{
		cfg:               cfg,
		sessionsHist:      NewHistory(historyCapacity, cfg.Sessions),
		foldersHist:       NewHistory(historyCapacity, cfg.Folders),
		importsHist:       NewHistory(historyCapacity, cfg.Imports),
		importFoldersHist: NewHistory(historyCapacity, cfg.ImportFolders),
		recordingsHist:    NewHistory(historyCapacity, cfg.Recordings),
	}
}

// Load reads a settings file from path via viper. An empty path looks
// only for a "settings" file in the current directory.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("settings")
		v.AddConfigPath(".")
	}

	cfg := Default()
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("settings: read config: %w", err)
		}
		// no file yet: fall back to defaults
		return New(cfg), nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("settings: unmarshal: %w", err)
	}
	return New(cfg), nil
}

// Save writes the current configuration (with histories flattened back in)
// to path.
func (s *Settings) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg.Sessions = s.sessionsHist.List()
	s.cfg.Folders = s.foldersHist.List()
	s.cfg.Imports = s.importsHist.List()
	s.cfg.ImportFolders = s.importFoldersHist.List()
	s.cfg.Recordings = s.recordingsHist.List()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	flat := map[string]any{
		"output_width":           s.cfg.OutputWidth,
		"output_height":          s.cfg.OutputHeight,
		"log_level":              s.cfg.LogLevel,
		"log_format":             s.cfg.LogFormat,
		"osc_port_base":          s.cfg.OSCPortBase,
		"handshake_port":         s.cfg.HandshakePort,
		"joystick_deadzone":      s.cfg.JoystickDeadzone,
		"font_size":              s.cfg.FontSize,
		"recent_sessions":        s.cfg.Sessions,
		"recent_folders":         s.cfg.Folders,
		"recent_imports":         s.cfg.Imports,
		"recent_import_folders":  s.cfg.ImportFolders,
		"recent_recordings":      s.cfg.Recordings,
	}
	for k, val := range flat {
		v.Set(k, val)
	}
	return v.WriteConfigAs(path)
}

// Clean resets the configuration to defaults, used by CLI --clean.
func (s *Settings) Clean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = Default()
	s.sessionsHist = NewHistory(historyCapacity, nil)
	s.foldersHist = NewHistory(historyCapacity, nil)
	s.importsHist = NewHistory(historyCapacity, nil)
	s.importFoldersHist = NewHistory(historyCapacity, nil)
	s.recordingsHist = NewHistory(historyCapacity, nil)
}

// Config returns a copy of the current configuration (read without locking
// the write path, but we still take a read-lock for memory safety).
func (s *Settings) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.cfg
}

// SetFontSize overrides the UI font size, e.g. from the --fontsize CLI flag.
func (s *Settings) SetFontSize(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.FontSize = v
}

func (s *Settings) Sessions() *History      { return s.sessionsHist }
func (s *Settings) Folders() *History       { return s.foldersHist }
func (s *Settings) Imports() *History       { return s.importsHist }
func (s *Settings) ImportFolders() *History { return s.importFoldersHist }
func (s *Settings) Recordings() *History    { return s.recordingsHist }
