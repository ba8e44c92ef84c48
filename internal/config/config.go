package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ashwalker/xsnap/internal/logger"
	"gopkg.in/yaml.v3"
)

// Config represents the persistent tool configuration.
type Config struct {
	// DefaultFormat is used when no --format flag is given.
	DefaultFormat string `json:"default_format" yaml:"default_format"`
	// JPEGQuality is the quality passed to the JPEG encoder (1-100).
	JPEGQuality int    `json:"jpeg_quality" yaml:"jpeg_quality"`
	LogLevel    string `json:"log_level" yaml:"log_level"`
	// ServePort is the listen port for the serve subcommand.
	ServePort int `json:"serve_port" yaml:"serve_port"`
}

// Manager handles configuration
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configFile string) (*Manager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "xsnap")
	actualConfigPath := filepath.Join(configDir, "config.yaml")
	if configFile != "" {
		actualConfigPath = configFile
	}

	m := &Manager{
		configPath: actualConfigPath,
	}

	if err := m.load(); err != nil {
		if os.IsNotExist(err) {
			logger.WithComponent("config").Debug().
				Str("path", m.configPath).
				Msg("Config file not found, using defaults")
			m.config = m.getDefaults()
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return m, nil
}

// getDefaults returns default configuration
func (m *Manager) getDefaults() *Config {
	return &Config{
		DefaultFormat: string(FormatPNG),
		JPEGQuality:   50,
		LogLevel:      "info",
		ServePort:     8080,
	}
}

// load reads the configuration from disk
func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	cfg := m.getDefaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 1 and 100, got %d", cfg.JPEGQuality)
	}
	if _, err := ParseFormat(cfg.DefaultFormat); err != nil {
		return err
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Msg("Config loaded")
	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return m.getDefaults()
	}
	cfg := *m.config
	return &cfg
}

// Save saves the current configuration to disk
func (m *Manager) Save() error {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	if cfg == nil {
		cfg = m.getDefaults()
	}

	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return err
	}

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Msg("Config saved")
	return nil
}

// SetLogLevel sets the log level
func (m *Manager) SetLogLevel(level string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.LogLevel = level
}

// SetServePort sets the serve subcommand listen port
func (m *Manager) SetServePort(port int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.ServePort = port
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}
