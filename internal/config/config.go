package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bryanchriswhite/FocusSwitch/internal/logger"
	"github.com/bryanchriswhite/FocusSwitch/internal/window"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. FOCUSSWITCH_LOG_LEVEL.
const EnvPrefix = "FOCUSSWITCH"

// Config represents the application configuration
type Config struct {
	ServerPort     int           `json:"server_port" yaml:"server_port" mapstructure:"server_port"`
	LogLevel       string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogPretty      bool          `json:"log_pretty" yaml:"log_pretty" mapstructure:"log_pretty"`
	Backend        string        `json:"backend" yaml:"backend" mapstructure:"backend"`
	PollInterval   time.Duration `json:"poll_interval" yaml:"poll_interval" mapstructure:"poll_interval"`
	SkipUntitled   bool          `json:"skip_untitled" yaml:"skip_untitled" mapstructure:"skip_untitled"`
	ExcludeClasses []string      `json:"exclude_classes" yaml:"exclude_classes" mapstructure:"exclude_classes"`
	MCP            MCPConfig     `json:"mcp" yaml:"mcp" mapstructure:"mcp"`
}

// MCPConfig configures the MCP tool server
type MCPConfig struct {
	Transport string `json:"transport" yaml:"transport" mapstructure:"transport"`
	Port      int    `json:"port" yaml:"port" mapstructure:"port"`
}

// Defaults returns the default configuration
func Defaults() Config {
	return Config{
		ServerPort:     8080,
		LogLevel:       "info",
		LogPretty:      false,
		Backend:        "auto",
		PollInterval:   500 * time.Millisecond,
		SkipUntitled:   true,
		ExcludeClasses: []string{},
		MCP: MCPConfig{
			Transport: "stdio",
			Port:      8081,
		},
	}
}

// Validate checks values that would otherwise fail later at startup
func (c *Config) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server_port: %d", c.ServerPort)
	}
	switch c.Backend {
	case "auto", "x11", "kwin":
	default:
		return fmt.Errorf("invalid backend: %s (use auto, x11 or kwin)", c.Backend)
	}
	if c.PollInterval < 10*time.Millisecond {
		return fmt.Errorf("poll_interval too small: %s (minimum 10ms)", c.PollInterval)
	}
	for _, p := range c.ExcludeClasses {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid exclude_classes pattern %q: %w", p, err)
		}
	}
	switch c.MCP.Transport {
	case "stdio", "streamable-http":
	default:
		return fmt.Errorf("invalid mcp.transport: %s (use stdio or streamable-http)", c.MCP.Transport)
	}
	return nil
}

// SourceConfig builds the window source settings described by c
func (c *Config) SourceConfig() (window.SourceConfig, error) {
	filter, err := window.NewFilter(c.SkipUntitled, c.ExcludeClasses)
	if err != nil {
		return window.SourceConfig{}, err
	}
	return window.SourceConfig{
		Interval: c.PollInterval,
		Filter:   filter,
	}, nil
}

// Manager handles configuration
type Manager struct {
	configPath string
	v          *viper.Viper
	mu         sync.RWMutex
}

// DefaultPath returns ~/.config/focusswitch/config.yaml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "focusswitch", "config.yaml"), nil
}

// NewManager loads configFile, or the default path when empty. A missing
// file is created with defaults.
func NewManager(configFile string) (*Manager, error) {
	path := configFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	m := &Manager{
		configPath: path,
		v:          v,
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound) {
			logger.WithComponent("config").Info().
				Str("path", path).
				Msg("Config file not found, creating new config")
			if err := m.Save(); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.WithComponent("config").Debug().
		Str("path", path).
		Msg("Config loaded")

	return m, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("server_port", d.ServerPort)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_pretty", d.LogPretty)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("skip_untitled", d.SkipUntitled)
	v.SetDefault("exclude_classes", d.ExcludeClasses)
	v.SetDefault("mcp.transport", d.MCP.Transport)
	v.SetDefault("mcp.port", d.MCP.Port)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		logger.WithComponent("config").Warn().Err(err).Msg("Failed to decode config, using defaults")
		d := Defaults()
		return &d
	}
	if cfg.ExcludeClasses == nil {
		cfg.ExcludeClasses = []string{}
	}
	return &cfg
}

// GetViper returns the underlying viper instance
func (m *Manager) GetViper() *viper.Viper {
	return m.v
}

// Set overrides a key in memory. Call Save to persist it.
func (m *Manager) Set(key string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.v.Set(key, value)
}

// IsSet reports whether key has a value from any source
func (m *Manager) IsSet(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.IsSet(key)
}

// Lookup returns the value for key
func (m *Manager) Lookup(key string) interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.Get(key)
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	cfg := m.Get()

	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Msg("Config saved")
	return nil
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// ParseValue converts a command-line string into the type stored under key
func ParseValue(key, raw string) (interface{}, error) {
	switch key {
	case "server_port", "mcp.port":
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid port number: %s", raw)
		}
		return port, nil
	case "log_level":
		switch raw {
		case "trace", "debug", "info", "warn", "error":
			return raw, nil
		}
		return nil, fmt.Errorf("invalid log level: %s (use: trace, debug, info, warn, error)", raw)
	case "log_pretty", "skip_untitled":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean: %s (use: true or false)", raw)
		}
		return b, nil
	case "backend":
		switch raw {
		case "auto", "x11", "kwin":
			return raw, nil
		}
		return nil, fmt.Errorf("invalid backend: %s (use auto, x11 or kwin)", raw)
	case "poll_interval":
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid duration: %s", raw)
		}
		return d, nil
	case "exclude_classes":
		if raw == "" {
			return []string{}, nil
		}
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	case "mcp.transport":
		switch raw {
		case "stdio", "streamable-http":
			return raw, nil
		}
		return nil, fmt.Errorf("invalid transport: %s (use stdio or streamable-http)", raw)
	default:
		return nil, fmt.Errorf("unknown configuration key: %s", key)
	}
}
