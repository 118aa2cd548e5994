package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Log formats
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

func (l *LoggingConfig) applyDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = FormatJSON
	}
}

func (l *LoggingConfig) validate() error {
	if _, err := zerolog.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("invalid log level %q", l.Level)
	}
	if l.Format != FormatJSON && l.Format != FormatConsole {
		return fmt.Errorf("log format must be %q or %q", FormatJSON, FormatConsole)
	}
	return nil
}

// NewLogger builds the process logger writing to w
func NewLogger(cfg LoggingConfig, w io.Writer) zerolog.Logger {
	if cfg.Format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// loadEnvFiles loads KEY=VALUE files into the environment. Variables that
// are already set win, and missing files are skipped.
func loadEnvFiles(paths []string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return nil
}

// readYAML decodes the file at path into out
func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// WatchConfig holds all configuration for the watcher client
type WatchConfig struct {
	Server  WatchServerConfig `yaml:"server"`
	Logging LoggingConfig     `yaml:"logging"`
}

// WatchServerConfig contains connection settings for the planter server
type WatchServerConfig struct {
	URL                  string        `yaml:"url"` // http(s) base URL of the API
	PlantID              string        `yaml:"plant_id"`
	ConnectTimeout       time.Duration `yaml:"connect_timeout"`
	ReconnectInterval    time.Duration `yaml:"reconnect_interval"`
	MaxReconnectInterval time.Duration `yaml:"max_reconnect_interval"`
}

// LoadWatchConfig loads watcher configuration from a YAML file, then the
// optional env files, then the environment
func LoadWatchConfig(path string, envFiles ...string) (*WatchConfig, error) {
	var config WatchConfig
	if err := readYAML(path, &config); err != nil {
		return nil, err
	}

	config.ApplyDefaults()
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}
	config.OverrideFromEnv()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid watch config: %w", err)
	}
	return &config, nil
}

// ApplyDefaults sets default values for any unset fields
func (c *WatchConfig) ApplyDefaults() {
	if c.Server.ConnectTimeout == 0 {
		c.Server.ConnectTimeout = 10 * time.Second
	}
	if c.Server.ReconnectInterval == 0 {
		c.Server.ReconnectInterval = 1 * time.Second
	}
	if c.Server.MaxReconnectInterval == 0 {
		c.Server.MaxReconnectInterval = 5 * time.Minute
	}
	c.Logging.applyDefaults()
}

// OverrideFromEnv overrides config values from environment variables
func (c *WatchConfig) OverrideFromEnv() {
	if v := os.Getenv("WATCH_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("WATCH_PLANT_ID"); v != "" {
		c.Server.PlantID = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks if the configuration is valid
func (c *WatchConfig) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server URL is required")
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server URL must be an http:// or https:// address")
	}
	if c.Server.ReconnectInterval < 100*time.Millisecond {
		return fmt.Errorf("reconnect interval must be at least 100ms")
	}
	if c.Server.MaxReconnectInterval < c.Server.ReconnectInterval {
		return fmt.Errorf("max reconnect interval must not be below reconnect interval")
	}
	return c.Logging.validate()
}

// String returns a readable representation of the config
func (c *WatchConfig) String() string {
	return fmt.Sprintf("WatchConfig{Server: %+v, Logging: %+v}", c.Server, c.Logging)
}
