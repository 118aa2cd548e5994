package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/afroash/smart-planter/internal/source"
	"github.com/afroash/smart-planter/internal/trend"
)

// DefaultPlantID names the single source configured when none are listed
const DefaultPlantID = "planter-01"

// AppConfig holds server configuration
type AppConfig struct {
	Server  ServerSettings   `yaml:"server"`
	Alerts  AlertSettings    `yaml:"alerts"`
	Sources []SourceSettings `yaml:"sources"`
	Logging LoggingConfig    `yaml:"logging"`
}

// ServerSettings contains HTTP server configuration
type ServerSettings struct {
	Port           int           `yaml:"port"`
	Host           string        `yaml:"host"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// AlertSettings contains the alert thresholds. A reading strictly below a
// threshold raises the alert. Zero means the default.
type AlertSettings struct {
	WaterLevelThreshold float64 `yaml:"water_level_threshold"`
	MoistureThreshold   float64 `yaml:"moisture_threshold"`
}

// SourceSettings describes where one plant's snapshots come from
type SourceSettings struct {
	ID             string        `yaml:"id"`
	Kind           string        `yaml:"kind"` // embedded, file or sqlite
	Path           string        `yaml:"path"`
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// LoadAppConfig loads server configuration from a YAML file, then the
// optional env files, then the environment
func LoadAppConfig(path string, envFiles ...string) (*AppConfig, error) {
	var config AppConfig
	if err := readYAML(path, &config); err != nil {
		return nil, err
	}

	config.ApplyDefaults()
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}
	if err := config.OverrideFromEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	return &config, nil
}

// ApplyDefaults sets default values for server config
func (ac *AppConfig) ApplyDefaults() {
	if ac.Server.Port == 0 {
		ac.Server.Port = 8081
	}
	if ac.Server.Host == "" {
		ac.Server.Host = "localhost"
	}
	if ac.Server.ReadTimeout == 0 {
		ac.Server.ReadTimeout = 60 * time.Second
	}
	if ac.Server.WriteTimeout == 0 {
		ac.Server.WriteTimeout = 10 * time.Second
	}
	if len(ac.Server.AllowedOrigins) == 0 {
		ac.Server.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if ac.Alerts.WaterLevelThreshold == 0 {
		ac.Alerts.WaterLevelThreshold = trend.DefaultWaterLevelThreshold
	}
	if ac.Alerts.MoistureThreshold == 0 {
		ac.Alerts.MoistureThreshold = trend.DefaultMoistureThreshold
	}
	if len(ac.Sources) == 0 {
		ac.Sources = []SourceSettings{{ID: DefaultPlantID}}
	}
	for i := range ac.Sources {
		if ac.Sources[i].Kind == "" {
			ac.Sources[i].Kind = source.KindEmbedded
		}
		if ac.Sources[i].ReloadInterval == 0 {
			ac.Sources[i].ReloadInterval = 30 * time.Second
		}
	}
	ac.Logging.applyDefaults()
}

// OverrideFromEnv overrides config from environment variables
func (ac *AppConfig) OverrideFromEnv() error {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SERVER_PORT: %w", err)
		}
		ac.Server.Port = port
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		ac.Server.Host = v
	}
	if v := os.Getenv("WATER_LEVEL_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("WATER_LEVEL_THRESHOLD: %w", err)
		}
		ac.Alerts.WaterLevelThreshold = f
	}
	if v := os.Getenv("MOISTURE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MOISTURE_THRESHOLD: %w", err)
		}
		ac.Alerts.MoistureThreshold = f
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		ac.Logging.Level = v
	}
	return nil
}

// Validate checks if server configuration is valid
func (ac *AppConfig) Validate() error {
	if ac.Server.Port < 1 || ac.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if ac.Alerts.WaterLevelThreshold < 0 || ac.Alerts.WaterLevelThreshold > 100 {
		return fmt.Errorf("water level threshold must be between 0 and 100")
	}
	if ac.Alerts.MoistureThreshold < 0 || ac.Alerts.MoistureThreshold > 100 {
		return fmt.Errorf("moisture threshold must be between 0 and 100")
	}

	seen := make(map[string]bool, len(ac.Sources))
	for i, src := range ac.Sources {
		if src.ID == "" {
			return fmt.Errorf("sources[%d]: id is required", i)
		}
		if seen[src.ID] {
			return fmt.Errorf("sources[%d]: duplicate id %q", i, src.ID)
		}
		seen[src.ID] = true

		switch src.Kind {
		case source.KindEmbedded:
		case source.KindFile, source.KindSQLite:
			if src.Path == "" {
				return fmt.Errorf("sources[%d]: %s source needs a path", i, src.Kind)
			}
		default:
			return fmt.Errorf("sources[%d]: unknown kind %q", i, src.Kind)
		}
		if src.ReloadInterval < time.Second {
			return fmt.Errorf("sources[%d]: reload interval must be at least 1 second", i)
		}
	}

	return ac.Logging.validate()
}

// Thresholds returns the configured alert thresholds
func (ac *AppConfig) Thresholds() trend.Thresholds {
	return trend.Thresholds{
		WaterLevel: ac.Alerts.WaterLevelThreshold,
		Moisture:   ac.Alerts.MoistureThreshold,
	}
}

// Addr returns the listen address
func (ac *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", ac.Server.Host, ac.Server.Port)
}

// String returns a readable representation of the config
func (ac *AppConfig) String() string {
	ids := make([]string, 0, len(ac.Sources))
	for _, src := range ac.Sources {
		ids = append(ids, src.ID+"="+src.Kind)
	}
	return fmt.Sprintf("AppConfig{Server: %+v, Alerts: %+v, Sources: [%s], Logging: %+v}",
		ac.Server,
		ac.Alerts,
		strings.Join(ids, " "),
		ac.Logging,
	)
}
