package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/afroash/smart-planter/internal/trend"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadAppConfig(t *testing.T) {
	configPath := writeFile(t, "server.yaml", `
server:
  host: "0.0.0.0"
  port: 9090
  read_timeout: 30s
  allowed_origins:
    - "http://planter.local"

alerts:
  water_level_threshold: 30
  moisture_threshold: 15

sources:
  - id: "basil"
    kind: "file"
    path: "/srv/basil.json"
    reload_interval: 5s
  - id: "mint"

logging:
  level: "debug"
  format: "console"
`)

	cfg, err := LoadAppConfig(configPath)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("Addr() = %v, want 0.0.0.0:9090", cfg.Addr())
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 10*time.Second {
		t.Errorf("Server.WriteTimeout = %v, want default 10s", cfg.Server.WriteTimeout)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "http://planter.local" {
		t.Errorf("Server.AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if got := cfg.Thresholds(); got != (trend.Thresholds{WaterLevel: 30, Moisture: 15}) {
		t.Errorf("Thresholds() = %+v", got)
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("len(Sources) = %d, want 2", len(cfg.Sources))
	}
	if cfg.Sources[0].Kind != "file" || cfg.Sources[0].ReloadInterval != 5*time.Second {
		t.Errorf("Sources[0] = %+v", cfg.Sources[0])
	}
	if cfg.Sources[1].Kind != "embedded" || cfg.Sources[1].ReloadInterval != 30*time.Second {
		t.Errorf("Sources[1] defaults not applied: %+v", cfg.Sources[1])
	}
	if cfg.Logging.Format != FormatConsole {
		t.Errorf("Logging.Format = %v, want console", cfg.Logging.Format)
	}
}

func TestLoadAppConfig_Errors(t *testing.T) {
	if _, err := LoadAppConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadAppConfig should fail for a missing file")
	}

	bad := writeFile(t, "bad.yaml", "server: [unclosed")
	if _, err := LoadAppConfig(bad); err == nil {
		t.Error("LoadAppConfig should fail for malformed YAML")
	}

	invalid := writeFile(t, "invalid.yaml", "sources:\n  - id: x\n    kind: sqlite\n")
	if _, err := LoadAppConfig(invalid); err == nil {
		t.Error("LoadAppConfig should fail validation for sqlite source without path")
	}
}

func TestAppConfig_ApplyDefaults(t *testing.T) {
	cfg := &AppConfig{}
	cfg.ApplyDefaults()

	if cfg.Server.Port != 8081 {
		t.Errorf("Default Port = %v, want 8081", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Default Host = %v, want localhost", cfg.Server.Host)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("Default AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Thresholds() != trend.DefaultThresholds() {
		t.Errorf("Default Thresholds = %+v", cfg.Thresholds())
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].ID != DefaultPlantID || cfg.Sources[0].Kind != "embedded" {
		t.Errorf("Default Sources = %+v", cfg.Sources)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != FormatJSON {
		t.Errorf("Default Logging = %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestAppConfig_OverrideFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("SERVER_HOST", "planter.local")
	t.Setenv("WATER_LEVEL_THRESHOLD", "30.5")
	t.Setenv("MOISTURE_THRESHOLD", "12")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := &AppConfig{}
	cfg.ApplyDefaults()
	if err := cfg.OverrideFromEnv(); err != nil {
		t.Fatalf("OverrideFromEnv failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %v, want 9999", cfg.Server.Port)
	}
	if cfg.Server.Host != "planter.local" {
		t.Errorf("Host = %v, want planter.local", cfg.Server.Host)
	}
	if cfg.Alerts.WaterLevelThreshold != 30.5 || cfg.Alerts.MoistureThreshold != 12 {
		t.Errorf("Alerts = %+v", cfg.Alerts)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %v, want debug", cfg.Logging.Level)
	}
}

func TestAppConfig_OverrideFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SERVER_PORT", "eighty"},
		{"WATER_LEVEL_THRESHOLD", "low"},
		{"MOISTURE_THRESHOLD", "1,5"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := &AppConfig{}
			if err := cfg.OverrideFromEnv(); err == nil {
				t.Errorf("OverrideFromEnv should reject %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoadAppConfig_EnvFile(t *testing.T) {
	configPath := writeFile(t, "server.yaml", "server:\n  port: 8000\n")
	envPath := writeFile(t, ".env", "SERVER_PORT=8123\nMOISTURE_THRESHOLD=35\n")
	t.Cleanup(func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("MOISTURE_THRESHOLD")
	})

	cfg, err := LoadAppConfig(configPath, envPath, filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if cfg.Server.Port != 8123 {
		t.Errorf("Port = %v, want 8123 from env file", cfg.Server.Port)
	}
	if cfg.Alerts.MoistureThreshold != 35 {
		t.Errorf("MoistureThreshold = %v, want 35 from env file", cfg.Alerts.MoistureThreshold)
	}
}

func TestAppConfig_Validate(t *testing.T) {
	valid := func() AppConfig {
		cfg := AppConfig{}
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name      string
		mutate    func(*AppConfig)
		wantError bool
	}{
		{"valid config", func(c *AppConfig) {}, false},
		{"port too high", func(c *AppConfig) { c.Server.Port = 70000 }, true},
		{"negative threshold", func(c *AppConfig) { c.Alerts.MoistureThreshold = -1 }, true},
		{"threshold above 100", func(c *AppConfig) { c.Alerts.WaterLevelThreshold = 101 }, true},
		{"missing source id", func(c *AppConfig) { c.Sources[0].ID = "" }, true},
		{"duplicate source id", func(c *AppConfig) { c.Sources = append(c.Sources, c.Sources[0]) }, true},
		{"unknown kind", func(c *AppConfig) { c.Sources[0].Kind = "mqtt" }, true},
		{"file without path", func(c *AppConfig) { c.Sources[0].Kind = "file" }, true},
		{"file with path", func(c *AppConfig) {
			c.Sources[0].Kind = "file"
			c.Sources[0].Path = "plant.json"
		}, false},
		{"reload too fast", func(c *AppConfig) { c.Sources[0].ReloadInterval = 500 * time.Millisecond }, true},
		{"bad log level", func(c *AppConfig) { c.Logging.Level = "loud" }, true},
		{"bad log format", func(c *AppConfig) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantError && err == nil {
				t.Error("Validate() expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestLoadWatchConfig(t *testing.T) {
	configPath := writeFile(t, "watch.yaml", `
server:
  url: "http://localhost:8081"
  plant_id: "planter-01"
  reconnect_interval: 2s
`)

	cfg, err := LoadWatchConfig(configPath)
	if err != nil {
		t.Fatalf("LoadWatchConfig failed: %v", err)
	}
	if cfg.Server.PlantID != "planter-01" {
		t.Errorf("PlantID = %v", cfg.Server.PlantID)
	}
	if cfg.Server.ReconnectInterval != 2*time.Second {
		t.Errorf("ReconnectInterval = %v, want 2s", cfg.Server.ReconnectInterval)
	}
	if cfg.Server.MaxReconnectInterval != 5*time.Minute {
		t.Errorf("MaxReconnectInterval = %v, want default 5m", cfg.Server.MaxReconnectInterval)
	}
	if cfg.Server.ConnectTimeout != 10*time.Second {
		t.Errorf("ConnectTimeout = %v, want default 10s", cfg.Server.ConnectTimeout)
	}
}

func TestWatchConfig_OverrideFromEnv(t *testing.T) {
	t.Setenv("WATCH_SERVER_URL", "https://planter.example.com")
	t.Setenv("WATCH_PLANT_ID", "mint")
	t.Setenv("LOG_LEVEL", "warn")

	cfg := &WatchConfig{Server: WatchServerConfig{URL: "http://localhost:8081", PlantID: "basil"}}
	cfg.OverrideFromEnv()

	if cfg.Server.URL != "https://planter.example.com" {
		t.Errorf("URL = %v", cfg.Server.URL)
	}
	if cfg.Server.PlantID != "mint" {
		t.Errorf("PlantID = %v, want mint", cfg.Server.PlantID)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %v, want warn", cfg.Logging.Level)
	}
}

func TestWatchConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		reconnect time.Duration
		max       time.Duration
		wantError bool
	}{
		{"valid", "http://localhost:8081", time.Second, time.Minute, false},
		{"https", "https://planter.example.com", time.Second, time.Minute, false},
		{"missing url", "", time.Second, time.Minute, true},
		{"websocket scheme", "ws://localhost:8081", time.Second, time.Minute, true},
		{"no host", "http://", time.Second, time.Minute, true},
		{"reconnect too fast", "http://localhost:8081", time.Millisecond, time.Minute, true},
		{"max below initial", "http://localhost:8081", time.Minute, time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := WatchConfig{Server: WatchServerConfig{
				URL:                  tt.url,
				ReconnectInterval:    tt.reconnect,
				MaxReconnectInterval: tt.max,
			}}
			cfg.Logging.applyDefaults()
			err := cfg.Validate()
			if tt.wantError && err == nil {
				t.Error("Validate() expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggingConfig{Level: "warn", Format: FormatJSON}, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("plant_id", "basil").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, `"plant_id":"basil"`) || !strings.Contains(out, `"message":"shown"`) {
		t.Errorf("unexpected JSON output: %s", out)
	}

	buf.Reset()
	console := NewLogger(LoggingConfig{Level: "info", Format: FormatConsole}, &buf)
	console.Info().Msg("hello")
	if strings.Contains(buf.String(), `"message"`) || !strings.Contains(buf.String(), "hello") {
		t.Errorf("console output should be human readable: %s", buf.String())
	}
}
