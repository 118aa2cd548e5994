package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/afroash/smart-planter/internal/client"
	"github.com/afroash/smart-planter/internal/config"
	"github.com/afroash/smart-planter/internal/models"
	"github.com/afroash/smart-planter/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/watch.yaml", "path to config file")
	envFile := flag.String("env", ".env", "optional env file")
	flag.Parse()

	logger := config.NewLogger(config.LoggingConfig{}, os.Stdout)

	cfg, err := config.LoadWatchConfig(*configPath, *envFile)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}
	logger = config.NewLogger(cfg.Logging, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && ctx.Err() == nil {
		logger.Fatal().Err(err).Msg("Watcher failed")
	}
	logger.Info().Msg("Watcher stopped")
}

// run prints the current dashboard once, then follows the live stream
func run(ctx context.Context, cfg *config.WatchConfig, logger zerolog.Logger) error {
	api := client.NewAPIClient(cfg.Server.URL, cfg.Server.ConnectTimeout)

	plantID := cfg.Server.PlantID
	if plantID == "" {
		ids, err := api.Plants(ctx)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			logger.Warn().Msg("Server has no plants yet, following its default stream")
		} else {
			plantID = ids[0]
		}
	}

	if plantID != "" {
		data, err := api.FetchDashboard(ctx, plantID)
		if err != nil {
			logger.Warn().Err(err).Str("plant_id", plantID).Msg("Failed to fetch dashboard")
		} else {
			logDashboard(logger, plantID, data.Revision, data.Dashboard.Home.Current, data.Dashboard.Home.Messages)
		}
	}

	conn, err := client.NewConnection(client.ConnectionConfig{
		BaseURL:              cfg.Server.URL,
		PlantID:              plantID,
		ConnectTimeout:       cfg.Server.ConnectTimeout,
		ReconnectInterval:    cfg.Server.ReconnectInterval,
		MaxReconnectInterval: cfg.Server.MaxReconnectInterval,
	}, func(msg *models.Message) { logMessage(logger, msg) }, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("url", conn.URL()).Msg("Following stream")
	return conn.Run(ctx)
}

// logMessage writes one stream message as a log line
func logMessage(logger zerolog.Logger, msg *models.Message) {
	switch msg.Type {
	case models.MessageTypeSnapshot:
		var snap server.SnapshotPayload
		if err := msg.UnmarshalPayload(&snap); err != nil {
			logger.Warn().Err(err).Msg("Bad snapshot payload")
			return
		}
		logDashboard(logger, msg.PlantID, snap.Revision, snap.Dashboard.Home.Current, nil)
		if n := len(snap.Dashboard.Trend.Events); n > 0 {
			last := snap.Dashboard.Trend.Markers[n-1]
			logger.Debug().Str("plant_id", msg.PlantID).Int("events", n).Str("last_watered", string(last.Time)).Msg("Watering events")
		}
	case models.MessageTypeAlert:
		var alert server.AlertPayload
		if err := msg.UnmarshalPayload(&alert); err != nil {
			logger.Warn().Err(err).Msg("Bad alert payload")
			return
		}
		if !alert.Alerts.Any() {
			logger.Info().Str("plant_id", msg.PlantID).Msg("All clear")
			return
		}
		for _, m := range alert.Messages {
			logger.Warn().Str("plant_id", msg.PlantID).Msg(m)
		}
	case models.MessageTypeError:
		var errMsg models.ErrorMessage
		if err := msg.UnmarshalPayload(&errMsg); err == nil {
			logger.Warn().Str("code", errMsg.Code).Str("msg", errMsg.Message).Msg("Server error")
		}
	default:
		logger.Debug().Str("type", string(msg.Type)).Msg("Unknown message type")
	}
}

func logDashboard(logger zerolog.Logger, plantID string, revision uint64, current models.Sample, messages []string) {
	logger.Info().
		Str("plant_id", plantID).
		Uint64("revision", revision).
		Float64("water_level", current.WaterLevel).
		Float64("moisture", current.Moisture).
		Float64("temperature", current.Temperature).
		Float64("humidity", current.Humidity).
		Float64("light", current.Light).
		Strs("alerts", messages).
		Msg("Reading")
}
