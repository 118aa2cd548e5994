package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/afroash/smart-planter/internal/config"
	"github.com/afroash/smart-planter/internal/metrics"
	"github.com/afroash/smart-planter/internal/server"
	"github.com/afroash/smart-planter/internal/source"
)

const version = "v0.3.0"

func main() {
	configPath := flag.String("config", "configs/server.yaml", "path to config file")
	envFile := flag.String("env", ".env", "optional env file")
	flag.Parse()

	// bootstrap logger until the configured one exists
	logger := config.NewLogger(config.LoggingConfig{}, os.Stdout)

	cfg, err := config.LoadAppConfig(*configPath, *envFile)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}
	logger = config.NewLogger(cfg.Logging, os.Stdout)

	logger.Info().
		Str("version", version).
		Str("addr", cfg.Addr()).
		Int("sources", len(cfg.Sources)).
		Msg("Starting Smart Planter Server")
	logger.Debug().Msg(cfg.String())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	thresholds := cfg.Thresholds()
	store := server.NewSnapshotStore(logger, rec)
	sink := store.Sink(thresholds)

	api := server.NewAPIHandler(store, server.NewSettingsStore(), thresholds, logger)
	stream := server.NewStreamHandler(store, thresholds, logger, rec, cfg.Server.AllowedOrigins...)
	api.SetStream(stream)

	var pollers []*source.Poller
	var closers []func() error
	for _, sc := range cfg.Sources {
		src, closeFn, err := source.Open(sc.Kind, sc.Path, sc.ID, logger)
		if err != nil {
			logger.Fatal().Err(err).Str("plant_id", sc.ID).Msg("Failed to open source")
		}
		closers = append(closers, closeFn)

		p := source.NewPoller(src, sink, source.PollerConfig{
			PlantID:  sc.ID,
			Interval: sc.ReloadInterval,
		}, logger)
		p.OnError = func(plantID string, err error) {
			rec.SourceError(plantID)
		}
		p.Start()

		api.AddPoller(p)
		pollers = append(pollers, p)
		logger.Info().Str("plant_id", sc.ID).Str("source", src.Name()).Dur("interval", sc.ReloadInterval).Msg("Source poller started")
	}

	router := server.NewRouter(server.RouterConfig{
		API:            api,
		Stream:         stream,
		Recorder:       rec,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Version:        version,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutting down server...")

	for _, p := range pollers {
		p.Stop()
	}
	logger.Info().Int("count", len(pollers)).Msg("Pollers stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close source")
		}
	}

	logger.Info().Msg("Server stopped")
}
