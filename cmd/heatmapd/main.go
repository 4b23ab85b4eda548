package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/storm-data-heatmap/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/storm-data-heatmap/internal/adapter/kafka"
	"github.com/couchcryptid/storm-data-heatmap/internal/adapter/mapbox"
	"github.com/couchcryptid/storm-data-heatmap/internal/config"
	"github.com/couchcryptid/storm-data-heatmap/internal/domain"
	"github.com/couchcryptid/storm-data-heatmap/internal/heatmap"
	"github.com/couchcryptid/storm-data-heatmap/internal/observability"
	"github.com/couchcryptid/storm-data-heatmap/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	engine, err := heatmap.NewEngine(cfg.EngineConfig(), logger)
	if err != nil {
		logger.Error("failed to build raster engine", "error", err)
		os.Exit(1)
	}
	logger.Info("raster engine ready",
		"mode", cfg.Mode,
		"field", cfg.Field,
		"scale", cfg.Scale,
		"radius", cfg.Radius,
		"window_size", cfg.WindowSize,
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(cfg.Field, geocoder, logger)

	p := pipeline.New(reader, transformer, engine, writer, logger, metrics, pipeline.Options{
		BatchSize:  cfg.BatchSize,
		WindowSize: cfg.WindowSize,
		Field:      cfg.Field,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
