package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/storm-data-heatmap/internal/domain"
	"github.com/couchcryptid/storm-data-heatmap/internal/heatmap"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Raster configuration.
	Mode       heatmap.Mode
	Field      domain.Field
	Scale      float64
	Radius     float64
	Padding    heatmap.Padding
	Clamp      bool
	Workers    int
	WindowSize int

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeoutStr := sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s")
	mapboxTimeout, err2 := time.ParseDuration(mapboxTimeoutStr)
	if err2 != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	raster, err := loadRaster()
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "transformed-weather-data"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "storm-heatmap-rasters"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "storm-data-heatmap"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		Mode:       raster.mode,
		Field:      raster.field,
		Scale:      raster.scale,
		Radius:     raster.radius,
		Padding:    raster.padding,
		Clamp:      raster.clamp,
		Workers:    raster.workers,
		WindowSize: raster.windowSize,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parsePositiveInt("MAPBOX_CACHE_SIZE", 1000),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if err := cfg.EngineConfig().Validate(); err != nil {
		return nil, fmt.Errorf("invalid HEATMAP settings: %w", err)
	}

	return cfg, nil
}

// EngineConfig returns the raster engine settings.
func (c *Config) EngineConfig() heatmap.Config {
	ec := heatmap.DefaultConfig()
	ec.Mode = c.Mode
	ec.Scale = c.Scale
	ec.Radius = c.Radius
	ec.Padding = c.Padding
	ec.Clamp = c.Clamp
	ec.Workers = c.Workers
	ec.ValueLabel = string(c.Field)
	return ec
}

type rasterSettings struct {
	mode       heatmap.Mode
	field      domain.Field
	scale      float64
	radius     float64
	padding    heatmap.Padding
	clamp      bool
	workers    int
	windowSize int
}

func loadRaster() (rasterSettings, error) {
	var (
		s   rasterSettings
		err error
	)

	if s.mode, err = heatmap.ParseMode(sharedcfg.EnvOrDefault("HEATMAP_MODE", string(heatmap.ModeInfluence))); err != nil {
		return s, fmt.Errorf("invalid HEATMAP_MODE: %w", err)
	}

	s.field = domain.DefaultField(s.mode)
	if v := os.Getenv("HEATMAP_FIELD"); v != "" {
		if s.field, err = domain.ParseField(v); err != nil {
			return s, fmt.Errorf("invalid HEATMAP_FIELD: %w", err)
		}
	}
	if s.field.Numeric() != (s.mode == heatmap.ModeWeighted) {
		return s, fmt.Errorf("invalid HEATMAP_FIELD: %q cannot be used in %s mode", s.field, s.mode)
	}

	floats := []struct {
		key string
		def float64
		dst *float64
	}{
		{"HEATMAP_SCALE", 0.05, &s.scale},
		{"HEATMAP_RADIUS", 1.0, &s.radius},
		{"HEATMAP_BORDER", 0.5, &s.padding.Border},
		{"HEATMAP_PAD_NORTH", 0, &s.padding.North},
		{"HEATMAP_PAD_SOUTH", 0, &s.padding.South},
		{"HEATMAP_PAD_EAST", 0, &s.padding.East},
		{"HEATMAP_PAD_WEST", 0, &s.padding.West},
	}
	for _, f := range floats {
		if *f.dst, err = parseFloat(f.key, f.def); err != nil {
			return s, err
		}
	}

	if v := os.Getenv("HEATMAP_CLAMP"); v != "" {
		if s.clamp, err = strconv.ParseBool(v); err != nil {
			return s, fmt.Errorf("invalid HEATMAP_CLAMP: %q", v)
		}
	}

	if s.workers, err = parseInt("HEATMAP_WORKERS", 0); err != nil {
		return s, err
	}
	if s.workers < 0 {
		return s, errors.New("invalid HEATMAP_WORKERS: must be >= 0")
	}
	if s.windowSize, err = parseInt("HEATMAP_WINDOW_SIZE", 5000); err != nil {
		return s, err
	}
	if s.windowSize < 1 {
		return s, errors.New("invalid HEATMAP_WINDOW_SIZE: must be positive")
	}
	return s, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}
