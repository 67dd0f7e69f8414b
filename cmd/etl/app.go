package main

import (
	"fmt"
	"log/slog"

	kafkaadapter "github.com/couchcryptid/quake-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/quake-data-etl/internal/adapter/postgres"
	"github.com/couchcryptid/quake-data-etl/internal/adapter/usgs"
	"github.com/couchcryptid/quake-data-etl/internal/config"
	"github.com/couchcryptid/quake-data-etl/internal/observability"
	"github.com/couchcryptid/quake-data-etl/internal/pipeline"
	"gorm.io/gorm"
)

// app holds the wired pipeline and the resources it owns.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *gorm.DB
	writer   *kafkaadapter.Writer
	pipeline *pipeline.Pipeline
}

func newApp(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*app, error) {
	db, err := postgres.Open(cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, db: db}

	var publisher pipeline.Publisher
	if cfg.PublishEnabled {
		a.writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = a.writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	a.pipeline = pipeline.New(
		usgs.NewClient(cfg.USGSBaseURL, cfg.USGSTimeout, logger),
		pipeline.NewNormalizer(logger),
		postgres.NewSink(db, cfg.InsertChunk, logger),
		publisher,
		logger,
		metrics,
	)
	return a, nil
}

func (a *app) Close() {
	if a.writer != nil {
		if err := a.writer.Close(); err != nil {
			a.logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := postgres.Close(a.db); err != nil {
		a.logger.Error("database close error", "error", err)
	}
}
