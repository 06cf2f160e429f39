package main

import (
	"context"
	"fmt"
	"os"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/raykavin/pricealert/pkg/config"
	"github.com/raykavin/pricealert/pkg/core"
	"github.com/raykavin/pricealert/pkg/exchange"
	"github.com/raykavin/pricealert/pkg/exchange/binance"
	"github.com/raykavin/pricealert/pkg/logger"
	"github.com/raykavin/pricealert/pkg/logger/logrus"
	"github.com/raykavin/pricealert/pkg/logger/zerolog"
	"github.com/raykavin/pricealert/pkg/storage"
)

const logTimeFormat = "2006-01-02 15:04:05"

// source is a price source that can also discover instruments
type source interface {
	core.PriceSource
	core.InstrumentFinder
}

func newLogger(cfg config.LogConfig) (logger.Logger, error) {
	if cfg.Driver == "logrus" {
		return logrus.New(cfg.Level, cfg.JSON, os.Stdout)
	}

	return zerolog.NewWithConfig(zerolog.Config{
		Level:          cfg.Level,
		DateTimeLayout: logTimeFormat,
		Colored:        cfg.Colored,
		JSON:           cfg.JSON,
		File:           cfg.File,
		MaxSizeMB:      cfg.MaxSizeMB,
		MaxBackups:     cfg.MaxBackups,
		MaxAgeDays:     cfg.MaxAgeDays,
	})
}

func openStorage(cfg config.StorageConfig) (core.Storage, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	switch cfg.Driver {
	case config.StoragePostgres:
		return storage.FromSQL(postgres.Open(cfg.DSN), gormConfig)
	case config.StorageSQLite:
		return storage.FromSQL(sqlite.Open(cfg.Path), gormConfig)
	default:
		if cfg.Path == "" || cfg.Path == ":memory:" {
			return storage.FromMemory()
		}
		return storage.FromFile(cfg.Path)
	}
}

func newSource(ctx context.Context, cfg *config.Config, log logger.Logger) (source, error) {
	switch cfg.Source.Driver {
	case config.SourceReplay:
		replay, err := exchange.NewCSVSource(cfg.Source.ReplayFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load replay file: %w", err)
		}
		log.WithField("tickers", replay.Tickers()).Info("replaying prices from file")
		return replay, nil
	default:
		options := []binance.SpotOption{
			binance.WithCredentials(cfg.Binance.APIKey, cfg.Binance.SecretKey),
		}
		if cfg.Binance.Testnet {
			options = append(options, binance.WithTestNet())
		}
		return binance.NewSpot(ctx, log, options...)
	}
}

// setup loads the configuration and opens the storage and logger shared by
// every command
func setup() (*config.Config, core.Storage, logger.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return cfg, store, log, nil
}
