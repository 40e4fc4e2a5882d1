package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/pixelproof/pixelproof/internal/classify"
	"github.com/pixelproof/pixelproof/internal/config"
	"github.com/pixelproof/pixelproof/internal/history"
	"github.com/pixelproof/pixelproof/internal/ledger"
	"github.com/pixelproof/pixelproof/internal/verify"
)

// openHistory opens (and migrates, when asked) the local history database.
func openHistory(ctx context.Context, migrate bool) (*history.SQLiteHistory, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultHistoryPath()
	} else {
		dbPath = config.ExpandPath(dbPath)
	}

	store, err := history.NewSQLiteHistory(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if migrate {
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return store, nil
}

// buildLedgerClient constructs the ledger client from configuration.
func buildLedgerClient() (*ledger.Client, error) {
	cfg := config.LoadLedgerConfig()
	client, err := ledger.NewClient(cfg, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger client: %w", err)
	}
	return client, nil
}

// buildEngine wires the full verification pipeline.
func buildEngine(store *history.SQLiteHistory) (*verify.Engine, error) {
	ledgerClient, err := buildLedgerClient()
	if err != nil {
		return nil, err
	}

	classifier, err := classify.NewClassifier(config.LoadClassifierConfig(), slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}

	engineCfg := verify.DefaultConfig()
	engineCfg.PublishTimeout = config.PublishTimeout()

	return verify.NewWithConfig(ledgerClient, classifier, store, slog.Default(), engineCfg), nil
}
