package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/receipt-parser/internal/common"
	repo "github.com/joseph-ayodele/receipt-parser/internal/repository"
)

// ConnectDB opens the configured database and creates any missing tables.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repo.Client, error) {
	client, err := repo.OpenConfig(ctx, repo.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(ctx, client, logger); err != nil {
		client.Close(logger)
		return nil, err
	}
	return client, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, client *repo.Client, logger *slog.Logger, timeout time.Duration) error {
	return client.HealthCheck(ctx, timeout, logger)
}

// CloseDB closes the database connections gracefully
func CloseDB(client *repo.Client, logger *slog.Logger) {
	if client != nil {
		client.Close(logger)
	}
}
