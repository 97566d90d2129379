package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	Driver           string // "postgres" (default) or "sqlite"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// Client bundles the ent SQL driver with the pool it was opened from.
type Client struct {
	drv  *entsql.Driver
	pool *pgxpool.Pool
}

// Dialect returns the SQL dialect of the underlying driver.
func (c *Client) Dialect() string { return c.drv.Dialect() }

// OpenConfig opens the database selected by cfg.Driver.
func OpenConfig(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	switch cfg.Driver {
	case "", dialect.Postgres:
		return Open(ctx, cfg, logger)
	case "sqlite", dialect.SQLite:
		return OpenSQLite(ctx, cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Open creates a pgx pool and wraps it for ent.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	logger.Info("connecting to database", "driver", dialect.Postgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "receipt-parser"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	// Wrap pool as *sql.DB for ent
	db := stdlib.OpenDBFromPool(pool)
	drv := entsql.OpenDB(dialect.Postgres, db)

	logger.Info("successfully connected to database")
	return &Client{drv: drv, pool: pool}, nil
}

// OpenSQLite opens a file-backed SQLite database with foreign keys enforced.
// A single connection serializes writers, which SQLite requires anyway.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*Client, error) {
	logger.Info("connecting to database", "driver", dialect.SQLite, "path", path)
	dsn := "file:" + path + "?" + url.Values{
		"_pragma":      []string{"foreign_keys(1)", "busy_timeout(5000)", "journal_mode(WAL)"},
		"_time_format": []string{"sqlite"},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	logger.Info("successfully connected to database")
	return &Client{drv: entsql.OpenDB(dialect.SQLite, db)}, nil
}

// Close closes the database connections gracefully
func (c *Client) Close(logger *slog.Logger) {
	logger.Info("closing database connections")
	if err := c.drv.Close(); err != nil {
		logger.Error("failed to close ent driver", "error", err)
	}
	if c.pool != nil {
		c.pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (c *Client) HealthCheck(ctx context.Context, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var err error
	if c.pool != nil {
		err = c.pool.Ping(ctx)
	} else {
		err = c.drv.DB().PingContext(ctx)
	}
	if err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}

// withTx runs fn in a transaction, rolling back on error.
func (c *Client) withTx(ctx context.Context, fn func(tx dialect.Tx) error) error {
	tx, err := c.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w: rollback: %v", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func queryRows(ctx context.Context, eq dialect.ExecQuerier, q entsql.Querier) (*entsql.Rows, error) {
	query, args := q.Query()
	rows := &entsql.Rows{}
	if err := eq.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func execQuery(ctx context.Context, eq dialect.ExecQuerier, q entsql.Querier) (sql.Result, error) {
	query, args := q.Query()
	var res sql.Result
	if err := eq.Exec(ctx, query, args, &res); err != nil {
		return nil, err
	}
	return res, nil
}
