package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/dataquality/internal/config"
	"github.com/JonMunkholm/dataquality/internal/core"
	"github.com/JonMunkholm/dataquality/internal/store"
)

// openRepository builds the configured backend. The returned close func is
// safe to call more than once.
func openRepository(ctx context.Context, cfg config.StorageConfig) (core.Repository, func(), error) {
	switch strings.ToLower(cfg.Backend) {
	case "postgres":
		return openPostgres(ctx, cfg)
	case "sqlite":
		db, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("opened sqlite database", "path", cfg.SQLitePath)
		return db, sync.OnceFunc(func() { db.Close() }), nil
	default:
		slog.Warn("using in-memory storage; tables are lost on restart")
		return store.NewMemory(), func() {}, nil
	}
}

func openPostgres(ctx context.Context, cfg config.StorageConfig) (core.Repository, func(), error) {
	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database URL: %w", err)
	}

	// Apply pool configuration from config
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.DatabaseURL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	repo, err := store.NewPostgres(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repo, sync.OnceFunc(pool.Close), nil
}
