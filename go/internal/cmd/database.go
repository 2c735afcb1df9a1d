package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/arcade/go/internal/config"
	"github.com/mcdev12/arcade/go/internal/profiles"
	"github.com/rs/zerolog/log"
)

// setupProfiles connects to the profiles database, loads every role and starts the
// LISTEN/NOTIFY refresher.
func setupProfiles(ctx context.Context, cfg config.DatabaseConfig) (*profiles.RoleCache, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("connected to profiles database")

	cache := profiles.NewRoleCache(profiles.NewRepository(pool))
	if err := cache.Refresh(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	listenerCfg := profiles.DefaultListenerConfig()
	listenerCfg.DatabaseURL = cfg.DSN()
	listener, err := profiles.NewListener(cache, listenerCfg)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	go func() {
		if err := listener.Start(ctx); err != nil {
			log.Error().Err(err).Msg("role listener stopped")
		}
	}()

	return cache, pool.Close, nil
}
