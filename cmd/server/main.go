// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

// Command server runs the feed assembly service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulseapp/feedengine/internal/api"
	"github.com/pulseapp/feedengine/internal/config"
	"github.com/pulseapp/feedengine/internal/feed"
	"github.com/pulseapp/feedengine/internal/ledger"
	"github.com/pulseapp/feedengine/internal/logging"
	"github.com/pulseapp/feedengine/internal/store"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logger := logging.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	signals, exposures, cleanup, err := buildStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	home, err := feed.NewEngine(cfg.Feed.Home, signals, exposures, logger)
	if err != nil {
		return fmt.Errorf("build home engine: %w", err)
	}
	discovery, err := feed.NewEngine(cfg.Feed.Discovery, signals, exposures, logger)
	if err != nil {
		return fmt.Errorf("build discovery engine: %w", err)
	}
	recorder := feed.NewRecorder(exposures, cfg.Feed.Home.RecordAccountCards, logger)

	handler := api.NewHandler(home, discovery, recorder, logger)
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimit:   cfg.Server.RateLimit,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", addr).
			Str("mode", string(cfg.Mode)).
			Msg("feed service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildStorage wires the signal store and exposure ledger for the
// configured mode. The cleanup closes whatever was opened.
func buildStorage(ctx context.Context, cfg *config.Config) (feed.SignalStore, feed.ExposureLedger, func(), error) {
	logger := logging.Logger()

	switch cfg.Mode {
	case config.ModePostgres:
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parse database url: %w", err)
		}
		if cfg.Database.MaxConns > 0 {
			poolCfg.MaxConns = cfg.Database.MaxConns
		}
		poolCfg.MaxConnLifetime = cfg.Database.ConnLifetime

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect database: %w", err)
		}
		if err := store.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}

		exposures := ledger.NewPostgres(pool, logger)
		if err := exposures.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}

		signals := store.NewPostgres(pool, cfg.Database.Store, logger)
		return signals, exposures, pool.Close, nil

	case config.ModeStandalone:
		exposures, err := ledger.OpenBadger(cfg.Ledger.BadgerDir, cfg.Ledger.Retention, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup := func() {
			if err := exposures.Close(); err != nil {
				logger.Error().Err(err).Msg("close ledger")
			}
		}
		return store.NewMemory(), exposures, cleanup, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}
