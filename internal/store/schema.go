// Pulse - Social Feed Assembly Engine
// Copyright 2026 Pulse Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseapp/feedengine

package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema holds the signal tables the store reads. The platform's CRUD
// services own these tables in production; the DDL here exists so a
// standalone Postgres can be bootstrapped for development.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS follows (
		follower_id TEXT NOT NULL,
		followee_id TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (follower_id, followee_id)
	)`,
	`CREATE TABLE IF NOT EXISTS blocks (
		blocker_id TEXT NOT NULL,
		blocked_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (blocker_id, blocked_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_interests (
		user_id TEXT NOT NULL,
		tag     TEXT NOT NULL,
		weight  DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (user_id, tag)
	)`,
	`CREATE TABLE IF NOT EXISTS user_locations (
		user_id TEXT PRIMARY KEY,
		bucket  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS author_interactions (
		user_id           TEXT NOT NULL,
		author_id         TEXT NOT NULL,
		interaction_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, author_id)
	)`,
	`CREATE TABLE IF NOT EXISTS content_items (
		id         TEXT PRIMARY KEY,
		author_id  TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		tags       TEXT[] NOT NULL DEFAULT '{}',
		likes      INTEGER NOT NULL DEFAULT 0,
		comments   INTEGER NOT NULL DEFAULT 0,
		saves      INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS content_items_author_created
		ON content_items (author_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS sponsored_items (
		id                       TEXT PRIMARY KEY,
		created_at               TIMESTAMPTZ,
		tags                     TEXT[] NOT NULL DEFAULT '{}',
		likes                    INTEGER NOT NULL DEFAULT 0,
		comments                 INTEGER NOT NULL DEFAULT 0,
		saves                    INTEGER NOT NULL DEFAULT 0,
		max_impressions_per_user INTEGER NOT NULL DEFAULT 0,
		frequency_cap_hours      INTEGER NOT NULL DEFAULT 0,
		start_date               TIMESTAMPTZ,
		end_date                 TIMESTAMPTZ,
		daily_budget             DOUBLE PRECISION NOT NULL DEFAULT 0,
		priority                 INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id             TEXT PRIMARY KEY,
		username       TEXT NOT NULL,
		display_name   TEXT NOT NULL DEFAULT '',
		avatar_url     TEXT NOT NULL DEFAULT '',
		bio            TEXT NOT NULL DEFAULT '',
		follower_count INTEGER NOT NULL DEFAULT 0
	)`,
}

// EnsureSchema creates the signal tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure signal schema: %w", err)
		}
	}
	return nil
}
