// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package postgres implements store.ContentStore against a PostgreSQL
// table, for nodes that want their content store to survive a restart.
package postgres

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fractalide/copernica/internal/metrics"
)

// schema is applied once by EnsureSchema; callers that manage their own
// migrations may skip calling it.
const schema = `
CREATE TABLE IF NOT EXISTS copernica_content (
	fingerprint bytea PRIMARY KEY,
	response    bytea NOT NULL,
	stored_at   timestamptz NOT NULL DEFAULT now()
)`

// Config holds PostgreSQL connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// Store is a pgxpool-backed store.ContentStore.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore opens a connection pool and pings it before returning.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// EnsureSchema creates the copernica_content table if it does not already
// exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Get returns the bytes stored under fingerprint, if any.
func (s *Store) Get(ctx context.Context, fingerprint [16]byte) ([]byte, bool, error) {
	start := time.Now()
	var response []byte
	err := s.pool.QueryRow(ctx,
		`SELECT response FROM copernica_content WHERE fingerprint = $1`,
		fingerprint[:],
	).Scan(&response)
	metrics.StoreOperationDuration.WithLabelValues("get", "postgres").Observe(time.Since(start).Seconds())
	if err == pgx.ErrNoRows {
		metrics.StoreOperations.WithLabelValues("get", "miss", "postgres").Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.StoreOperations.WithLabelValues("get", "error", "postgres").Inc()
		return nil, false, fmt.Errorf("postgres: get %s: %w", hex.EncodeToString(fingerprint[:]), err)
	}
	metrics.StoreOperations.WithLabelValues("get", "hit", "postgres").Inc()
	return response, true, nil
}

// Put stores response under fingerprint, overwriting any prior value.
func (s *Store) Put(ctx context.Context, fingerprint [16]byte, response []byte) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO copernica_content (fingerprint, response, stored_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (fingerprint) DO UPDATE SET response = EXCLUDED.response, stored_at = now()`,
		fingerprint[:], response,
	)
	metrics.StoreOperationDuration.WithLabelValues("put", "postgres").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreOperations.WithLabelValues("put", "error", "postgres").Inc()
		return fmt.Errorf("postgres: put %s: %w", hex.EncodeToString(fingerprint[:]), err)
	}
	metrics.StoreOperations.WithLabelValues("put", "ok", "postgres").Inc()
	return nil
}
