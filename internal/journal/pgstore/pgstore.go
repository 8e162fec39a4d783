// Copyright (c) 2025 s2klaunch
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package pgstore stores launch journal entries in PostgreSQL over a pgx pool.
package pgstore

import (
	"context"
	"fmt"

	"s2klaunch/cli/internal/journal"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS launch_journal (
	cycle_id    uuid        NOT NULL,
	recorded_at timestamptz NOT NULL,
	mode        text        NOT NULL,
	strategy    text        NOT NULL,
	host        text        NOT NULL DEFAULT '',
	outcome     text        NOT NULL,
	kind        text        NOT NULL DEFAULT '',
	reason      text        NOT NULL DEFAULT '',
	version     text        NOT NULL DEFAULT '',
	elapsed_ms  bigint      NOT NULL,
	relaunch    boolean     NOT NULL DEFAULT false
)`

const insert = `
INSERT INTO launch_journal
	(cycle_id, recorded_at, mode, strategy, host, outcome, kind, reason, version, elapsed_ms, relaunch)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Store implements journal.Recorder.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, verifies the connection, and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the launch_journal table if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create launch_journal: %w", err)
	}
	return nil
}

// Record inserts one entry.
func (s *Store) Record(ctx context.Context, e journal.Entry) error {
	_, err := s.pool.Exec(ctx, insert, Args(e)...)
	if err != nil {
		return fmt.Errorf("record launch %s: %w", e.CycleID, err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Args returns the INSERT arguments for e in column order.
func Args(e journal.Entry) []any {
	return []any{
		e.CycleID.String(),
		e.At.UTC(),
		e.Mode,
		e.Strategy,
		e.Host,
		string(e.Outcome),
		e.Kind,
		e.Reason,
		e.Version,
		e.Elapsed.Milliseconds(),
		e.Relaunch,
	}
}
