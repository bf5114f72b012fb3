package postgres

import (
	"context"
	"fmt"
)

// Uniqueness is enforced on issue only. Generated combinations carry no
// uniqueness constraint on their numbers.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS draws (
	issue            TEXT PRIMARY KEY CHECK (issue ~ '^[0-9]{7}$'),
	draw_date        DATE NOT NULL,
	red              INTEGER[] NOT NULL,
	red_reveal_order INTEGER[] NOT NULL,
	blue             INTEGER NOT NULL CHECK (blue BETWEEN 1 AND 16),
	provenance       TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS draws_numbers_idx ON draws (red, blue)`,
	`CREATE TABLE IF NOT EXISTS generated_combinations (
	id         UUID PRIMARY KEY,
	user_id    TEXT NOT NULL,
	red        INTEGER[] NOT NULL,
	blue       INTEGER NOT NULL,
	attempts   INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS generated_combinations_user_idx
	ON generated_combinations (user_id, created_at DESC)`,
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
