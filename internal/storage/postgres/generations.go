package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
)

// RecordGeneration appends one generated combination to the log.
func (s *Store) RecordGeneration(ctx context.Context, c lottery.GeneratedCombination) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO generated_combinations (id, user_id, red, blue, attempts, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.UserID, c.Red, c.Blue, c.Attempts, c.CreatedAt,
	)
	if err != nil {
		return &lottery.StoreError{Op: "record generation", Err: err}
	}
	return nil
}

// ListGenerations returns a user's combinations, most recent first.
func (s *Store) ListGenerations(ctx context.Context, userID string, limit, offset int) ([]lottery.GeneratedCombination, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id::text, user_id, red, blue, attempts, created_at
FROM generated_combinations
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, &lottery.StoreError{Op: "list generations", Err: err}
	}
	combos, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (lottery.GeneratedCombination, error) {
		var c lottery.GeneratedCombination
		err := row.Scan(&c.ID, &c.UserID, &c.Red, &c.Blue, &c.Attempts, &c.CreatedAt)
		return c, err
	})
	if err != nil {
		return nil, &lottery.StoreError{Op: "list generations", Err: err}
	}
	return combos, nil
}
