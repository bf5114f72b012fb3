package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
)

const uniqueViolation = "23505"

const drawColumns = `issue, draw_date, red, red_reveal_order, blue, provenance, created_at`

// ExistsIssue reports whether a draw with the issue is stored.
func (s *Store) ExistsIssue(ctx context.Context, issue string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM draws WHERE issue = $1)`, issue).Scan(&exists)
	if err != nil {
		return false, &lottery.StoreError{Op: "exists issue", Err: err}
	}
	return exists, nil
}

// ExistsNumbers reports whether any stored draw has exactly these numbers.
// red may be in any order.
func (s *Store) ExistsNumbers(ctx context.Context, red []int, blue int) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM draws WHERE red = $1 AND blue = $2)`,
		lottery.Canonical(red), blue,
	).Scan(&exists)
	if err != nil {
		return false, &lottery.StoreError{Op: "exists numbers", Err: err}
	}
	return exists, nil
}

// Insert stores one draw. A duplicate issue returns lottery.ErrConflict.
func (s *Store) Insert(ctx context.Context, r lottery.DrawRecord) error {
	tag, err := s.pool.Exec(ctx, `
INSERT INTO draws (issue, draw_date, red, red_reveal_order, blue, provenance)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (issue) DO NOTHING`,
		r.Issue, r.DrawDate, r.Red, r.RedRevealOrder, r.Blue, r.Provenance,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return lottery.ErrConflict
		}
		return &lottery.StoreError{Op: "insert draw", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return lottery.ErrConflict
	}
	return nil
}

// ListHistory returns draws newest issue first.
func (s *Store) ListHistory(ctx context.Context, limit, offset int) ([]lottery.DrawRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+drawColumns+` FROM draws ORDER BY issue DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, &lottery.StoreError{Op: "list history", Err: err}
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (lottery.DrawRecord, error) {
		return scanDraw(row)
	})
	if err != nil {
		return nil, &lottery.StoreError{Op: "list history", Err: err}
	}
	return records, nil
}

// GetDraw returns one draw or lottery.ErrNotFound.
func (s *Store) GetDraw(ctx context.Context, issue string) (lottery.DrawRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+drawColumns+` FROM draws WHERE issue = $1`, issue)
	r, err := scanDraw(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return lottery.DrawRecord{}, lottery.ErrNotFound
	}
	if err != nil {
		return lottery.DrawRecord{}, &lottery.StoreError{Op: "get draw", Err: err}
	}
	return r, nil
}

// LatestIssue returns the greatest stored issue, or "" when the table is empty.
func (s *Store) LatestIssue(ctx context.Context) (string, error) {
	var issue string
	if err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(issue), '') FROM draws`).Scan(&issue); err != nil {
		return "", &lottery.StoreError{Op: "latest issue", Err: err}
	}
	return issue, nil
}

func scanDraw(row pgx.Row) (lottery.DrawRecord, error) {
	var r lottery.DrawRecord
	err := row.Scan(&r.Issue, &r.DrawDate, &r.Red, &r.RedRevealOrder, &r.Blue, &r.Provenance, &r.CreatedAt)
	return r, err
}
