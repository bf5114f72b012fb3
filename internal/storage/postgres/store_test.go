package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
)

var drawColumnNames = []string{"issue", "draw_date", "red", "red_reveal_order", "blue", "provenance", "created_at"}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	return newMockStoreWithPings(t, false)
}

func newMockStoreWithPings(t *testing.T, monitorPings bool) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	// pgxmock/v4 always monitors pings; it has no MonitorPingsOption.
	_ = monitorPings
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewWithPool(mock)
	require.NoError(t, err)
	return store, mock
}

func sampleDraw() lottery.DrawRecord {
	return lottery.DrawRecord{
		Issue:          "2025141",
		DrawDate:       time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC),
		Red:            []int{3, 8, 12, 19, 27, 33},
		RedRevealOrder: []int{19, 3, 33, 8, 27, 12},
		Blue:           9,
		Provenance:     "scraped:500-history",
	}
}

func TestInsertDraw(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		expect  func(pgxmock.PgxPoolIface, lottery.DrawRecord)
		wantErr error
		store   bool
	}{
		{
			name: "new issue",
			expect: func(m pgxmock.PgxPoolIface, r lottery.DrawRecord) {
				m.ExpectExec("INSERT INTO draws").
					WithArgs(r.Issue, r.DrawDate, r.Red, r.RedRevealOrder, r.Blue, r.Provenance).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "duplicate issue skipped by on conflict",
			expect: func(m pgxmock.PgxPoolIface, r lottery.DrawRecord) {
				m.ExpectExec("INSERT INTO draws").
					WithArgs(r.Issue, r.DrawDate, r.Red, r.RedRevealOrder, r.Blue, r.Provenance).
					WillReturnResult(pgxmock.NewResult("INSERT", 0))
			},
			wantErr: lottery.ErrConflict,
		},
		{
			name: "unique violation",
			expect: func(m pgxmock.PgxPoolIface, _ lottery.DrawRecord) {
				m.ExpectExec("INSERT INTO draws").
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: "23505"})
			},
			wantErr: lottery.ErrConflict,
		},
		{
			name: "connection failure",
			expect: func(m pgxmock.PgxPoolIface, _ lottery.DrawRecord) {
				m.ExpectExec("INSERT INTO draws").
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(errors.New("connection refused"))
			},
			store: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store, mock := newMockStore(t)
			rec := sampleDraw()
			tc.expect(mock, rec)

			err := store.Insert(context.Background(), rec)
			switch {
			case tc.wantErr != nil:
				require.ErrorIs(t, err, tc.wantErr)
			case tc.store:
				var storeErr *lottery.StoreError
				require.ErrorAs(t, err, &storeErr)
				require.Equal(t, "insert draw", storeErr.Op)
				require.NotErrorIs(t, err, lottery.ErrConflict)
			default:
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestExistsIssue(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM draws WHERE issue = $1)")).
		WithArgs("2025141").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM draws WHERE issue = $1)")).
		WithArgs("2025142").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	got, err := store.ExistsIssue(context.Background(), "2025141")
	require.NoError(t, err)
	require.True(t, got)

	got, err = store.ExistsIssue(context.Background(), "2025142")
	require.NoError(t, err)
	require.False(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsNumbersUsesCanonicalOrder(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE red = $1 AND blue = $2")).
		WithArgs([]int{3, 8, 12, 19, 27, 33}, 9).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	got, err := store.ExistsNumbers(context.Background(), []int{19, 3, 33, 8, 27, 12}, 9)
	require.NoError(t, err)
	require.True(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsNumbersWrapsFailure(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT EXISTS").WillReturnError(errors.New("timeout"))

	_, err := store.ExistsNumbers(context.Background(), []int{1, 2, 3, 4, 5, 6}, 7)
	var storeErr *lottery.StoreError
	require.ErrorAs(t, err, &storeErr)
	require.Equal(t, "exists numbers", storeErr.Op)
}

func TestListHistory(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	created := time.Date(2025, 10, 16, 22, 0, 0, 0, time.UTC)
	newer := sampleDraw()
	older := lottery.DrawRecord{
		Issue:          "2025140",
		DrawDate:       time.Date(2025, 10, 14, 0, 0, 0, 0, time.UTC),
		Red:            []int{1, 5, 11, 20, 22, 30},
		RedRevealOrder: []int{30, 1, 5, 22, 11, 20},
		Blue:           16,
		Provenance:     lottery.ProvenanceSynthetic,
	}
	rows := pgxmock.NewRows(drawColumnNames).
		AddRow(newer.Issue, newer.DrawDate, newer.Red, newer.RedRevealOrder, newer.Blue, newer.Provenance, created).
		AddRow(older.Issue, older.DrawDate, older.Red, older.RedRevealOrder, older.Blue, older.Provenance, created)
	mock.ExpectQuery(regexp.QuoteMeta("FROM draws ORDER BY issue DESC LIMIT $1 OFFSET $2")).
		WithArgs(20, 0).
		WillReturnRows(rows)

	got, err := store.ListHistory(context.Background(), 20, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "2025141", got[0].Issue)
	require.Equal(t, newer.RedRevealOrder, got[0].RedRevealOrder)
	require.Equal(t, lottery.ProvenanceSynthetic, got[1].Provenance)
	require.Equal(t, created, got[1].CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDraw(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	r := sampleDraw()
	mock.ExpectQuery(regexp.QuoteMeta("FROM draws WHERE issue = $1")).
		WithArgs(r.Issue).
		WillReturnRows(pgxmock.NewRows(drawColumnNames).
			AddRow(r.Issue, r.DrawDate, r.Red, r.RedRevealOrder, r.Blue, r.Provenance, time.Time{}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM draws WHERE issue = $1")).
		WithArgs("2099001").
		WillReturnError(pgx.ErrNoRows)

	got, err := store.GetDraw(context.Background(), r.Issue)
	require.NoError(t, err)
	require.Equal(t, r.Red, got.Red)

	_, err = store.GetDraw(context.Background(), "2099001")
	require.ErrorIs(t, err, lottery.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestIssue(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(issue), '') FROM draws")).
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow("2025141"))

	got, err := store.LatestIssue(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2025141", got)
}

func TestRecordAndListGenerations(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	combo := lottery.GeneratedCombination{
		ID:        "0192f0c4-7d7e-7a3c-9b1e-2f1c5d7e8a90",
		UserID:    "user-1",
		Red:       []int{2, 7, 14, 21, 28, 31},
		Blue:      5,
		Attempts:  1,
		CreatedAt: time.Date(2025, 10, 17, 8, 0, 0, 0, time.UTC),
	}
	mock.ExpectExec("INSERT INTO generated_combinations").
		WithArgs(combo.ID, combo.UserID, combo.Red, combo.Blue, combo.Attempts, combo.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("FROM generated_combinations").
		WithArgs("user-1", 10, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "red", "blue", "attempts", "created_at"}).
			AddRow(combo.ID, combo.UserID, combo.Red, combo.Blue, combo.Attempts, combo.CreatedAt))

	require.NoError(t, store.RecordGeneration(context.Background(), combo))

	got, err := store.ListGenerations(context.Background(), "user-1", 10, 0)
	require.NoError(t, err)
	require.Equal(t, []lottery.GeneratedCombination{combo}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordGenerationFailure(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO generated_combinations").WillReturnError(errors.New("disk full"))

	err := store.RecordGeneration(context.Background(), lottery.GeneratedCombination{ID: "x"})
	var storeErr *lottery.StoreError
	require.ErrorAs(t, err, &storeErr)
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS draws").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS draws_numbers_idx").WillReturnResult(pgxmock.NewResult("CREATE INDEX", 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS generated_combinations").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS generated_combinations_user_idx").WillReturnResult(pgxmock.NewResult("CREATE INDEX", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPingWithRetryRecovers(t *testing.T) {
	t.Parallel()

	store, mock := newMockStoreWithPings(t, true)
	mock.ExpectPing().WillReturnError(errors.New("starting up"))
	mock.ExpectPing()

	require.NoError(t, store.pingWithRetry(context.Background(), 3, zap.NewNop()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPingWithRetryGivesUp(t *testing.T) {
	t.Parallel()

	store, mock := newMockStoreWithPings(t, true)
	mock.ExpectPing().WillReturnError(errors.New("refused"))

	err := store.pingWithRetry(context.Background(), 0, zap.NewNop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "refused")
}

func TestConnectRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := Connect(context.Background(), Config{}, nil)
	require.Error(t, err)

	_, err = NewWithPool(nil)
	require.Error(t, err)
}
