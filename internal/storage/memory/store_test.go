package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
)

func draw(issue string, blue int, reveal ...int) lottery.DrawRecord {
	return lottery.DrawRecord{
		Issue:          issue,
		DrawDate:       time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC),
		Red:            lottery.Canonical(reveal),
		RedRevealOrder: reveal,
		Blue:           blue,
		Provenance:     "scraped:test",
	}
}

func TestStoreDrawLifecycle(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	rec := draw("2025141", 9, 19, 3, 33, 8, 27, 12)

	require.NoError(t, store.Insert(ctx, rec))
	require.ErrorIs(t, store.Insert(ctx, rec), lottery.ErrConflict)

	exists, err := store.ExistsIssue(ctx, "2025141")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = store.ExistsNumbers(ctx, []int{33, 27, 19, 12, 8, 3}, 9)
	require.NoError(t, err)
	require.True(t, exists, "number lookup ignores order")

	exists, err = store.ExistsNumbers(ctx, []int{3, 8, 12, 19, 27, 33}, 10)
	require.NoError(t, err)
	require.False(t, exists)

	got, err := store.GetDraw(ctx, "2025141")
	require.NoError(t, err)
	require.False(t, got.CreatedAt.IsZero())
	got.Red[0] = 99
	again, _ := store.GetDraw(ctx, "2025141")
	require.Equal(t, 3, again.Red[0], "GetDraw must return a copy")

	_, err = store.GetDraw(ctx, "2025001")
	require.ErrorIs(t, err, lottery.ErrNotFound)
}

func TestStoreListHistoryNewestFirst(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	for _, issue := range []string{"2025139", "2025141", "2025140"} {
		require.NoError(t, store.Insert(ctx, draw(issue, 1, 1, 2, 3, 4, 5, 6)))
	}

	testCases := []struct {
		name          string
		limit, offset int
		want          []string
	}{
		{"all", 10, 0, []string{"2025141", "2025140", "2025139"}},
		{"limited", 2, 0, []string{"2025141", "2025140"}},
		{"offset", 2, 2, []string{"2025139"}},
		{"past end", 5, 9, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := store.ListHistory(ctx, tc.limit, tc.offset)
			require.NoError(t, err)
			issues := make([]string, 0, len(got))
			for _, r := range got {
				issues = append(issues, r.Issue)
			}
			if tc.want == nil {
				require.Empty(t, issues)
				return
			}
			require.Equal(t, tc.want, issues)
		})
	}

	latest, err := store.LatestIssue(ctx)
	require.NoError(t, err)
	require.Equal(t, "2025141", latest)
}

func TestStoreLatestIssueEmpty(t *testing.T) {
	t.Parallel()

	latest, err := NewStore().LatestIssue(context.Background())
	require.NoError(t, err)
	require.Empty(t, latest)
}

func TestStoreGenerations(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.RecordGeneration(ctx, lottery.GeneratedCombination{
			ID:       id,
			UserID:   "user-1",
			Red:      []int{1, 2, 3, 4, 5, 6 + i},
			Blue:     1,
			Attempts: 1,
		}))
	}
	require.NoError(t, store.RecordGeneration(ctx, lottery.GeneratedCombination{ID: "z", UserID: "user-2"}))

	got, err := store.ListGenerations(ctx, "user-1", 2, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "c", got[0].ID)
	require.Equal(t, "b", got[1].ID)

	got, err = store.ListGenerations(ctx, "nobody", 10, 0)
	require.NoError(t, err)
	require.Empty(t, got)
}
