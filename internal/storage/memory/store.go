// Package memory provides in-memory stores for development and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
)

// Store implements lottery.HistoryStore and lottery.GenerationLog in memory.
type Store struct {
	mu          sync.RWMutex
	draws       map[string]lottery.DrawRecord
	numbers     map[string]struct{}
	generations map[string][]lottery.GeneratedCombination
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		draws:       make(map[string]lottery.DrawRecord),
		numbers:     make(map[string]struct{}),
		generations: make(map[string][]lottery.GeneratedCombination),
	}
}

func numbersKey(red []int, blue int) string {
	parts := make([]string, 0, len(red)+1)
	for _, n := range lottery.Canonical(red) {
		parts = append(parts, fmt.Sprint(n))
	}
	return strings.Join(parts, ",") + "+" + fmt.Sprint(blue)
}

// ExistsIssue reports whether issue is stored.
func (s *Store) ExistsIssue(_ context.Context, issue string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.draws[issue]
	return ok, nil
}

// ExistsNumbers reports whether a stored draw has exactly these numbers.
func (s *Store) ExistsNumbers(_ context.Context, red []int, blue int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.numbers[numbersKey(red, blue)]
	return ok, nil
}

// Insert stores a draw, returning lottery.ErrConflict for a known issue.
func (s *Store) Insert(_ context.Context, r lottery.DrawRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.draws[r.Issue]; exists {
		return lottery.ErrConflict
	}
	r.Red = slices.Clone(r.Red)
	r.RedRevealOrder = slices.Clone(r.RedRevealOrder)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.draws[r.Issue] = r
	s.numbers[numbersKey(r.Red, r.Blue)] = struct{}{}
	return nil
}

// ListHistory returns draws newest issue first.
func (s *Store) ListHistory(_ context.Context, limit, offset int) ([]lottery.DrawRecord, error) {
	s.mu.RLock()
	all := make([]lottery.DrawRecord, 0, len(s.draws))
	for _, r := range s.draws {
		all = append(all, r)
	}
	s.mu.RUnlock()

	slices.SortFunc(all, func(a, b lottery.DrawRecord) int {
		return strings.Compare(b.Issue, a.Issue)
	})
	page := paginate(all, limit, offset)
	out := make([]lottery.DrawRecord, len(page))
	for i, r := range page {
		r.Red = slices.Clone(r.Red)
		r.RedRevealOrder = slices.Clone(r.RedRevealOrder)
		out[i] = r
	}
	return out, nil
}

// GetDraw returns one draw or lottery.ErrNotFound.
func (s *Store) GetDraw(_ context.Context, issue string) (lottery.DrawRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.draws[issue]
	if !ok {
		return lottery.DrawRecord{}, lottery.ErrNotFound
	}
	r.Red = slices.Clone(r.Red)
	r.RedRevealOrder = slices.Clone(r.RedRevealOrder)
	return r, nil
}

// LatestIssue returns the greatest stored issue or "".
func (s *Store) LatestIssue(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := ""
	for issue := range s.draws {
		if issue > latest {
			latest = issue
		}
	}
	return latest, nil
}

// RecordGeneration appends a combination to the user's log.
func (s *Store) RecordGeneration(_ context.Context, c lottery.GeneratedCombination) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Red = slices.Clone(c.Red)
	s.generations[c.UserID] = append(s.generations[c.UserID], c)
	return nil
}

// ListGenerations returns the user's combinations, most recent first.
func (s *Store) ListGenerations(_ context.Context, userID string, limit, offset int) ([]lottery.GeneratedCombination, error) {
	s.mu.RLock()
	logged := s.generations[userID]
	all := make([]lottery.GeneratedCombination, len(logged))
	for i, c := range logged {
		// Newest appended last.
		c.Red = slices.Clone(c.Red)
		all[len(logged)-1-i] = c
	}
	s.mu.RUnlock()
	return paginate(all, limit, offset), nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
