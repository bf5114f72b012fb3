package lottery

import (
	"context"
	"time"
)

// HistoryStore persists historical draws. Inserts are per record.
type HistoryStore interface {
	ExistsIssue(ctx context.Context, issue string) (bool, error)
	ExistsNumbers(ctx context.Context, red []int, blue int) (bool, error)
	Insert(ctx context.Context, record DrawRecord) error
	ListHistory(ctx context.Context, limit, offset int) ([]DrawRecord, error)
	GetDraw(ctx context.Context, issue string) (DrawRecord, error)
	LatestIssue(ctx context.Context) (string, error)
}

// GenerationLog persists generated combinations for audit and history display.
type GenerationLog interface {
	RecordGeneration(ctx context.Context, combo GeneratedCombination) error
	ListGenerations(ctx context.Context, userID string, limit, offset int) ([]GeneratedCombination, error)
}

// Fetcher retrieves raw documents from a source.
type Fetcher interface {
	Fetch(ctx context.Context, source Source) FetchResult
}

// Extractor turns a raw document into at most one draw.
type Extractor interface {
	Name() string
	Extract(doc []byte) (ExtractionResult, bool)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces identifiers for generated combinations.
type IDGenerator interface {
	NewID() (string, error)
}
