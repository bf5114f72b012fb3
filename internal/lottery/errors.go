package lottery

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConflict signals an insert of an issue that already exists.
var ErrConflict = errors.New("draw issue already exists")

// ErrNotFound signals that the requested record does not exist.
var ErrNotFound = errors.New("draw not found")

// StoreError wraps an underlying persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// BoundsError rejects a generation count outside the permitted range.
type BoundsError struct {
	Count int
	Min   int
	Max   int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("count %d out of range [%d,%d]", e.Count, e.Min, e.Max)
}

// GenerationExhaustedError reports that combination Index (1-based) could not
// be produced within the retry budget. Partial holds combinations 1..Index-1.
type GenerationExhaustedError struct {
	Index    int
	Budget   int
	Partial  []GeneratedCombination
	Attempts []int
}

func (e *GenerationExhaustedError) Error() string {
	return fmt.Sprintf("combination %d not found after %d attempts", e.Index, e.Budget)
}

// ValidationError lists the invariants a record breaks.
type ValidationError struct {
	Issue    string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid draw %q: %s", e.Issue, strings.Join(e.Problems, "; "))
}
