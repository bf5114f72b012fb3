// Package generator produces random combinations that do not repeat any
// historical draw.
package generator

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
	"github.com/ymkfssy/shuangse-sub001/internal/metrics"
)

// CountLimit is the largest count a single request may ask for.
const CountLimit = 10

// Defaults for Config.
const (
	DefaultMaxAttempts = 1000
	DefaultMaxCount    = CountLimit
)

// NumberChecker reports whether a combination is already in history.
type NumberChecker interface {
	ExistsNumbers(ctx context.Context, red []int, blue int) (bool, error)
}

// Config bounds a generate request. MaxCount may lower CountLimit, never raise it.
type Config struct {
	MaxAttempts int
	MaxCount    int
}

// Generator draws combinations. The history check and the log write are not
// atomic, so two concurrent requests may both return the same unseen
// combination.
type Generator struct {
	cfg     Config
	history NumberChecker
	log     lottery.GenerationLog
	sampler Sampler
	clock   lottery.Clock
	ids     lottery.IDGenerator
	logger  *zap.Logger
}

// New wires a Generator. A nil log disables persistence.
func New(
	cfg Config,
	history NumberChecker,
	log lottery.GenerationLog,
	sampler Sampler,
	clock lottery.Clock,
	ids lottery.IDGenerator,
	logger *zap.Logger,
) *Generator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.MaxCount <= 0 || cfg.MaxCount > CountLimit {
		cfg.MaxCount = DefaultMaxCount
	}
	if sampler == nil {
		sampler = NewRandSampler(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		cfg:     cfg,
		history: history,
		log:     log,
		sampler: sampler,
		clock:   clock,
		ids:     ids,
		logger:  logger.Named("generator"),
	}
}

// Generate returns exactly count combinations for userID.
//
// A count outside [1, MaxCount] returns *lottery.BoundsError before any work.
// If one combination cannot be found within the attempt budget the request
// fails with *lottery.GenerationExhaustedError carrying the earlier ones.
// Failed log writes are reported in Generation.Warnings.
func (g *Generator) Generate(ctx context.Context, userID string, count int) (lottery.Generation, error) {
	if count < 1 || count > g.cfg.MaxCount {
		metrics.ObserveGeneration("bounds")
		return lottery.Generation{}, &lottery.BoundsError{Count: count, Min: 1, Max: g.cfg.MaxCount}
	}

	out := lottery.Generation{
		Combinations: make([]lottery.GeneratedCombination, 0, count),
		Attempts:     make([]int, 0, count),
	}
	for i := 1; i <= count; i++ {
		red, blue, attempts, err := g.drawUnique(ctx, out.Combinations)
		if err != nil {
			metrics.ObserveGeneration("error")
			return out, err
		}
		if red == nil {
			metrics.ObserveGeneration("exhausted")
			g.logger.Warn("retry budget exhausted",
				zap.String("user_id", userID),
				zap.Int("index", i),
				zap.Int("budget", g.cfg.MaxAttempts),
			)
			return out, &lottery.GenerationExhaustedError{
				Index:    i,
				Budget:   g.cfg.MaxAttempts,
				Partial:  out.Combinations,
				Attempts: out.Attempts,
			}
		}
		metrics.ObserveGenerationAttempts(attempts)

		combo, err := g.newCombination(userID, red, blue, attempts)
		if err != nil {
			metrics.ObserveGeneration("error")
			return out, err
		}
		if warning := g.record(ctx, combo); warning != "" {
			out.Warnings = append(out.Warnings, warning)
		}
		out.Combinations = append(out.Combinations, combo)
		out.Attempts = append(out.Attempts, attempts)
	}
	metrics.ObserveGeneration("ok")
	return out, nil
}

// drawUnique samples until a combination absent from history and from accepted
// is found. A nil red means the budget ran out.
func (g *Generator) drawUnique(
	ctx context.Context,
	accepted []lottery.GeneratedCombination,
) ([]int, int, int, error) {
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, attempt, fmt.Errorf("generate canceled: %w", err)
		}
		reveal, blue := g.sampler.Sample()
		red := lottery.Canonical(reveal)
		if repeats(accepted, red, blue) {
			continue
		}
		exists, err := g.history.ExistsNumbers(ctx, red, blue)
		if err != nil {
			return nil, 0, attempt, fmt.Errorf("check history: %w", err)
		}
		if !exists {
			return red, blue, attempt, nil
		}
	}
	return nil, 0, g.cfg.MaxAttempts, nil
}

func repeats(accepted []lottery.GeneratedCombination, red []int, blue int) bool {
	for _, c := range accepted {
		if c.Blue == blue && slices.Equal(c.Red, red) {
			return true
		}
	}
	return false
}

func (g *Generator) newCombination(userID string, red []int, blue, attempts int) (lottery.GeneratedCombination, error) {
	id, err := g.ids.NewID()
	if err != nil {
		return lottery.GeneratedCombination{}, fmt.Errorf("generate id: %w", err)
	}
	return lottery.GeneratedCombination{
		ID:        id,
		UserID:    userID,
		Red:       red,
		Blue:      blue,
		Attempts:  attempts,
		CreatedAt: g.clock.Now().UTC(),
	}, nil
}

// record persists best-effort and returns a warning on failure.
func (g *Generator) record(ctx context.Context, combo lottery.GeneratedCombination) string {
	if g.log == nil {
		return ""
	}
	if err := g.log.RecordGeneration(ctx, combo); err != nil {
		metrics.IncGenerationPersistFailures()
		g.logger.Warn("failed to record generated combination",
			zap.String("id", combo.ID),
			zap.String("user_id", combo.UserID),
			zap.Error(err),
		)
		return fmt.Sprintf("combination %s was not saved: %v", combo.ID, err)
	}
	return ""
}
