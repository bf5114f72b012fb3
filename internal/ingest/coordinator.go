// Package ingest drives the fallback pipeline and persists new draws.
package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
	"github.com/ymkfssy/shuangse-sub001/internal/metrics"
	"github.com/ymkfssy/shuangse-sub001/internal/pipeline"
)

// Runner produces one batch of candidate records.
type Runner interface {
	Run(ctx context.Context) pipeline.Result
}

// Report is the summary of one ingestion run plus the stage trace.
type Report struct {
	lottery.IngestionSummary
	Attempts []pipeline.StageAttempt `json:"attempts"`
	// Canceled marks a run abandoned before any source matched; nothing was
	// written.
	Canceled bool `json:"canceled,omitempty"`
}

// Coordinator runs ingestion. Runs are serialized.
type Coordinator struct {
	runner Runner
	store  lottery.HistoryStore
	logger *zap.Logger
	mu     sync.Mutex
}

// NewCoordinator wires a Coordinator.
func NewCoordinator(runner Runner, store lottery.HistoryStore, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		runner: runner,
		store:  store,
		logger: logger.Named("ingest"),
	}
}

// RunIngestion fetches one batch and inserts every valid, unseen record.
// Per-record failures are counted and the batch continues; records already
// committed stay committed if ctx is canceled midway.
func (c *Coordinator) RunIngestion(ctx context.Context) Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	res := c.runner.Run(ctx)
	report := Report{
		IngestionSummary: lottery.IngestionSummary{
			TotalParsed: len(res.Records),
			Synthetic:   res.Synthetic,
			Stage:       res.Stage,
		},
		Attempts: res.Attempts,
		Canceled: res.Canceled,
	}

	if res.Canceled {
		report.TotalParsed = 0
		c.logger.Warn("ingestion canceled before any source matched", zap.Duration("duration", time.Since(start)))
		return report
	}

	records := res.Records
	if res.Synthetic {
		records = c.belowLatest(ctx, records, &report.IngestionSummary)
	}
	for _, rec := range records {
		c.persist(ctx, rec, &report.IngestionSummary)
	}

	metrics.ObserveIngestion(report.Synthetic, report.NewRecords, report.Duplicates, report.Invalid, report.Failures)
	c.logger.Info("ingestion finished",
		zap.Int("total_parsed", report.TotalParsed),
		zap.Int("new_records", report.NewRecords),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("invalid", report.Invalid),
		zap.Int("failures", report.Failures),
		zap.Int("skipped", report.Skipped),
		zap.Bool("synthetic", report.Synthetic),
		zap.String("stage", report.Stage),
		zap.Duration("duration", time.Since(start)),
	)
	return report
}

// belowLatest drops synthetic records at or above the newest stored issue.
// Synthetic issue numbers follow the plain weekday calendar, so above that
// point they could take a number a real draw will need later.
func (c *Coordinator) belowLatest(ctx context.Context, records []lottery.DrawRecord, sum *lottery.IngestionSummary) []lottery.DrawRecord {
	if len(records) == 0 {
		return records
	}
	latest, err := c.store.LatestIssue(ctx)
	if err != nil {
		sum.Failures += len(records)
		c.logger.Error("latest issue lookup failed, dropping synthetic batch", zap.Error(err))
		return nil
	}
	if latest == "" {
		return records
	}
	kept := make([]lottery.DrawRecord, 0, len(records))
	for _, rec := range records {
		if rec.Issue >= latest {
			sum.Skipped++
			continue
		}
		kept = append(kept, rec)
	}
	if sum.Skipped > 0 {
		c.logger.Info("skipped synthetic records at or above latest issue",
			zap.String("latest_issue", latest),
			zap.Int("skipped", sum.Skipped),
		)
	}
	return kept
}

func (c *Coordinator) persist(ctx context.Context, rec lottery.DrawRecord, sum *lottery.IngestionSummary) {
	if err := lottery.Validate(rec); err != nil {
		sum.Invalid++
		c.logger.Warn("discarding invalid record", zap.String("issue", rec.Issue), zap.Error(err))
		return
	}

	exists, err := c.store.ExistsIssue(ctx, rec.Issue)
	if err != nil {
		sum.Failures++
		c.logger.Error("issue lookup failed", zap.String("issue", rec.Issue), zap.Error(err))
		return
	}
	if exists {
		sum.Duplicates++
		return
	}

	err = c.store.Insert(ctx, rec)
	switch {
	case err == nil:
		sum.NewRecords++
	case errors.Is(err, lottery.ErrConflict):
		sum.Duplicates++
	default:
		sum.Failures++
		c.logger.Error("insert failed", zap.String("issue", rec.Issue), zap.Error(err))
	}
}
