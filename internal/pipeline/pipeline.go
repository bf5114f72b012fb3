// Package pipeline runs the ordered fallback chain of sources and extractors.
//
// Stages are tried in declared order. A stage succeeds when its fetch is ok and
// one of its extractors, tried in order, yields a draw; the first success ends
// the run. When every stage fails the synthetic backfill supplies the batch.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
	"github.com/ymkfssy/shuangse-sub001/internal/metrics"
)

// Stage outcomes recorded in the attempt trace.
const (
	OutcomeMatched  = "matched"
	OutcomeNoMatch  = "no_match"
	OutcomeCanceled = "canceled"
)

// Stage pairs one source with the extractors tried against its document.
type Stage struct {
	Name       string
	Source     lottery.Source
	Extractors []lottery.Extractor
}

// Backfill produces records when no stage succeeds.
type Backfill interface {
	Generate(ctx context.Context) []lottery.DrawRecord
}

// StageAttempt traces one stage of a run.
type StageAttempt struct {
	Stage      string        `json:"stage"`
	Outcome    string        `json:"outcome"`
	Extractor  string        `json:"extractor,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// Result is the batch produced by one run.
type Result struct {
	Records   []lottery.DrawRecord
	Synthetic bool
	// Stage names the stage that matched; empty for synthetic batches.
	Stage    string
	Attempts []StageAttempt
	// Canceled reports that ctx ended before a stage matched. Such a run
	// carries no records.
	Canceled bool
}

// Pipeline holds the configured stages.
type Pipeline struct {
	stages       []Stage
	fetcher      lottery.Fetcher
	backfill     Backfill
	stageTimeout time.Duration
	logger       *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBackfill sets the synthetic fallback. Without one an exhausted run
// returns an empty batch.
func WithBackfill(b Backfill) Option {
	return func(p *Pipeline) { p.backfill = b }
}

// WithStageTimeout bounds each stage attempt.
func WithStageTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.stageTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Pipeline over stages using fetcher.
func New(fetcher lottery.Fetcher, stages []Stage, opts ...Option) *Pipeline {
	p := &Pipeline{
		stages:  append([]Stage(nil), stages...),
		fetcher: fetcher,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("pipeline")
	return p
}

// Stages returns the configured stage names in order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run walks the stages and never returns an error. If ctx is canceled the
// remaining stages are recorded as canceled and the run ends without records;
// the backfill only fires after every stage has actually failed.
func (p *Pipeline) Run(ctx context.Context) Result {
	var res Result
	for _, stage := range p.stages {
		if ctx.Err() != nil {
			res.Attempts = append(res.Attempts, StageAttempt{Stage: stage.Name, Outcome: OutcomeCanceled})
			metrics.ObserveStage(stage.Name, OutcomeCanceled)
			continue
		}

		attempt, record, ok := p.tryStage(ctx, stage)
		res.Attempts = append(res.Attempts, attempt)
		metrics.ObserveStage(stage.Name, attempt.Outcome)
		if ok {
			res.Records = []lottery.DrawRecord{record}
			res.Stage = stage.Name
			p.logger.Info("stage matched",
				zap.String("stage", stage.Name),
				zap.String("extractor", attempt.Extractor),
				zap.String("issue", record.Issue),
			)
			return res
		}
		p.logger.Warn("stage failed, advancing",
			zap.String("stage", stage.Name),
			zap.String("outcome", attempt.Outcome),
			zap.String("error", attempt.Error),
		)
	}

	if ctx.Err() != nil {
		res.Canceled = true
		p.logger.Warn("run canceled before any stage matched, skipping synthetic fallback", zap.Error(ctx.Err()))
		return res
	}

	res.Synthetic = true
	if p.backfill == nil {
		p.logger.Error("all stages exhausted and synthetic fallback disabled")
		return res
	}
	res.Records = p.backfill.Generate(ctx)
	p.logger.Warn("all stages exhausted, using synthetic records", zap.Int("records", len(res.Records)))
	return res
}

func (p *Pipeline) tryStage(ctx context.Context, stage Stage) (StageAttempt, lottery.DrawRecord, bool) {
	start := time.Now()
	stageCtx := ctx
	if p.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, p.stageTimeout)
		defer cancel()
	}

	fetched := p.fetcher.Fetch(stageCtx, stage.Source)
	attempt := StageAttempt{
		Stage:      stage.Name,
		Outcome:    string(fetched.Outcome),
		StatusCode: fetched.StatusCode,
	}
	if fetched.Err != nil {
		attempt.Error = fetched.Err.Error()
	}
	if fetched.Outcome != lottery.OutcomeOK {
		attempt.Duration = time.Since(start)
		return attempt, lottery.DrawRecord{}, false
	}

	for _, ext := range stage.Extractors {
		found, ok := ext.Extract(fetched.Body)
		if !ok {
			continue
		}
		attempt.Outcome = OutcomeMatched
		attempt.Extractor = ext.Name()
		attempt.Duration = time.Since(start)
		return attempt, found.Record(lottery.ProvenanceScrapedPrefix + stage.Name), true
	}
	attempt.Outcome = OutcomeNoMatch
	attempt.Duration = time.Since(start)
	return attempt, lottery.DrawRecord{}, false
}
