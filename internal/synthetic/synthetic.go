// Package synthetic produces placeholder draws when every real source fails.
// Records are spaced at the draw cadence, walking back from the most recent
// draw day, and are tagged with synthetic provenance.
package synthetic

import (
	"context"

	"github.com/ymkfssy/shuangse-sub001/internal/generator"
	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
)

// DefaultCount is the number of records produced per run.
const DefaultCount = 30

// Generator builds a fixed-size backfill batch.
type Generator struct {
	count   int
	clock   lottery.Clock
	sampler generator.Sampler
}

// New creates a Generator. Count <= 0 uses DefaultCount; a nil sampler uses a
// randomly seeded one.
func New(count int, clock lottery.Clock, sampler generator.Sampler) *Generator {
	if count <= 0 {
		count = DefaultCount
	}
	if sampler == nil {
		sampler = generator.NewRandSampler(0)
	}
	return &Generator{count: count, clock: clock, sampler: sampler}
}

// Generate returns count records, newest first. It stops early only when ctx
// is canceled.
func (g *Generator) Generate(ctx context.Context) []lottery.DrawRecord {
	records := make([]lottery.DrawRecord, 0, g.count)
	day := lottery.PreviousDrawDay(g.clock.Now())
	for len(records) < g.count {
		if ctx.Err() != nil {
			break
		}
		reveal, blue := g.sampler.Sample()
		records = append(records, lottery.DrawRecord{
			Issue:          lottery.NominalIssue(day),
			DrawDate:       day,
			Red:            lottery.Canonical(reveal),
			RedRevealOrder: reveal,
			Blue:           blue,
			Provenance:     lottery.ProvenanceSynthetic,
		})
		day = lottery.PreviousDrawDay(day.AddDate(0, 0, -1))
	}
	return records
}
