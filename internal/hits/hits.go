package hits

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hejijunhao/candidates/internal/collect"
	"github.com/hejijunhao/candidates/internal/connector"
	"github.com/hejijunhao/candidates/internal/model"
)

// Thresholds are the inclusive minimum hit counts a family must reach.
type Thresholds struct {
	MinReviewed   int
	MinUnreviewed int
}

// DefaultThresholds returns 10 reviewed and 100 unreviewed.
func DefaultThresholds() Thresholds {
	return Thresholds{MinReviewed: 10, MinUnreviewed: 100}
}

// Filter counts reviewed and unreviewed hits for family identifiers and
// keeps the ones above both thresholds.
type Filter struct {
	source    connector.Source
	collector *collect.Collector
	th        Thresholds
	log       *zap.Logger
}

// New creates a Filter. A nil logger disables logging.
func New(src connector.Source, col *collect.Collector, th Thresholds, log *zap.Logger) *Filter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Filter{source: src, collector: col, th: th, log: log}
}

// Run executes the two counting stages. Unreviewed counts are requested only
// for identifiers that passed the reviewed threshold; the second stage sizes
// its worker pool for the smaller survivor set. The result is sorted by id.
func (f *Filter) Run(ctx context.Context, ids []string) ([]model.HitCounts, error) {
	f.log.Info("hits: counting reviewed records", zap.Int("identifiers", len(ids)))
	reviewed, err := collect.Run(ctx, f.collector, "reviewed", ids, f.count(true))
	if err != nil {
		return nil, fmt.Errorf("hits: reviewed stage: %w", err)
	}

	survivors := make([]string, 0, len(reviewed))
	for id, n := range reviewed {
		if n >= f.th.MinReviewed {
			survivors = append(survivors, id)
		}
	}
	sort.Strings(survivors)
	f.log.Info("hits: reviewed threshold applied",
		zap.Int("min_reviewed", f.th.MinReviewed),
		zap.Int("kept", len(survivors)),
		zap.Int("dropped", len(reviewed)-len(survivors)),
	)

	unreviewed, err := collect.Run(ctx, f.collector, "unreviewed", survivors, f.count(false))
	if err != nil {
		return nil, fmt.Errorf("hits: unreviewed stage: %w", err)
	}

	out := make([]model.HitCounts, 0, len(survivors))
	for _, id := range survivors {
		if n := unreviewed[id]; n >= f.th.MinUnreviewed {
			out = append(out, model.HitCounts{ID: id, Reviewed: reviewed[id], Unreviewed: n})
		}
	}
	f.log.Info("hits: unreviewed threshold applied",
		zap.Int("min_unreviewed", f.th.MinUnreviewed),
		zap.Int("kept", len(out)),
		zap.Int("dropped", len(survivors)-len(out)),
	)
	return out, nil
}

func (f *Filter) count(reviewed bool) collect.Task[int] {
	return func(ctx context.Context, w collect.Worker, id string) (int, error) {
		return f.source.CountHits(ctx, w.Log, id, reviewed)
	}
}
