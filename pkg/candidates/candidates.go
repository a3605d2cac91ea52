package candidates

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hejijunhao/candidates/internal/collect"
	"github.com/hejijunhao/candidates/internal/connector"
	"github.com/hejijunhao/candidates/internal/engine"
	"github.com/hejijunhao/candidates/internal/hits"
	"github.com/hejijunhao/candidates/internal/model"
	"github.com/hejijunhao/candidates/internal/pipeline"

	// Register the proteins API source.
	_ "github.com/hejijunhao/candidates/internal/connector/proteins"
)

// Client counts hits and builds consistency reports against the remote
// proteins API.
type Client struct {
	source    connector.Source
	collector *collect.Collector
	filter    *hits.Filter
	engine    *engine.Engine
}

// New validates the options and opens the remote source. No request is made
// until CountHits or Reports is called.
func New(opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("candidates: %w", err)
	}
	src, err := pipeline.OpenSource(o.cfg)
	if err != nil {
		return nil, fmt.Errorf("candidates: %w", err)
	}

	col := collect.New(o.log,
		collect.WithWorkerCap(o.cfg.Collect.WorkerCap),
		collect.WithReportEvery(o.cfg.Collect.ReportEvery),
	)
	th := hits.Thresholds{
		MinReviewed:   o.cfg.Filter.MinReviewed,
		MinUnreviewed: o.cfg.Filter.MinUnreviewed,
	}
	return &Client{
		source:    src,
		collector: col,
		filter:    hits.New(src, col, th, o.log),
		engine:    engine.New(o.log),
	}, nil
}

// CountHits returns the families meeting both thresholds, sorted by ID.
func (c *Client) CountHits(ctx context.Context, ids []string) ([]Hits, error) {
	counts, err := c.filter.Run(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Hits, len(counts))
	for i, h := range counts {
		out[i] = hitsFromModel(h)
	}
	return out, nil
}

// Reports fetches the reviewed entries of every family and returns their
// consistency reports, sorted by ID. Unreviewed counts are carried over from
// the input.
func (c *Client) Reports(ctx context.Context, in []Hits) ([]Report, error) {
	byID := make(map[string]model.HitCounts, len(in))
	ids := make([]string, 0, len(in))
	for _, h := range in {
		if _, ok := byID[h.ID]; ok {
			continue
		}
		byID[h.ID] = h.counts()
		ids = append(ids, h.ID)
	}

	blocks, err := collect.Run(ctx, c.collector, "records", ids, pipeline.RecordTask(c.source, c.engine, byID))
	if err != nil {
		return nil, err
	}

	sort.Strings(ids)
	out := make([]Report, 0, len(ids))
	for _, id := range ids {
		out = append(out, reportFromBlock(blocks[id]))
	}
	return out, nil
}

// Analyze builds the consistency report of one family from records already
// in memory, each the JSON object served by the proteins API. A record with
// an unexpected shape fails the whole call.
func Analyze(id string, records [][]byte) (Report, error) {
	raws := make([]model.RawRecord, len(records))
	for i, r := range records {
		raws[i] = r
	}
	b, err := engine.New(zap.NewNop()).Process(model.HitCounts{ID: id}, raws)
	if err != nil {
		return Report{}, err
	}
	return reportFromBlock(b), nil
}
