package pipeline

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hejijunhao/candidates/internal/collect"
	"github.com/hejijunhao/candidates/internal/config"
	"github.com/hejijunhao/candidates/internal/connector"
	"github.com/hejijunhao/candidates/internal/connector/httpclient"
	"github.com/hejijunhao/candidates/internal/engine"
	"github.com/hejijunhao/candidates/internal/engine/dedup"
	"github.com/hejijunhao/candidates/internal/hits"
	"github.com/hejijunhao/candidates/internal/interpro"
	"github.com/hejijunhao/candidates/internal/model"
	"github.com/hejijunhao/candidates/internal/output"
	"github.com/hejijunhao/candidates/internal/output/file"
	"github.com/hejijunhao/candidates/internal/unirule"
)

// Runner is the context of one curation run: configuration, logger, remote
// source, collector and engine. Nothing is held in package state.
type Runner struct {
	cfg       config.Config
	log       *zap.Logger
	runID     string
	source    connector.Source
	collector *collect.Collector
	engine    *engine.Engine
	now       func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithSource replaces the registry-resolved source.
func WithSource(src connector.Source) Option {
	return func(r *Runner) { r.source = src }
}

// WithRunID sets the run identifier instead of a random UUID.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// WithClock replaces time.Now for elapsed-time reporting.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New validates cfg and builds a Runner. Unless WithSource is given, the
// source is opened from the connector registry with cfg.Source and cfg.Retry.
func New(cfg config.Config, log *zap.Logger, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runner{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	r.log = log.With(zap.String("run", r.runID))

	if r.source == nil {
		src, err := OpenSource(cfg)
		if err != nil {
			return nil, err
		}
		r.source = src
	}

	r.collector = collect.New(r.log,
		collect.WithWorkerCap(cfg.Collect.WorkerCap),
		collect.WithReportEvery(cfg.Collect.ReportEvery),
	)
	r.engine = engine.New(r.log)
	return r, nil
}

// OpenSource opens the registered source named by cfg.Source, wrapped in the
// retry policy of cfg.Retry.
func OpenSource(cfg config.Config) (connector.Source, error) {
	backoff, err := httpclient.ParseBackoff(cfg.Retry.Backoff, cfg.Retry.Unit)
	if err != nil {
		return nil, err
	}
	return connector.Open(connector.SourceConfig{
		Provider:  cfg.Source.Provider,
		BaseURL:   cfg.Source.BaseURL,
		Timeout:   cfg.Source.Timeout,
		MaxTries:  cfg.Retry.MaxTries,
		Backoff:   backoff,
		RateLimit: cfg.Source.RateLimit,
		Burst:     cfg.Source.Burst,
	})
}

// RunID returns the identifier attached to every log line of this run.
func (r *Runner) RunID() string { return r.runID }

// Logger returns the run-scoped logger.
func (r *Runner) Logger() *zap.Logger { return r.log }

// PrepareStats summarizes the extraction stage.
type PrepareStats struct {
	Entries    int
	Members    int
	NoChild    int
	Used       int
	Candidates int
}

// Prepare extracts the member map, type map and leaf family list from the
// InterPro dump, the used signatures from the rule dump, and writes the
// preliminary candidate list.
func (r *Runner) Prepare(ctx context.Context, l Layout) (PrepareStats, error) {
	var st PrepareStats
	if err := requireFiles(l.InterProXML(), l.UniRuleXML()); err != nil {
		r.log.Error("pipeline: missing input data", zap.Error(err))
		return st, err
	}

	ist, err := r.extractInterPro(ctx, l)
	if err != nil {
		return st, err
	}
	st.Entries, st.Members, st.NoChild = ist.Entries, ist.Members, ist.NoChild
	r.log.Info("pipeline: family dump extracted",
		zap.Int("entries", ist.Entries),
		zap.Int("members", ist.Members),
		zap.Int("leaf_families", ist.NoChild),
		zap.String("member_map", l.MemberMap()),
		zap.String("type_map", l.TypeMap()),
		zap.String("no_child", l.NoChild()),
	)

	used, err := r.usedSignatures(ctx, l)
	if err != nil {
		return st, err
	}
	st.Used = len(used)
	r.log.Info("pipeline: used signatures collected",
		zap.Int("signatures", len(used)),
		zap.String("path", l.UsedSignatures()),
	)

	mf, err := os.Open(l.MemberMap())
	if err != nil {
		return st, err
	}
	members, err := interpro.ReadMemberMap(mf)
	mf.Close()
	if err != nil {
		return st, err
	}
	leaves, err := readLines(l.NoChild())
	if err != nil {
		return st, err
	}
	candidates := interpro.FilterCandidates(leaves, unirule.Set(used), members)
	if err := writeFile(ctx, l.Candidates(), candidates); err != nil {
		return st, err
	}
	st.Candidates = len(candidates)
	r.log.Info("pipeline: candidates remaining after filtering used signatures",
		zap.Int("candidates", len(candidates)),
		zap.Int("leaf_families", len(leaves)),
		zap.String("path", l.Candidates()),
	)
	return st, nil
}

func (r *Runner) extractInterPro(ctx context.Context, l Layout) (interpro.Stats, error) {
	in, err := os.Open(l.InterProXML())
	if err != nil {
		return interpro.Stats{}, err
	}
	defer in.Close()

	members, err := file.New(l.MemberMap())
	if err != nil {
		return interpro.Stats{}, err
	}
	types, err := file.New(l.TypeMap())
	if err != nil {
		members.Close()
		return interpro.Stats{}, err
	}
	nochild, err := file.New(l.NoChild())
	if err != nil {
		members.Close()
		types.Close()
		return interpro.Stats{}, err
	}

	st, err := interpro.Extract(ctx, in, interpro.Sinks{Members: members, Types: types, NoChild: nochild})
	for _, o := range []output.Output{members, types, nochild} {
		if cerr := o.Close(); err == nil {
			err = cerr
		}
	}
	return st, err
}

func (r *Runner) usedSignatures(ctx context.Context, l Layout) ([]string, error) {
	in, err := os.Open(l.UniRuleXML())
	if err != nil {
		return nil, err
	}
	defer in.Close()
	used, err := unirule.UsedSignatures(ctx, in)
	if err != nil {
		return nil, err
	}
	return used, writeFile(ctx, l.UsedSignatures(), used)
}

// Count reads an identifier list, drops blanks and repeats, runs the
// two-stage hit-count filter and writes the surviving triples to out,
// sorted by identifier.
func (r *Runner) Count(ctx context.Context, inPath string, out output.Output) ([]model.HitCounts, error) {
	lines, err := readLines(inPath)
	if err != nil {
		r.log.Error("pipeline: cannot read identifier list", zap.String("path", inPath), zap.Error(err))
		return nil, err
	}
	ids := dedup.Identifiers(lines)
	if ids.Dropped() > 0 {
		r.log.Warn("pipeline: identifier list cleaned",
			zap.Int("blank", ids.Blank),
			zap.Int("repeats", ids.Repeats),
		)
	}
	r.log.Info("pipeline: collecting reviewed and unreviewed counts", zap.Int("identifiers", len(ids.IDs)))

	f := hits.New(r.source, r.collector, hits.Thresholds{
		MinReviewed:   r.cfg.Filter.MinReviewed,
		MinUnreviewed: r.cfg.Filter.MinUnreviewed,
	}, r.log)
	counts, err := f.Run(ctx, ids.IDs)
	if err != nil {
		return nil, err
	}

	formatted := make([]string, 0, len(counts))
	for _, h := range counts {
		formatted = append(formatted, output.FormatHits(h))
	}
	if err := out.Write(ctx, formatted...); err != nil {
		return nil, fmt.Errorf("pipeline: write hit counts: %w", err)
	}
	r.log.Info("pipeline: hit counts written", zap.Int("identifiers", len(counts)))
	return counts, nil
}

// CollectStats summarizes the report stage.
type CollectStats struct {
	Identifiers int
	Records     int
	Lines       int
}

// Collect reads a hit-count file, fetches the reviewed records of every
// identifier, builds each consistency block and writes the report to out,
// blocks sorted by identifier.
func (r *Runner) Collect(ctx context.Context, inPath string, out output.Output) (CollectStats, error) {
	var st CollectStats
	lines, err := readLines(inPath)
	if err != nil {
		r.log.Error("pipeline: cannot read hit counts", zap.String("path", inPath), zap.Error(err))
		return st, err
	}
	ids, index, repeats := dedup.Keys(lines)
	if repeats > 0 {
		r.log.Warn("pipeline: repeated identifiers in hit counts", zap.Int("repeats", repeats))
	}
	byID := make(map[string]model.HitCounts, len(ids))
	for i, id := range ids {
		h, err := output.ParseHits(lines[index[i]])
		if err != nil {
			return st, fmt.Errorf("pipeline: %s: %w", inPath, err)
		}
		byID[id] = h
	}
	r.log.Info("pipeline: collecting candidate rules", zap.Int("identifiers", len(ids)))

	blocks, err := collect.Run(ctx, r.collector, "records", ids, RecordTask(r.source, r.engine, byID))
	if err != nil {
		return st, err
	}

	sorted := make([]string, 0, len(blocks))
	for id := range blocks {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	if err := out.Write(ctx, output.ReportHeader); err != nil {
		return st, fmt.Errorf("pipeline: write report: %w", err)
	}
	for _, id := range sorted {
		b := blocks[id]
		if err := out.Write(ctx, output.FormatBlock(b)...); err != nil {
			return st, fmt.Errorf("pipeline: write report: %w", err)
		}
		st.Records += b.Hits.Reviewed
		st.Lines += len(b.Lines)
	}
	st.Identifiers = len(sorted)
	r.log.Info("pipeline: report written",
		zap.Int("identifiers", st.Identifiers),
		zap.Int("records", st.Records),
		zap.Int("lines", st.Lines),
	)
	return st, nil
}

// RecordTask fetches the reviewed records of one identifier and builds its
// report block. byID supplies the hit counts carried into the block header.
func RecordTask(src connector.Source, eng *engine.Engine, byID map[string]model.HitCounts) collect.Task[model.ReportBlock] {
	return func(ctx context.Context, w collect.Worker, id string) (model.ReportBlock, error) {
		raws, err := src.Records(ctx, w.Log, id)
		if err != nil {
			return model.ReportBlock{}, err
		}
		return eng.Process(byID[id], raws)
	}
}

// Summary describes a completed full run.
type Summary struct {
	RunID   string
	Layout  Layout
	Prepare PrepareStats
	Hits    int
	Collect CollectStats
	Elapsed time.Duration
}

// Run executes every stage of a full run against the layout: extraction,
// hit counting and report collection. Missing dumps stop the run before any
// analysis with ErrMissingInput.
func (r *Runner) Run(ctx context.Context, l Layout) (Summary, error) {
	start := r.now()
	sum := Summary{RunID: r.runID, Layout: l}
	r.log.Info("pipeline: starting analysis run", zap.String("root", l.Root), zap.String("stamp", l.Stamp))

	if err := requireFiles(l.InterProXML(), l.UniRuleXML()); err != nil {
		r.log.Error("pipeline: missing input data",
			zap.String("interpro", l.InterProXML()),
			zap.String("unirule", l.UniRuleXML()),
			zap.Error(err),
		)
		return sum, err
	}
	r.log.Info("pipeline: input data found",
		zap.String("interpro", l.InterProXML()),
		zap.String("unirule", l.UniRuleXML()),
	)

	pst, err := r.Prepare(ctx, l)
	if err != nil {
		return sum, err
	}
	sum.Prepare = pst

	counts, err := withFile(l.Hits(), func(out output.Output) ([]model.HitCounts, error) {
		return r.Count(ctx, l.Candidates(), out)
	})
	if err != nil {
		return sum, err
	}
	sum.Hits = len(counts)
	r.log.Info("pipeline: counting finished", zap.Duration("elapsed", r.now().Sub(start).Round(time.Second)))

	cst, err := withFile(l.Report(), func(out output.Output) (CollectStats, error) {
		return r.Collect(ctx, l.Hits(), out)
	})
	if err != nil {
		return sum, err
	}
	sum.Collect = cst
	sum.Elapsed = r.now().Sub(start)

	r.log.Info("pipeline: analysis completed",
		zap.Duration("elapsed", sum.Elapsed.Round(time.Second)),
		zap.String("output_dir", l.OutputDir()),
		zap.String("report", l.Report()),
	)
	return sum, nil
}

// withFile opens a truncating file output for fn and closes it afterwards.
func withFile[T any](path string, fn func(output.Output) (T, error)) (T, error) {
	out, err := file.New(path)
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := fn(out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return v, err
}

func writeFile(ctx context.Context, path string, lines []string) error {
	_, err := withFile(path, func(out output.Output) (struct{}, error) {
		return struct{}{}, out.Write(ctx, lines...)
	})
	return err
}
