package collect

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWorkerCap   = 50
	defaultReportEvery = 5
)

// Worker identifies the goroutine processing one shard. Log already carries
// the stage and worker fields; tasks should log through it.
type Worker struct {
	ID       int
	Shard    Shard
	Log      *zap.Logger
	Reporter bool // only the reporter emits progress lines
}

// Task processes one item of a shard. Returning an error aborts the whole
// collection.
type Task[T any] func(ctx context.Context, w Worker, item string) (T, error)

// WorkerError is returned when a task fails. It names the worker, its shard
// and the item that failed, and unwraps to the task error.
type WorkerError struct {
	Worker int
	Shard  Shard
	Item   string
	Err    error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker %d (%s) item %s: %v", e.Worker, e.Shard, e.Item, e.Err)
}

func (e *WorkerError) Unwrap() error { return e.Err }

// Option configures a Collector.
type Option func(*Collector)

// WithWorkerCap sets the ceiling on concurrent workers. Default: 50.
func WithWorkerCap(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.workerCap = n
		}
	}
}

// WithReportEvery sets how many items the reporter worker processes between
// progress lines. Default: 5.
func WithReportEvery(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.reportEvery = n
		}
	}
}

// Collector runs a task over a list of items with a bounded pool of workers,
// one per contiguous shard, and merges their results.
type Collector struct {
	log         *zap.Logger
	workerCap   int
	reportEvery int
}

// New creates a Collector. A nil logger disables logging.
func New(log *zap.Logger, opts ...Option) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Collector{
		log:         log,
		workerCap:   defaultWorkerCap,
		reportEvery: defaultReportEvery,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WorkerCap returns the configured worker ceiling.
func (c *Collector) WorkerCap() int { return c.workerCap }

// Run applies task to every item and returns the results keyed by item.
//
// The worker count comes from WorkerCount. A single worker runs inline on
// the calling goroutine. Otherwise each shard gets its own goroutine and a
// private result map; Run waits for all of them and merges the maps in shard
// order, so a key produced by two shards keeps the later shard's value.
// The first task error cancels the remaining workers and is returned as a
// *WorkerError.
func Run[T any](ctx context.Context, c *Collector, stage string, items []string, task Task[T]) (map[string]T, error) {
	log := c.log.With(zap.String("stage", stage))
	threads := WorkerCount(len(items), c.workerCap)
	start := time.Now()
	log.Info("collect: starting",
		zap.Int("items", len(items)),
		zap.Int("workers", threads),
	)

	var merged map[string]T
	if threads == 1 {
		w := c.worker(log, Shard{ID: 1, Start: 0, End: len(items)})
		part, err := runShard(ctx, c, w, items, task)
		if err != nil {
			return nil, err
		}
		merged = part
	} else {
		shards := Partition(len(items), threads)
		parts := make([]map[string]T, len(shards))

		g, gctx := errgroup.WithContext(ctx)
		for i, s := range shards {
			i := i
			w := c.worker(log, s)
			g.Go(func() error {
				part, err := runShard(gctx, c, w, items, task)
				parts[i] = part
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		merged = merge(parts)
	}

	log.Info("collect: finished",
		zap.Int("items", len(items)),
		zap.Int("results", len(merged)),
		zap.Int("workers", threads),
		zap.Duration("elapsed", time.Since(start)),
	)
	return merged, nil
}

func (c *Collector) worker(log *zap.Logger, s Shard) Worker {
	return Worker{
		ID:       s.ID,
		Shard:    s,
		Log:      log.With(zap.Int("worker", s.ID)),
		Reporter: s.ID == 1,
	}
}

// runShard processes one shard strictly in order.
func runShard[T any](ctx context.Context, c *Collector, w Worker, items []string, task Task[T]) (map[string]T, error) {
	out := make(map[string]T, w.Shard.Len())
	done := 0
	for i := w.Shard.Start; i < w.Shard.End; i++ {
		item := items[i]
		if err := ctx.Err(); err != nil {
			return out, &WorkerError{Worker: w.ID, Shard: w.Shard, Item: item, Err: err}
		}
		v, err := task(ctx, w, item)
		if err != nil {
			w.Log.Error("collect: task failed",
				zap.String("item", item),
				zap.Stringer("shard", w.Shard),
				zap.Error(err),
			)
			return out, &WorkerError{Worker: w.ID, Shard: w.Shard, Item: item, Err: err}
		}
		out[item] = v
		done++
		if w.Reporter && done%c.reportEvery == 0 {
			w.Log.Info("collect: progress",
				zap.Int("done", done),
				zap.Int("shard_size", w.Shard.Len()),
			)
		}
	}
	return out, nil
}

// merge unions the partial maps in order; later maps win on duplicate keys.
func merge[T any](parts []map[string]T) map[string]T {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	merged := make(map[string]T, total)
	for _, p := range parts {
		for k, v := range p {
			merged[k] = v
		}
	}
	return merged
}
