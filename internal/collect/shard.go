package collect

import "fmt"

const (
	// sequentialMax is the largest input handled by a single worker.
	sequentialMax = 10
	// minShardSize is the smallest shard worth a dedicated worker.
	minShardSize = 5
	// highWaterFactor times the cap is the input size above which the cap
	// is used without searching.
	highWaterFactor = 5
)

// Shard is a half-open index range [Start, End) of the work list assigned to
// one worker. IDs start at 1.
type Shard struct {
	ID    int
	Start int
	End   int
}

// Len returns the number of items in the shard.
func (s Shard) Len() int { return s.End - s.Start }

func (s Shard) String() string {
	return fmt.Sprintf("shard %d [%d,%d)", s.ID, s.Start, s.End)
}

// WorkerCount maps an input size n to a worker count in [1, limit].
//
// Up to 10 items run on one worker. Above 5*limit the limit is used
// directly. In between, the count is the largest t <= limit that still
// leaves every worker at least 5 items, searched downward from limit.
func WorkerCount(n, limit int) int {
	if limit < 1 {
		limit = 1
	}
	if n <= sequentialMax {
		return 1
	}
	if n > highWaterFactor*limit {
		return limit
	}
	for t := limit; t > 1; t-- {
		if n >= minShardSize*t {
			return t
		}
	}
	return 1
}

// Partition splits [0, n) into exactly threads contiguous shards. Every shard
// but the last holds ceil(n/threads) items; the last absorbs what remains.
// Starts are clamped to n, so small inputs yield empty trailing shards.
func Partition(n, threads int) []Shard {
	if threads < 1 {
		threads = 1
	}
	if n < 0 {
		n = 0
	}
	chunk := (n + threads - 1) / threads

	shards := make([]Shard, threads)
	for i := 0; i < threads; i++ {
		start := min(i*chunk, n)
		end := min(start+chunk, n)
		if i == threads-1 {
			end = n
		}
		shards[i] = Shard{ID: i + 1, Start: start, End: end}
	}
	return shards
}
