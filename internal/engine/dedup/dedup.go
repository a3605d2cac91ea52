package dedup

import (
	"strings"
)

// Result is the outcome of de-duplicating an identifier list.
type Result struct {
	IDs     []string // unique identifiers in first-occurrence order
	Blank   int      // empty or whitespace-only lines dropped
	Repeats int      // repeated identifiers dropped
}

// Dropped returns the total number of input lines not kept.
func (r Result) Dropped() int {
	return r.Blank + r.Repeats
}

// Identifiers trims every line, drops blanks, and keeps the first occurrence
// of each identifier.
func Identifiers(lines []string) Result {
	res := Result{IDs: make([]string, 0, len(lines))}
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		id := strings.TrimSpace(l)
		if id == "" {
			res.Blank++
			continue
		}
		if _, ok := seen[id]; ok {
			res.Repeats++
			continue
		}
		seen[id] = struct{}{}
		res.IDs = append(res.IDs, id)
	}
	return res
}

// Keys returns the unique first-column values of tab-separated lines, in
// first-occurrence order, paired with the index of the line that introduced
// each key. Later lines with a repeated key are dropped.
func Keys(lines []string) (keys []string, index []int, repeats int) {
	seen := make(map[string]struct{}, len(lines))
	for i, l := range lines {
		key, _, _ := strings.Cut(l, "\t")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			repeats++
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
		index = append(index, i)
	}
	return keys, index, repeats
}
