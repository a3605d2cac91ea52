package taxonomy

import (
	"strings"

	"github.com/hejijunhao/candidates/internal/model"
)

// Depth is the number of lineage levels that make up a group key.
const Depth = 2

// Group is the set of records sharing one taxonomy key.
type Group struct {
	Key     string
	Records []model.AnnotationRecord
}

// Groups holds taxon groups in order of first appearance.
type Groups struct {
	order []*Group
	index map[string]*Group
}

// Key returns the first Depth lineage entries joined with a space. Shorter
// lineages use whatever is present; an empty lineage yields "".
func Key(lineage []string) string {
	if len(lineage) > Depth {
		lineage = lineage[:Depth]
	}
	return strings.Join(lineage, " ")
}

// GroupRecords partitions records by taxonomy key. Order inside a group
// follows input order.
func GroupRecords(records []model.AnnotationRecord) *Groups {
	g := &Groups{index: make(map[string]*Group)}
	for _, r := range records {
		g.Add(r)
	}
	return g
}

// Add places one record into its group, creating the group if needed.
func (g *Groups) Add(r model.AnnotationRecord) {
	key := Key(r.SPOC)
	grp, ok := g.index[key]
	if !ok {
		grp = &Group{Key: key}
		g.index[key] = grp
		g.order = append(g.order, grp)
	}
	grp.Records = append(grp.Records, r)
}

// All returns every group in order of first appearance.
func (g *Groups) All() []*Group {
	return g.order
}

// Get returns the group for key, or nil.
func (g *Groups) Get(key string) *Group {
	return g.index[key]
}

// Len returns the number of groups.
func (g *Groups) Len() int {
	return len(g.order)
}
