package candidates

import (
	"github.com/hejijunhao/candidates/internal/model"
	"github.com/hejijunhao/candidates/internal/output"
)

// Header is the column legend written at the top of a report file.
const Header = output.ReportHeader

// Hits is the number of reviewed and unreviewed entries carrying a family.
type Hits struct {
	ID         string
	Reviewed   int
	Unreviewed int
}

// Annotation is one value shared by enough reviewed entries of a taxonomic
// group.
type Annotation struct {
	Taxon      string // first two lineage ranks, space separated
	Code       string // DERF, GNNM, CCFU, ...
	Total      int    // entries in the taxonomic group
	Consistent int    // entries asserting Value
	Value      string
}

// Report is the consistency report of one family. Reviewed is the number of
// entries actually analysed.
type Report struct {
	ID          string
	Reviewed    int
	Unreviewed  int
	Annotations []Annotation
}

// Format renders a report as the lines of one report block.
func Format(r Report) []string {
	return output.FormatBlock(r.block())
}

func (h Hits) counts() model.HitCounts {
	return model.HitCounts{ID: h.ID, Reviewed: h.Reviewed, Unreviewed: h.Unreviewed}
}

func hitsFromModel(h model.HitCounts) Hits {
	return Hits{ID: h.ID, Reviewed: h.Reviewed, Unreviewed: h.Unreviewed}
}

func reportFromBlock(b model.ReportBlock) Report {
	r := Report{
		ID:          b.Hits.ID,
		Reviewed:    b.Hits.Reviewed,
		Unreviewed:  b.Hits.Unreviewed,
		Annotations: make([]Annotation, len(b.Lines)),
	}
	for i, l := range b.Lines {
		r.Annotations[i] = Annotation{
			Taxon:      l.Taxon,
			Code:       string(l.Field),
			Total:      l.Total,
			Consistent: l.Consistent,
			Value:      l.Value,
		}
	}
	return r
}

func (r Report) block() model.ReportBlock {
	b := model.ReportBlock{
		Hits:  model.HitCounts{ID: r.ID, Reviewed: r.Reviewed, Unreviewed: r.Unreviewed},
		Lines: make([]model.ReportLine, len(r.Annotations)),
	}
	for i, a := range r.Annotations {
		b.Lines[i] = model.ReportLine{
			Taxon:      a.Taxon,
			Field:      model.Field(a.Code),
			Total:      a.Total,
			Consistent: a.Consistent,
			Value:      a.Value,
		}
	}
	return b
}
