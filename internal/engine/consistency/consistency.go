// Package consistency tallies which records of a taxon group assert each
// annotation value and keeps the values asserted by most of the group.
package consistency

import (
	"github.com/hejijunhao/candidates/internal/model"
)

// Fraction is the share of a group that must assert a value for it to be
// reported.
const Fraction = 0.9

// Fields is the tally and report order: scalar fields, then list fields.
var Fields = append(append([]model.Field{}, model.ScalarFields...), model.ListFields...)

// Entry is one tallied (field, value) pair with its supporting accessions.
type Entry struct {
	Field      model.Field
	Value      string
	Accessions []string
}

// Tally is the annotation tally of one taxon group.
type Tally struct {
	total  int
	fields map[model.Field]*fieldTally
}

// fieldTally keeps values in first-appearance order.
type fieldTally struct {
	order []string
	acc   map[string][]string
}

func (ft *fieldTally) add(value, accession string) {
	if _, ok := ft.acc[value]; !ok {
		ft.order = append(ft.order, value)
	}
	ft.acc[value] = append(ft.acc[value], accession)
}

// Build tallies every non-empty value of every tracked field. A record that
// repeats a value adds its accession once per repetition.
func Build(records []model.AnnotationRecord) *Tally {
	t := &Tally{
		total:  len(records),
		fields: make(map[model.Field]*fieldTally, len(Fields)),
	}
	for _, f := range Fields {
		t.fields[f] = &fieldTally{acc: make(map[string][]string)}
	}

	for _, f := range model.ScalarFields {
		ft := t.fields[f]
		for i := range records {
			if v := records[i].Scalar(f); v != "" {
				ft.add(v, records[i].Accession)
			}
		}
	}
	for _, f := range model.ListFields {
		ft := t.fields[f]
		for i := range records {
			for _, v := range records[i].List(f) {
				if v != "" {
					ft.add(v, records[i].Accession)
				}
			}
		}
	}
	return t
}

// Total returns the number of records in the group.
func (t *Tally) Total() int { return t.total }

// Cutoff returns the minimum support a value needs to be retained.
func (t *Tally) Cutoff() float64 { return Fraction * float64(t.total) }

// Entries returns every tallied pair in report order.
func (t *Tally) Entries() []Entry {
	return t.filter(0)
}

// Consistent returns the pairs whose support is at least Cutoff.
func (t *Tally) Consistent() []Entry {
	return t.filter(t.Cutoff())
}

func (t *Tally) filter(cutoff float64) []Entry {
	var out []Entry
	for _, f := range Fields {
		ft := t.fields[f]
		for _, v := range ft.order {
			acc := ft.acc[v]
			if float64(len(acc)) < cutoff {
				continue
			}
			out = append(out, Entry{Field: f, Value: v, Accessions: acc})
		}
	}
	return out
}

// Lines renders the consistent entries of one taxon group as report lines.
func Lines(taxon string, records []model.AnnotationRecord) []model.ReportLine {
	t := Build(records)
	entries := t.Consistent()
	lines := make([]model.ReportLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, model.ReportLine{
			Taxon:      taxon,
			Field:      e.Field,
			Total:      t.total,
			Consistent: len(e.Accessions),
			Value:      e.Value,
		})
	}
	return lines
}
