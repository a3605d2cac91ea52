package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hejijunhao/candidates/internal/model"
)

// ReportHeader is the first line of every consistency report.
const ReportHeader = "# Columns: TaxonomicGroup / AnnotationCode / Total / Consistent / AnnotationText"

// FormatHits renders one hit-count line: id, reviewed, unreviewed.
func FormatHits(h model.HitCounts) string {
	return h.ID + "\t" + strconv.Itoa(h.Reviewed) + "\t" + strconv.Itoa(h.Unreviewed)
}

// ParseHits parses a line written by FormatHits.
func ParseHits(line string) (model.HitCounts, error) {
	parts := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(parts) != 3 {
		return model.HitCounts{}, fmt.Errorf("hit-count line %q: expected 3 tab-separated columns, got %d", line, len(parts))
	}
	reviewed, err := strconv.Atoi(parts[1])
	if err != nil || reviewed < 0 {
		return model.HitCounts{}, fmt.Errorf("hit-count line %q: bad reviewed count", line)
	}
	unreviewed, err := strconv.Atoi(parts[2])
	if err != nil || unreviewed < 0 {
		return model.HitCounts{}, fmt.Errorf("hit-count line %q: bad unreviewed count", line)
	}
	return model.HitCounts{ID: parts[0], Reviewed: reviewed, Unreviewed: unreviewed}, nil
}

// FormatLine renders one report line: taxon, code, total, consistent, value.
func FormatLine(l model.ReportLine) string {
	return fmt.Sprintf("%s\t%s\t%d\t%d\t%s", l.Taxon, l.Field, l.Total, l.Consistent, l.Value)
}

// FormatBlock renders one identifier's report block: a blank separator, the
// identifier comment, then one line per retained annotation.
func FormatBlock(b model.ReportBlock) []string {
	lines := make([]string, 0, len(b.Lines)+2)
	lines = append(lines, "", fmt.Sprintf("# %s  Reviewed: %d  Unreviewed: %d", b.Hits.ID, b.Hits.Reviewed, b.Hits.Unreviewed))
	for _, l := range b.Lines {
		lines = append(lines, FormatLine(l))
	}
	return lines
}
