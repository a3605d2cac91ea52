package model

// HitCounts is the number of reviewed and unreviewed records that carry a
// family identifier. Produced by the hit-count filter and read back from the
// hit-count file by the collection stage.
type HitCounts struct {
	ID         string
	Reviewed   int
	Unreviewed int
}

// ReportLine is one retained annotation of a taxon group.
type ReportLine struct {
	Taxon      string
	Field      Field
	Total      int // records in the taxon group
	Consistent int // records asserting Value
	Value      string
}

// ReportBlock is the consistency report for one identifier. Hits.Reviewed
// holds the number of reviewed records actually fetched.
type ReportBlock struct {
	Hits  HitCounts
	Lines []ReportLine
}
