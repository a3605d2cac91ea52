package fixtures

import (
	_ "embed"

	"github.com/hejijunhao/candidates/internal/connector/proteins"
	"github.com/hejijunhao/candidates/internal/model"
)

//go:embed records.json
var recordsJSON []byte

// RecordsJSON returns the embedded record set as served by the remote API.
func RecordsJSON() []byte {
	return recordsJSON
}

// LoadRecords splits the embedded record set into raw records the way the
// proteins source splits a response. Three records share "Bacteria
// Firmicutes", two share "Eukaryota Fungi", one has a single-level lineage.
func LoadRecords() ([]model.RawRecord, error) {
	return proteins.SplitRecords(recordsJSON)
}
