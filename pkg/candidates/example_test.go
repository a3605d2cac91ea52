package candidates_test

import (
	"fmt"
	"log"

	"github.com/hejijunhao/candidates/pkg/candidates"
)

func ExampleAnalyze() {
	records := [][]byte{
		[]byte(`{"accession": "P0A988", "organism": {"lineage": ["Bacteria", "Firmicutes", "Bacilli"]},
			"protein": {"recommendedName": {"fullName": {"value": "DNA polymerase III subunit beta"}}},
			"gene": [{"name": {"value": "dnaN"}}]}`),
		[]byte(`{"accession": "Q9KJB2", "organism": {"lineage": ["Bacteria", "Firmicutes", "Clostridia"]},
			"protein": {"recommendedName": {"fullName": {"value": "DNA polymerase III subunit beta"}}}}`),
	}

	r, err := candidates.Analyze("IPR001001", records)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s reviewed=%d\n", r.ID, r.Reviewed)
	for _, a := range r.Annotations {
		fmt.Printf("%s %s %d/%d %s\n", a.Taxon, a.Code, a.Consistent, a.Total, a.Value)
	}
	// Output:
	// IPR001001 reviewed=2
	// Bacteria Firmicutes DERF 2/2 DNA polymerase III subunit beta
}
