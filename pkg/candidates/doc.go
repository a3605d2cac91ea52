// Package candidates finds InterPro families whose reviewed UniProt entries
// agree closely enough on their annotations to seed a new annotation rule.
//
// Quick start:
//
//	c, err := candidates.New(candidates.WithWorkerCap(20))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	hits, _ := c.CountHits(ctx, []string{"IPR000074", "IPR001001"})
//	reports, _ := c.Reports(ctx, hits)
//	for _, r := range reports {
//	    for _, line := range candidates.Format(r) {
//	        fmt.Println(line)
//	    }
//	}
//
// Analyze runs the consistency analysis alone on records that are already
// in memory. A Client is safe for concurrent use.
package candidates
