// Package interpro streams the InterPro XML dump and derives the member map,
// the type map and the list of leaf families that seed candidate selection.
package interpro

import (
	"bufio"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hejijunhao/candidates/internal/output"
)

// ExcludedMemberDBs are member databases whose presence disqualifies a
// family: their signatures already drive curated rules.
var ExcludedMemberDBs = map[string]bool{
	"HAMAP": true,
	"PIRSF": true,
}

// Entry is one <interpro> element.
type Entry struct {
	ID        string    `xml:"id,attr"`
	Type      string    `xml:"type,attr"`
	Members   []Member  `xml:"member_list>db_xref"`
	ChildList *struct{} `xml:"child_list"`
}

// Member is one member database signature of an entry.
type Member struct {
	DB  string `xml:"db,attr"`
	Key string `xml:"dbkey,attr"`
}

// IsLeafFamily reports whether the entry is a family with no children and
// no member from an excluded database.
func (e *Entry) IsLeafFamily() bool {
	if !strings.EqualFold(e.Type, "family") || e.ChildList != nil {
		return false
	}
	for _, m := range e.Members {
		if ExcludedMemberDBs[m.DB] {
			return false
		}
	}
	return true
}

// Scan decodes every <interpro> element of r in document order and calls fn
// for each. Only one entry is held in memory at a time.
func Scan(ctx context.Context, r io.Reader, fn func(*Entry) error) error {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("interpro: decode: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "interpro" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		var e Entry
		if err := dec.DecodeElement(&e, &se); err != nil {
			return fmt.Errorf("interpro: decode entry: %w", err)
		}
		if err := fn(&e); err != nil {
			return err
		}
	}
}

// Sinks receive the derived artifacts. A nil sink is skipped.
type Sinks struct {
	Members output.Output // "IPR\tmember_dbkey" per member
	Types   output.Output // "IPR\ttype" per entry
	NoChild output.Output // one leaf family id per line
}

// Stats counts what Extract wrote.
type Stats struct {
	Entries int
	Members int
	NoChild int
}

// Extract derives the member map, type map and leaf family list in a single
// pass over the dump.
func Extract(ctx context.Context, r io.Reader, sinks Sinks) (Stats, error) {
	var st Stats
	err := Scan(ctx, r, func(e *Entry) error {
		st.Entries++
		if sinks.Members != nil {
			for _, m := range e.Members {
				if err := sinks.Members.Write(ctx, e.ID+"\t"+m.Key); err != nil {
					return err
				}
				st.Members++
			}
		}
		if sinks.Types != nil {
			if err := sinks.Types.Write(ctx, e.ID+"\t"+e.Type); err != nil {
				return err
			}
		}
		if e.IsLeafFamily() {
			st.NoChild++
			if sinks.NoChild != nil {
				if err := sinks.NoChild.Write(ctx, e.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return st, err
}

// ReadMemberMap reads "IPR\tmember" lines into a map from entry id to its
// member signatures.
func ReadMemberMap(r io.Reader) (map[string][]string, error) {
	members := make(map[string][]string)
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		ipr, sig, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("interpro: member map line %d: missing tab", n)
		}
		members[ipr] = append(members[ipr], sig)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("interpro: read member map: %w", err)
	}
	return members, nil
}

// FilterCandidates keeps the ids that are not used and whose members are not
// used, in input order.
func FilterCandidates(ids []string, used map[string]struct{}, members map[string][]string) []string {
	out := make([]string, 0, len(ids))
next:
	for _, id := range ids {
		if _, ok := used[id]; ok {
			continue
		}
		for _, sig := range members[id] {
			if _, ok := used[sig]; ok {
				continue next
			}
		}
		out = append(out, id)
	}
	return out
}
