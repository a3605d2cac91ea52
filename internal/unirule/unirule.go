// Package unirule collects the signatures already used by existing rules in
// the URML rule dump.
package unirule

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Namespace is the URML rules namespace.
const Namespace = "http://uniprot.org/urml/rules"

const signatureFact = "fact:ProteinSignature"

// node is a generic element tree for one <rule>.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
	Nodes   []node     `xml:",any"`
}

func (n *node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n *node) is(local string) bool {
	return n.XMLName.Space == Namespace && n.XMLName.Local == local
}

// child returns the first direct child with the given local name.
func (n *node) child(local string) *node {
	for i := range n.Nodes {
		if n.Nodes[i].is(local) {
			return &n.Nodes[i]
		}
	}
	return nil
}

// descendants appends every descendant with the given local name in
// document order.
func (n *node) descendants(local string, dst []*node) []*node {
	for i := range n.Nodes {
		c := &n.Nodes[i]
		if c.is(local) {
			dst = append(dst, c)
		}
		dst = c.descendants(local, dst)
	}
	return dst
}

// ruleSignatures returns the signature values of every positive
// ProteinSignature condition of one rule.
func ruleSignatures(rule *node) []string {
	conds := rule.child("conditions")
	if conds == nil {
		return nil
	}
	var sigs []string
	for _, c := range conds.descendants("condition", nil) {
		if c.attr("exists") == "false" || c.attr("on") != signatureFact {
			continue
		}
		for _, f := range c.descendants("field", nil) {
			if f.attr("attribute") == "value" {
				if v := strings.TrimSpace(f.Text); v != "" {
					sigs = append(sigs, v)
				}
			}
		}
	}
	return sigs
}

// UsedSignatures streams the rule dump and returns the sorted, unique set of
// signatures used in positive conditions. Rules are decoded one at a time.
func UsedSignatures(ctx context.Context, r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	seen := make(map[string]struct{})
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unirule: decode: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Space != Namespace || se.Name.Local != "rule" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var rule node
		if err := dec.DecodeElement(&rule, &se); err != nil {
			return nil, fmt.Errorf("unirule: decode rule: %w", err)
		}
		for _, s := range ruleSignatures(&rule) {
			seen[s] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// Set converts a signature list into a lookup set.
func Set(sigs []string) map[string]struct{} {
	set := make(map[string]struct{}, len(sigs))
	for _, s := range sigs {
		set[s] = struct{}{}
	}
	return set
}
