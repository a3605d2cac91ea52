package pipeline

import (
	"path/filepath"
	"time"
)

// StampLayout formats the run timestamp embedded in output and log file names.
const StampLayout = "2006-01-02_150405"

// Layout is the on-disk layout of one full run: <data>/<type>/input holds
// the two XML dumps, <data>/<type>/output receives every artifact.
type Layout struct {
	Root  string // <data>/<type>
	Stamp string
}

// NewLayout builds the layout for a run type started at now.
func NewLayout(dataDir, runType string, now time.Time) Layout {
	return Layout{
		Root:  filepath.Join(dataDir, runType),
		Stamp: now.Format(StampLayout),
	}
}

func (l Layout) input(name string) string  { return filepath.Join(l.Root, "input", name) }
func (l Layout) output(name string) string { return filepath.Join(l.Root, "output", name) }

// OutputDir is the directory receiving every artifact.
func (l Layout) OutputDir() string { return filepath.Join(l.Root, "output") }

func (l Layout) InterProXML() string { return l.input("interpro.xml") }
func (l Layout) UniRuleXML() string  { return l.input("unirule-urml-latest.xml") }

func (l Layout) MemberMap() string { return l.output("InterProId_MemberId_" + l.Stamp + ".tsv") }
func (l Layout) TypeMap() string   { return l.output("InterProId_Type_" + l.Stamp + ".tsv") }
func (l Layout) NoChild() string   { return l.output("InterPro_nochild_nohamap_nopir_" + l.Stamp + ".list") }

// UsedSignatures is not stamped: it depends only on the rule dump.
func (l Layout) UsedSignatures() string { return l.output("used_signatures_from_urml_file.list") }

func (l Layout) Candidates() string { return l.output("Prelim_Candidates_" + l.Stamp + ".list") }
func (l Layout) Hits() string       { return l.output("CandidatesFilteredByHits_" + l.Stamp + ".tsv") }
func (l Layout) Report() string     { return l.output("CandidateRules_" + l.Stamp + ".tsv") }

// LogPath returns the log file path for a run stamp, or "" when dir is empty.
func LogPath(dir, stamp string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "log_"+stamp+".txt")
}
