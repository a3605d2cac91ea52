package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hejijunhao/candidates/internal/collect"
	"github.com/hejijunhao/candidates/internal/config"
	"github.com/hejijunhao/candidates/internal/engine"
	"github.com/hejijunhao/candidates/internal/engine/extract"
	"github.com/hejijunhao/candidates/internal/engine/fixtures"
	"github.com/hejijunhao/candidates/internal/model"
	"github.com/hejijunhao/candidates/internal/output"

	_ "github.com/hejijunhao/candidates/internal/connector/proteins"
)

// --- fakes ---

type fakeSource struct {
	reviewed   map[string]int
	unreviewed map[string]int
	records    map[string][]model.RawRecord
	failOn     string

	mu     sync.Mutex
	counts int
}

func (s *fakeSource) CountHits(_ context.Context, _ *zap.Logger, id string, reviewed bool) (int, error) {
	s.mu.Lock()
	s.counts++
	s.mu.Unlock()
	if id == s.failOn {
		return 0, errors.New("remote unavailable")
	}
	if reviewed {
		return s.reviewed[id], nil
	}
	return s.unreviewed[id], nil
}

func (s *fakeSource) Records(_ context.Context, _ *zap.Logger, id string) ([]model.RawRecord, error) {
	return s.records[id], nil
}

type recorder struct{ lines []string }

func (r *recorder) Write(_ context.Context, lines ...string) error {
	r.lines = append(r.lines, lines...)
	return nil
}

func (r *recorder) Close() error { return nil }

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Log.Dir = ""
	return cfg
}

func newRunner(t *testing.T, src *fakeSource, log *zap.Logger) *Runner {
	t.Helper()
	r, err := New(testConfig(), log, WithSource(src), WithRunID("test-run"))
	require.NoError(t, err)
	return r
}

func seed(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fixtureRecords(t *testing.T) []model.RawRecord {
	t.Helper()
	recs, err := fixtures.LoadRecords()
	require.NoError(t, err)
	return recs
}

// --- tests ---

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Collect.WorkerCap = 0
	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Source.Provider = "nope"
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestNew_RunIDOnEveryLine(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r, err := New(testConfig(), zap.New(core), WithSource(&fakeSource{}))
	require.NoError(t, err)
	assert.NotEmpty(t, r.RunID())

	r.Logger().Info("hello")
	entry := logs.All()[0]
	assert.Equal(t, r.RunID(), entry.ContextMap()["run"])
}

func TestCount(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "candidates.list")
	seed(t, in, "IPR000003\nIPR000001\n\nIPR000002\nIPR000003\n")

	src := &fakeSource{
		reviewed:   map[string]int{"IPR000001": 9, "IPR000002": 10, "IPR000003": 50},
		unreviewed: map[string]int{"IPR000001": 500, "IPR000002": 100, "IPR000003": 2000},
	}
	core, logs := observer.New(zap.WarnLevel)
	r := newRunner(t, src, zap.New(core))

	var out recorder
	counts, err := r.Count(context.Background(), in, &out)
	require.NoError(t, err)

	assert.Len(t, counts, 2)
	assert.Equal(t, []string{"IPR000002\t10\t100", "IPR000003\t50\t2000"}, out.lines)
	assert.Equal(t, 5, src.counts, "3 reviewed requests and 2 unreviewed requests")
	assert.Equal(t, 1, logs.FilterMessage("pipeline: identifier list cleaned").Len())
}

func TestCount_MissingInput(t *testing.T) {
	r := newRunner(t, &fakeSource{}, nil)
	_, err := r.Count(context.Background(), filepath.Join(t.TempDir(), "absent.list"), &recorder{})
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestCount_FetchFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "candidates.list")
	seed(t, in, "IPR000001\nIPR000002\n")

	src := &fakeSource{reviewed: map[string]int{"IPR000001": 20}, failOn: "IPR000002"}
	var out recorder
	_, err := newRunner(t, src, nil).Count(context.Background(), in, &out)

	var we *collect.WorkerError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "IPR000002", we.Item)
	assert.Empty(t, out.lines, "nothing is written after a fatal failure")
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "hits.tsv")
	seed(t, in, "IPR000074\t40\t812\nIPR000001\t12\t300\n")

	src := &fakeSource{records: map[string][]model.RawRecord{
		"IPR000074": fixtureRecords(t),
	}}
	var out recorder
	st, err := newRunner(t, src, nil).Collect(context.Background(), in, &out)
	require.NoError(t, err)

	want := []string{
		"# Columns: TaxonomicGroup / AnnotationCode / Total / Consistent / AnnotationText",
		"",
		"# IPR000001  Reviewed: 0  Unreviewed: 300",
		"",
		"# IPR000074  Reviewed: 6  Unreviewed: 812",
		"Bacteria Firmicutes\tDERF\t3\t3\tDNA polymerase III subunit beta",
		"Bacteria Firmicutes\tGNNM\t3\t3\tdnaN",
		"Bacteria Firmicutes\tCCSI\t3\t3\tBelongs to the beta sliding clamp family.",
		"Bacteria Firmicutes\tSPKW\t3\t3\tDNA replication",
		"Eukaryota Fungi\tDERF\t2\t2\tProliferating cell nuclear antigen",
		"Eukaryota Fungi\tCCFU\t2\t2\tAuxiliary protein of DNA polymerase delta",
		"Eukaryota Fungi\tCCFU\t2\t2\tInvolved in the control of eukaryotic DNA replication",
		"Viruses\tDERF\t1\t1\tSliding clamp",
	}
	if diff := cmp.Diff(want, out.lines); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, CollectStats{Identifiers: 2, Records: 6, Lines: 8}, st)
}

func TestCollect_MalformedRecordIsFatal(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "hits.tsv")
	seed(t, in, "IPR000074\t40\t812\n")

	src := &fakeSource{records: map[string][]model.RawRecord{
		"IPR000074": {model.RawRecord(`{"accession": "BAD1", "comments": [{"type": "SUBUNIT"}]}`)},
	}}
	core, logs := observer.New(zap.ErrorLevel)
	var out recorder
	_, err := newRunner(t, src, zap.New(core)).Collect(context.Background(), in, &out)

	var se *extract.ShapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "BAD1", se.Accession)
	assert.Empty(t, out.lines)
	assert.Equal(t, 1, logs.FilterMessage("engine: extraction failed").Len())
}

func TestCollect_BadHitLine(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "hits.tsv")
	seed(t, in, "IPR000074\tforty\t812\n")
	_, err := newRunner(t, &fakeSource{}, nil).Collect(context.Background(), in, &recorder{})
	assert.Error(t, err)
}

const interproDump = `<?xml version="1.0" encoding="UTF-8"?>
<interprodb>
  <interpro id="IPR000001" type="Family">
    <member_list><db_xref db="PFAM" dbkey="PF00001"/></member_list>
  </interpro>
  <interpro id="IPR000002" type="Family">
    <member_list><db_xref db="PFAM" dbkey="PF03211"/></member_list>
  </interpro>
  <interpro id="IPR000003" type="Domain">
    <member_list><db_xref db="SMART" dbkey="SM00001"/></member_list>
  </interpro>
  <interpro id="IPR000074" type="Family">
    <member_list><db_xref db="PANTHER" dbkey="PTHR11760"/></member_list>
  </interpro>
  <interpro id="IPR000099" type="Family">
    <member_list><db_xref db="HAMAP" dbkey="MF_00001"/></member_list>
  </interpro>
</interprodb>`

const ruleDump = `<?xml version="1.0" encoding="UTF-8"?>
<urml xmlns="http://uniprot.org/urml/rules">
  <rule><conditions>
    <condition on="fact:ProteinSignature"><field attribute="value">PF03211</field></condition>
  </conditions></rule>
</urml>`

func seedLayout(t *testing.T) Layout {
	t.Helper()
	l := NewLayout(t.TempDir(), "demo", time.Date(2026, 3, 1, 9, 30, 5, 0, time.UTC))
	seed(t, l.InterProXML(), interproDump)
	seed(t, l.UniRuleXML(), ruleDump)
	return l
}

func TestLayout(t *testing.T) {
	l := NewLayout("data", "main", time.Date(2026, 3, 1, 9, 30, 5, 0, time.UTC))
	assert.Equal(t, filepath.Join("data", "main", "input", "interpro.xml"), l.InterProXML())
	assert.Equal(t, filepath.Join("data", "main", "output", "CandidateRules_2026-03-01_093005.tsv"), l.Report())
	assert.Equal(t, filepath.Join("data", "main", "output", "used_signatures_from_urml_file.list"), l.UsedSignatures())
	assert.Equal(t, filepath.Join("logs", "log_2026-03-01_093005.txt"), LogPath("logs", l.Stamp))
	assert.Empty(t, LogPath("", l.Stamp))
}

func TestPrepare(t *testing.T) {
	l := seedLayout(t)
	st, err := newRunner(t, &fakeSource{}, nil).Prepare(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, PrepareStats{Entries: 5, Members: 5, NoChild: 3, Used: 1, Candidates: 2}, st)

	lines, err := readLines(l.Candidates())
	require.NoError(t, err)
	assert.Equal(t, []string{"IPR000001", "IPR000074"}, lines)

	used, err := readLines(l.UsedSignatures())
	require.NoError(t, err)
	assert.Equal(t, []string{"PF03211"}, used)
}

func TestRun_MissingInputStopsBeforeAnalysis(t *testing.T) {
	l := NewLayout(t.TempDir(), "demo", time.Now())
	src := &fakeSource{}
	core, logs := observer.New(zap.ErrorLevel)

	_, err := newRunner(t, src, zap.New(core)).Run(context.Background(), l)
	require.ErrorIs(t, err, ErrMissingInput)
	assert.Equal(t, 0, src.counts)
	assert.Equal(t, 1, logs.FilterMessage("pipeline: missing input data").Len())
	_, statErr := os.Stat(l.OutputDir())
	assert.True(t, os.IsNotExist(statErr), "no output is produced")
}

func TestRun_EndToEndOverHTTP(t *testing.T) {
	l := seedLayout(t)
	body := string(fixtures.RecordsJSON())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/proteins/InterPro:")
		q := r.URL.Query()
		if q.Get("size") == "1" {
			n := map[string]int{"IPR000001": 5, "IPR000074": 40}[id]
			if q.Get("reviewed") == "false" {
				n *= 100
			}
			w.Header().Set("X-Pagination-TotalRecords", fmt.Sprint(n))
			return
		}
		w.Write([]byte(body))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Source.BaseURL = srv.URL
	r, err := New(cfg, nil, WithRunID("e2e"))
	require.NoError(t, err)

	sum, err := r.Run(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, "e2e", sum.RunID)
	assert.Equal(t, 2, sum.Prepare.Candidates)
	assert.Equal(t, 1, sum.Hits)
	assert.Equal(t, CollectStats{Identifiers: 1, Records: 6, Lines: 8}, sum.Collect)

	hitLines, err := readLines(l.Hits())
	require.NoError(t, err)
	assert.Equal(t, []string{"IPR000074\t40\t4000"}, hitLines)

	report, err := readLines(l.Report())
	require.NoError(t, err)
	require.Len(t, report, 11)
	assert.Equal(t, "# IPR000074  Reviewed: 6  Unreviewed: 4000", report[2])
}

func TestWithFile_ClosesOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tsv")
	boom := errors.New("boom")
	_, err := withFile(path, func(out output.Output) (int, error) {
		out.Write(context.Background(), "partial")
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	data, _ := os.ReadFile(path)
	assert.Equal(t, "partial\n", string(data))
}

func TestRecordTask(t *testing.T) {
	recs, err := fixtures.LoadRecords()
	require.NoError(t, err)
	src := &fakeSource{records: map[string][]model.RawRecord{"IPR000074": recs}}
	byID := map[string]model.HitCounts{"IPR000074": {ID: "IPR000074", Reviewed: 40, Unreviewed: 4000}}

	task := RecordTask(src, engine.New(nil), byID)
	b, err := task(context.Background(), collect.Worker{Log: zap.NewNop()}, "IPR000074")
	require.NoError(t, err)
	assert.Equal(t, model.HitCounts{ID: "IPR000074", Reviewed: 6, Unreviewed: 4000}, b.Hits)
	assert.Len(t, b.Lines, 8)
}

func TestRequireInput(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "hits.tsv")
	require.NoError(t, os.WriteFile(present, []byte("IPR000074\t40\t4000\n"), 0o644))

	assert.NoError(t, RequireInput(present))
	assert.ErrorIs(t, RequireInput(present, filepath.Join(dir, "nope.tsv")), ErrMissingInput)
	assert.ErrorIs(t, RequireInput(dir), ErrMissingInput)
}
