package importer

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/benchlab/labdex/internal/field"
	"github.com/benchlab/labdex/internal/mapping"
	"github.com/benchlab/labdex/internal/store"
	"github.com/benchlab/labdex/internal/tabular"
)

// fakeStore implements RecordStore in memory with optional failure
// injection keyed by sample ID.
type fakeStore struct {
	existing []store.Sample
	inserted []store.Sample
	failOn   map[string]error
	nextID   int64
}

func (f *fakeStore) ListAll() ([]store.Sample, error) {
	return f.existing, nil
}

func (f *fakeStore) Insert(s store.Sample) (int64, error) {
	if err, ok := f.failOn[s.SampleID]; ok {
		return 0, err
	}
	f.nextID++
	s.ID = f.nextID
	f.inserted = append(f.inserted, s)
	return f.nextID, nil
}

var fixedNow = func() time.Time {
	return time.Date(2025, 12, 5, 10, 0, 0, 0, time.UTC)
}

// stdMapping maps upload headers to canonical fields.
var stdMapping = mapping.Mapping{
	field.SampleID:   "SampleID",
	field.Researcher: "Scientist",
	field.Expressed:  "Expressed?",
	field.Date:       "Date",
}

func stdTable(rows ...tabular.Row) *tabular.Table {
	return &tabular.Table{
		Columns: []string{"SampleID", "Scientist", "Expressed?", "Date"},
		Rows:    rows,
	}
}

func row(sampleID, scientist, expressed, date string) tabular.Row {
	return tabular.Row{"SampleID": sampleID, "Scientist": scientist, "Expressed?": expressed, "Date": date}
}

func newReconciler(st RecordStore) *Reconciler {
	return &Reconciler{Store: st, Now: fixedNow}
}

func TestPrepare_RoundTrip(t *testing.T) {
	st := &fakeStore{}
	table := stdTable(
		row("S-1", "Fran", "yes", "2025-01-15"),
		row("S-2", "Marta", "no", ""),
		row("S-3", "Fran", "yes", "not a date"),
	)

	outcome, err := newReconciler(st).Prepare(table, stdMapping, Defaults{ProjectID: "P-1"}, Policy{})
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}

	if outcome.Imported != 3 {
		t.Errorf("Imported = %d, want 3", outcome.Imported)
	}
	if len(outcome.Errors) != 0 {
		t.Errorf("Errors = %v, want none", outcome.Errors)
	}
	if len(st.inserted) != 3 {
		t.Fatalf("store has %d records, want 3", len(st.inserted))
	}

	// Normalization: parsed date, empty date -> now, bad date -> literal.
	if got := st.inserted[0].Date; got != "2025-01-15T00:00:00Z" {
		t.Errorf("row 1 date = %q", got)
	}
	if got := st.inserted[1].Date; got != "2025-12-05T10:00:00Z" {
		t.Errorf("row 2 date = %q, want import time", got)
	}
	if got := st.inserted[2].Date; got != "not a date" {
		t.Errorf("row 3 date = %q, want literal fallback", got)
	}
	// Run-level project id applied to every row.
	for i, s := range st.inserted {
		if s.ProjectID != "P-1" {
			t.Errorf("row %d project id = %q, want P-1", i+1, s.ProjectID)
		}
	}
}

func TestPrepare_MissingProjectID(t *testing.T) {
	st := &fakeStore{}
	table := stdTable(row("S-1", "Fran", "yes", ""))

	_, err := newReconciler(st).Prepare(table, stdMapping, Defaults{}, Policy{})
	if !errors.Is(err, ErrMissingProjectID) {
		t.Fatalf("error = %v, want ErrMissingProjectID", err)
	}
	if len(st.inserted) != 0 {
		t.Errorf("store has %d records, want 0 (batch-level error commits nothing)", len(st.inserted))
	}
}

func TestPrepare_MappedProjectIDColumn(t *testing.T) {
	st := &fakeStore{}
	m := mapping.Mapping{
		field.SampleID:  "SampleID",
		field.ProjectID: "Proj",
	}
	table := &tabular.Table{
		Columns: []string{"SampleID", "Proj"},
		Rows:    []tabular.Row{{"SampleID": "S-1", "Proj": "P-9"}},
	}

	// No run-level project id needed when the column is mapped.
	outcome, err := newReconciler(st).Prepare(table, m, Defaults{}, Policy{})
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if outcome.Imported != 1 || st.inserted[0].ProjectID != "P-9" {
		t.Errorf("imported = %d, project id = %q", outcome.Imported, st.inserted[0].ProjectID)
	}
}

func TestPrepare_SkipsDuplicatesAgainstStore(t *testing.T) {
	st := &fakeStore{existing: []store.Sample{
		{SampleID: "S-1", Researcher: "Fran", Expressed: "yes"},
	}}
	table := stdTable(
		row("S-1", "Fran", "yes", ""),
		row("S-2", "Fran", "yes", ""),
	)

	outcome, err := newReconciler(st).Prepare(table, stdMapping, Defaults{ProjectID: "P-1"}, Policy{})
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if outcome.Imported != 1 || outcome.SkippedDuplicates != 1 {
		t.Errorf("imported/skipped = %d/%d, want 1/1", outcome.Imported, outcome.SkippedDuplicates)
	}
	if st.inserted[0].SampleID != "S-2" {
		t.Errorf("committed %q, want S-2", st.inserted[0].SampleID)
	}
}

func TestPrepare_SkipsDuplicatesWithinFile(t *testing.T) {
	st := &fakeStore{}
	table := stdTable(
		row("S-1", "Fran", "yes", ""),
		row("S-1", "Fran", "yes", ""),
	)

	outcome, err := newReconciler(st).Prepare(table, stdMapping, Defaults{ProjectID: "P-1"}, Policy{})
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if outcome.Imported != 1 {
		t.Errorf("Imported = %d, want exactly 1", outcome.Imported)
	}
	if outcome.SkippedDuplicates != 1 {
		t.Errorf("SkippedDuplicates = %d, want 1", outcome.SkippedDuplicates)
	}
}

func TestPrepare_ImportDuplicatesOverride(t *testing.T) {
	st := &fakeStore{existing: []store.Sample{
		{SampleID: "S-1", Researcher: "Fran", Expressed: "yes"},
	}}
	table := stdTable(row("S-1", "Fran", "yes", ""))

	outcome, err := newReconciler(st).Prepare(table, stdMapping, Defaults{ProjectID: "P-1"},
		Policy{ImportDuplicates: true})
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if outcome.Imported != 1 || outcome.SkippedDuplicates != 0 {
		t.Errorf("imported/skipped = %d/%d, want 1/0", outcome.Imported, outcome.SkippedDuplicates)
	}
}

func TestPrepare_BlankPrimarySkipped(t *testing.T) {
	st := &fakeStore{}
	table := stdTable(
		row("", "Fran", "yes", ""),
		row("", "Fran", "yes", ""), // identical blanks are not duplicates of each other
		row("S-1", "Fran", "yes", ""),
	)

	outcome, err := newReconciler(st).Prepare(table, stdMapping, Defaults{ProjectID: "P-1"}, Policy{})
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if outcome.SkippedBlankIDs != 2 {
		t.Errorf("SkippedBlankIDs = %d, want 2", outcome.SkippedBlankIDs)
	}
	if outcome.SkippedDuplicates != 0 {
		t.Errorf("SkippedDuplicates = %d, want 0 (blank rows never classify as duplicates)", outcome.SkippedDuplicates)
	}
	if outcome.Imported != 1 {
		t.Errorf("Imported = %d, want 1", outcome.Imported)
	}
}

func TestPrepare_AllowBlankIDs(t *testing.T) {
	st := &fakeStore{}
	table := stdTable(row("", "Fran", "yes", ""))

	outcome, err := newReconciler(st).Prepare(table, stdMapping, Defaults{ProjectID: "P-1"},
		Policy{AllowBlankIDs: true})
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if outcome.Imported != 1 || outcome.SkippedBlankIDs != 0 {
		t.Errorf("imported/blank-skipped = %d/%d, want 1/0", outcome.Imported, outcome.SkippedBlankIDs)
	}
}

func TestPrepare_StorageFailureIsolated(t *testing.T) {
	st := &fakeStore{failOn: map[string]error{
		"S-2": fmt.Errorf("constraint violation"),
	}}
	table := stdTable(
		row("S-1", "Fran", "yes", ""),
		row("S-2", "Marta", "no", ""),
		row("S-3", "Ines", "yes", ""),
	)

	outcome, err := newReconciler(st).Prepare(table, stdMapping, Defaults{ProjectID: "P-1"}, Policy{})
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if outcome.Imported != 2 {
		t.Errorf("Imported = %d, want 2 (rows after the failure still processed)", outcome.Imported)
	}
	if len(outcome.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one", outcome.Errors)
	}
	if outcome.Errors[0].Row != 2 {
		t.Errorf("error row = %d, want original 1-based index 2", outcome.Errors[0].Row)
	}
}

func TestPrepare_FailedRowNotIndexed(t *testing.T) {
	// A row whose insert failed was not committed, so a later
	// identical row must still be attempted.
	st := &fakeStore{failOn: map[string]error{"S-1": fmt.Errorf("disk full")}}
	table := stdTable(
		row("S-1", "Fran", "yes", ""),
		row("S-1", "Fran", "yes", ""),
	)

	outcome, err := newReconciler(st).Prepare(table, stdMapping, Defaults{ProjectID: "P-1"}, Policy{})
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if len(outcome.Errors) != 2 {
		t.Errorf("Errors = %v, want both rows attempted and reported", outcome.Errors)
	}
	if outcome.SkippedDuplicates != 0 {
		t.Errorf("SkippedDuplicates = %d, want 0", outcome.SkippedDuplicates)
	}
}

func TestPrepare_DryRunCommitsNothing(t *testing.T) {
	st := &fakeStore{existing: []store.Sample{
		{SampleID: "S-1", Researcher: "Fran", Expressed: "yes"},
	}}
	table := stdTable(
		row("S-1", "Fran", "yes", ""),
		row("S-2", "Marta", "no", ""),
	)

	outcome, err := newReconciler(st).Prepare(table, stdMapping, Defaults{ProjectID: "P-1"},
		Policy{DryRun: true})
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if !outcome.DryRun {
		t.Error("outcome should be flagged as dry run")
	}
	if outcome.Imported != 1 || outcome.SkippedDuplicates != 1 {
		t.Errorf("imported/skipped = %d/%d, want 1/1", outcome.Imported, outcome.SkippedDuplicates)
	}
	if len(st.inserted) != 0 {
		t.Errorf("store has %d records after dry run, want 0", len(st.inserted))
	}
}

func TestPrepare_RunLevelDefaultsOverride(t *testing.T) {
	st := &fakeStore{}
	table := stdTable(row("S-1", "Fran", "yes", ""))

	_, err := newReconciler(st).Prepare(table, stdMapping,
		Defaults{ProjectID: "P-1", Researcher: "Dr. Supervisor", Protocol: "expression.pdf"}, Policy{})
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	got := st.inserted[0]
	if got.Researcher != "Dr. Supervisor" {
		t.Errorf("researcher = %q, want run-level override", got.Researcher)
	}
	if got.Protocol != "expression.pdf" {
		t.Errorf("protocol = %q, want run-level attachment name", got.Protocol)
	}
}

func TestPrepare_MappedColumnMissingFromTable(t *testing.T) {
	st := &fakeStore{}
	m := mapping.Mapping{field.SampleID: "NoSuchColumn"}
	table := &tabular.Table{Columns: []string{"SampleID"}, Rows: []tabular.Row{{"SampleID": "S-1"}}}

	if _, err := newReconciler(st).Prepare(table, m, Defaults{ProjectID: "P-1"}, Policy{}); err == nil {
		t.Error("expected batch-level error for mapping to a nonexistent column")
	}
	if len(st.inserted) != 0 {
		t.Error("nothing may be committed on a batch-level error")
	}
}

func TestPrepare_WhitespaceTrimmed(t *testing.T) {
	st := &fakeStore{}
	table := stdTable(row("  S-1  ", "  Fran ", " yes", ""))

	_, err := newReconciler(st).Prepare(table, stdMapping, Defaults{ProjectID: "P-1"}, Policy{})
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	got := st.inserted[0]
	if got.SampleID != "S-1" || got.Researcher != "Fran" || got.Expressed != "yes" {
		t.Errorf("values not trimmed: %+v", got)
	}
}
