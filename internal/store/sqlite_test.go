package store

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

// openTestDB creates a fresh database in a temp directory.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "labdex.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedSamples(t *testing.T, db *DB) {
	t.Helper()
	samples := []Sample{
		{SampleID: "S-0001", Researcher: "Fran", Expressed: "yes", ProjectID: "P-1", Date: "2025-12-05T00:00:00Z"},
		{SampleID: "S-0002", Researcher: "Marta", Expressed: "no", ProjectID: "P-1", Date: "2025-12-06T00:00:00Z", Comments: "low yield"},
		{SampleID: "S-0003", Researcher: "Fran", Expressed: "yes", ProjectID: "P-2", Date: "2026-01-10T00:00:00Z"},
	}
	for _, s := range samples {
		if _, err := db.Insert(s); err != nil {
			t.Fatalf("Insert(%s) error: %v", s.SampleID, err)
		}
	}
}

func TestInsertAndListAll(t *testing.T) {
	db := openTestDB(t)
	seedSamples(t, db)

	samples, err := db.ListAll()
	if err != nil {
		t.Fatalf("ListAll() error: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}

	// Newest first: same created_at second resolves by id descending.
	if samples[0].SampleID != "S-0003" {
		t.Errorf("first sample = %s, want S-0003", samples[0].SampleID)
	}
	if samples[0].CreatedAt == "" {
		t.Error("CreatedAt should be populated")
	}
}

func TestSearch(t *testing.T) {
	db := openTestDB(t)
	seedSamples(t, db)

	tests := []struct {
		query string
		want  int
	}{
		{"Fran", 2},
		{"S-0002", 1},
		{"yield", 1},
		{"nonexistent", 0},
	}
	for _, tt := range tests {
		got, err := db.Search(tt.query)
		if err != nil {
			t.Fatalf("Search(%q) error: %v", tt.query, err)
		}
		if len(got) != tt.want {
			t.Errorf("Search(%q) = %d results, want %d", tt.query, len(got), tt.want)
		}
	}
}

func TestSearch_QuotedInput(t *testing.T) {
	db := openTestDB(t)
	seedSamples(t, db)

	// Raw FTS5 operators in user input must not cause a query error.
	if _, err := db.Search("AND OR NOT"); err != nil {
		t.Errorf("Search with operator words error: %v", err)
	}
}

func TestSearch_EmbeddedQuotes(t *testing.T) {
	db := openTestDB(t)
	seedSamples(t, db)
	if _, err := db.Insert(Sample{SampleID: "S-0004", Researcher: "Fran", ProjectID: "P-2", Comments: `5" plate`}); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	// Double quotes in user input must not break the quoted query.
	for _, q := range []string{`5"`, `a"b`, `5" plate`, `"low yield"`} {
		if _, err := db.Search(q); err != nil {
			t.Errorf("Search(%q) error: %v", q, err)
		}
	}

	got, err := db.Search(`5" plate`)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(got) != 1 || got[0].SampleID != "S-0004" {
		t.Errorf("got %d results, want the 5\" plate record", len(got))
	}
}

func TestFilter(t *testing.T) {
	db := openTestDB(t)
	seedSamples(t, db)

	tests := []struct {
		name                       string
		researcher, sampleID, date string
		want                       int
	}{
		{"by researcher", "Fran", "", "", 2},
		{"by sample substring", "", "000", "", 3},
		{"by date substring", "", "", "2025-12", 2},
		{"combined", "Fran", "S-0001", "", 1},
		{"no predicates returns all", "", "", "", 3},
		{"no match", "Nobody", "", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Filter(tt.researcher, tt.sampleID, tt.date)
			if err != nil {
				t.Fatalf("Filter() error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d results, want %d", len(got), tt.want)
			}
		})
	}
}

func TestExportCSV(t *testing.T) {
	db := openTestDB(t)
	seedSamples(t, db)

	var buf bytes.Buffer
	n, err := db.ExportCSV(&buf)
	if err != nil {
		t.Fatalf("ExportCSV() error: %v", err)
	}
	if n != 3 {
		t.Errorf("exported %d records, want 3", n)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d CSV lines, want header + 3 records", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,sample_id,researcher") {
		t.Errorf("unexpected header: %s", lines[0])
	}
}

func TestValuesRoundTrip(t *testing.T) {
	s := Sample{SampleID: "S-1", Researcher: "Fran", Expressed: "yes", ProjectID: "P-1"}
	got := FromValues(s.Values())
	if got != s {
		t.Errorf("FromValues(Values()) = %+v, want %+v", got, s)
	}
}

func TestCount(t *testing.T) {
	db := openTestDB(t)
	if n, err := db.Count(); err != nil || n != 0 {
		t.Fatalf("Count() = %d, %v; want 0, nil", n, err)
	}
	seedSamples(t, db)
	if n, err := db.Count(); err != nil || n != 3 {
		t.Errorf("Count() = %d, %v; want 3, nil", n, err)
	}
}
