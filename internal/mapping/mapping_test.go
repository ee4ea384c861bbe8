package mapping

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/benchlab/labdex/internal/embedding"
)

// axis returns a unit vector along the given axis in a dims-dimensional space.
func axis(dims, i int) []float32 {
	v := make([]float32, dims)
	v[i] = 1
	return v
}

// testProvider builds a static provider where each vocabulary entry
// occupies its own axis, and each column vector is placed near the
// axis it should map to.
func testProvider() *embedding.StaticProvider {
	return &embedding.StaticProvider{
		Model: "static-test",
		Dims:  4,
		Vectors: map[string][]float32{
			"Researcher": axis(4, 0),
			"Sample ID":  axis(4, 1),
			"Expressed":  axis(4, 2),
			"Date":       axis(4, 3),

			"Scientist":         {0.9, 0.1, 0, 0},
			"SampleID":          {0.1, 0.9, 0, 0},
			"Was it Expressed?": {0, 0.1, 0.9, 0},
			"Ambiguous":         {0.5, 0.5, 0, 0}, // exact tie between first two entries
		},
	}
}

func TestSuggest(t *testing.T) {
	vocab := []string{"Researcher", "Sample ID", "Expressed", "Date"}

	tests := []struct {
		name    string
		columns []string
		want    []string
	}{
		{
			name:    "typical upload header",
			columns: []string{"Scientist", "SampleID", "Was it Expressed?"},
			want:    []string{"Researcher", "Sample ID", "Expressed"},
		},
		{
			name:    "identical name still goes through embedding",
			columns: []string{"Researcher"},
			want:    []string{"Researcher"},
		},
		{
			name:    "tie resolves to lowest vocabulary index",
			columns: []string{"Ambiguous"},
			want:    []string{"Researcher"},
		},
		{
			name:    "empty columns",
			columns: nil,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Suggest(context.Background(), testProvider(), tt.columns, vocab)
			if err != nil {
				t.Fatalf("Suggest() error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d suggestions, want %d", len(got), len(tt.want))
			}
			for i, s := range got {
				if s.Field != tt.want[i] {
					t.Errorf("suggestion[%d] = %q, want %q", i, s.Field, tt.want[i])
				}
				if s.Column != tt.columns[i] {
					t.Errorf("suggestion[%d].Column = %q, want %q", i, s.Column, tt.columns[i])
				}
			}
		})
	}
}

func TestSuggest_ModelUnavailable(t *testing.T) {
	p := &embedding.StaticProvider{Model: "static-test", Dims: 4, Vectors: map[string][]float32{}}
	_, err := Suggest(context.Background(), p, []string{"Scientist"}, []string{"Researcher"})
	if !errors.Is(err, embedding.ErrModelUnavailable) {
		t.Errorf("error = %v, want ErrModelUnavailable", err)
	}
}

func TestSuggest_EmptyVocabulary(t *testing.T) {
	_, err := Suggest(context.Background(), testProvider(), []string{"Scientist"}, nil)
	if err == nil {
		t.Error("expected error for empty vocabulary")
	}
}

func TestSuggest_DuplicateTargetsPossible(t *testing.T) {
	// Two columns near the same axis both suggest the same field;
	// the mapper surfaces rather than resolves this.
	p := testProvider()
	p.Vectors["Person"] = []float32{0.8, 0.2, 0, 0}

	got, err := Suggest(context.Background(), p, []string{"Scientist", "Person"},
		[]string{"Researcher", "Sample ID", "Expressed", "Date"})
	if err != nil {
		t.Fatalf("Suggest() error: %v", err)
	}
	if got[0].Field != "Researcher" || got[1].Field != "Researcher" {
		t.Fatalf("expected both columns to suggest Researcher, got %q and %q", got[0].Field, got[1].Field)
	}

	assignments := []Assignment{
		{Column: got[0].Column, Field: got[0].Field},
		{Column: got[1].Column, Field: got[1].Field},
	}
	if _, err := Build(assignments); err == nil {
		t.Error("Build() should reject duplicate targets")
	}
}

func TestBuild(t *testing.T) {
	m, err := Build([]Assignment{
		{Column: "Scientist", Field: "Researcher"},
		{Column: "SampleID", Field: "Sample ID"},
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if m["Researcher"] != "Scientist" || m["Sample ID"] != "SampleID" {
		t.Errorf("unexpected mapping: %v", m)
	}
}

func TestBuild_Conflict(t *testing.T) {
	_, err := Build([]Assignment{
		{Column: "Scientist", Field: "Researcher"},
		{Column: "Person", Field: "Researcher"},
		{Column: "SampleID", Field: "Sample ID"},
	})

	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("error = %v, want *ConflictError", err)
	}
	if len(conflictErr.Conflicts) != 1 {
		t.Fatalf("got %d conflicts, want 1", len(conflictErr.Conflicts))
	}
	c := conflictErr.Conflicts[0]
	if c.Field != "Researcher" {
		t.Errorf("conflict field = %q, want Researcher", c.Field)
	}
	if len(c.Columns) != 2 {
		t.Errorf("conflict columns = %v, want both sources", c.Columns)
	}
	// The error message must name the conflicting columns.
	if !strings.Contains(err.Error(), "Scientist") || !strings.Contains(err.Error(), "Person") {
		t.Errorf("error message %q does not name conflicting columns", err.Error())
	}
}

func TestValidateColumns(t *testing.T) {
	m := Mapping{"Researcher": "Scientist", "Sample ID": "SampleID"}

	if err := m.ValidateColumns([]string{"Scientist", "SampleID", "Extra"}); err != nil {
		t.Errorf("ValidateColumns() unexpected error: %v", err)
	}

	err := m.ValidateColumns([]string{"Scientist"})
	if err == nil || !strings.Contains(err.Error(), "SampleID") {
		t.Errorf("ValidateColumns() = %v, want missing-column error naming SampleID", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical direction", []float32{1, 0}, []float32{2, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"empty", nil, nil, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}
