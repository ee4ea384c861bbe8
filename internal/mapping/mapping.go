// Package mapping assigns uploaded column names to canonical fields by
// embedding similarity, and validates the resulting column mapping.
package mapping

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/benchlab/labdex/internal/embedding"
)

// Suggestion is the best-guess canonical field for one uploaded column.
// It is a starting point only: the user may override any suggestion
// before the mapping is frozen for import.
type Suggestion struct {
	Column     string  `json:"column"`
	Field      string  `json:"field"`
	Similarity float32 `json:"similarity"`
}

// Suggest assigns each column its highest-similarity vocabulary entry.
// Columns and vocabulary are embedded in two batches; ties resolve to
// the lowest vocabulary index. An exact string match gets no shortcut:
// everything goes through the embedding space so behavior is uniform
// across backends.
func Suggest(ctx context.Context, p embedding.Provider, columns, vocabulary []string) ([]Suggestion, error) {
	if len(columns) == 0 {
		return []Suggestion{}, nil
	}
	if len(vocabulary) == 0 {
		return nil, fmt.Errorf("empty vocabulary")
	}

	columnVecs, err := p.EmbedBatch(ctx, columns)
	if err != nil {
		return nil, fmt.Errorf("embedding columns: %w", err)
	}
	vocabVecs, err := p.EmbedBatch(ctx, vocabulary)
	if err != nil {
		return nil, fmt.Errorf("embedding vocabulary: %w", err)
	}

	suggestions := make([]Suggestion, len(columns))
	for i, colVec := range columnVecs {
		best := 0
		bestSim := CosineSimilarity(colVec, vocabVecs[0])
		for j := 1; j < len(vocabVecs); j++ {
			// Strict > keeps the first occurrence on a tie.
			if sim := CosineSimilarity(colVec, vocabVecs[j]); sim > bestSim {
				best = j
				bestSim = sim
			}
		}
		suggestions[i] = Suggestion{
			Column:     columns[i],
			Field:      vocabulary[best],
			Similarity: bestSim,
		}
	}
	return suggestions, nil
}

// Assignment pairs one source column with one canonical field. A list
// of assignments is what the user confirms; Build turns it into a
// frozen Mapping or rejects it.
type Assignment struct {
	Column string
	Field  string
}

// Mapping is a frozen column mapping: canonical field name to source
// column name, at most one source column per field.
type Mapping map[string]string

// Conflict names the source columns competing for one canonical field.
type Conflict struct {
	Field   string   `json:"field"`
	Columns []string `json:"columns"`
}

// ConflictError reports canonical fields assigned more than one source
// column. The import is blocked until the user resolves the mapping;
// duplicate targets are never silently overwritten.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		parts[i] = fmt.Sprintf("%q claimed by columns %s", c.Field, strings.Join(c.Columns, ", "))
	}
	return "mapping conflict: " + strings.Join(parts, "; ")
}

// Build validates assignments and produces a Mapping. It returns a
// *ConflictError when two or more columns target the same field.
func Build(assignments []Assignment) (Mapping, error) {
	byField := make(map[string][]string)
	for _, a := range assignments {
		byField[a.Field] = append(byField[a.Field], a.Column)
	}

	var conflicts []Conflict
	for f, cols := range byField {
		if len(cols) > 1 {
			conflicts = append(conflicts, Conflict{Field: f, Columns: cols})
		}
	}
	if len(conflicts) > 0 {
		sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Field < conflicts[j].Field })
		return nil, &ConflictError{Conflicts: conflicts}
	}

	m := make(Mapping, len(assignments))
	for _, a := range assignments {
		m[a.Field] = a.Column
	}
	return m, nil
}

// ValidateColumns checks that every mapped source column exists in the
// uploaded table. A mapping must never point at a nonexistent column.
func (m Mapping) ValidateColumns(columns []string) error {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}
	var missing []string
	for f, c := range m {
		if _, ok := present[c]; !ok {
			missing = append(missing, fmt.Sprintf("%q (mapped to %q)", c, f))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("mapped columns not in table: %s", strings.Join(missing, ", "))
	}
	return nil
}
