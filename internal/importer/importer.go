// Package importer reconciles an uploaded table against the record
// store and commits a batch import with per-row failure isolation.
package importer

import (
	"errors"
	"fmt"
	"time"

	"github.com/benchlab/labdex/internal/dedupe"
	"github.com/benchlab/labdex/internal/field"
	"github.com/benchlab/labdex/internal/mapping"
	"github.com/benchlab/labdex/internal/store"
	"github.com/benchlab/labdex/internal/tabular"
)

// ErrMissingProjectID blocks an import run when neither a mapped
// Project ID column nor a run-level value is available. This is a
// precondition checked once, before any row is committed.
var ErrMissingProjectID = errors.New("missing project id: map a Project ID column or pass one for the run")

// RecordStore is the narrow persistence contract the importer needs.
type RecordStore interface {
	ListAll() ([]store.Sample, error)
	Insert(store.Sample) (int64, error)
}

// Defaults are run-level values applied across the whole batch.
type Defaults struct {
	// ProjectID is used when no Project ID column is mapped.
	ProjectID string
	// Researcher, when set, overrides the extracted value on every row.
	Researcher string
	// Protocol is the name of the protocol attachment recorded on
	// every row.
	Protocol string
}

// Policy controls skip behavior for one import run.
type Policy struct {
	// ImportDuplicates imports rows classified as duplicates instead
	// of skipping them.
	ImportDuplicates bool
	// AllowBlankIDs imports rows whose primary identity field is
	// empty instead of skipping them.
	AllowBlankIDs bool
	// DryRun runs validation and classification without committing.
	DryRun bool
}

// RowError is one isolated row failure, reported with the row's
// original 1-based position.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Outcome summarizes one completed import run. Every row is accounted
// for: imported, skipped (with reason), or errored.
type Outcome struct {
	DryRun            bool           `json:"dry_run,omitempty"`
	Imported          int            `json:"imported"`
	SkippedDuplicates int            `json:"skipped_duplicates"`
	SkippedBlankIDs   int            `json:"skipped_blank_ids"`
	Records           []store.Sample `json:"records"`
	Errors            []RowError     `json:"errors"`
}

// Reconciler runs import batches against a record store.
type Reconciler struct {
	Store RecordStore

	// IdentityFields is the duplicate-classification tuple; the first
	// entry is the primary field. Empty falls back to the default.
	IdentityFields []string

	// Now stands in for time.Now in date normalization. Nil uses the
	// real clock.
	Now func() time.Time
}

// Prepare validates the run, classifies every row against existing
// records plus rows committed earlier in the same batch, and commits
// the accepted rows one at a time. Batch-level failures (mapping
// errors, missing project ID) return before any row is touched;
// row-level failures are recorded in the outcome and never abort the
// batch.
func (r *Reconciler) Prepare(table *tabular.Table, m mapping.Mapping, defaults Defaults, policy Policy) (*Outcome, error) {
	now := r.Now
	if now == nil {
		now = time.Now
	}
	identity := r.IdentityFields
	if len(identity) == 0 {
		identity = field.DefaultIdentityFields
	}

	// Staged -> Validated: mapping frozen, preconditions checked.
	if err := m.ValidateColumns(table.Columns); err != nil {
		return nil, err
	}
	_, projectMapped := m[field.ProjectID]
	if !projectMapped && field.NormalizeString(defaults.ProjectID) == "" {
		return nil, ErrMissingProjectID
	}

	existing, err := r.Store.ListAll()
	if err != nil {
		return nil, fmt.Errorf("listing existing records: %w", err)
	}
	ix := dedupe.NewIndex(identity)
	for _, s := range existing {
		ix.Add(s.Values())
	}

	// Validated -> Committing: rows processed in original order, one
	// at a time. The index grows as rows are accepted so duplicates
	// within the upload are caught too.
	outcome := &Outcome{
		DryRun:  policy.DryRun,
		Records: []store.Sample{},
		Errors:  []RowError{},
	}
	primary := identity[0]

	for i, row := range table.Rows {
		rec := extractRow(row, i+1, m, defaults, projectMapped, now)

		if ix.Classify(rec.Values) == dedupe.Duplicate && !policy.ImportDuplicates {
			outcome.SkippedDuplicates++
			continue
		}
		if rec.Get(primary) == "" && !policy.AllowBlankIDs {
			outcome.SkippedBlankIDs++
			continue
		}

		sample := store.FromValues(rec.Values)
		if !policy.DryRun {
			id, err := r.Store.Insert(sample)
			if err != nil {
				outcome.Errors = append(outcome.Errors, RowError{
					Row:     rec.Row,
					Message: fmt.Sprintf("storing row: %v", err),
				})
				continue
			}
			sample.ID = id
		}

		ix.Add(rec.Values)
		outcome.Imported++
		outcome.Records = append(outcome.Records, sample)
	}

	// Committing -> Completed: the run always finishes with full
	// counts, regardless of row-level failures.
	return outcome, nil
}

// extractRow resolves one uploaded row into a normalized record.
// Normalization is total: missing columns become empty strings and
// unparseable dates fall back to the literal cell value, so extraction
// itself never fails a row.
func extractRow(row tabular.Row, position int, m mapping.Mapping, defaults Defaults, projectMapped bool, now func() time.Time) field.Record {
	values := make(map[string]string, len(m)+3)
	for canonical, column := range m {
		if canonical == field.Date {
			values[canonical] = field.NormalizeDate(row[column], now)
			continue
		}
		values[canonical] = field.NormalizeString(row[column])
	}

	if !projectMapped {
		values[field.ProjectID] = field.NormalizeString(defaults.ProjectID)
	}
	if defaults.Researcher != "" {
		values[field.Researcher] = field.NormalizeString(defaults.Researcher)
	}
	if defaults.Protocol != "" {
		values[field.Protocol] = defaults.Protocol
	}
	if _, ok := values[field.Date]; !ok {
		values[field.Date] = now().Format(time.RFC3339)
	}

	return field.Record{Row: position, Values: values}
}
