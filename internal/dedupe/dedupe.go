// Package dedupe classifies records as new or duplicate by exact
// identity-key matching. It only labels; callers decide whether a
// labeled duplicate is skipped or imported anyway.
package dedupe

import "strings"

// Status is the classification of a candidate record.
type Status int

const (
	New Status = iota
	Duplicate
)

func (s Status) String() string {
	if s == Duplicate {
		return "duplicate"
	}
	return "new"
}

// keySep joins identity-key components. A unit separator cannot occur
// in trimmed cell values, so joined keys are unambiguous.
const keySep = "\x1f"

// Index is a set of identity keys over a fixed tuple of fields. The
// first field is the primary: records with an empty primary value are
// neither indexed nor ever classified as duplicates.
type Index struct {
	fields []string
	keys   map[string]struct{}
}

// NewIndex creates an empty index over the given identity fields.
func NewIndex(identityFields []string) *Index {
	return &Index{
		fields: identityFields,
		keys:   make(map[string]struct{}),
	}
}

// keyFor builds the normalized identity key for a record's values.
// Comparison is case-sensitive exact equality after trimming.
func (ix *Index) keyFor(values map[string]string) string {
	parts := make([]string, len(ix.fields))
	for i, f := range ix.fields {
		parts[i] = strings.TrimSpace(values[f])
	}
	return strings.Join(parts, keySep)
}

// primary returns the trimmed primary-field value of a record.
func (ix *Index) primary(values map[string]string) string {
	if len(ix.fields) == 0 {
		return ""
	}
	return strings.TrimSpace(values[ix.fields[0]])
}

// Add inserts a record's identity key. Records with an empty primary
// value are skipped: they can neither be flagged as duplicates nor
// cause other records to be flagged.
func (ix *Index) Add(values map[string]string) {
	if ix.primary(values) == "" {
		return
	}
	ix.keys[ix.keyFor(values)] = struct{}{}
}

// Classify reports whether a candidate record duplicates an indexed
// one. Classification does not modify the index, so it is idempotent.
func (ix *Index) Classify(values map[string]string) Status {
	if ix.primary(values) == "" {
		return New
	}
	if _, ok := ix.keys[ix.keyFor(values)]; ok {
		return Duplicate
	}
	return New
}

// Len returns the number of indexed identity keys.
func (ix *Index) Len() int {
	return len(ix.keys)
}

// BuildIndex seeds an index from existing records' values.
func BuildIndex(identityFields []string, existing []map[string]string) *Index {
	ix := NewIndex(identityFields)
	for _, values := range existing {
		ix.Add(values)
	}
	return ix
}
