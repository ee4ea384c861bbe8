// Package field defines the canonical field vocabulary records are
// normalized into, and the total normalization functions that turn raw
// spreadsheet cells into defined values.
package field

import (
	"strings"
	"time"
)

// Canonical field names. The vocabulary is fixed per deployment;
// these constants cover the default deployment.
const (
	ProjectID  = "Project ID"
	SampleID   = "Sample ID"
	Expressed  = "Expressed"
	KDBinding  = "KD/Binding"
	Sequence   = "Sequence"
	Soluble    = "Soluble"
	Date       = "Date"
	Researcher = "Researcher"
	Comments   = "Comments"
	Protocol   = "Protocol"
)

// DefaultVocabulary is the ordered set of canonical fields offered to
// the column mapper. Order matters: similarity ties resolve to the
// lowest index.
var DefaultVocabulary = []string{
	ProjectID,
	SampleID,
	Expressed,
	KDBinding,
	Sequence,
	Soluble,
	Date,
	Researcher,
	Comments,
	Protocol,
}

// DefaultIdentityFields is the default tuple used for duplicate
// classification. The first entry is the primary field: rows with an
// empty primary value are never considered duplicates.
var DefaultIdentityFields = []string{SampleID, Researcher, Expressed}

// dateLayouts are tried in order when normalizing date cells.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"02/01/2006 15:04",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// NormalizeString trims a raw cell value. It never fails: a missing
// cell normalizes to the empty string.
func NormalizeString(v string) string {
	return strings.TrimSpace(v)
}

// NormalizeDate converts a raw date cell to an RFC 3339 timestamp.
// An empty cell yields the current time (import time stands in for an
// unrecorded experiment date). A value that matches no known layout is
// returned trimmed as-is rather than failing the row.
func NormalizeDate(v string, now func() time.Time) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return now().Format(time.RFC3339)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(time.RFC3339)
		}
	}
	return v
}

// Record is one extracted record: normalized values keyed by canonical
// field name, plus the 1-based position of the source row for
// user-facing reporting.
type Record struct {
	Row    int               `json:"row"`
	Values map[string]string `json:"values"`
}

// Get returns the normalized value for a canonical field, or the empty
// string when the field was never extracted.
func (r Record) Get(name string) string {
	return r.Values[name]
}
