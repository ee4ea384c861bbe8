// Package store persists accepted records in SQLite with a
// full-text-search index over the searchable fields.
package store

import (
	"github.com/benchlab/labdex/internal/field"
)

// Sample is one persisted experiment record.
type Sample struct {
	ID         int64  `json:"id"`
	SampleID   string `json:"sample_id"`
	Researcher string `json:"researcher"`
	Expressed  string `json:"expressed"`
	Soluble    string `json:"soluble,omitempty"`
	KDBinding  string `json:"kd_binding,omitempty"`
	Sequence   string `json:"sequence,omitempty"`
	ProjectID  string `json:"project_id"`
	Date       string `json:"date"`
	Comments   string `json:"comments,omitempty"`
	Protocol   string `json:"protocol,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// FromValues builds a Sample from normalized canonical field values.
// Canonical fields outside the persisted schema are dropped.
func FromValues(values map[string]string) Sample {
	return Sample{
		SampleID:   values[field.SampleID],
		Researcher: values[field.Researcher],
		Expressed:  values[field.Expressed],
		Soluble:    values[field.Soluble],
		KDBinding:  values[field.KDBinding],
		Sequence:   values[field.Sequence],
		ProjectID:  values[field.ProjectID],
		Date:       values[field.Date],
		Comments:   values[field.Comments],
		Protocol:   values[field.Protocol],
	}
}

// Values returns the sample's canonical field values, the shape the
// duplicate index works on.
func (s Sample) Values() map[string]string {
	return map[string]string{
		field.SampleID:   s.SampleID,
		field.Researcher: s.Researcher,
		field.Expressed:  s.Expressed,
		field.Soluble:    s.Soluble,
		field.KDBinding:  s.KDBinding,
		field.Sequence:   s.Sequence,
		field.ProjectID:  s.ProjectID,
		field.Date:       s.Date,
		field.Comments:   s.Comments,
		field.Protocol:   s.Protocol,
	}
}
