// Package search combines full-text queries with field filters over
// the record store.
package search

import (
	"strings"

	"github.com/benchlab/labdex/internal/store"
)

// Source is the read surface search needs from the store.
type Source interface {
	ListAll() ([]store.Sample, error)
	Search(query string) ([]store.Sample, error)
	Filter(researcher, sampleID, date string) ([]store.Sample, error)
}

// Query describes one search request: optional free text plus
// optional substring filters.
type Query struct {
	Text       string
	Researcher string
	SampleID   string
	Date       string
}

// Run executes a query. Free text goes through the FTS index and any
// filters narrow that result set client-side by case-insensitive
// substring match. Filters without free text use the store's filter
// path; an empty query lists everything.
func Run(src Source, q Query) ([]store.Sample, error) {
	hasFilters := q.Researcher != "" || q.SampleID != "" || q.Date != ""

	if q.Text != "" {
		results, err := src.Search(q.Text)
		if err != nil {
			return nil, err
		}
		if !hasFilters {
			return results, nil
		}
		filtered := make([]store.Sample, 0, len(results))
		for _, s := range results {
			if matches(s, q) {
				filtered = append(filtered, s)
			}
		}
		return filtered, nil
	}

	if hasFilters {
		return src.Filter(q.Researcher, q.SampleID, q.Date)
	}

	return src.ListAll()
}

// matches reports whether a sample passes all of the query's filters.
func matches(s store.Sample, q Query) bool {
	if q.Researcher != "" && !containsFold(s.Researcher, q.Researcher) {
		return false
	}
	if q.SampleID != "" && !containsFold(s.SampleID, q.SampleID) {
		return false
	}
	if q.Date != "" && !containsFold(s.Date, q.Date) {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
