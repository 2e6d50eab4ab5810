// Package query executes structured intents against the search/geo
// collaborators. It owns caching, relevance ranking, and the
// retry-then-fallback chain; by contract no failure ever escapes Execute as
// anything other than a structured Result.
package query

import (
	"time"

	"github.com/normanking/concierge/internal/places"
)

// Result is the structured outcome of executing one intent.
type Result struct {
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Items        []places.Place `json:"items,omitempty"`
	Item         *places.Place  `json:"item,omitempty"`
	TotalCount   int            `json:"total_count"`
	MapURL       string         `json:"map_url,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	ExecutedAt   time.Time      `json:"executed_at"`
}

// SetMeta records a metadata key, allocating the map lazily.
func (r *Result) SetMeta(key string, value any) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
}

// FromCache reports whether this result was served from the cache.
func (r *Result) FromCache() bool {
	v, ok := r.Metadata["fromCache"].(bool)
	return ok && v
}

// UsedFallback reports whether this result came from the fallback path.
func (r *Result) UsedFallback() bool {
	v, ok := r.Metadata["usedFallback"].(bool)
	return ok && v
}

// clone returns a shallow copy so cached results can be annotated per turn
// without mutating the cached entry.
func (r *Result) clone() *Result {
	cp := *r
	cp.Metadata = make(map[string]any, len(r.Metadata)+1)
	for k, v := range r.Metadata {
		cp.Metadata[k] = v
	}
	return &cp
}

// Analytics is the optional analytics collaborator. Implementations must be
// cheap; RecordQuery is called once per executed intent.
type Analytics interface {
	RecordQuery(kind string, success, fromCache bool)
}

// NopAnalytics discards all events.
type NopAnalytics struct{}

func (NopAnalytics) RecordQuery(string, bool, bool) {}
