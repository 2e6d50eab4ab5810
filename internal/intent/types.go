// Package intent converts raw utterances into structured intents using a
// two-tier strategy: an LLM-backed primary extractor and a deterministic
// multilingual fallback. Tier-1 failures never propagate; they only trigger
// the fallback tier.
package intent

import (
	"time"

	"github.com/normanking/concierge/internal/places"
)

// Kind is the enumerated intent taxonomy.
type Kind string

const (
	KindFindNearby    Kind = "find_nearby"
	KindGetDetails    Kind = "get_details"
	KindAddPlace      Kind = "add_place"
	KindAddReview     Kind = "add_review"
	KindGetDirections Kind = "get_directions"
	KindFilter        Kind = "filter"
	KindUnknown       Kind = "unknown"
)

// String returns the wire name of the kind.
func (k Kind) String() string { return string(k) }

// IsValid reports whether k is a member of the taxonomy.
func (k Kind) IsValid() bool {
	switch k {
	case KindFindNearby, KindGetDetails, KindAddPlace, KindAddReview,
		KindGetDirections, KindFilter, KindUnknown:
		return true
	}
	return false
}

// RequiresLocation reports whether intents of this kind cannot be served
// without a resolved user location.
func (k Kind) RequiresLocation() bool {
	return k == KindFindNearby || k == KindGetDirections
}

// ParseKind normalizes a free-form kind name (e.g. from an LLM reply) into a
// taxonomy member, defaulting to KindUnknown.
func ParseKind(s string) Kind {
	switch Kind(normalizeKindName(s)) {
	case KindFindNearby:
		return KindFindNearby
	case KindGetDetails:
		return KindGetDetails
	case KindAddPlace:
		return KindAddPlace
	case KindAddReview:
		return KindAddReview
	case KindGetDirections:
		return KindGetDirections
	case KindFilter:
		return KindFilter
	}
	return KindUnknown
}

// Intent is the structured representation of what the user wants: a kind
// plus the slots extracted from the utterance.
type Intent struct {
	Kind          Kind              `json:"kind"`
	RawText       string            `json:"raw_text"`
	Location      *places.Location  `json:"location,omitempty"`
	MaxBudget     *float64          `json:"max_budget,omitempty"`
	MinRating     *float64          `json:"min_rating,omitempty"`
	MaxDistanceKm *float64          `json:"max_distance_km,omitempty"`
	Preferences   []string          `json:"preferences,omitempty"`
	Language      string            `json:"language"`
	SessionID     string            `json:"session_id,omitempty"`
	ExtractedAt   time.Time         `json:"extracted_at"`
	Metadata      map[string]any    `json:"metadata,omitempty"`
	Params        map[string]string `json:"params,omitempty"`
}

// AddPreference appends tag unless it is already present (case-insensitive).
func (i *Intent) AddPreference(tag string) {
	for _, existing := range i.Preferences {
		if equalFold(existing, tag) {
			return
		}
	}
	i.Preferences = append(i.Preferences, tag)
}

// SetMeta records a metadata key, allocating the map lazily.
func (i *Intent) SetMeta(key string, value any) {
	if i.Metadata == nil {
		i.Metadata = make(map[string]any)
	}
	i.Metadata[key] = value
}
