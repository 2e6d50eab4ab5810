// Package places defines the collaborator contracts the assistant core
// consumes: the search/geo provider, the speech engines, and the shared
// place/location types that cross those boundaries. The real implementations
// (HTTP clients, geocoders, STT/TTS engines) live outside this module; a
// static in-memory provider is included for the CLI demo mode and tests.
package places

import (
	"context"
	"time"
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place is a single local-search result.
type Place struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Cuisine     string   `json:"cuisine"`
	Rating      float64  `json:"rating"`       // 0..5
	ReviewCount int      `json:"review_count"`
	Verified    bool     `json:"verified"`
	DistanceKm  float64  `json:"distance_km"`
	PriceForTwo float64  `json:"price_for_two"`
	Address     string   `json:"address"`
	Tags        []string `json:"tags,omitempty"`
	Location    Location `json:"location"`
}

// SearchCriteria shapes a provider query. Zero values mean "unrestricted".
type SearchCriteria struct {
	Location      *Location
	RadiusKm      float64
	MaxBudget     *float64
	MinRating     *float64
	Preferences   []string
	Limit         int
}

// Review is user feedback submitted for a place.
type Review struct {
	PlaceID   string    `json:"place_id"`
	Rating    float64   `json:"rating"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchProvider is the external search/geo collaborator.
type SearchProvider interface {
	// Search returns places matching the criteria, unranked.
	Search(ctx context.Context, criteria SearchCriteria) ([]Place, error)

	// GetByID returns a single place or a not-found error.
	GetByID(ctx context.Context, id string) (*Place, error)
}

// Speech is the external speech collaborator: audio in, text out and back.
type Speech interface {
	// Transcribe converts raw audio into text, reporting the detected language.
	Transcribe(ctx context.Context, audio []byte, languageHint string) (text string, language string, err error)

	// Synthesize renders text as audio, returning the bytes and their format.
	Synthesize(ctx context.Context, text string, language string) (audio []byte, format string, err error)
}
