package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/normanking/concierge/internal/intent"
	"github.com/normanking/concierge/internal/places"
)

func ptr(v float64) *float64 { return &v }

func baseIntent() *intent.Intent {
	return &intent.Intent{
		Kind:        intent.KindFindNearby,
		Location:    &places.Location{Latitude: 12.97161, Longitude: 77.59462},
		MaxBudget:   ptr(300),
		MinRating:   ptr(4.0),
		Preferences: []string{"spicy", "biryani"},
	}
}

func TestSearchKey_Deterministic(t *testing.T) {
	a := baseIntent()
	b := baseIntent()

	assert.Equal(t, SearchKey(a), SearchKey(b))
}

func TestSearchKey_PreferenceOrderIgnored(t *testing.T) {
	a := baseIntent()
	b := baseIntent()
	b.Preferences = []string{"Biryani", "SPICY"}

	assert.Equal(t, SearchKey(a), SearchKey(b), "tags are sorted and lowercased before hashing")
}

func TestSearchKey_LocationRounding(t *testing.T) {
	a := baseIntent()
	b := baseIntent()
	// Differs only past the 4th decimal place.
	b.Location = &places.Location{Latitude: 12.971612, Longitude: 77.594618}

	assert.Equal(t, SearchKey(a), SearchKey(b))

	c := baseIntent()
	c.Location = &places.Location{Latitude: 12.9720, Longitude: 77.5946}
	assert.NotEqual(t, SearchKey(a), SearchKey(c))
}

func TestSearchKey_FieldDifferencesChangeKey(t *testing.T) {
	base := baseIntent()

	tests := []struct {
		name   string
		mutate func(*intent.Intent)
	}{
		{"budget", func(it *intent.Intent) { it.MaxBudget = ptr(500) }},
		{"no budget", func(it *intent.Intent) { it.MaxBudget = nil }},
		{"rating", func(it *intent.Intent) { it.MinRating = ptr(4.5) }},
		{"radius", func(it *intent.Intent) { it.MaxDistanceKm = ptr(1.0) }},
		{"preferences", func(it *intent.Intent) { it.Preferences = []string{"vegan"} }},
		{"no location", func(it *intent.Intent) { it.Location = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := baseIntent()
			tt.mutate(other)
			assert.NotEqual(t, SearchKey(base), SearchKey(other))
		})
	}
}

func TestSearchKey_IgnoresNonShapingFields(t *testing.T) {
	a := baseIntent()
	b := baseIntent()
	b.RawText = "completely different phrasing"
	b.SessionID = "other-session"
	b.Language = intent.LangTamil

	assert.Equal(t, SearchKey(a), SearchKey(b))
}

func TestDetailKey(t *testing.T) {
	assert.Equal(t, "detail:p-001", DetailKey("p-001"))
	assert.NotEqual(t, DetailKey("p-001"), DetailKey("p-002"))
}
