package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/concierge/internal/places"
)

func TestFallback_DetectLanguage(t *testing.T) {
	f := NewFallbackExtractor(LangEnglish)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain english", "find good pizza near me", LangEnglish},
		{"two hindi hits no tamil", "sasta khana batao", LangHindi},
		{"two tamil hits no hindi", "nalla saapadu enge", LangTamil},
		{"no lexicon hits defaults to base", "quiet place for dinner", LangEnglish},
		{"hindi outweighs tamil", "mujhe sasta khana chahiye nalla", LangHindi},
		{"empty string", "", LangEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.DetectLanguage(tt.text))
		})
	}
}

func TestFallback_DetectLanguage_CustomBase(t *testing.T) {
	f := NewFallbackExtractor(LangHindi)
	assert.Equal(t, LangHindi, f.DetectLanguage("something neutral"))
}

func TestFallback_KindDetection(t *testing.T) {
	f := NewFallbackExtractor("")

	tests := []struct {
		text string
		want Kind
	}{
		{"find biryani near me", KindFindNearby},
		{"tell me about Dosa Junction timings", KindGetDetails},
		{"add a new place called Joe's", KindAddPlace},
		{"I want to rate this dhaba", KindFindNearby}, // search group is checked first
		{"leave a review for p-001", KindAddReview},
		{"how to reach Bella Napoli", KindGetDirections},
		{"what is the meaning of life", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			it := f.Extract(tt.text, "s1", nil)
			assert.Equal(t, tt.want, it.Kind)
		})
	}
}

func TestFallback_SlotExtraction(t *testing.T) {
	f := NewFallbackExtractor("")

	t.Run("cheap sets budget ceiling", func(t *testing.T) {
		it := f.Extract("find cheap food near me", "s1", nil)
		require.NotNil(t, it.MaxBudget)
		assert.Equal(t, budgetCheap, *it.MaxBudget)
	})

	t.Run("expensive leaves budget unrestricted", func(t *testing.T) {
		it := f.Extract("find an expensive restaurant", "s1", nil)
		assert.Nil(t, it.MaxBudget)
		assert.Equal(t, "unrestricted", it.Metadata["budget"])
	})

	t.Run("good sets lower rating floor", func(t *testing.T) {
		it := f.Extract("good food nearby", "s1", nil)
		require.NotNil(t, it.MinRating)
		assert.Equal(t, ratingGood, *it.MinRating)
	})

	t.Run("excellent wins over good", func(t *testing.T) {
		it := f.Extract("excellent food, good portions", "s1", nil)
		require.NotNil(t, it.MinRating)
		assert.Equal(t, ratingExcellent, *it.MinRating)
	})

	t.Run("very close beats nearby", func(t *testing.T) {
		it := f.Extract("something very close by", "s1", nil)
		require.NotNil(t, it.MaxDistanceKm)
		assert.Equal(t, distanceVeryClose, *it.MaxDistanceKm)
	})

	t.Run("nearby sets wider ceiling", func(t *testing.T) {
		it := f.Extract("restaurants nearby", "s1", nil)
		require.NotNil(t, it.MaxDistanceKm)
		assert.Equal(t, distanceNearby, *it.MaxDistanceKm)
	})

	t.Run("preferences deduplicated", func(t *testing.T) {
		it := f.Extract("spicy spicy biryani please, very spicy", "s1", nil)
		assert.Equal(t, []string{"spicy", "biryani"}, it.Preferences)
	})
}

func TestFallback_CarriesCallerContext(t *testing.T) {
	f := NewFallbackExtractor("")
	loc := &places.Location{Latitude: 12.97, Longitude: 77.59}

	it := f.Extract("find food", "session-9", loc)
	assert.Equal(t, "session-9", it.SessionID)
	assert.Same(t, loc, it.Location)
	assert.False(t, it.ExtractedAt.IsZero())
	assert.Equal(t, "fallback", it.Metadata["extractor"])
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindFindNearby, ParseKind("find_nearby"))
	assert.Equal(t, KindFindNearby, ParseKind(" Find-Nearby "))
	assert.Equal(t, KindGetDetails, ParseKind("get details"))
	assert.Equal(t, KindUnknown, ParseKind("make me a sandwich"))
	assert.Equal(t, KindUnknown, ParseKind(""))
}
