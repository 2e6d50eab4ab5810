package places

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider_SearchFilters(t *testing.T) {
	p := NewStaticProvider()
	ctx := context.Background()

	t.Run("radius", func(t *testing.T) {
		got, err := p.Search(ctx, SearchCriteria{RadiusKm: 1.0})
		require.NoError(t, err)
		for _, pl := range got {
			assert.LessOrEqual(t, pl.DistanceKm, 1.0)
		}
		assert.NotEmpty(t, got)
	})

	t.Run("budget", func(t *testing.T) {
		budget := 300.0
		got, err := p.Search(ctx, SearchCriteria{MaxBudget: &budget})
		require.NoError(t, err)
		for _, pl := range got {
			assert.LessOrEqual(t, pl.PriceForTwo, budget)
		}
	})

	t.Run("rating floor", func(t *testing.T) {
		floor := 4.5
		got, err := p.Search(ctx, SearchCriteria{MinRating: &floor})
		require.NoError(t, err)
		for _, pl := range got {
			assert.GreaterOrEqual(t, pl.Rating, floor)
		}
	})

	t.Run("preference tags match cuisine and tags", func(t *testing.T) {
		got, err := p.Search(ctx, SearchCriteria{Preferences: []string{"spicy"}})
		require.NoError(t, err)
		assert.NotEmpty(t, got)
	})
}

func TestStaticProvider_GetByID(t *testing.T) {
	p := NewStaticProvider()

	pl, err := p.GetByID(context.Background(), "p-002")
	require.NoError(t, err)
	assert.Equal(t, "Dosa Junction", pl.Name)

	_, err = p.GetByID(context.Background(), "nope")
	assert.Error(t, err)
}

func TestStaticProvider_FailureInjection(t *testing.T) {
	p := NewStaticProvider()
	p.FailNext(2)

	_, err := p.Search(context.Background(), SearchCriteria{})
	assert.Error(t, err)
	_, err = p.Search(context.Background(), SearchCriteria{})
	assert.Error(t, err)
	_, err = p.Search(context.Background(), SearchCriteria{})
	assert.NoError(t, err)
	assert.Equal(t, 3, p.Calls())
}
