package places

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// StaticProvider serves a fixed in-memory dataset. It backs the CLI demo mode
// and the test suites; failure injection lets tests exercise the retry and
// fallback paths deterministically.
type StaticProvider struct {
	mu       sync.RWMutex
	data     []Place
	failNext int
	calls    int
}

// NewStaticProvider creates a provider with the built-in fixture dataset.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{data: fixturePlaces()}
}

// NewStaticProviderWith creates a provider over a caller-supplied dataset.
func NewStaticProviderWith(data []Place) *StaticProvider {
	return &StaticProvider{data: data}
}

// FailNext makes the next n calls return an error. Used by tests.
func (p *StaticProvider) FailNext(n int) {
	p.mu.Lock()
	p.failNext = n
	p.mu.Unlock()
}

// Calls returns how many provider calls were made (including failed ones).
func (p *StaticProvider) Calls() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.calls
}

func (p *StaticProvider) tick() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failNext > 0 {
		p.failNext--
		return fmt.Errorf("places: service unavailable")
	}
	return nil
}

// Search implements SearchProvider over the fixture data.
func (p *StaticProvider) Search(ctx context.Context, criteria SearchCriteria) ([]Place, error) {
	if err := p.tick(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	radius := criteria.RadiusKm
	var out []Place
	for _, pl := range p.data {
		if radius > 0 && pl.DistanceKm > radius {
			continue
		}
		if criteria.MaxBudget != nil && pl.PriceForTwo > *criteria.MaxBudget {
			continue
		}
		if criteria.MinRating != nil && pl.Rating < *criteria.MinRating {
			continue
		}
		if len(criteria.Preferences) > 0 && !matchesPreferences(pl, criteria.Preferences) {
			continue
		}
		out = append(out, pl)
		if criteria.Limit > 0 && len(out) >= criteria.Limit {
			break
		}
	}
	return out, nil
}

// GetByID implements SearchProvider.
func (p *StaticProvider) GetByID(ctx context.Context, id string) (*Place, error) {
	if err := p.tick(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	for i := range p.data {
		if p.data[i].ID == id {
			pl := p.data[i]
			return &pl, nil
		}
	}
	return nil, fmt.Errorf("places: no place with id %q", id)
}

func matchesPreferences(pl Place, prefs []string) bool {
	for _, pref := range prefs {
		needle := strings.ToLower(pref)
		if strings.Contains(strings.ToLower(pl.Cuisine), needle) {
			return true
		}
		for _, tag := range pl.Tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				return true
			}
		}
	}
	return false
}

// fixturePlaces is the demo dataset: a small neighbourhood of restaurants
// around a single anchor point.
func fixturePlaces() []Place {
	return []Place{
		{
			ID: "p-001", Name: "Spice Route", Cuisine: "north indian",
			Rating: 4.6, ReviewCount: 212, Verified: true, DistanceKm: 0.8,
			PriceForTwo: 450, Address: "14 MG Road",
			Tags:     []string{"spicy", "biryani", "family"},
			Location: Location{Latitude: 12.9716, Longitude: 77.5946},
		},
		{
			ID: "p-002", Name: "Dosa Junction", Cuisine: "south indian",
			Rating: 4.3, ReviewCount: 540, Verified: true, DistanceKm: 1.4,
			PriceForTwo: 200, Address: "3 Temple Street",
			Tags:     []string{"dosa", "idli", "vegetarian"},
			Location: Location{Latitude: 12.9702, Longitude: 77.6012},
		},
		{
			ID: "p-003", Name: "Dragon Bowl", Cuisine: "chinese",
			Rating: 4.1, ReviewCount: 88, Verified: false, DistanceKm: 2.2,
			PriceForTwo: 600, Address: "21 Brigade Road",
			Tags:     []string{"noodles", "spicy"},
			Location: Location{Latitude: 12.9745, Longitude: 77.6079},
		},
		{
			ID: "p-004", Name: "Bella Napoli", Cuisine: "italian",
			Rating: 4.8, ReviewCount: 34, Verified: true, DistanceKm: 3.6,
			PriceForTwo: 1200, Address: "5 Church Street",
			Tags:     []string{"pizza", "pasta"},
			Location: Location{Latitude: 12.9759, Longitude: 77.6037},
		},
		{
			ID: "p-005", Name: "Chaat Corner", Cuisine: "street food",
			Rating: 3.9, ReviewCount: 1020, Verified: false, DistanceKm: 0.4,
			PriceForTwo: 120, Address: "Market Lane",
			Tags:     []string{"chaat", "spicy", "cheap eats"},
			Location: Location{Latitude: 12.9721, Longitude: 77.5931},
		},
		{
			ID: "p-006", Name: "Green Leaf Café", Cuisine: "continental",
			Rating: 4.4, ReviewCount: 156, Verified: true, DistanceKm: 5.8,
			PriceForTwo: 800, Address: "42 Residency Road",
			Tags:     []string{"vegan", "coffee", "salads"},
			Location: Location{Latitude: 12.9667, Longitude: 77.6101},
		},
	}
}
