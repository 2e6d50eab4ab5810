package query

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/normanking/concierge/internal/intent"
)

const (
	// DefaultSearchTTL bounds how long search and detail results are reused.
	DefaultSearchTTL = 15 * time.Minute

	// DefaultRecentTTL bounds the per-session recent-aggregate entries.
	DefaultRecentTTL = 5 * time.Minute

	// DefaultRadiusKm is the search radius applied when the intent carries
	// no distance ceiling.
	DefaultRadiusKm = 5.0

	cacheSize = 512
)

// resultCache memoizes executor results in two TTL tiers: search/detail
// entries (15m) and per-session recent aggregates (5m). Concurrent writers
// to the same key overwrite (last write wins).
type resultCache struct {
	search *expirable.LRU[string, *Result]
	recent *expirable.LRU[string, *Result]
}

func newResultCache(searchTTL, recentTTL time.Duration) *resultCache {
	if searchTTL <= 0 {
		searchTTL = DefaultSearchTTL
	}
	if recentTTL <= 0 {
		recentTTL = DefaultRecentTTL
	}
	return &resultCache{
		search: expirable.NewLRU[string, *Result](cacheSize, nil, searchTTL),
		recent: expirable.NewLRU[string, *Result](cacheSize, nil, recentTTL),
	}
}

// SearchKey derives the deterministic cache key for a search-class intent.
// Only query-shaping fields participate: location rounded to 4 decimal
// places (or "null"), radius, budget ceiling, rating floor, and the
// preference tags sorted lexicographically.
func SearchKey(it *intent.Intent) string {
	var sb strings.Builder

	if it.Location != nil {
		fmt.Fprintf(&sb, "loc=%.4f,%.4f", it.Location.Latitude, it.Location.Longitude)
	} else {
		sb.WriteString("loc=null")
	}

	radius := DefaultRadiusKm
	if it.MaxDistanceKm != nil {
		radius = *it.MaxDistanceKm
	}
	fmt.Fprintf(&sb, "|radius=%.2f", radius)

	if it.MaxBudget != nil {
		fmt.Fprintf(&sb, "|budget=%.2f", *it.MaxBudget)
	} else {
		sb.WriteString("|budget=null")
	}

	if it.MinRating != nil {
		fmt.Fprintf(&sb, "|rating=%.2f", *it.MinRating)
	} else {
		sb.WriteString("|rating=null")
	}

	prefs := append([]string(nil), it.Preferences...)
	for i := range prefs {
		prefs[i] = strings.ToLower(prefs[i])
	}
	sort.Strings(prefs)
	fmt.Fprintf(&sb, "|prefs=%s", strings.Join(prefs, ","))

	sum := sha256.Sum256([]byte(sb.String()))
	return "search:" + hex.EncodeToString(sum[:])
}

// DetailKey derives the cache key for an entity lookup.
func DetailKey(id string) string {
	return "detail:" + id
}

func recentKey(sessionID string) string {
	return "recent:" + sessionID
}
