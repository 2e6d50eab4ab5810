package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/concierge/internal/intent"
	"github.com/normanking/concierge/internal/places"
	"github.com/normanking/concierge/internal/resilience"
)

// Handler executes one intent kind. Handlers return a Result and never an
// error; failure is expressed through the Result itself.
type Handler func(ctx context.Context, it *intent.Intent) *Result

// unavailableMessages are the localized service-degradation lines the
// executor emits when retries are exhausted. The renderer owns all other
// user-facing text.
var unavailableMessages = map[string]string{
	intent.LangEnglish: "Search is temporarily unavailable, please try again in a moment.",
	intent.LangHindi:   "Khoj seva abhi uplabdh nahi hai, kripya thodi der mein dobara koshish karein.",
	intent.LangTamil:   "Thedal sevai thavakalikamaga kidaikkavillai, sirithu neram kazhithu meendum muyarchikkavum.",
}

var genericUnavailableMessages = map[string]string{
	intent.LangEnglish: "The service is temporarily unavailable.",
	intent.LangHindi:   "Seva abhi uplabdh nahi hai.",
	intent.LangTamil:   "Sevai thavakalikamaga kidaikkavillai.",
}

var notImplementedMessages = map[string]string{
	intent.LangEnglish: "That isn't supported yet, but it's on the way.",
	intent.LangHindi:   "Yeh suvidha abhi uplabdh nahi hai, jald aa rahi hai.",
	intent.LangTamil:   "Indha vasathi innum illai, viraivil varum.",
}

// Executor converts intents into Results via a registration-based handler
// table, with TTL caching and a guarded fallback chain around the provider.
type Executor struct {
	provider  places.SearchProvider
	cache     *resultCache
	policy    resilience.FallbackPolicy
	analytics Analytics
	handlers  map[intent.Kind]Handler
	log       zerolog.Logger
	now       func() time.Time
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithAnalytics sets the analytics collaborator.
func WithAnalytics(a Analytics) ExecutorOption {
	return func(e *Executor) { e.analytics = a }
}

// WithCacheTTLs overrides the search/detail and recent-aggregate TTLs.
func WithCacheTTLs(searchTTL, recentTTL time.Duration) ExecutorOption {
	return func(e *Executor) { e.cache = newResultCache(searchTTL, recentTTL) }
}

// NewExecutor creates an executor over the given provider. The default
// handler table covers the full taxonomy; Register replaces entries.
func NewExecutor(provider places.SearchProvider, policy resilience.FallbackPolicy, log zerolog.Logger, opts ...ExecutorOption) *Executor {
	if policy == (resilience.FallbackPolicy{}) {
		policy = resilience.DefaultFallbackPolicy()
	}
	e := &Executor{
		provider:  provider,
		cache:     newResultCache(DefaultSearchTTL, DefaultRecentTTL),
		policy:    policy,
		analytics: NopAnalytics{},
		handlers:  make(map[intent.Kind]Handler),
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.Register(intent.KindFindNearby, e.handleSearch)
	e.Register(intent.KindFilter, e.handleFilter)
	e.Register(intent.KindGetDetails, e.handleDetails)
	e.Register(intent.KindAddPlace, e.handleNotImplemented)
	e.Register(intent.KindAddReview, e.handleNotImplemented)
	e.Register(intent.KindGetDirections, e.handleNotImplemented)

	return e
}

// transientProvider tags a raw provider failure as retryable.
func (e *Executor) transientProvider(err error) error {
	return resilience.NewTransientError("places", err)
}

// Register installs (or replaces) the handler for a kind. New kinds can be
// added without touching the dispatcher.
func (e *Executor) Register(kind intent.Kind, h Handler) {
	e.handlers[kind] = h
}

// Execute dispatches the intent to its handler. Unmapped kinds route to the
// generic handler. A panic anywhere below is converted into the last-resort
// unavailable Result; no failure escapes this method.
func (e *Executor) Execute(ctx context.Context, it *intent.Intent) (result *Result) {
	if it == nil {
		e.log.Error().Msg("executed with nil intent")
		return e.lastResort(nil)
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Str("kind", it.Kind.String()).Msg("query handler panicked")
			result = e.lastResort(it)
		}
		if result != nil {
			e.analytics.RecordQuery(it.Kind.String(), result.Success, result.FromCache())
		}
	}()

	handler, ok := e.handlers[it.Kind]
	if !ok {
		handler = e.handleGeneric
	}
	return handler(ctx, it)
}

// handleSearch serves find-nearby intents: cache, provider with retry,
// ranking, then fallback.
func (e *Executor) handleSearch(ctx context.Context, it *intent.Intent) *Result {
	key := SearchKey(it)

	if cached, ok := e.cache.search.Get(key); ok {
		hit := cached.clone()
		hit.SetMeta("fromCache", true)
		e.log.Debug().Str("key", key).Msg("search cache hit")
		return hit
	}

	criteria := criteriaFrom(it)
	items, err := resilience.DoValue(ctx, e.policy.Retry(), e.log, "search_nearby",
		func(ctx context.Context) ([]places.Place, error) {
			return resilience.GuardValueMapped(e.log, "search_nearby", e.transientProvider,
				func() ([]places.Place, error) {
					return e.provider.Search(ctx, criteria)
				})
		})
	if err != nil {
		return e.fallbackResult(it, true, err)
	}

	ranked := Rank(items)
	res := &Result{
		Success:    true,
		Items:      ranked,
		TotalCount: len(ranked),
		ExecutedAt: e.now(),
	}
	if it.Location != nil {
		res.MapURL = mapURL(*it.Location)
	}
	res.SetMeta("ranked", true)
	res.SetMeta("fromCache", false)

	e.cache.search.Add(key, res)
	if it.SessionID != "" {
		e.cache.recent.Add(recentKey(it.SessionID), res)
	}
	return res.clone()
}

// handleFilter narrows the session's recent aggregate without re-querying;
// with no recent results it degrades to a fresh search when a location is
// available.
func (e *Executor) handleFilter(ctx context.Context, it *intent.Intent) *Result {
	if it.SessionID != "" {
		if recent, ok := e.cache.recent.Get(recentKey(it.SessionID)); ok {
			filtered := filterItems(recent.Items, it)
			res := &Result{
				Success:    true,
				Items:      filtered,
				TotalCount: len(filtered),
				MapURL:     recent.MapURL,
				ExecutedAt: e.now(),
			}
			res.SetMeta("filtered", true)
			res.SetMeta("fromCache", true)
			return res
		}
	}

	if it.Location != nil {
		return e.handleSearch(ctx, it)
	}

	res := &Result{
		Success:      false,
		ErrorMessage: localized(notImplementedMessages, it.Language),
		ExecutedAt:   e.now(),
	}
	res.SetMeta("nothingToFilter", true)
	return res
}

// handleDetails serves entity lookups with the entity-id cache key.
func (e *Executor) handleDetails(ctx context.Context, it *intent.Intent) *Result {
	id := it.Params["place_id"]
	if verr := resilience.RequireString("place_id", id); verr != nil {
		res := &Result{
			Success:      false,
			ErrorMessage: localized(genericUnavailableMessages, it.Language),
			ExecutedAt:   e.now(),
		}
		res.SetMeta("missingPlaceID", true)
		res.SetMeta("validation", verr.Error())
		return res
	}

	key := DetailKey(id)
	if cached, ok := e.cache.search.Get(key); ok {
		hit := cached.clone()
		hit.SetMeta("fromCache", true)
		return hit
	}

	place, err := resilience.DoValue(ctx, e.policy.Retry(), e.log, "get_details",
		func(ctx context.Context) (*places.Place, error) {
			return resilience.GuardValueMapped(e.log, "get_details", e.transientProvider,
				func() (*places.Place, error) {
					return e.provider.GetByID(ctx, id)
				})
		})
	if err != nil {
		return e.fallbackResult(it, false, err)
	}

	res := &Result{
		Success:    true,
		Item:       place,
		TotalCount: 1,
		MapURL:     mapURL(place.Location),
		ExecutedAt: e.now(),
	}
	res.SetMeta("fromCache", false)
	e.cache.search.Add(key, res)
	return res.clone()
}

// handleNotImplemented reports an unsupported operation as a business
// outcome, not an error.
func (e *Executor) handleNotImplemented(_ context.Context, it *intent.Intent) *Result {
	res := &Result{
		Success:      false,
		ErrorMessage: localized(notImplementedMessages, it.Language),
		ExecutedAt:   e.now(),
	}
	res.SetMeta("notImplemented", true)
	return res
}

// handleGeneric catches kinds with no registered handler.
func (e *Executor) handleGeneric(_ context.Context, it *intent.Intent) *Result {
	e.log.Debug().Str("kind", it.Kind.String()).Msg("no handler registered, using generic")
	res := &Result{
		Success:      false,
		ErrorMessage: localized(genericUnavailableMessages, it.Language),
		ExecutedAt:   e.now(),
	}
	res.SetMeta("genericHandler", true)
	return res
}

// fallbackResult builds the structured "service unavailable" outcome after
// retries are exhausted. The fallback itself is guarded: if building it
// panics, the static last-resort result is returned instead.
func (e *Executor) fallbackResult(it *intent.Intent, searchClass bool, cause error) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("fallback path failed")
			result = e.lastResort(it)
		}
	}()

	if !e.policy.FallbackEnabled {
		return e.lastResort(it)
	}

	msgs := genericUnavailableMessages
	if searchClass {
		msgs = unavailableMessages
	}

	errorClass := "fault"
	if resilience.IsTransient(cause) {
		errorClass = "transient"
	}

	result = &Result{
		Success:      false,
		ErrorMessage: localized(msgs, it.Language),
		Items:        []places.Place{},
		ExecutedAt:   e.now(),
	}
	result.SetMeta("usedFallback", true)
	result.SetMeta("errorClass", errorClass)
	e.log.Warn().Err(cause).Str("kind", it.Kind.String()).Str("class", errorClass).Msg("serving fallback result")
	return result
}

// lastResort is the static result used when even the fallback path fails.
func (e *Executor) lastResort(it *intent.Intent) *Result {
	lang := ""
	if it != nil {
		lang = it.Language
	}
	res := &Result{
		Success:      false,
		ErrorMessage: localized(genericUnavailableMessages, lang),
		Items:        []places.Place{},
		ExecutedAt:   time.Now(),
	}
	res.SetMeta("usedFallback", true)
	res.SetMeta("lastResort", true)
	return res
}

func criteriaFrom(it *intent.Intent) places.SearchCriteria {
	radius := DefaultRadiusKm
	if it.MaxDistanceKm != nil {
		radius = *it.MaxDistanceKm
	}
	return places.SearchCriteria{
		Location:    it.Location,
		RadiusKm:    radius,
		MaxBudget:   it.MaxBudget,
		MinRating:   it.MinRating,
		Preferences: it.Preferences,
	}
}

func filterItems(items []places.Place, it *intent.Intent) []places.Place {
	var out []places.Place
	for _, p := range items {
		if it.MaxBudget != nil && p.PriceForTwo > *it.MaxBudget {
			continue
		}
		if it.MinRating != nil && p.Rating < *it.MinRating {
			continue
		}
		if it.MaxDistanceKm != nil && p.DistanceKm > *it.MaxDistanceKm {
			continue
		}
		if len(it.Preferences) > 0 && !matchesAnyPreference(p, it.Preferences) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesAnyPreference(p places.Place, prefs []string) bool {
	for _, pref := range prefs {
		needle := strings.ToLower(pref)
		if strings.Contains(strings.ToLower(p.Cuisine), needle) {
			return true
		}
		for _, tag := range p.Tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				return true
			}
		}
	}
	return false
}

func localized(msgs map[string]string, lang string) string {
	if msg, ok := msgs[lang]; ok {
		return msg
	}
	return msgs[intent.LangEnglish]
}

func mapURL(loc places.Location) string {
	return fmt.Sprintf("https://maps.google.com/?q=%.4f,%.4f", loc.Latitude, loc.Longitude)
}
