package intent

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/normanking/concierge/internal/places"
	"github.com/normanking/concierge/internal/resilience"
)

// Extractor composes the primary and fallback tiers. The primary tier is
// retried per policy; any remaining failure, an unparseable reply, or an
// unknown classification falls through to the deterministic tier.
type Extractor struct {
	primary  *PrimaryExtractor // nil when no inference model is configured
	fallback *FallbackExtractor
	policy   resilience.Policy
	log      zerolog.Logger
}

// NewExtractor builds the two-tier extractor. model may be nil, in which
// case every utterance goes straight to the fallback tier.
func NewExtractor(model Inference, baseLanguage string, policy resilience.Policy, log zerolog.Logger) *Extractor {
	if policy.MaxAttempts <= 0 {
		policy = resilience.DefaultPolicy()
	}
	e := &Extractor{
		fallback: NewFallbackExtractor(baseLanguage),
		policy:   policy,
		log:      log,
	}
	if model != nil {
		e.primary = NewPrimaryExtractor(model)
	}
	return e
}

// Extract converts an utterance into an Intent. It never fails: tier-1
// errors only demote the utterance to tier-2.
func (e *Extractor) Extract(ctx context.Context, text, sessionID string, loc *places.Location, language string) *Intent {
	if e.primary != nil {
		it, err := resilience.DoValue(ctx, e.policy, e.log, "intent_extraction",
			func(ctx context.Context) (*Intent, error) {
				return resilience.GuardValue(e.log, resilience.StageExtraction, "primary_extraction",
					func() (*Intent, error) {
						return e.primary.Extract(ctx, text, sessionID, loc)
					})
			})
		if err == nil && it.Kind != KindUnknown {
			e.finalize(it, loc, language)
			return it
		}
		if err != nil {
			e.log.Debug().Err(err).Msg("primary extraction failed, using fallback")
		} else {
			e.log.Debug().Msg("primary extraction returned unknown, using fallback")
		}
	}

	it := e.fallback.Extract(text, sessionID, loc)
	e.finalize(it, loc, language)
	return it
}

// finalize applies caller-supplied slots that outrank extracted ones.
func (e *Extractor) finalize(it *Intent, loc *places.Location, language string) {
	if loc != nil {
		it.Location = loc
	}
	if language != "" {
		it.Language = normalizeLanguage(language)
	}
}

// Validate reports why an intent cannot be queried: an unknown kind, or a
// kind that requires a location when none was resolved.
func (e *Extractor) Validate(it *Intent) error {
	if err := resilience.RequireNotNil("intent", it); err != nil {
		return err
	}
	if it.Kind == KindUnknown || !it.Kind.IsValid() {
		return resilience.NewValidationError("kind", "could not determine what you are looking for")
	}
	if it.Kind.RequiresLocation() && it.Location == nil {
		return resilience.NewValidationError("location", "a location is required for this request")
	}
	return nil
}
