package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/normanking/concierge/internal/places"
	"github.com/normanking/concierge/internal/resilience"
)

// extractionPrompt is the fixed instruction sent with every utterance. It
// enumerates the taxonomy, the accepted languages, and domain examples, and
// pins the reply to a single JSON object.
const extractionPrompt = `You are the intent extractor for a local-search assistant that helps people find restaurants and food places.

Classify the user's message into exactly ONE intent kind:
- find_nearby: searching for places to eat ("find cheap biryani near me")
- get_details: asking about a specific place ("what are the timings of Dosa Junction")
- add_place: adding a new place to the catalogue
- add_review: leaving a rating or review
- get_directions: asking how to reach a place
- filter: narrowing down previous results ("only vegetarian ones")
- unknown: anything else

Accepted languages: English (en), Hindi (hi), Tamil (ta). Messages may be romanized ("sasta khana kahan milega").

Reply with ONLY a JSON object, no prose, with these fields:
{
  "kind": "<intent kind>",
  "language": "<en|hi|ta>",
  "max_budget": <number or null, rupees for two>,
  "min_rating": <number or null, 0-5>,
  "max_distance_km": <number or null>,
  "preferences": ["cuisine or dietary tags"]
}`

// primaryReply is the JSON shape expected back from the model.
type primaryReply struct {
	Kind          string   `json:"kind"`
	Language      string   `json:"language"`
	MaxBudget     *float64 `json:"max_budget"`
	MinRating     *float64 `json:"min_rating"`
	MaxDistanceKm *float64 `json:"max_distance_km"`
	Preferences   []string `json:"preferences"`
}

// PrimaryExtractor is the tier-1 extractor backed by the language-inference
// collaborator.
type PrimaryExtractor struct {
	model Inference
	now   func() time.Time
}

// NewPrimaryExtractor wraps an inference model as the tier-1 extractor.
func NewPrimaryExtractor(model Inference) *PrimaryExtractor {
	return &PrimaryExtractor{model: model, now: time.Now}
}

// Extract asks the model to classify text and parses the structured reply.
// Errors here are expected to be caught by the two-tier composite; they are
// never user-facing.
func (p *PrimaryExtractor) Extract(ctx context.Context, text, sessionID string, loc *places.Location) (*Intent, error) {
	raw, err := p.model.Complete(ctx, extractionPrompt, text)
	if err != nil {
		// The model being down or slow is retryable; mark it so.
		return nil, resilience.NewTransientError("inference", err)
	}

	reply, err := parseReply(raw)
	if err != nil {
		return nil, fmt.Errorf("parse inference reply: %w", err)
	}

	it := &Intent{
		Kind:          ParseKind(reply.Kind),
		RawText:       text,
		Location:      loc,
		MaxBudget:     reply.MaxBudget,
		MinRating:     reply.MinRating,
		MaxDistanceKm: reply.MaxDistanceKm,
		Language:      normalizeLanguage(reply.Language),
		SessionID:     sessionID,
		ExtractedAt:   p.now(),
	}
	for _, pref := range reply.Preferences {
		if pref = strings.TrimSpace(pref); pref != "" {
			it.AddPreference(pref)
		}
	}
	it.SetMeta("extractor", "primary")

	return it, nil
}

// parseReply tolerates models that wrap the JSON in code fences or prose by
// slicing from the first '{' to the last '}'.
func parseReply(raw string) (*primaryReply, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var reply primaryReply
	if err := json.Unmarshal([]byte(raw[start:end+1]), &reply); err != nil {
		return nil, fmt.Errorf("unmarshal reply: %w", err)
	}
	if reply.Kind == "" {
		return nil, fmt.Errorf("reply missing kind")
	}
	return &reply, nil
}

func normalizeLanguage(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case LangHindi, "hindi":
		return LangHindi
	case LangTamil, "tamil":
		return LangTamil
	default:
		return LangEnglish
	}
}
