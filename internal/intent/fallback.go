package intent

import (
	"strings"
	"time"

	"github.com/normanking/concierge/internal/places"
)

// Supported language codes. English is the base language the detector falls
// back to when no lexicon scores.
const (
	LangEnglish = "en"
	LangHindi   = "hi"
	LangTamil   = "ta"
)

// Slot constants applied by the keyword extractor. Budget is rupees for two,
// distance in kilometres.
const (
	budgetCheap       = 300.0
	ratingGood        = 4.0
	ratingExcellent   = 4.5
	distanceVeryClose = 1.0
	distanceNearby    = 3.0
)

// weightedLexicon maps a keyword to its signal weight. Kept as data so new
// languages can be added without touching the detector.
type weightedLexicon map[string]int

// hindiLexicon holds romanized Hindi markers common in local-search queries.
var hindiLexicon = weightedLexicon{
	"khana":   2,
	"kahan":   2,
	"dhaba":   2,
	"chahiye": 2,
	"sasta":   2,
	"mehenga": 2,
	"accha":   1,
	"paas":    1,
	"batao":   1,
	"dikhao":  1,
	"bahut":   1,
	"mujhe":   1,
}

// tamilLexicon holds romanized Tamil markers.
var tamilLexicon = weightedLexicon{
	"saapadu":  2,
	"enge":     2,
	"venum":    2,
	"unavagam": 2,
	"malivana": 2,
	"arugil":   2,
	"nalla":    1,
	"sollu":    1,
	"romba":    1,
	"kaattu":   1,
}

// kindGroup is an ordered keyword-phrase group for kind detection. The first
// group with any match wins.
type kindGroup struct {
	kind     Kind
	keywords []string
}

var kindGroups = []kindGroup{
	{KindFindNearby, []string{
		"find", "search", "nearby", "near me", "restaurant", "food", "eat",
		"hungry", "show me", "khana", "kahan", "dhaba", "saapadu", "enge",
		"unavagam", "bhukh",
	}},
	{KindGetDetails, []string{
		"details", "tell me about", "timings", "opening hours", "address",
		"phone", "menu", "more about", "info on",
	}},
	{KindAddPlace, []string{
		"add place", "add a new", "add my", "register", "list my",
	}},
	{KindAddReview, []string{
		"review", "rate", "rating", "feedback", "stars",
	}},
	{KindGetDirections, []string{
		"directions", "how to reach", "how do i get", "route", "way to",
		"navigate", "raasta", "le chalo", "vazhi",
	}},
}

// Slot keyword sets.
var (
	cheapKeywords     = []string{"cheap", "budget", "inexpensive", "sasta", "malivana", "affordable"}
	expensiveKeywords = []string{"expensive", "fancy", "premium", "costly", "mehenga", "fine dining"}

	excellentKeywords = []string{"excellent", "best", "top rated", "amazing", "behtareen", "sirantha"}
	goodKeywords      = []string{"good", "nice", "decent", "accha", "nalla", "well rated"}

	veryCloseKeywords = []string{"very close", "walking distance", "bahut paas", "romba arugil", "right here"}
	nearbyKeywords    = []string{"nearby", "close by", "near me", "paas", "arugil", "around here"}

	preferenceKeywords = []string{
		"spicy", "teekha", "kaaram",
		"biryani", "dosa", "idli", "chaat", "noodles", "pizza", "pasta",
		"north indian", "south indian", "chinese", "italian", "continental",
		"vegetarian", "vegan", "coffee",
	}
)

// FallbackExtractor is the deterministic tier-2 extractor. It is pure
// keyword logic over the lexicons above and can never fail.
type FallbackExtractor struct {
	baseLanguage string
	now          func() time.Time
}

// NewFallbackExtractor creates the deterministic extractor. An empty base
// language defaults to English.
func NewFallbackExtractor(baseLanguage string) *FallbackExtractor {
	if baseLanguage == "" {
		baseLanguage = LangEnglish
	}
	return &FallbackExtractor{baseLanguage: baseLanguage, now: time.Now}
}

// Extract builds an Intent from text using keyword heuristics only.
func (f *FallbackExtractor) Extract(text, sessionID string, loc *places.Location) *Intent {
	lower := strings.ToLower(text)

	it := &Intent{
		Kind:        f.detectKind(lower),
		RawText:     text,
		Location:    loc,
		Language:    f.DetectLanguage(text),
		SessionID:   sessionID,
		ExtractedAt: f.now(),
	}
	it.SetMeta("extractor", "fallback")

	f.extractBudget(lower, it)
	f.extractRating(lower, it)
	f.extractDistance(lower, it)
	f.extractPreferences(lower, it)

	return it
}

// DetectLanguage classifies text by weighted keyword counting. A language
// wins when its score is positive and strictly greater than the other;
// otherwise the base language is returned.
func (f *FallbackExtractor) DetectLanguage(text string) string {
	lower := strings.ToLower(text)
	hindi := scoreLexicon(lower, hindiLexicon)
	tamil := scoreLexicon(lower, tamilLexicon)

	switch {
	case hindi > 0 && hindi > tamil:
		return LangHindi
	case tamil > 0 && tamil > hindi:
		return LangTamil
	default:
		return f.baseLanguage
	}
}

func scoreLexicon(lower string, lex weightedLexicon) int {
	score := 0
	for word, weight := range lex {
		if strings.Contains(lower, word) {
			score += weight
		}
	}
	return score
}

func (f *FallbackExtractor) detectKind(lower string) Kind {
	for _, group := range kindGroups {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.kind
			}
		}
	}
	return KindUnknown
}

func (f *FallbackExtractor) extractBudget(lower string, it *Intent) {
	if containsAny(lower, cheapKeywords) {
		budget := budgetCheap
		it.MaxBudget = &budget
		return
	}
	if containsAny(lower, expensiveKeywords) {
		// Explicitly unrestricted: the user asked for the expensive end.
		it.MaxBudget = nil
		it.SetMeta("budget", "unrestricted")
	}
}

func (f *FallbackExtractor) extractRating(lower string, it *Intent) {
	// "excellent" is checked first so "excellent food, good portions" takes
	// the higher floor.
	if containsAny(lower, excellentKeywords) {
		rating := ratingExcellent
		it.MinRating = &rating
		return
	}
	if containsAny(lower, goodKeywords) {
		rating := ratingGood
		it.MinRating = &rating
	}
}

func (f *FallbackExtractor) extractDistance(lower string, it *Intent) {
	if containsAny(lower, veryCloseKeywords) {
		d := distanceVeryClose
		it.MaxDistanceKm = &d
		return
	}
	if containsAny(lower, nearbyKeywords) {
		d := distanceNearby
		it.MaxDistanceKm = &d
	}
}

func (f *FallbackExtractor) extractPreferences(lower string, it *Intent) {
	for _, kw := range preferenceKeywords {
		if strings.Contains(lower, kw) {
			it.AddPreference(kw)
		}
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool { return strings.EqualFold(a, b) }

func normalizeKindName(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
