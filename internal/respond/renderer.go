// Package respond turns structured query results into user-facing reply
// text. Rendering is best-effort presentation: it never fails a turn, and
// any internal problem degrades to a localized generic error line.
package respond

import (
	"fmt"
	"strings"

	"github.com/normanking/concierge/internal/intent"
	"github.com/normanking/concierge/internal/query"
)

// Renderer builds the reply text for one completed turn.
type Renderer interface {
	Render(it *intent.Intent, res *query.Result) string
}

// Message ids of the template table. The orchestrator asks for clarification
// by setting the "clarify" metadata key on a failed result.
const (
	msgNoResults       = "no_results"
	msgFoundOne        = "found_one"
	msgFoundMany       = "found_n"
	msgDetails         = "details"
	msgDetailsNotFound = "details_not_found"
	msgGenericError    = "generic_error"
	msgClarifyLocation = "clarify_location"
	msgClarifyIntent   = "clarify_unknown"
)

// ClarifyKey is the result metadata key the orchestrator sets when a turn
// needs a follow-up question instead of an answer. Values are ClarifyLocation
// and ClarifyIntent.
const (
	ClarifyKey      = "clarify"
	ClarifyLocation = "location"
	ClarifyIntent   = "intent"
)

// maxListedNames bounds how many place names the summary line calls out.
const maxListedNames = 3

var templates = map[string]map[string]string{
	msgNoResults: {
		intent.LangEnglish: "I couldn't find any places matching that. Try widening the search?",
		intent.LangHindi:   "Mujhe aisi koi jagah nahi mili. Thoda bada daayra try karein?",
		intent.LangTamil:   "Appadi entha idamum kidaikkavillai. Thedalai konjam virivupaduthalama?",
	},
	msgFoundOne: {
		intent.LangEnglish: "I found %s for you.",
		intent.LangHindi:   "Maine aapke liye %s dhoonda hai.",
		intent.LangTamil:   "Ungalukkaga %s kandupidithen.",
	},
	msgFoundMany: {
		intent.LangEnglish: "I found %d places for you. Top picks: %s.",
		intent.LangHindi:   "Maine aapke liye %d jagahein dhoondi hain. Behtareen: %s.",
		intent.LangTamil:   "Ungalukkaga %d idangal kandupidithen. Sirandhavai: %s.",
	},
	msgDetails: {
		intent.LangEnglish: "%s serves %s and is rated %.1f. Address: %s",
		intent.LangHindi:   "%s mein %s milta hai, rating %.1f. Pata: %s",
		intent.LangTamil:   "%s il %s kidaikkum, matippidu %.1f. Mugavari: %s",
	},
	msgDetailsNotFound: {
		intent.LangEnglish: "I couldn't find details for that place.",
		intent.LangHindi:   "Us jagah ki jaankari nahi mil payi.",
		intent.LangTamil:   "Antha idathin vivarangal kidaikkavillai.",
	},
	msgGenericError: {
		intent.LangEnglish: "Something went wrong on my side, please try again.",
		intent.LangHindi:   "Meri taraf se kuch gadbad ho gayi, kripya dobara koshish karein.",
		intent.LangTamil:   "En pakkam edho thavaru nadandhadhu, meendum muyarchikkavum.",
	},
	msgClarifyLocation: {
		intent.LangEnglish: "Sure, where should I look? Share a location or area name.",
		intent.LangHindi:   "Zaroor, kahan dhoondhun? Apni location ya ilaake ka naam batayein.",
		intent.LangTamil:   "Seri, enga thedanum? Ungal idam alladhu pagudi peyarai sollunga.",
	},
	msgClarifyIntent: {
		intent.LangEnglish: "I didn't quite get that. You can ask me to find places nearby or get details about one.",
		intent.LangHindi:   "Main samajh nahi paya. Aap mujhse aaspaas ki jagahein dhoondne ya kisi jagah ki jaankari maang sakte hain.",
		intent.LangTamil:   "Enakku sariyaga puriyavillai. Arugil ulla idangalai theda alladhu oru idathin vivarangalai ketka mudiyum.",
	},
}

// TemplateRenderer renders replies from the fixed template table above.
type TemplateRenderer struct{}

// NewTemplateRenderer creates the default renderer.
func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{}
}

// Render builds the reply line for the turn. It never panics outward.
func (r *TemplateRenderer) Render(it *intent.Intent, res *query.Result) (text string) {
	lang := ""
	if it != nil {
		lang = it.Language
	}
	defer func() {
		if rec := recover(); rec != nil {
			text = r.line(msgGenericError, lang)
		}
	}()

	if res == nil {
		return r.line(msgGenericError, lang)
	}

	if clarify, ok := res.Metadata[ClarifyKey].(string); ok {
		if clarify == ClarifyLocation {
			return r.line(msgClarifyLocation, lang)
		}
		return r.line(msgClarifyIntent, lang)
	}

	if !res.Success {
		// The executor localizes its own degradation lines; pass them on.
		if res.ErrorMessage != "" {
			return res.ErrorMessage
		}
		return r.line(msgGenericError, lang)
	}

	if res.Item != nil {
		p := res.Item
		return fmt.Sprintf(r.line(msgDetails, lang), p.Name, p.Cuisine, p.Rating, p.Address)
	}

	if it != nil && it.Kind == intent.KindGetDetails {
		return r.line(msgDetailsNotFound, lang)
	}

	switch len(res.Items) {
	case 0:
		return r.line(msgNoResults, lang)
	case 1:
		return fmt.Sprintf(r.line(msgFoundOne, lang), res.Items[0].Name)
	default:
		return fmt.Sprintf(r.line(msgFoundMany, lang), len(res.Items), topNames(res))
	}
}

// line resolves a template, falling back to English for unknown languages.
func (r *TemplateRenderer) line(id, lang string) string {
	table, ok := templates[id]
	if !ok {
		return templates[msgGenericError][intent.LangEnglish]
	}
	if s, ok := table[lang]; ok {
		return s
	}
	return table[intent.LangEnglish]
}

func topNames(res *query.Result) string {
	n := len(res.Items)
	if n > maxListedNames {
		n = maxListedNames
	}
	names := make([]string, 0, n)
	for _, p := range res.Items[:n] {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}
