// Package assistant is the orchestrator: it owns the per-turn state machine
// that takes an utterance through context resolution, intent extraction,
// validation, query execution, session bookkeeping, and rendering. Its
// boundary contract is total: Process* never returns an error and never
// panics outward.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/concierge/internal/intent"
	"github.com/normanking/concierge/internal/places"
	"github.com/normanking/concierge/internal/query"
	"github.com/normanking/concierge/internal/resilience"
	"github.com/normanking/concierge/internal/respond"
	"github.com/normanking/concierge/internal/session"
)

// Assistant wires the conversational pipeline together.
type Assistant struct {
	store     *session.Store
	extractor *intent.Extractor
	executor  *query.Executor
	renderer  respond.Renderer
	speech    places.Speech // nil disables the voice path
	log       zerolog.Logger
	now       func() time.Time
}

// New assembles the orchestrator. speech may be nil; ProcessVoice then
// degrades to an error response.
func New(store *session.Store, extractor *intent.Extractor, executor *query.Executor, renderer respond.Renderer, speech places.Speech, log zerolog.Logger) *Assistant {
	return &Assistant{
		store:     store,
		extractor: extractor,
		executor:  executor,
		renderer:  renderer,
		speech:    speech,
		log:       log,
		now:       time.Now,
	}
}

// ProcessText runs one text turn. loc and language are optional caller
// overrides that outrank whatever extraction infers.
func (a *Assistant) ProcessText(ctx context.Context, message, sessionID string, loc *places.Location, language string) *Response {
	sessionID = a.store.GetOrCreate(sessionID)
	it := a.extractor.Extract(ctx, message, sessionID, loc, language)
	return a.ProcessIntent(ctx, it)
}

// ProcessIntent runs the turn state machine on an already-extracted intent.
// Invalid intents produce a clarification question without touching the
// executor; everything else is dispatched, recorded, and rendered.
func (a *Assistant) ProcessIntent(ctx context.Context, it *intent.Intent) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Msg("turn panicked")
			err := resilience.NewAgentError(resilience.StageOrchestration, "process_intent", fmt.Errorf("turn panicked: %v", r))
			resp = a.catastrophic(it, err.Error())
		}
	}()

	if it == nil {
		return a.catastrophic(nil, "no intent")
	}
	it.SessionID = a.store.GetOrCreate(it.SessionID)

	if verr := a.extractor.Validate(it); verr != nil {
		return a.clarify(it, verr)
	}

	res := a.executor.Execute(ctx, it)

	snap := a.recordTurn(it, res, res.Success, res.ErrorMessage)

	resp = &Response{
		Success:      res.Success,
		Text:         a.renderer.Render(it, res),
		Items:        res.Items,
		MapURL:       res.MapURL,
		ErrorMessage: res.ErrorMessage,
		SessionID:    it.SessionID,
		Language:     it.Language,
		GeneratedAt:  a.now(),
	}
	a.annotate(resp, snap, res)
	return resp
}

type transcript struct {
	text     string
	language string
}

type synthesized struct {
	audio  []byte
	format string
}

// ProcessVoice transcribes audio, runs the text turn, and synthesizes the
// reply. Speech failures at either end degrade to a spoken-text-free error
// response rather than faulting the turn.
func (a *Assistant) ProcessVoice(ctx context.Context, audio []byte, sessionID string, loc *places.Location, language string) *VoiceResponse {
	if a.speech == nil {
		return &VoiceResponse{Response: *a.catastrophic(&intent.Intent{Language: language, SessionID: sessionID}, "voice is not configured")}
	}

	tr, err := resilience.GuardValue(a.log, resilience.StageOrchestration, "transcribe",
		func() (transcript, error) {
			text, detected, err := a.speech.Transcribe(ctx, audio, language)
			return transcript{text: text, language: detected}, err
		})
	if err != nil {
		a.log.Warn().Err(err).Msg("transcription failed")
		return &VoiceResponse{Response: *a.catastrophic(&intent.Intent{Language: language, SessionID: sessionID}, err.Error())}
	}
	if tr.language == "" {
		tr.language = language
	}

	resp := a.ProcessText(ctx, tr.text, sessionID, loc, tr.language)
	out := &VoiceResponse{Response: *resp}

	spoken, err := resilience.GuardValue(a.log, resilience.StageResponse, "synthesize",
		func() (synthesized, error) {
			audio, format, err := a.speech.Synthesize(ctx, resp.Text, resp.Language)
			return synthesized{audio: audio, format: format}, err
		})
	if err != nil {
		// The text reply still stands; only the audio is missing.
		a.log.Warn().Err(err).Msg("synthesis failed, returning text only")
		out.SetMeta("synthesisFailed", true)
		return out
	}
	out.Audio = spoken.audio
	out.Format = spoken.format
	return out
}

// clarify records the failed turn and asks the follow-up question matching
// the missing slot.
func (a *Assistant) clarify(it *intent.Intent, verr error) *Response {
	res := &query.Result{Success: false, ExecutedAt: a.now()}
	var v *resilience.ValidationError
	if errors.As(verr, &v) && v.Field == "location" {
		res.SetMeta(respond.ClarifyKey, respond.ClarifyLocation)
	} else {
		res.SetMeta(respond.ClarifyKey, respond.ClarifyIntent)
	}

	snap := a.recordTurn(it, res, false, verr.Error())

	resp := &Response{
		Success:      false,
		Text:         a.renderer.Render(it, res),
		ErrorMessage: verr.Error(),
		SessionID:    it.SessionID,
		Language:     it.Language,
		GeneratedAt:  a.now(),
	}
	a.annotate(resp, snap, res)
	return resp
}

// catastrophic is the boundary conversion for panics and broken wiring. It
// still counts the turn against the session when one is known.
func (a *Assistant) catastrophic(it *intent.Intent, reason string) *Response {
	lang := ""
	sessionID := ""
	if it != nil {
		lang = it.Language
		sessionID = it.SessionID
		if sessionID != "" {
			a.recordTurn(it, nil, false, reason)
		}
	}
	return &Response{
		Success:      false,
		Text:         a.renderer.Render(it, nil),
		ErrorMessage: reason,
		SessionID:    sessionID,
		Language:     lang,
		GeneratedAt:  a.now(),
	}
}

// recordTurn appends the step under the session lock and returns a snapshot
// for response metadata.
func (a *Assistant) recordTurn(it *intent.Intent, res *query.Result, success bool, errText string) session.Context {
	a.store.Update(it.SessionID, func(c *session.Context) {
		c.RecordTurn(it, res, success, errText, a.now())
	})
	snap, _ := a.store.Snapshot(it.SessionID)
	return snap
}

func (a *Assistant) annotate(resp *Response, snap session.Context, res *query.Result) {
	resp.SetMeta("interactionCount", snap.InteractionCount)
	resp.SetMeta("sessionAge", snap.Age(a.now()).Round(time.Second).String())
	if res != nil {
		resp.SetMeta("fromCache", res.FromCache())
		resp.SetMeta("usedFallback", res.UsedFallback())
	}
}
