// Package session tracks per-conversation state across turns: the arena of
// Contexts indexed by session id, and the background sweep that evicts idle
// sessions.
package session

import (
	"time"

	"github.com/normanking/concierge/internal/intent"
	"github.com/normanking/concierge/internal/query"
)

// MaxHistory bounds the conversation step history; the oldest step is
// dropped on overflow.
const MaxHistory = 10

// Step records the outcome of one processed turn. Immutable once appended.
type Step struct {
	Timestamp  time.Time   `json:"timestamp"`
	IntentKind intent.Kind `json:"intent_kind"`
	Success    bool        `json:"success"`
	ErrorText  string      `json:"error_text,omitempty"`
}

// Context is the mutable state of one conversation session.
type Context struct {
	ID               string            `json:"id"`
	CreatedAt        time.Time         `json:"created_at"`
	LastAccessedAt   time.Time         `json:"last_accessed_at"`
	InteractionCount int               `json:"interaction_count"`
	LastIntent       *intent.Intent    `json:"last_intent,omitempty"`
	LastResult       *query.Result     `json:"last_result,omitempty"`
	History          []Step            `json:"history"`
	Preferences      map[string]string `json:"preferences,omitempty"`
}

func newContext(id string, now time.Time) *Context {
	return &Context{
		ID:             id,
		CreatedAt:      now,
		LastAccessedAt: now,
		Preferences:    make(map[string]string),
	}
}

// Touch refreshes the last-accessed timestamp.
func (c *Context) Touch(now time.Time) {
	c.LastAccessedAt = now
}

// AppendStep adds a step and trims history to the last MaxHistory entries.
func (c *Context) AppendStep(step Step) {
	c.History = append(c.History, step)
	if len(c.History) > MaxHistory {
		c.History = c.History[len(c.History)-MaxHistory:]
	}
}

// RecordTurn applies the full per-turn mutation in one place: bump the
// interaction counter, remember the latest intent/result, append the step,
// and touch the access time. Callers invoke it under the store's per-session
// lock so concurrent turns for the same session cannot interleave.
func (c *Context) RecordTurn(it *intent.Intent, res *query.Result, success bool, errText string, now time.Time) {
	c.InteractionCount++
	if it != nil {
		c.LastIntent = it
	}
	if res != nil {
		c.LastResult = res
	}
	c.AppendStep(Step{
		Timestamp:  now,
		IntentKind: kindOf(it),
		Success:    success,
		ErrorText:  errText,
	})
	c.Touch(now)
}

// Age returns how long the session has existed.
func (c *Context) Age(now time.Time) time.Duration {
	return now.Sub(c.CreatedAt)
}

// IdleFor returns how long since the session was last accessed.
func (c *Context) IdleFor(now time.Time) time.Duration {
	return now.Sub(c.LastAccessedAt)
}

func kindOf(it *intent.Intent) intent.Kind {
	if it == nil {
		return intent.KindUnknown
	}
	return it.Kind
}

// snapshot deep-copies the slices/maps a caller could otherwise mutate
// outside the lock.
func (c *Context) snapshot() Context {
	cp := *c
	cp.History = append([]Step(nil), c.History...)
	cp.Preferences = make(map[string]string, len(c.Preferences))
	for k, v := range c.Preferences {
		cp.Preferences[k] = v
	}
	return cp
}
