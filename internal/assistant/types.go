package assistant

import (
	"time"

	"github.com/normanking/concierge/internal/places"
)

// Response is the structured outcome of one conversational turn. It is
// always safe to surface: the orchestrator converts every internal failure
// into a Success=false Response instead of returning an error.
type Response struct {
	Success      bool           `json:"success"`
	Text         string         `json:"text"`
	Items        []places.Place `json:"items,omitempty"`
	MapURL       string         `json:"map_url,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	SessionID    string         `json:"session_id"`
	Language     string         `json:"language"`
	GeneratedAt  time.Time      `json:"generated_at"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// SetMeta records a metadata key, allocating the map lazily.
func (r *Response) SetMeta(key string, value any) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
}

// VoiceResponse is a Response plus the synthesized reply audio. Audio may be
// empty when synthesis degraded; Text is always populated.
type VoiceResponse struct {
	Response
	Audio  []byte `json:"audio,omitempty"`
	Format string `json:"format,omitempty"`
}
