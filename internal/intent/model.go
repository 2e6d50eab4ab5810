package intent

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// Inference is the language-inference collaborator: structured prompt in,
// raw model text out.
type Inference interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ModelConfig selects and configures the underlying LLM provider.
type ModelConfig struct {
	Provider     string // "ollama", "openai" or "anthropic"
	Model        string
	OllamaHost   string
	OpenAIKey    string
	AnthropicKey string
}

// Model wraps a langchaingo LLM as an Inference.
type Model struct {
	llm       llms.Model
	modelName string
}

// NewModel creates the inference model selected by cfg.
func NewModel(cfg ModelConfig) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.Provider {
	case "ollama":
		model, err = ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIKey),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicKey),
			anthropic.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	return &Model{llm: model, modelName: cfg.Model}, nil
}

// Complete sends a system + user prompt pair and returns the first choice.
func (m *Model) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, userPrompt),
	}

	response, err := m.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return response.Choices[0].Content, nil
}

// ModelName returns the configured model identifier.
func (m *Model) ModelName() string { return m.modelName }
