package provider

import (
	"context"
	"errors"
	"time"

	"github.com/civitas-ai/civitas/models"
	openai_provider "github.com/civitas-ai/civitas/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
	Gemini    Client = "gemini"
)

// Generator produces assistant replies and document analyses.
type Generator interface {
	Explain(ctx context.Context, docText, question string) (string, error)
	Summarize(ctx context.Context, docText string) (string, error)
	Checklist(ctx context.Context, docText string) ([]models.ChecklistItem, error)
	VisualSummary(ctx context.Context, docText string) ([]models.VisualStep, error)
}

// Translator translates one paragraph at a time.
type Translator interface {
	Translate(ctx context.Context, text, languageCode string) (string, error)
}

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	Generator
	Translator
}

// Options configures a provider instance.
type Options struct {
	APIKey          string
	BaseURL         string
	CompletionModel string
	Temperature     float64
	MaxTokens       int
	Timeout         time.Duration
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(client Client, opts Options) (Provider, error) {
	switch client {
	case OpenAI:
		if opts.APIKey == "" {
			return nil, errors.New("openai api key not set")
		}
		if opts.CompletionModel == "" {
			opts.CompletionModel = "gpt-4o-mini"
		}
		if opts.Timeout <= 0 {
			opts.Timeout = 30 * time.Second
		}
		return openai_provider.NewOpenAIClient(
			opts.APIKey,
			opts.BaseURL,
			opts.CompletionModel,
			opts.Temperature,
			opts.MaxTokens,
			opts.Timeout,
		), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	case Gemini:
		return nil, errors.New("gemini client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
