package translate

import (
	"context"
	"time"
)

const defaultSystemPrompt = "You are a data filtering assistant. Be precise. Ground answers only in the provided column list; never invent column names."

// LLMClient defines the interface for LLM providers.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	Timeout         time.Duration
	MaxOutputTokens int
	Temperature     float64
}

// DefaultGeminiConfig returns sensible defaults. Temperature is kept low for
// deterministic filter expressions.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:          apiKey,
		BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
		Model:           "gemini-3-flash-preview",
		Timeout:         2 * time.Minute,
		MaxOutputTokens: 8192,
		Temperature:     0.2,
	}
}
