package llm

import (
	"context"
)

// SystemPrompt frames every narrative request
const SystemPrompt = "You are an insurance claims fraud analyst. Assess only the reconciliation data you are given, " +
	"name discrepancies and risk factors explicitly, and never invent figures that are not in the data."

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Model returns the model the provider sends requests to
	Model() string

	// Generate returns the completion for prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// Check makes the cheapest authenticated call the provider offers and
	// returns why it failed
	Check(ctx context.Context) error
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// PromptFile replaces the default analyst instructions
	PromptFile string

	// RequestsPerSecond paces narrative calls (0 = unlimited)
	RequestsPerSecond float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:          "", // Disabled by default
		Model:             "",
		Timeout:           60,
		MaxTokens:         1500,
		RequestsPerSecond: 1,
	}
}

func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1500
}
