package llm

import (
	"context"
	"errors"

	"github.com/coterie-ai/coterie/types"
)

// ErrProviderUnavailable indicates the model backend could not serve the
// request.
var ErrProviderUnavailable = errors.New("llm: provider unavailable")

// Config carries per-request model parameters.
type Config struct {
	// Model is the model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`
	// Temperature controls sampling randomness.
	Temperature float64 `json:"temperature" yaml:"temperature"`
	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
	// Params holds provider-specific extra parameters.
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   2048,
	}
}

// ToolSchema describes a tool exposed to the model for tool calling.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCallResult is the outcome of a tool-augmented completion: the
// assistant message plus any tool invocations the model requested.
type ToolCallResult struct {
	Message   types.Message    `json:"message"`
	ToolCalls []types.ToolCall `json:"tool_calls,omitempty"`
}

// Provider is the model invocation capability.
type Provider interface {
	// Name returns the provider's identifier.
	Name() string

	// Generate produces a text completion for the given messages.
	Generate(ctx context.Context, messages []types.Message, config Config) (string, error)

	// ToolCall produces a completion that may request tool invocations.
	ToolCall(ctx context.Context, messages []types.Message, tools []ToolSchema, config Config) (*ToolCallResult, error)
}
