package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/coterie-ai/coterie/types"
)

// StaticProvider returns canned responses keyed by substring of the last
// user message. It is used in tests and offline demos.
type StaticProvider struct {
	mu        sync.RWMutex
	responses map[string]string
	fallback  string
	err       error
	calls     int
}

// NewStaticProvider creates a StaticProvider with the given fallback
// response.
func NewStaticProvider(fallback string) *StaticProvider {
	return &StaticProvider{
		responses: make(map[string]string),
		fallback:  fallback,
	}
}

// Respond registers a canned response returned when the last message
// contains the given substring.
func (p *StaticProvider) Respond(substring, response string) *StaticProvider {
	p.mu.Lock()
	p.responses[substring] = response
	p.mu.Unlock()
	return p
}

// Fail makes all subsequent calls return err.
func (p *StaticProvider) Fail(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// Calls returns how many completions have been requested.
func (p *StaticProvider) Calls() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.calls
}

// Name implements Provider.
func (p *StaticProvider) Name() string { return "static" }

// Generate implements Provider.
func (p *StaticProvider) Generate(ctx context.Context, messages []types.Message, config Config) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return "", p.err
	}

	var last string
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	for substring, response := range p.responses {
		if strings.Contains(last, substring) {
			return response, nil
		}
	}
	return p.fallback, nil
}

// ToolCall implements Provider. The static provider never requests tool
// invocations; it answers with a plain assistant message.
func (p *StaticProvider) ToolCall(ctx context.Context, messages []types.Message, tools []ToolSchema, config Config) (*ToolCallResult, error) {
	text, err := p.Generate(ctx, messages, config)
	if err != nil {
		return nil, err
	}
	return &ToolCallResult{Message: types.NewMessage(types.RoleAssistant, text)}, nil
}

var _ Provider = (*StaticProvider)(nil)
