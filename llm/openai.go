package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/coterie-ai/coterie/types"
)

// OpenAIConfig configures an OpenAI-compatible provider. BaseURL may point
// at any endpoint speaking the chat completions API.
type OpenAIConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// OpenAIProvider talks to an OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	cfg    OpenAIConfig
	client *http.Client
	logger *zap.Logger
}

// NewOpenAIProvider creates a provider for the chat completions API.
// logger may be nil.
func NewOpenAIProvider(cfg OpenAIConfig, logger *zap.Logger) *OpenAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(zap.String("component", "openai_provider")),
	}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description,omitempty"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Tools       []chatTool    `json:"tools,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate implements Provider.
func (p *OpenAIProvider) Generate(ctx context.Context, messages []types.Message, config Config) (string, error) {
	resp, err := p.complete(ctx, messages, nil, config)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Message.Content, nil
}

// ToolCall implements Provider.
func (p *OpenAIProvider) ToolCall(ctx context.Context, messages []types.Message, tools []ToolSchema, config Config) (*ToolCallResult, error) {
	chatTools := make([]chatTool, 0, len(tools))
	for _, t := range tools {
		var ct chatTool
		ct.Type = "function"
		ct.Function.Name = t.Name
		ct.Function.Description = t.Description
		ct.Function.Parameters = t.Parameters
		chatTools = append(chatTools, ct)
	}

	resp, err := p.complete(ctx, messages, chatTools, config)
	if err != nil {
		return nil, err
	}

	choice := resp.Choices[0].Message
	result := &ToolCallResult{
		Message: types.NewMessage(types.RoleAssistant, choice.Content),
	}
	for _, tc := range choice.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, types.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return result, nil
}

func (p *OpenAIProvider) complete(ctx context.Context, messages []types.Message, tools []chatTool, config Config) (*chatResponse, error) {
	body, err := json.Marshal(chatRequest{
		Model:       config.Model,
		Messages:    toChatMessages(messages),
		Temperature: config.Temperature,
		MaxTokens:   config.MaxTokens,
		Tools:       tools,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	httpResp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := httpResp.Status
		if resp.Error != nil {
			msg = resp.Error.Message
		}
		p.logger.Warn("completion request rejected",
			zap.Int("status", httpResp.StatusCode),
			zap.String("message", msg),
		)
		if httpResp.StatusCode >= http.StatusInternalServerError ||
			httpResp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: status=%d msg=%s", ErrProviderUnavailable, httpResp.StatusCode, msg)
		}
		return nil, fmt.Errorf("completion failed: status=%d msg=%s", httpResp.StatusCode, msg)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}
	return &resp, nil
}

func toChatMessages(messages []types.Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		cm := chatMessage{
			Role:    string(m.Role),
			Content: m.Content,
			Name:    m.Name,
		}
		for _, tc := range m.ToolCalls {
			var ct chatToolCall
			ct.ID = tc.ID
			ct.Type = "function"
			ct.Function.Name = tc.Name
			ct.Function.Arguments = string(tc.Arguments)
			cm.ToolCalls = append(cm.ToolCalls, ct)
		}
		out = append(out, cm)
	}
	return out
}

var _ Provider = (*OpenAIProvider)(nil)
