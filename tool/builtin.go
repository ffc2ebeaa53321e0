package tool

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/coterie-ai/coterie/llm"
)

// RegisterBuiltins adds the builtin stand-in tools to the registry.
func RegisterBuiltins(r *Registry) {
	r.Register("calculator", Calculator, llm.ToolSchema{
		Description: "Evaluate a simple arithmetic expression of the form 'a op b'",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"expression": map[string]any{"type": "string", "description": "Expression to evaluate"},
			},
			"required": []string{"expression"},
		},
	})

	r.Register("text_summarizer", Summarizer, llm.ToolSchema{
		Description: "Produce a truncated summary of the given text",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text":       map[string]any{"type": "string", "description": "Text to summarize"},
				"max_length": map[string]any{"type": "integer", "description": "Maximum summary length"},
			},
			"required": []string{"text"},
		},
	})

	r.Register("clock", Clock, llm.ToolSchema{
		Description: "Return the current time in RFC 3339 format",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	})
}

// Calculator evaluates a binary arithmetic expression "a op b" with op in
// + - * /.
func Calculator(ctx context.Context, args map[string]any) (any, error) {
	expr, _ := args["expression"].(string)
	fields := strings.Fields(expr)
	if len(fields) != 3 {
		return nil, fmt.Errorf("calculator: expected 'a op b', got %q", expr)
	}

	a, errA := strconv.ParseFloat(fields[0], 64)
	b, errB := strconv.ParseFloat(fields[2], 64)
	if errA != nil || errB != nil {
		return nil, fmt.Errorf("calculator: non-numeric operand in %q", expr)
	}

	switch fields[1] {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return nil, fmt.Errorf("calculator: division by zero")
		}
		return a / b, nil
	default:
		return nil, fmt.Errorf("calculator: unsupported operator %q", fields[1])
	}
}

// Summarizer truncates text to max_length runes, appending an ellipsis when
// it actually shortened something.
func Summarizer(ctx context.Context, args map[string]any) (any, error) {
	text, _ := args["text"].(string)
	maxLen := 100
	switch v := args["max_length"].(type) {
	case int:
		maxLen = v
	case float64:
		maxLen = int(v)
	}
	if maxLen <= 0 {
		maxLen = 100
	}

	runes := []rune(text)
	if len(runes) <= maxLen {
		return text, nil
	}
	return string(runes[:maxLen]) + "...", nil
}

// Clock returns the current time.
func Clock(ctx context.Context, args map[string]any) (any, error) {
	return time.Now().Format(time.RFC3339), nil
}
