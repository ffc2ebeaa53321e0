package tokenizer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/coterie-ai/coterie/types"
)

// modelEncodings maps model name prefixes to tiktoken encodings. Longer
// prefixes come first so "gpt-4o" is not shadowed by "gpt-4".
var modelEncodings = []struct {
	prefix   string
	encoding string
}{
	{"gpt-4o", "o200k_base"},
	{"gpt-4", "cl100k_base"},
	{"gpt-3.5-turbo", "cl100k_base"},
}

const defaultEncoding = "cl100k_base"

// Tiktoken counts tokens with the tiktoken BPE for the configured model.
type Tiktoken struct {
	encoding string
	fallback *types.EstimateTokenizer

	once    sync.Once
	enc     *tiktoken.Tiktoken
	initErr error
}

// New creates a Tiktoken tokenizer for the given model. Unknown models use
// the cl100k_base encoding.
func New(model string) *Tiktoken {
	encoding := defaultEncoding
	for _, m := range modelEncodings {
		if strings.HasPrefix(model, m.prefix) {
			encoding = m.encoding
			break
		}
	}
	return &Tiktoken{
		encoding: encoding,
		fallback: types.NewEstimateTokenizer(),
	}
}

func (t *Tiktoken) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = err
			return
		}
		t.enc = enc
	})
	return t.initErr
}

// CountTokens counts tokens in text.
func (t *Tiktoken) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if err := t.init(); err != nil {
		return t.fallback.CountTokens(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// CountMessageTokens counts tokens in a single message, including the
// per-message framing overhead.
func (t *Tiktoken) CountMessageTokens(msg types.Message) int {
	tokens := 4
	tokens += t.CountTokens(msg.Content)
	tokens += t.CountTokens(string(msg.Role))
	if msg.Name != "" {
		tokens += t.CountTokens(msg.Name)
	}
	for _, tc := range msg.ToolCalls {
		tokens += t.CountTokens(tc.Name)
		tokens += len(tc.Arguments) / 4
	}
	return tokens
}

// CountMessagesTokens counts total tokens across messages.
func (t *Tiktoken) CountMessagesTokens(msgs []types.Message) int {
	total := 3
	for _, msg := range msgs {
		total += t.CountMessageTokens(msg)
	}
	return total
}

var _ types.Tokenizer = (*Tiktoken)(nil)
