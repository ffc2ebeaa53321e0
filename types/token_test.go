package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokenizer(t *testing.T) {
	tok := NewEstimateTokenizer()

	assert.Equal(t, 0, tok.CountTokens(""))
	assert.Equal(t, 1, tok.CountTokens("hi"), "short text still costs a token")
	assert.Equal(t, 5, tok.CountTokens("12345678901234567890"))

	msg := NewMessage(RoleUser, "12345678")
	assert.Equal(t, 4+2, tok.CountMessageTokens(msg))

	assert.Equal(t, 2*(4+2), tok.CountMessagesTokens([]Message{msg, msg}))
}
