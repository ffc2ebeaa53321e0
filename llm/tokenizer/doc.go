// Package tokenizer provides a tiktoken-backed implementation of
// types.Tokenizer for OpenAI-family models. The encoding is initialized
// lazily on first use; initialization failure falls back to character-based
// estimation so token counting never blocks the calling path.
package tokenizer
