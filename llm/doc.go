// Package llm defines the model-invocation boundary the orchestration core
// consumes. Providers are external collaborators: the core calls Generate
// for plain text completion and ToolCall for tool-augmented completion, and
// treats both as opaque capabilities that may fail with a provider error.
//
// StaticProvider is a canned-response implementation for tests and demos;
// real vendor adapters live outside this repository.
package llm
