// Package history keeps short-lived, bounded per-conversation message
// history in memory. It is the context window handed to LLM providers,
// not a durable transcript.
package history
