// Package provider routes reply generation to one of several interchangeable
// LLM backends (echo, local Ollama, Azure OpenAI) and translates backend
// failures into fixed user-facing reply text.
package provider
