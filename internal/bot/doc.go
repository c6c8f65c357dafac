// Package bot turns inbound Bot Framework activities into replies: it routes
// message text to the configured LLM provider and delivers the result back to
// the conversation through the connector REST API.
package bot
