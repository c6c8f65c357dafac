// Package gateway exposes the bot over HTTP: the Bot Framework webhook, a
// direct-test chat endpoint, and a health check.
package gateway
