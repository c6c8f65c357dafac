// ABOUTME: Deterministic echo provider used when no model backend is configured
// ABOUTME: Also the fallback target for unrecognized provider selectors

package provider

import (
	"context"

	"github.com/grepton/freshbot/internal/history"
)

// Echo replies with the user's own text. No network I/O, no failure modes,
// and the router never records echo exchanges in history.
type Echo struct{}

// NewEcho creates the echo provider.
func NewEcho() *Echo { return &Echo{} }

// Name implements Provider.
func (*Echo) Name() string { return "echo" }

// Respond implements Provider.
func (*Echo) Respond(_ context.Context, _ []history.Turn, userMessage string) (string, error) {
	return "Echo: " + userMessage, nil
}
