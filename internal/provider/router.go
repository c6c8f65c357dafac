// ABOUTME: Routes reply generation to the selected provider, never failing outward
// ABOUTME: Owns history bookkeeping: only real, non-empty exchanges are recorded

package provider

import (
	"context"
	"log/slog"

	"github.com/grepton/freshbot/internal/config"
	"github.com/grepton/freshbot/internal/history"
)

// Router dispatches to the provider named by the configuration and degrades
// every failure to a fixed user-facing reply. The dispatch table is built
// once; which entry serves a request is decided per call, so a hot-reloaded
// provider selector applies immediately.
type Router struct {
	providers map[string]Provider
	echo      Provider
	history   *history.Store
	logger    *slog.Logger
}

// NewRouter builds the dispatch table over all known providers. "llama3" is
// accepted as an alias for ollama to keep old deployments working.
func NewRouter(cfg *config.Store, hist *history.Store, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	echo := NewEcho()
	ollama := NewOllama(cfg, logger)

	return &Router{
		providers: map[string]Provider{
			config.ProviderEcho:   echo,
			config.ProviderOllama: ollama,
			"llama3":              ollama,
			config.ProviderAzure:  NewAzure(cfg, logger),
		},
		echo:    echo,
		history: hist,
		logger:  logger.With("component", "router"),
	}
}

// Respond generates the reply text for a user message in the given
// conversation. It never returns an error: provider failures come back as the
// taxonomy's fixed apology strings, and an unknown provider name falls back
// to echo with a warning.
//
// History is only touched on success: a failed or empty exchange must not
// leave a one-sided turn behind, and echo exchanges are not context worth
// feeding back to a model.
func (r *Router) Respond(ctx context.Context, providerName, conversationID, userMessage string) string {
	p, ok := r.providers[providerName]
	if !ok {
		r.logger.Warn("unknown llm provider, falling back to echo", "provider", providerName)
		p = r.echo
	}

	turns := r.history.History(conversationID)

	reply, err := p.Respond(ctx, turns, userMessage)
	if err != nil {
		r.logger.Error("provider call failed",
			"provider", p.Name(),
			"conversation_id", conversationID,
			"error", err)
		return UserMessage(err)
	}
	if reply == "" {
		r.logger.Warn("provider returned empty reply", "provider", p.Name())
		return userMessages[KindMalformed]
	}

	if p != r.echo {
		r.history.AppendExchange(conversationID, userMessage, reply)
	}

	return reply
}
