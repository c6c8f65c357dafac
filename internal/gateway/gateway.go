// ABOUTME: HTTP surface of the bot: webhook, direct-test chat, and health endpoints
// ABOUTME: Owns route wiring; all conversation logic lives in bot and provider

package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/grepton/freshbot/internal/activity"
	"github.com/grepton/freshbot/internal/bot"
	"github.com/grepton/freshbot/internal/config"
	"github.com/grepton/freshbot/internal/dedupe"
	"github.com/grepton/freshbot/internal/provider"
)

// ServiceName appears in the health endpoint body.
const ServiceName = "Fresh Teams Bot"

// Redelivered activities are dropped within this window. The channel retries
// within seconds, so a few minutes of memory is plenty.
const (
	dedupeTTL     = 5 * time.Minute
	dedupeMaxSize = 1024
)

// ActivityDispatcher consumes one parsed inbound activity. Satisfied by
// *bot.Dispatcher.
type ActivityDispatcher interface {
	Dispatch(ctx context.Context, act *activity.Activity)
}

// Responder generates a reply for the direct-test chat endpoint. Satisfied by
// *provider.Router.
type Responder interface {
	Respond(ctx context.Context, providerName, conversationID, userMessage string) string
}

// Gateway wires the HTTP endpoints to the dispatcher and router.
type Gateway struct {
	cfg        *config.Store
	dispatcher ActivityDispatcher
	router     Responder
	seen       *dedupe.Cache
	logger     *slog.Logger
}

// New creates a Gateway.
func New(cfg *config.Store, dispatcher ActivityDispatcher, router Responder, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		cfg:        cfg,
		dispatcher: dispatcher,
		router:     router,
		seen:       dedupe.New(dedupeTTL, dedupeMaxSize),
		logger:     logger.With("component", "gateway"),
	}
}

// Handler returns the route table for the HTTP server.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/messages", g.handleMessages)
	mux.HandleFunc("/api/chat", g.handleChat)
	mux.HandleFunc("/api/health", g.handleHealth)
	return mux
}

// interface guards
var (
	_ ActivityDispatcher = (*bot.Dispatcher)(nil)
	_ Responder          = (*provider.Router)(nil)
)
