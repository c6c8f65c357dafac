// ABOUTME: Authenticated delivery of reply activities to the connector API
// ABOUTME: Obtains a bearer token from the cache; failures are logged, never retried

package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/grepton/freshbot/internal/activity"
	"github.com/grepton/freshbot/internal/config"
	"github.com/grepton/freshbot/internal/token"
)

// TokenSource supplies the bearer token for connector calls. Satisfied by
// *token.Cache.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Delivery posts activities to a conversation via the Bot Framework
// connector REST API.
type Delivery struct {
	cfg    *config.Store
	tokens TokenSource
	client *http.Client
	logger *slog.Logger
}

// NewDelivery creates the connector delivery client.
func NewDelivery(cfg *config.Store, tokens TokenSource, logger *slog.Logger) *Delivery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Delivery{
		cfg:    cfg,
		tokens: tokens,
		client: &http.Client{},
		logger: logger.With("component", "delivery"),
	}
}

// Send posts the activity to {serviceURL}/v3/conversations/{id}/activities
// with bearer auth. It reports success as a bool: the caller acknowledges the
// inbound webhook either way, so delivery problems are logged here and
// swallowed, never propagated.
func (d *Delivery) Send(ctx context.Context, serviceURL, conversationID string, act *activity.Activity) bool {
	tok, err := d.tokens.Token(ctx)
	if err != nil {
		// Token exchange already logged the detail; without a token there
		// is no point attempting the POST.
		d.logger.Error("no access token available", "error", err)
		return false
	}

	body, err := json.Marshal(act)
	if err != nil {
		d.logger.Error("marshaling activity", "error", err)
		return false
	}

	snap := d.cfg.Snapshot()
	ctx, cancel := context.WithTimeout(ctx, snap.Timeouts.Delivery)
	defer cancel()

	url := fmt.Sprintf("%s/v3/conversations/%s/activities",
		strings.TrimSuffix(serviceURL, "/"), conversationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		d.logger.Error("building delivery request", "error", err)
		return false
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Error("delivery POST failed", "conversation_id", conversationID, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		d.logger.Error("connector rejected activity",
			"conversation_id", conversationID,
			"status", resp.StatusCode,
			"body", string(detail))
		return false
	}

	d.logger.Info("activity sent", "conversation_id", conversationID)
	return true
}

// interface guard
var _ TokenSource = (*token.Cache)(nil)
