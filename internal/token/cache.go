// ABOUTME: Expiry-aware cache for the Bot Framework connector bearer token
// ABOUTME: Refreshes via OAuth2 client credentials with single-flight de-duplication

package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/grepton/freshbot/internal/config"
)

// Scope requested from the identity provider for connector API calls.
const Scope = "https://api.botframework.com/.default"

// Expiry handling: the cached token is considered expired well before its
// real lifetime ends. Bot Framework tokens live 60 minutes; caching for 55
// guarantees a caller is never handed a token that expires mid-flight.
const (
	lifetimeMargin = 55 * time.Minute
	jwtExpMargin   = 5 * time.Minute
)

// AuthError reports a failed token exchange. It carries the HTTP status and
// response body for logs and is never surfaced to an end user.
type AuthError struct {
	Status int
	Body   string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("token exchange failed: status %d: %s", e.Status, e.Body)
}

func (e *AuthError) Unwrap() error { return e.Err }

// cached is the immutable snapshot readers observe. Swapped atomically so a
// reader never sees a half-written token.
type cached struct {
	value     string
	expiresAt time.Time
}

// Cache holds a single bearer token for the bot identity. The fast path is a
// lock-free read of the current snapshot; refresh goes through singleflight
// so concurrent expiry never fans out into parallel token exchanges.
type Cache struct {
	cfg    *config.Store
	client *http.Client
	logger *slog.Logger
	now    func() time.Time

	current atomic.Pointer[cached]
	flight  singleflight.Group
}

// NewCache creates a token cache backed by the given configuration store.
func NewCache(cfg *config.Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		cfg:    cfg,
		client: &http.Client{},
		logger: logger.With("component", "token"),
		now:    time.Now,
	}
}

// Token returns a bearer token valid for at least the next request. A cached
// unexpired token is returned without any network I/O; otherwise a client
// credentials exchange runs against the tenant's token endpoint.
func (c *Cache) Token(ctx context.Context) (string, error) {
	if tok := c.current.Load(); tok != nil && c.now().Before(tok.expiresAt) {
		return tok.value, nil
	}

	v, err, _ := c.flight.Do("refresh", func() (interface{}, error) {
		// A refresh that finished while we waited on the flight group is
		// good enough; don't exchange again.
		if tok := c.current.Load(); tok != nil && c.now().Before(tok.expiresAt) {
			return tok.value, nil
		}
		return c.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// tokenResponse is the subset of the OAuth token endpoint response we use.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// refresh performs the client-credentials exchange and stores the result.
// Failures are never cached.
func (c *Cache) refresh(ctx context.Context) (string, error) {
	snap := c.cfg.Snapshot()

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {snap.Bot.AppID},
		"client_secret": {snap.Bot.AppPassword},
		"scope":         {Scope},
	}

	ctx, cancel := context.WithTimeout(ctx, snap.Timeouts.Token)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		snap.Bot.OAuthTokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", &AuthError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &AuthError{Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &AuthError{Status: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", &AuthError{Status: resp.StatusCode, Err: fmt.Errorf("decoding token response: %w", err)}
	}
	if tr.AccessToken == "" {
		return "", &AuthError{Status: resp.StatusCode, Body: "response missing access_token"}
	}

	now := c.now()
	expiresAt := now.Add(lifetimeMargin)

	// The connector token is a JWT; if its exp claim lands sooner than our
	// fixed margin, trust the claim. Never extends the cache lifetime.
	if claimExp, ok := jwtExpiry(tr.AccessToken); ok {
		if clamped := claimExp.Add(-jwtExpMargin); clamped.Before(expiresAt) {
			expiresAt = clamped
		}
	}

	c.current.Store(&cached{value: tr.AccessToken, expiresAt: expiresAt})
	c.logger.Info("bot access token refreshed", "expires_at", expiresAt)

	return tr.AccessToken, nil
}

// jwtExpiry extracts the exp claim from a bearer token without verifying its
// signature. Verification belongs to the connector service, not to us; we
// only read the claim to avoid caching past the token's real lifetime.
func jwtExpiry(tokenString string) (time.Time, bool) {
	parser := jwt.NewParser()
	tok, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
