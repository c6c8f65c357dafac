// ABOUTME: Local model provider speaking the Ollama /api/chat protocol
// ABOUTME: Classifies transport failures into timeout / unreachable / malformed

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/grepton/freshbot/internal/config"
	"github.com/grepton/freshbot/internal/history"
)

// Ollama generates replies via a local chat-completion endpoint. Base URL and
// model name come from the current config snapshot on every call.
type Ollama struct {
	cfg    *config.Store
	client *http.Client
	logger *slog.Logger
}

// NewOllama creates the local model provider.
func NewOllama(cfg *config.Store, logger *slog.Logger) *Ollama {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ollama{
		cfg:    cfg,
		client: &http.Client{},
		logger: logger.With("component", "ollama"),
	}
}

// Name implements Provider.
func (*Ollama) Name() string { return "ollama" }

// chatMessage is one entry of the Ollama messages array.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the Ollama /api/chat request body. Streaming is disabled:
// the webhook needs one complete reply, not tokens.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// chatResponse is the subset of the Ollama response envelope we read.
type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Respond implements Provider. The message list is system preamble, then
// history, then the new user turn.
func (o *Ollama) Respond(ctx context.Context, turns []history.Turn, userMessage string) (string, error) {
	snap := o.cfg.Snapshot()

	messages := make([]chatMessage, 0, len(turns)+2)
	messages = append(messages, chatMessage{Role: history.RoleSystem, Content: SystemPreamble})
	for _, t := range turns {
		messages = append(messages, chatMessage{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, chatMessage{Role: history.RoleUser, Content: userMessage})

	payload, err := json.Marshal(chatRequest{
		Model:    snap.Ollama.Model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", &Error{Kind: KindMalformed, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, snap.Timeouts.Ollama)
	defer cancel()

	url := strings.TrimSuffix(snap.Ollama.BaseURL, "/") + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &Error{Kind: KindMalformed, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", &Error{Kind: classifyTransport(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &Error{Kind: KindMalformed, Err: fmt.Errorf("ollama returned status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", &Error{Kind: classifyTransport(err), Err: err}
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", &Error{Kind: KindMalformed, Err: fmt.Errorf("decoding ollama response: %w", err)}
	}

	reply := cr.Message.Content
	if reply == "" {
		return "", &Error{Kind: KindMalformed, Err: errors.New("empty reply from ollama")}
	}

	o.logger.Debug("ollama reply", "model", snap.Ollama.Model, "chars", len(reply))
	return reply, nil
}

// classifyTransport maps a transport error onto the failure taxonomy.
// Deadline and net timeouts come first: a timed-out dial would otherwise
// match the unreachable checks below.
func classifyTransport(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return KindUnreachable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindUnreachable
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindUnreachable
	}
	return KindMalformed
}
