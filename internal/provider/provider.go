// ABOUTME: Provider interface and failure taxonomy for LLM backends
// ABOUTME: Central translation table from failure kind to user-facing reply text

package provider

import (
	"context"
	"errors"

	"github.com/grepton/freshbot/internal/history"
)

// SystemPreamble fixes the assistant's persona and reply language. It is
// prepended fresh on every provider call and never stored in history.
const SystemPreamble = "Te egy barátságos Teams bot vagy. Válaszolj röviden és segítőkészen magyarul."

// Provider generates a reply from the conversation history plus the new user
// message. Implementations are stateless; history bookkeeping belongs to the
// router.
type Provider interface {
	Name() string
	Respond(ctx context.Context, turns []history.Turn, userMessage string) (string, error)
}

// Kind classifies a provider failure. Every kind maps to exactly one fixed,
// localized reply string; the underlying error is for logs only.
type Kind int

const (
	// KindTimeout: the backend did not answer within its deadline.
	KindTimeout Kind = iota + 1
	// KindUnreachable: connection refused or no route to the backend.
	KindUnreachable
	// KindMalformed: unexpected response shape, empty reply, or any other
	// call failure.
	KindMalformed
	// KindNotConfigured: the provider is selected but missing required
	// settings.
	KindNotConfigured
)

// Error is a typed provider failure carrying its classification.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.userMessage()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) userMessage() string {
	if msg, ok := userMessages[e.Kind]; ok {
		return msg
	}
	return userMessages[KindMalformed]
}

// userMessages is the single place reply text for failures lives. Strings
// match the original bot so end users see identical behavior.
var userMessages = map[Kind]string{
	KindTimeout:       "Sajnálom, az AI szerver nem válaszol időben",
	KindUnreachable:   "Sajnálom, nem tudom elérni az AI szervert",
	KindMalformed:     "Sajnálom, hiba történt az AI válasz generálása során",
	KindNotConfigured: "Azure OpenAI nincs konfigurálva",
}

// UserMessage translates any error into the reply text shown to the user.
// Untyped errors collapse to the generic apology.
func UserMessage(err error) string {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.userMessage()
	}
	return userMessages[KindMalformed]
}
