// ABOUTME: Tests for the failure taxonomy and its user-facing translation
// ABOUTME: Every failure kind maps to exactly one fixed localized string

package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage_KnownKinds(t *testing.T) {
	cases := []struct {
		kind Kind
		want string
	}{
		{KindTimeout, "Sajnálom, az AI szerver nem válaszol időben"},
		{KindUnreachable, "Sajnálom, nem tudom elérni az AI szervert"},
		{KindMalformed, "Sajnálom, hiba történt az AI válasz generálása során"},
		{KindNotConfigured, "Azure OpenAI nincs konfigurálva"},
	}

	for _, tc := range cases {
		err := &Error{Kind: tc.kind, Err: errors.New("cause")}
		assert.Equal(t, tc.want, UserMessage(err))
	}
}

func TestUserMessage_UntypedError(t *testing.T) {
	assert.Equal(t,
		"Sajnálom, hiba történt az AI válasz generálása során",
		UserMessage(errors.New("something unexpected")))
}

func TestUserMessage_WrappedProviderError(t *testing.T) {
	err := fmt.Errorf("outer context: %w", &Error{Kind: KindTimeout})
	assert.Equal(t, "Sajnálom, az AI szerver nem válaszol időben", UserMessage(err))
}

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &Error{Kind: KindUnreachable, Err: cause}

	assert.Equal(t, "connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}
