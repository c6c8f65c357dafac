// ABOUTME: Tests for the Azure OpenAI provider
// ABOUTME: Covers the not-configured path and a faked chat-completion call

package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_AzureNotConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Azure.Endpoint = ""
	cfg.Azure.APIKey = ""
	router, hist := newTestRouter(cfg)

	reply := router.Respond(context.Background(), "azure", "c1", "Hi")
	assert.Equal(t, "Azure OpenAI nincs konfigurálva", reply)
	assert.Zero(t, hist.Len("c1"))
}

func TestRouter_AzureSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NotEmpty(t, r.URL.Query().Get("api-version"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "Szia, miben segíthetek?"}
			}]
		}`))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Azure.Endpoint = srv.URL
	cfg.Azure.APIKey = "test-key"
	router, hist := newTestRouter(cfg)

	reply := router.Respond(context.Background(), "azure", "c1", "Hi")
	assert.Equal(t, "Szia, miben segíthetek?", reply)

	turns := hist.History("c1")
	require.Len(t, turns, 2)
	assert.Equal(t, "Hi", turns[0].Content)
	assert.Equal(t, "Szia, miben segíthetek?", turns[1].Content)
}

func TestRouter_AzureCallFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom"}}`))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Azure.Endpoint = srv.URL
	cfg.Azure.APIKey = "test-key"
	router, hist := newTestRouter(cfg)

	reply := router.Respond(context.Background(), "azure", "c1", "Hi")
	assert.Equal(t, "Sajnálom, hiba történt az AI válasz generálása során", reply)
	assert.Zero(t, hist.Len("c1"))
}
