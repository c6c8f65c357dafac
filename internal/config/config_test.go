// ABOUTME: Tests for configuration loading, env expansion, and hot reload
// ABOUTME: Covers file parsing, env fallback, defaults, and snapshot swapping

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "freshbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Basic(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":8080"
bot:
  app_id: "app-123"
  app_password: "secret"
  tenant_id: "tenant-456"
llm:
  provider: ollama
ollama:
  base_url: "http://models:11434"
  model: "llama3"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "app-123", cfg.Bot.AppID)
	assert.Equal(t, ProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, "http://models:11434", cfg.Ollama.BaseURL)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_BOT_SECRET", "expanded-secret")

	path := writeConfig(t, `
bot:
  app_id: "app-123"
  app_password: "${TEST_BOT_SECRET}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded-secret", cfg.Bot.AppPassword)
}

func TestLoad_EnvExpansion_UnsetVar(t *testing.T) {
	path := writeConfig(t, `
bot:
  app_password: "${DEFINITELY_NOT_SET_FRESHBOT}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Bot.AppPassword)
}

func TestLoad_Defaults(t *testing.T) {
	// Neutralize ambient overrides so the defaults are what we observe.
	t.Setenv("PORT", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLAMA3_API_URL", "")
	t.Setenv("LLAMA3_MODEL", "")

	path := writeConfig(t, `
bot:
  app_id: "app-123"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPAddr, cfg.Server.HTTPAddr)
	assert.Equal(t, DefaultBotName, cfg.Bot.Name)
	assert.Equal(t, ProviderEcho, cfg.LLM.Provider)
	assert.Equal(t, DefaultAzureAPIVersion, cfg.Azure.APIVersion)
	assert.Equal(t, DefaultAzureDeployment, cfg.Azure.ChatDeployment)
	assert.Equal(t, DefaultOllamaBaseURL, cfg.Ollama.BaseURL)
	assert.Equal(t, DefaultOllamaModel, cfg.Ollama.Model)
	assert.Equal(t, DefaultTokenTimeout, cfg.Timeouts.Token)
	assert.Equal(t, DefaultOllamaTimeout, cfg.Timeouts.Ollama)
	assert.Equal(t, DefaultDeliveryTimeout, cfg.Timeouts.Delivery)
}

func TestLoad_Timeouts(t *testing.T) {
	path := writeConfig(t, `
timeouts:
  token: 5s
  ollama: 45s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Token)
	assert.Equal(t, 45*time.Second, cfg.Timeouts.Ollama)
	assert.Equal(t, DefaultDeliveryTimeout, cfg.Timeouts.Delivery)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	path := writeConfig(t, `
timeouts:
  token: "not-a-duration"
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ProviderNormalized(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: AZURE
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderAzure, cfg.LLM.Provider)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("MicrosoftAppId", "env-app")
	t.Setenv("MicrosoftAppPassword", "env-pass")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("LLAMA3_API_URL", "http://envhost:11434")
	t.Setenv("PORT", "9090")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "env-app", cfg.Bot.AppID)
	assert.Equal(t, "env-pass", cfg.Bot.AppPassword)
	assert.Equal(t, ProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, "http://envhost:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
}

func TestOAuthTokenURL(t *testing.T) {
	b := BotConfig{TenantID: "tenant-1"}
	assert.Equal(t,
		"https://login.microsoftonline.com/tenant-1/oauth2/v2.0/token",
		b.OAuthTokenURL())

	b.TokenURL = "http://127.0.0.1:9999/token"
	assert.Equal(t, "http://127.0.0.1:9999/token", b.OAuthTokenURL())
}

func TestStore_Reload(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: echo
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	store := NewStore(path, cfg)
	assert.Equal(t, ProviderEcho, store.Snapshot().LLM.Provider)

	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: ollama
`), 0o600))

	require.NoError(t, store.Reload())
	assert.Equal(t, ProviderOllama, store.Snapshot().LLM.Provider)
}

func TestStore_ReloadFailureKeepsSnapshot(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: ollama
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	store := NewStore(path, cfg)

	require.NoError(t, os.WriteFile(path, []byte("{{not yaml"), 0o600))

	assert.Error(t, store.Reload())
	assert.Equal(t, ProviderOllama, store.Snapshot().LLM.Provider)
}
