// ABOUTME: Configuration loading for the freshbot gateway
// ABOUTME: Supports YAML files with environment variable expansion, plus a pure-env fallback

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when neither the config file nor the environment
// provides a setting.
const (
	DefaultHTTPAddr        = ":7071"
	DefaultBotName         = "Fresh Bot"
	DefaultProvider        = ProviderEcho
	DefaultAzureAPIVersion = "2024-12-01-preview"
	DefaultAzureDeployment = "gpt-4o-mini"
	DefaultOllamaBaseURL   = "http://localhost:11434"
	DefaultOllamaModel     = "llama3"
)

// Provider selector values recognized by the router.
const (
	ProviderEcho   = "echo"
	ProviderOllama = "ollama"
	ProviderAzure  = "azure"
)

// Reference timeouts for outbound calls. Each outbound dependency carries its
// own bound so a slow dependency cannot stall a webhook handler indefinitely.
const (
	DefaultTokenTimeout    = 10 * time.Second
	DefaultOllamaTimeout   = 30 * time.Second
	DefaultAzureTimeout    = 30 * time.Second
	DefaultDeliveryTimeout = 10 * time.Second
)

// Config is the complete freshbot configuration. A Config value is immutable
// once loaded; hot reload swaps the whole snapshot (see Store).
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Bot      BotConfig     `yaml:"bot"`
	LLM      LLMConfig     `yaml:"llm"`
	Azure    AzureConfig   `yaml:"azure"`
	Ollama   OllamaConfig  `yaml:"ollama"`
	Logging  LoggingConfig `yaml:"logging"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// BotConfig holds the Bot Framework identity used for token exchange and
// outbound delivery.
type BotConfig struct {
	AppID       string `yaml:"app_id"`
	AppPassword string `yaml:"app_password"`
	TenantID    string `yaml:"tenant_id"`
	Name        string `yaml:"name"`

	// TokenURL overrides the derived login.microsoftonline.com endpoint.
	// Intended for tests and sovereign-cloud deployments.
	TokenURL string `yaml:"token_url"`
}

// OAuthTokenURL returns the client-credentials token endpoint for the bot's
// tenant, honoring the TokenURL override.
func (b BotConfig) OAuthTokenURL() string {
	if b.TokenURL != "" {
		return b.TokenURL
	}
	return fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", b.TenantID)
}

// LLMConfig selects the backend provider used to generate replies.
type LLMConfig struct {
	Provider string `yaml:"provider"`
}

// AzureConfig holds Azure OpenAI connection settings. Read fresh from the
// current snapshot on every request so changes apply without a restart.
type AzureConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	APIVersion     string `yaml:"api_version"`
	ChatDeployment string `yaml:"chat_deployment"`
}

// OllamaConfig holds the local model endpoint settings.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TimeoutConfig bounds each class of outbound network call.
type TimeoutConfig struct {
	Token    time.Duration `yaml:"-"`
	Ollama   time.Duration `yaml:"-"`
	Azure    time.Duration `yaml:"-"`
	Delivery time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	TokenRaw    string `yaml:"token"`
	OllamaRaw   string `yaml:"ollama"`
	AzureRaw    string `yaml:"azure"`
	DeliveryRaw string `yaml:"delivery"`
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Environment fallbacks fill any field the file leaves empty.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a Config entirely from the process environment. This is the
// path used when no config file exists, matching the original env-driven
// deployment of the bot.
func FromEnv() (*Config, error) {
	var cfg Config
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// applyEnv fills empty fields from the environment. Key names follow the
// original bot's variables so existing deployments keep working unchanged.
func (c *Config) applyEnv() {
	setIfEmpty(&c.Bot.AppID, "MicrosoftAppId")
	setIfEmpty(&c.Bot.AppPassword, "MicrosoftAppPassword")
	setIfEmpty(&c.Bot.TenantID, "MicrosoftAppTenantId")
	setIfEmpty(&c.LLM.Provider, "LLM_PROVIDER")
	setIfEmpty(&c.Azure.Endpoint, "AZURE_OPENAI_ENDPOINT")
	setIfEmpty(&c.Azure.APIKey, "AZURE_OPENAI_API_KEY")
	setIfEmpty(&c.Azure.APIVersion, "AZURE_OPENAI_API_VERSION")
	setIfEmpty(&c.Azure.ChatDeployment, "AZURE_OPENAI_CHAT_DEPLOYMENT")
	setIfEmpty(&c.Ollama.BaseURL, "LLAMA3_API_URL")
	setIfEmpty(&c.Ollama.Model, "LLAMA3_MODEL")
	setIfEmpty(&c.Logging.Level, "LOG_LEVEL")

	if c.Server.HTTPAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			c.Server.HTTPAddr = ":" + port
		}
	}
}

func setIfEmpty(dst *string, envKey string) {
	if *dst == "" {
		*dst = os.Getenv(envKey)
	}
}

// applyDefaults fills any remaining empty fields with the documented defaults.
func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Bot.Name == "" {
		c.Bot.Name = DefaultBotName
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = DefaultProvider
	}
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	if c.Azure.APIVersion == "" {
		c.Azure.APIVersion = DefaultAzureAPIVersion
	}
	if c.Azure.ChatDeployment == "" {
		c.Azure.ChatDeployment = DefaultAzureDeployment
	}
	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = DefaultOllamaBaseURL
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = DefaultOllamaModel
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that the configuration is internally consistent. An unknown
// provider selector is not an error here: the router falls back to echo at
// dispatch time, so a typo degrades service instead of refusing to boot.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if !strings.Contains(c.Server.HTTPAddr, ":") {
		return fmt.Errorf("server.http_addr %q must be a host:port address", c.Server.HTTPAddr)
	}

	for name, d := range map[string]time.Duration{
		"timeouts.token":    c.Timeouts.Token,
		"timeouts.ollama":   c.Timeouts.Ollama,
		"timeouts.azure":    c.Timeouts.Azure,
		"timeouts.delivery": c.Timeouts.Delivery,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	return nil
}

// parseDurations converts the raw timeout strings into time.Duration values,
// applying the reference defaults for any left unset.
func parseDurations(cfg *Config) error {
	entries := []struct {
		name string
		raw  string
		dst  *time.Duration
		def  time.Duration
	}{
		{"timeouts.token", cfg.Timeouts.TokenRaw, &cfg.Timeouts.Token, DefaultTokenTimeout},
		{"timeouts.ollama", cfg.Timeouts.OllamaRaw, &cfg.Timeouts.Ollama, DefaultOllamaTimeout},
		{"timeouts.azure", cfg.Timeouts.AzureRaw, &cfg.Timeouts.Azure, DefaultAzureTimeout},
		{"timeouts.delivery", cfg.Timeouts.DeliveryRaw, &cfg.Timeouts.Delivery, DefaultDeliveryTimeout},
	}

	for _, e := range entries {
		if e.raw == "" {
			*e.dst = e.def
			continue
		}
		d, err := time.ParseDuration(e.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", e.name, e.raw, err)
		}
		*e.dst = d
	}

	return nil
}
