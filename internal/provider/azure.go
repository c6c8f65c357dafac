// ABOUTME: Hosted model provider backed by Azure OpenAI chat completions
// ABOUTME: Reads endpoint, key, and deployment fresh from config on every call

package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/grepton/freshbot/internal/config"
	"github.com/grepton/freshbot/internal/history"
)

// Generation parameters, matching the original deployment.
const (
	azureTemperature = 0.7
	azureMaxTokens   = 500
)

// Azure generates replies through an Azure OpenAI chat deployment. The client
// is rebuilt from the current config snapshot per call, so rotating the key
// or switching deployments takes effect on the next request without a
// restart.
type Azure struct {
	cfg    *config.Store
	logger *slog.Logger
}

// NewAzure creates the hosted model provider.
func NewAzure(cfg *config.Store, logger *slog.Logger) *Azure {
	if logger == nil {
		logger = slog.Default()
	}
	return &Azure{
		cfg:    cfg,
		logger: logger.With("component", "azure"),
	}
}

// Name implements Provider.
func (*Azure) Name() string { return "azure" }

// Respond implements Provider. Missing endpoint or key is a configuration
// failure, not an exception; any other call failure collapses to the generic
// apology while the cause goes to the log.
func (a *Azure) Respond(ctx context.Context, turns []history.Turn, userMessage string) (string, error) {
	snap := a.cfg.Snapshot()

	if snap.Azure.Endpoint == "" || snap.Azure.APIKey == "" {
		return "", &Error{Kind: KindNotConfigured, Err: errors.New("azure openai endpoint or api key missing")}
	}

	// No client-side retries: the webhook answers once, failures degrade
	// to apology text instead.
	client := openai.NewClient(
		azure.WithEndpoint(snap.Azure.Endpoint, snap.Azure.APIVersion),
		azure.WithAPIKey(snap.Azure.APIKey),
		option.WithMaxRetries(0),
	)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+2)
	messages = append(messages, openai.SystemMessage(SystemPreamble))
	for _, t := range turns {
		switch t.Role {
		case history.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(t.Content))
		default:
			messages = append(messages, openai.UserMessage(t.Content))
		}
	}
	messages = append(messages, openai.UserMessage(userMessage))

	ctx, cancel := context.WithTimeout(ctx, snap.Timeouts.Azure)
	defer cancel()

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(snap.Azure.ChatDeployment),
		Messages:    messages,
		Temperature: openai.Float(azureTemperature),
		MaxTokens:   openai.Int(azureMaxTokens),
	})
	if err != nil {
		return "", &Error{Kind: KindMalformed, Err: fmt.Errorf("azure chat completion: %w", err)}
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Kind: KindMalformed, Err: errors.New("no choices in azure response")}
	}

	reply := resp.Choices[0].Message.Content
	if reply == "" {
		return "", &Error{Kind: KindMalformed, Err: errors.New("empty reply from azure")}
	}

	a.logger.Debug("azure reply", "deployment", snap.Azure.ChatDeployment, "chars", len(reply))
	return reply, nil
}
