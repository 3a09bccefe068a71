package llm

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/envisage-news/envisage-cli/internal/config"
	"github.com/envisage-news/envisage-cli/internal/resilience"
)

// AnthropicClient implements Client on the official anthropic-sdk-go.
type AnthropicClient struct {
	client sdk.Client
	model  string
}

// NewAnthropic creates an Anthropic-backed client.
func NewAnthropic(cfg config.AnthropicConfig) *AnthropicClient {
	return &AnthropicClient{
		client: sdk.NewClient(option.WithAPIKey(cfg.Key)),
		model:  cfg.Model,
	}
}

// Generate sends a single-message request and concatenates the text blocks
// of the response. Transient provider failures are retried with backoff.
func (c *AnthropicClient) Generate(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("anthropic", "generate")

	msg, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*sdk.Message, error) {
		return c.client.Messages.New(ctx, params)
	})
	if err != nil {
		return "", eris.Wrap(err, "anthropic: generate")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
