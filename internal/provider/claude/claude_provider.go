// Package claude implements the vision provider on the Anthropic Messages API.
package claude

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"housingreview/internal/config"
	"housingreview/internal/port"
	"housingreview/internal/provider"
)

const (
	name         = "claude"
	defaultModel = "claude-sonnet-4-20250514"
	maxTokens    = 16384
)

// Provider implements port.VisionProvider using the Anthropic SDK. SDK-level
// retries are disabled; the extraction orchestrator owns retries so every
// attempt passes through the rate governor.
type Provider struct {
	client sdk.Client
	model  string
}

// NewProvider creates a Claude-based vision provider from a provider config.
func NewProvider(cfg *config.ProviderEndpointConfig) *Provider {
	return newProvider(cfg, "")
}

// NewProviderWithEndpoint creates a provider pointing at a custom API base URL (for testing).
func NewProviderWithEndpoint(cfg *config.ProviderEndpointConfig, baseURL string) *Provider {
	return newProvider(cfg, baseURL)
}

// Factory adapts NewProvider to provider.Factory.
func Factory(cfg *config.ProviderEndpointConfig) (port.VisionProvider, error) {
	return NewProvider(cfg), nil
}

func newProvider(cfg *config.ProviderEndpointConfig, baseURL string) *Provider {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Provider{client: sdk.NewClient(opts...), model: model}
}

func (p *Provider) Analyze(ctx context.Context, input port.AnalyzeInput) (*port.AnalyzeOutput, error) {
	blocks, err := buildContentBlocks(input)
	if err != nil {
		return nil, provider.NewPermanentError(name, err)
	}

	msg, err := p.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(p.model),
		MaxTokens: maxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(blocks...)},
	})
	if err != nil {
		return nil, classifySDKError(err)
	}

	if string(msg.StopReason) == "max_tokens" {
		return nil, provider.NewPermanentError(name, eris.New("output truncated (stop_reason: max_tokens)"))
	}
	var text string
	for _, b := range msg.Content {
		if b.Type == "text" {
			text += b.Text
		}
	}
	if text == "" {
		return nil, provider.NewPermanentError(name, eris.New("empty response from API"))
	}

	parsed, err := provider.ParseModelOutput(name, text)
	if err != nil {
		return nil, err
	}
	return &port.AnalyzeOutput{
		Fields:      parsed.Fields,
		Confidences: parsed.Confidences,
		Model:       p.model,
		Raw:         parsed.Raw,
	}, nil
}

func buildContentBlocks(input port.AnalyzeInput) ([]sdk.ContentBlockParamUnion, error) {
	if len(input.Attachments) == 0 {
		return nil, eris.New("no attachments")
	}
	blocks := make([]sdk.ContentBlockParamUnion, 0, len(input.Attachments)+1)
	for _, a := range input.Attachments {
		encoded := base64.StdEncoding.EncodeToString(a.Content)
		switch a.ContentType {
		case "application/pdf":
			blocks = append(blocks, sdk.NewDocumentBlock(sdk.Base64PDFSourceParam{Data: encoded}))
		case "image/jpeg", "image/png":
			blocks = append(blocks, sdk.NewImageBlockBase64(a.ContentType, encoded))
		default:
			return nil, eris.Errorf("unsupported content type for analysis: %s", a.ContentType)
		}
	}
	blocks = append(blocks, sdk.NewTextBlock(input.Prompt))
	return blocks, nil
}

// classifySDKError maps SDK API errors onto the provider error taxonomy.
func classifySDKError(err error) error {
	var apiErr *sdk.Error
	if !errors.As(err, &apiErr) {
		return eris.Wrap(err, "calling anthropic API")
	}
	retryAfter := ""
	if apiErr.Response != nil {
		retryAfter = apiErr.Response.Header.Get("Retry-After")
	}
	return provider.StatusError(name, apiErr.StatusCode, []byte(apiErr.Error()), retryAfter)
}
