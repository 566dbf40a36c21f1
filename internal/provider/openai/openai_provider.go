// Package openai implements the vision provider on the OpenAI Chat Completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"housingreview/internal/config"
	"housingreview/internal/port"
	"housingreview/internal/provider"
)

const (
	name   = "openai"
	apiURL = "https://api.openai.com/v1/chat/completions"
)

// Provider implements port.VisionProvider using the OpenAI Chat Completions API.
type Provider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewProvider creates an OpenAI-based vision provider.
func NewProvider(cfg *config.ProviderEndpointConfig) *Provider {
	return newProvider(cfg, apiURL)
}

// NewProviderWithEndpoint creates a provider pointing at a custom API endpoint (for testing).
func NewProviderWithEndpoint(cfg *config.ProviderEndpointConfig, endpoint string) *Provider {
	return newProvider(cfg, endpoint)
}

// Factory adapts NewProvider to provider.Factory.
func Factory(cfg *config.ProviderEndpointConfig) (port.VisionProvider, error) {
	return NewProvider(cfg), nil
}

func newProvider(cfg *config.ProviderEndpointConfig, endpoint string) *Provider {
	model := cfg.DefaultModel
	if model == "" {
		model = "gpt-4.1"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Provider{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *Provider) Analyze(ctx context.Context, input port.AnalyzeInput) (*port.AnalyzeOutput, error) {
	contentBlocks, err := buildContentBlocks(input)
	if err != nil {
		return nil, provider.NewPermanentError(name, err)
	}

	reqBody := map[string]interface{}{
		"model":                 p.model,
		"max_completion_tokens": 16384,
		"messages": []map[string]interface{}{
			{"role": "user", "content": contentBlocks},
		},
		"response_format": map[string]interface{}{"type": "json_object"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, provider.NewPermanentError(name, eris.Wrap(err, "marshaling request"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, provider.NewPermanentError(name, eris.Wrap(err, "creating request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "calling openai API")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "reading response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, provider.StatusError(name, resp.StatusCode, respBody, resp.Header.Get("Retry-After"))
	}

	return parseResponse(respBody, p.model)
}

func buildContentBlocks(input port.AnalyzeInput) ([]map[string]interface{}, error) {
	if len(input.Attachments) == 0 {
		return nil, eris.New("no attachments")
	}
	blocks := make([]map[string]interface{}, 0, len(input.Attachments)+1)
	for _, a := range input.Attachments {
		dataURI := fmt.Sprintf("data:%s;base64,%s", a.ContentType, base64.StdEncoding.EncodeToString(a.Content))
		switch a.ContentType {
		case "application/pdf":
			blocks = append(blocks, map[string]interface{}{
				"type": "file",
				"file": map[string]interface{}{
					"filename":  fmt.Sprintf("page-%d.pdf", a.PageNumber),
					"file_data": dataURI,
				},
			})
		case "image/jpeg", "image/png":
			blocks = append(blocks, map[string]interface{}{
				"type":      "image_url",
				"image_url": map[string]interface{}{"url": dataURI},
			})
		default:
			return nil, eris.Errorf("unsupported content type for analysis: %s", a.ContentType)
		}
	}
	blocks = append(blocks, map[string]interface{}{"type": "text", "text": input.Prompt})
	return blocks, nil
}

// apiResponse models the OpenAI Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte, model string) (*port.AnalyzeOutput, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, provider.NewPermanentError(name, eris.Wrap(err, "unmarshaling response"))
	}
	if len(resp.Choices) == 0 {
		return nil, provider.NewPermanentError(name, eris.New("empty response from API: no choices"))
	}
	if resp.Choices[0].FinishReason == "length" {
		return nil, provider.NewPermanentError(name, eris.New("output truncated (finish_reason: length)"))
	}

	parsed, err := provider.ParseModelOutput(name, resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return &port.AnalyzeOutput{
		Fields:      parsed.Fields,
		Confidences: parsed.Confidences,
		Model:       model,
		Raw:         parsed.Raw,
	}, nil
}
