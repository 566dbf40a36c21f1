// Package gemini implements the vision provider on Google's Gemini API.
package gemini

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
	name       = "gemini"
	apiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
)

// Provider implements port.VisionProvider using Google's Gemini API.
type Provider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewProvider creates a Gemini-based vision provider.
func NewProvider(cfg *config.ProviderEndpointConfig) *Provider {
	return newProvider(cfg, "")
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
		model = "gemini-2.0-flash"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	return &Provider{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *Provider) Analyze(ctx context.Context, input port.AnalyzeInput) (*port.AnalyzeOutput, error) {
	parts, err := buildParts(input)
	if err != nil {
		return nil, provider.NewPermanentError(name, err)
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"role": "user", "parts": parts},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"maxOutputTokens":  16384,
		},
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
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "calling gemini API")
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

func buildParts(input port.AnalyzeInput) ([]map[string]interface{}, error) {
	if len(input.Attachments) == 0 {
		return nil, eris.New("no attachments")
	}
	parts := make([]map[string]interface{}, 0, len(input.Attachments)+1)
	for _, a := range input.Attachments {
		switch a.ContentType {
		case "application/pdf", "image/jpeg", "image/png":
		default:
			return nil, eris.Errorf("unsupported content type for analysis: %s", a.ContentType)
		}
		parts = append(parts, map[string]interface{}{
			"inline_data": map[string]interface{}{
				"mime_type": a.ContentType,
				"data":      base64.StdEncoding.EncodeToString(a.Content),
			},
		})
	}
	parts = append(parts, map[string]interface{}{"text": input.Prompt})
	return parts, nil
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func parseResponse(body []byte, model string) (*port.AnalyzeOutput, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, provider.NewPermanentError(name, eris.Wrap(err, "unmarshaling response"))
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, provider.NewPermanentError(name, eris.New("empty response from API"))
	}
	if resp.Candidates[0].FinishReason == "MAX_TOKENS" {
		return nil, provider.NewPermanentError(name, eris.New("output truncated (finishReason: MAX_TOKENS)"))
	}

	parsed, err := provider.ParseModelOutput(name, resp.Candidates[0].Content.Parts[0].Text)
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
