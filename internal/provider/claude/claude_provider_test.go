package claude_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housingreview/internal/config"
	"housingreview/internal/domain"
	"housingreview/internal/port"
	"housingreview/internal/provider"
	"housingreview/internal/provider/claude"
)

func newTestProvider(serverURL string) *claude.Provider {
	return claude.NewProviderWithEndpoint(&config.ProviderEndpointConfig{
		Provider:     "claude",
		APIKey:       "test-anthropic-key",
		DefaultModel: "claude-sonnet-4-20250514",
		TimeoutSecs:  30,
	}, serverURL)
}

func messageResponse(text, stopReason string) map[string]interface{} {
	return map[string]interface{}{
		"id":            "msg_test",
		"type":          "message",
		"role":          "assistant",
		"model":         "claude-sonnet-4-20250514",
		"content":       []map[string]interface{}{{"type": "text", "text": text}},
		"stop_reason":   stopReason,
		"stop_sequence": nil,
		"usage":         map[string]interface{}{"input_tokens": 10, "output_tokens": 20},
	}
}

func testInput() port.AnalyzeInput {
	return port.AnalyzeInput{
		Attachments:   []port.Attachment{{Content: []byte("img"), ContentType: "image/png", PageNumber: 3}},
		Prompt:        provider.BuildClassificationPrompt(),
		DocumentTypes: nil,
		Priority:      domain.PriorityClassification,
	}
}

func TestClaudeProvider_Analyze_Success(t *testing.T) {
	llmJSON := "```json\n{\"data\":{\"classification\":{\"document_type\":\"building_ledger_title\"}},\"confidence_scores\":{\"classification\":{\"document_type\":0.88}}}\n```"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-anthropic-key", r.Header.Get("X-Api-Key"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "claude-sonnet-4-20250514", reqBody["model"])
		msgs := reqBody["messages"].([]interface{})
		content := msgs[0].(map[string]interface{})["content"].([]interface{})
		require.Len(t, content, 2)
		assert.Equal(t, "image", content[0].(map[string]interface{})["type"])
		assert.Equal(t, "text", content[1].(map[string]interface{})["type"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageResponse(llmJSON, "end_turn"))
	}))
	defer server.Close()

	out, err := newTestProvider(server.URL).Analyze(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, "building_ledger_title", out.Fields[provider.ClassificationField])
	assert.InDelta(t, 0.88, out.Confidences[provider.ClassificationField], 0.0001)
}

func TestClaudeProvider_Analyze_Throttled(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).Analyze(context.Background(), testInput())
	require.Error(t, err)
	assert.Equal(t, provider.KindThrottled, provider.Classify(err))
	assert.Equal(t, 1, calls, "SDK retries must be disabled")
}

func TestClaudeProvider_Analyze_BadRequestIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"image too large"}}`))
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).Analyze(context.Background(), testInput())
	require.Error(t, err)
	assert.Equal(t, provider.KindPermanent, provider.Classify(err))
}

func TestClaudeProvider_Analyze_MaxTokensIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageResponse(`{"data":{`, "max_tokens"))
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).Analyze(context.Background(), testInput())
	require.Error(t, err)
	assert.Equal(t, provider.KindPermanent, provider.Classify(err))
}
