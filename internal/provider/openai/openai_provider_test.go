package openai_test

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
	"housingreview/internal/provider/openai"
)

func newTestProvider(serverURL string) *openai.Provider {
	return openai.NewProviderWithEndpoint(&config.ProviderEndpointConfig{
		Provider:     "openai",
		APIKey:       "test-openai-key",
		DefaultModel: "gpt-4.1",
	}, serverURL)
}

func chatResponse(content, finish string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{
				"message":       map[string]interface{}{"role": "assistant", "content": content},
				"finish_reason": finish,
			},
		},
	}
}

func testInput() port.AnalyzeInput {
	return port.AnalyzeInput{
		Attachments: []port.Attachment{{Content: []byte("img"), ContentType: "image/jpeg", PageNumber: 1}},
		Prompt:      provider.BuildOwnerPrompt(),
		Priority:    domain.PriorityFallbackOwner,
	}
}

func TestOpenAIProvider_Analyze_Success(t *testing.T) {
	llmJSON := `{"data":{"sale_application":{"owner":{"name":"주식회사 한빛건설","phone":"010-1234-5678"}}},"confidence_scores":{}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-openai-key", r.Header.Get("Authorization"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-4.1", reqBody["model"])
		format := reqBody["response_format"].(map[string]interface{})
		assert.Equal(t, "json_object", format["type"])

		_ = json.NewEncoder(w).Encode(chatResponse(llmJSON, "stop"))
	}))
	defer server.Close()

	out, err := newTestProvider(server.URL).Analyze(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, "주식회사 한빛건설", out.Fields["sale_application.owner.name"])
	assert.Equal(t, "010-1234-5678", out.Fields["sale_application.owner.phone"])
}

func TestOpenAIProvider_Analyze_TruncatedIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse(`{"data":`, "length"))
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).Analyze(context.Background(), testInput())
	require.Error(t, err)
	assert.Equal(t, provider.KindPermanent, provider.Classify(err))
}

func TestOpenAIProvider_Analyze_ThrottledDefaultRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).Analyze(context.Background(), testInput())
	require.Error(t, err)
	te, ok := err.(*provider.ThrottleError)
	require.True(t, ok)
	assert.Equal(t, provider.DefaultRetryAfter, te.RetryAfter)
}
