package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *GeminiClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	client := NewGeminiClientWithConfig(GeminiConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "gemini-3-flash-preview",
		Timeout: 5 * time.Second,
	})
	return srv, client
}

func candidateResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	}
}

func TestCompleteWithSystemSendsStructuredRequest(t *testing.T) {
	var got geminiRequest
	srv, client := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-3-flash-preview:generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(candidateResponse(`{"ok": true}`))
	})
	defer srv.Close()

	out, err := client.CompleteWithSystem(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, out)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "user text", got.Contents[0].Parts[0].Text)
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "system text", got.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
}

func TestCompleteWithSystemConcatenatesParts(t *testing.T) {
	srv, client := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"parts": []map[string]any{{"text": "{\"a\":"}, {"text": " 1}"}},
					},
				},
			},
		})
	})
	defer srv.Close()

	out, err := client.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, out)
}

func TestCompleteWithSystemMissingAPIKey(t *testing.T) {
	client := NewGeminiClientWithConfig(GeminiConfig{BaseURL: "http://unused"})
	_, err := client.CompleteWithSystem(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestCompleteWithSystemRetriesOn429(t *testing.T) {
	calls := 0
	srv, client := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(candidateResponse("ok"))
	})
	defer srv.Close()

	out, err := client.CompleteWithSystem(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, calls)
}

func TestCompleteWithSystemNonOKIsTerminal(t *testing.T) {
	calls := 0
	srv, client := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	})
	defer srv.Close()

	_, err := client.CompleteWithSystem(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	// 4xx other than 429 must not be retried.
	assert.Equal(t, 1, calls)
}

func TestCompleteWithSystemAPIError(t *testing.T) {
	srv, client := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 400, "message": "invalid model"},
		})
	})
	defer srv.Close()

	_, err := client.CompleteWithSystem(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
}

func TestCompleteWithSystemNoCandidates(t *testing.T) {
	srv, client := geminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	})
	defer srv.Close()

	_, err := client.CompleteWithSystem(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no completion")
}

func TestNewGeminiClientDefaults(t *testing.T) {
	client := NewGeminiClientWithConfig(GeminiConfig{APIKey: "k"})
	assert.Equal(t, "gemini-3-flash-preview", client.GetModel())
}
