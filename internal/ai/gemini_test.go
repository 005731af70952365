package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiGenerateMapsRequestAndResponse(t *testing.T) {
	var got geminiRequest
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("X-Goog-Request-Id", "req-1")
		_, _ = w.Write([]byte(`{"responseId":"r1","candidates":[{"content":{"role":"model","parts":[{"text":"Grow "},{"text":"weekends."}]}}],
			"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":3,"totalTokenCount":13}}`))
	}))
	defer srv.Close()

	c := NewGeminiClient("k3y", srv.URL+"/", 0)
	resp, err := c.Generate(context.Background(), GenerateRequest{
		Model:       "gemini-test",
		System:      "be brief",
		Messages:    []Message{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}, {Role: RoleUser, Content: "advice?"}},
		Temperature: 0.7,
		TopP:        0.95,
	})
	require.NoError(t, err)

	assert.Equal(t, "/gemini-test:generateContent", gotPath)
	assert.Equal(t, "k3y", gotKey)
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "be brief", got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.Contents, 3)
	assert.Equal(t, "model", got.Contents[1].Role)
	require.NotNil(t, got.GenerationConfig)
	assert.InDelta(t, 0.7, *got.GenerationConfig.Temperature, 1e-9)
	assert.InDelta(t, 0.95, *got.GenerationConfig.TopP, 1e-9)
	assert.Zero(t, got.GenerationConfig.MaxOutputTokens)

	assert.Equal(t, "Grow weekends.", resp.Text())
	assert.Equal(t, "r1", resp.ID)
	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, 13, resp.Usage.TotalTokens)
}

func TestGeminiEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer srv.Close()

	resp, err := NewGeminiClient("k", srv.URL, time.Second).Generate(context.Background(), GenerateRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	require.NoError(t, err)
	assert.Empty(t, resp.Text())
}

func TestGeminiErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`, func(t *testing.T, err error) {
			var ae *AuthError
			assert.True(t, errors.As(err, &ae))
		}},
		{http.StatusBadRequest, `{"error":{"code":400,"message":"contents is required","status":"INVALID_ARGUMENT"}}`, func(t *testing.T, err error) {
			var be *BadRequestError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, "INVALID_ARGUMENT", be.Code)
			assert.Equal(t, ProviderGemini, be.Provider)
		}},
		{http.StatusTooManyRequests, `{"error":{"code":429,"message":"You exceeded your current quota","status":"RESOURCE_EXHAUSTED"}}`, func(t *testing.T, err error) {
			var qe *QuotaExceededError
			assert.True(t, errors.As(err, &qe))
		}},
		{http.StatusNotFound, `{"error":{"code":404,"message":"models/nope is not found","status":"NOT_FOUND"}}`, func(t *testing.T, err error) {
			var me *ModelNotFoundError
			assert.True(t, errors.As(err, &me))
		}},
		{http.StatusServiceUnavailable, `upstream down`, func(t *testing.T, err error) {
			var se *ServerError
			require.True(t, errors.As(err, &se))
			assert.Contains(t, se.Error(), "upstream down")
		}},
	}
	for _, c := range cases {
		var hits int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			w.WriteHeader(c.status)
			_, _ = w.Write([]byte(c.body))
		}))
		_, err := NewGeminiClient("k", srv.URL, 0).Generate(context.Background(), GenerateRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
		srv.Close()
		require.Error(t, err)
		c.check(t, err)
		assert.Equal(t, 1, hits, "single attempt for status %d", c.status)
	}
}

func TestGeminiRequiresKey(t *testing.T) {
	_, err := NewGeminiClient("", "", 0).Generate(context.Background(), GenerateRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGeminiUnreachableRedactsKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewGeminiClient("secret-key", url, time.Second).Generate(context.Background(), GenerateRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	var ue *UnreachableError
	require.True(t, errors.As(err, &ue))
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestBuildGeminiRequestFoldsSystemMessages(t *testing.T) {
	r := buildGeminiRequest(GenerateRequest{
		System:    "a",
		Messages:  []Message{{Role: RoleSystem, Content: "b"}, {Role: RoleUser, Content: "q"}},
		MaxTokens: 64,
	})
	require.NotNil(t, r.SystemInstruction)
	assert.Equal(t, "a\n\nb", r.SystemInstruction.Parts[0].Text)
	assert.Len(t, r.Contents, 1)
	assert.Nil(t, r.GenerationConfig.Temperature)
	assert.Equal(t, 64, r.GenerationConfig.MaxOutputTokens)

	assert.Nil(t, buildGeminiRequest(GenerateRequest{Messages: []Message{{Role: RoleUser, Content: "q"}}}).GenerationConfig)
}
