package advisory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SHG-Insights/internal/config"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

func newGeminiServer(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewGeminiClient(config.AdvisoryConfig{
		Endpoint:        srv.URL + "/",
		Model:           "gemini-2.0-flash",
		APIKey:          "test-key",
		Timeout:         5 * time.Second,
		MaxOutputTokens: 600,
		Temperature:     0.2,
	})
	require.NoError(t, err)
	return c
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(config.AdvisoryConfig{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeAdvisoryNotConfigured))
}

func TestGeminiClient_Generate(t *testing.T) {
	c := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req geminiRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 600, req.GenerationConfig.MaxOutputTokens)
		assert.Equal(t, 0.2, req.GenerationConfig.Temperature)
		if assert.Len(t, req.Contents, 1) {
			assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Sell "},{"text":"locally."}]}}]}`))
	})

	text, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Sell locally.", text)
}

func TestGeminiClient_RateLimited(t *testing.T) {
	c := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"Resource exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := c.Generate(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAdvisoryRateLimited))
	assert.Contains(t, err.Error(), "Resource exhausted")
}

func TestGeminiClient_ServerError(t *testing.T) {
	c := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := c.Generate(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGeminiClient_NoCandidates(t *testing.T) {
	c := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	text, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Empty(t, text)
}
