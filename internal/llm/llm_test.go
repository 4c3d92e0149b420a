package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	path   string
	query  url.Values
	header http.Header
	body   map[string]any
}

func capture(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	seen := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.path = r.URL.Path
		seen.query = r.URL.Query()
		seen.header = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&seen.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "cohere", APIKey: "k"})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestNewRequiresKeyAndCustomEndpoint(t *testing.T) {
	_, err := New(Config{Provider: ProviderOpenAI, APIKey: "  "})
	assert.Error(t, err)

	_, err = New(Config{Provider: ProviderCustom, APIKey: "k"})
	assert.Error(t, err)
}

func TestOpenAIGenerate(t *testing.T) {
	srv, seen := capture(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"hello"}}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`)

	c, err := New(Config{Provider: ProviderCustom, APIKey: "secret", Endpoint: srv.URL + "/v1/"})
	require.NoError(t, err)

	resp, err := c.Generate(context.Background(), "say hi", Options{Temperature: 0.1, MaxTokens: 2000})
	require.NoError(t, err)

	assert.Equal(t, "hello", resp.Text)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 4, resp.Usage.TotalTokens)
	assert.Equal(t, "/v1/chat/completions", seen.path)
	assert.Equal(t, "Bearer secret", seen.header.Get("Authorization"))
	assert.Equal(t, 0.1, seen.body["temperature"])
	assert.Equal(t, float64(2000), seen.body["max_tokens"])
}

func TestOpenAIDefaultsOptions(t *testing.T) {
	srv, seen := capture(t, http.StatusOK, `{"choices":[{"message":{"content":"x"}}]}`)

	c, err := New(Config{Provider: ProviderOpenAI, APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), "p", Options{})
	require.NoError(t, err)

	assert.Equal(t, 0.3, seen.body["temperature"])
	assert.Equal(t, float64(4000), seen.body["max_tokens"])
	assert.Equal(t, "gpt-3.5-turbo", seen.body["model"])
}

func TestAPIErrorCarriesStatus(t *testing.T) {
	srv, _ := capture(t, http.StatusUnauthorized, `{"error":"bad key"}`)

	c, err := New(Config{Provider: ProviderAnthropic, APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), "p", Options{})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "bad key")
}

func TestAnthropicGenerate(t *testing.T) {
	srv, seen := capture(t, http.StatusOK,
		`{"content":[{"type":"text","text":"report"}],"usage":{"input_tokens":10,"output_tokens":5}}`)

	c, err := New(Config{Provider: ProviderAnthropic, APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)
	resp, err := c.Generate(context.Background(), "p", Options{})
	require.NoError(t, err)

	assert.Equal(t, "report", resp.Text)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, "k", seen.header.Get("x-api-key"))
	assert.Equal(t, anthropicVersion, seen.header.Get("anthropic-version"))
}

func TestGeminiGenerate(t *testing.T) {
	srv, seen := capture(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"gem"}]}}],"usageMetadata":{"promptTokenCount":1,"candidatesTokenCount":2,"totalTokenCount":3}}`)

	c, err := New(Config{Provider: ProviderGemini, APIKey: "k&y", Endpoint: srv.URL})
	require.NoError(t, err)
	resp, err := c.Generate(context.Background(), "p", Options{})
	require.NoError(t, err)

	assert.Equal(t, "gem", resp.Text)
	assert.Equal(t, 3, resp.Usage.TotalTokens)
	assert.Equal(t, "/models/gemini-2.0-flash:generateContent", seen.path)
	assert.Equal(t, "k&y", seen.query.Get("key"))
	assert.Contains(t, seen.body, "safetySettings")
}

func TestEmptyCandidates(t *testing.T) {
	tests := []struct {
		provider string
		reply    string
	}{
		{ProviderGemini, `{"candidates":[]}`},
		{ProviderOpenAI, `{"choices":[]}`},
		{ProviderAnthropic, `{"content":[]}`},
		{ProviderAIPipe, `{"unexpected":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			srv, _ := capture(t, http.StatusOK, tt.reply)

			c, err := New(Config{Provider: tt.provider, APIKey: "k", Endpoint: srv.URL})
			require.NoError(t, err)
			_, err = c.Generate(context.Background(), "p", Options{})
			assert.ErrorIs(t, err, ErrEmptyResponse)
		})
	}
}

func TestAIPipeAlternateShapes(t *testing.T) {
	srv, _ := capture(t, http.StatusOK, `{"response":"alt"}`)

	c, err := New(Config{Provider: ProviderAIPipe, APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)
	resp, err := c.Generate(context.Background(), "p", Options{})
	require.NoError(t, err)
	assert.Equal(t, "alt", resp.Text)
	assert.Nil(t, resp.Usage)
}
