// Package llm is a thin client for the hosted language models used to write reports and
// generate custom detectors.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrUnsupportedProvider is returned by New for an unknown provider id.
	ErrUnsupportedProvider = errors.New("unsupported LLM provider")
	// ErrEmptyResponse is returned when a provider answers without any candidate text.
	ErrEmptyResponse = errors.New("empty response from LLM provider")
)

// Provider ids.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderAIPipe    = "aipipe"
	ProviderCustom    = "custom"
)

// ProviderInfo describes a selectable provider.
type ProviderInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	CustomEndpoint bool   `json:"customEndpoint,omitempty"`
}

// Providers lists the supported providers.
var Providers = []ProviderInfo{
	{ID: ProviderGemini, Name: "Google Gemini", Description: "Google's Gemini AI model"},
	{ID: ProviderOpenAI, Name: "OpenAI GPT", Description: "OpenAI's GPT models"},
	{ID: ProviderAnthropic, Name: "Anthropic Claude", Description: "Anthropic's Claude models"},
	{ID: ProviderAIPipe, Name: "AIPipe", Description: "AIPipe.org API service"},
	{ID: ProviderCustom, Name: "Custom Endpoint", Description: "Custom OpenAI-compatible API endpoint", CustomEndpoint: true},
}

// Options tune one generation call. Zero values fall back to provider defaults.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Response is a generated completion.
type Response struct {
	Text  string `json:"text"`
	Usage *Usage `json:"usage,omitempty"`
}

// Client generates text from a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string, opts Options) (Response, error)
}

// Config selects and authenticates a provider.
type Config struct {
	Provider string
	APIKey   string
	// Endpoint overrides the provider base URL. Required for the custom provider.
	Endpoint string
	// Model overrides the provider default model.
	Model      string
	HTTPClient *http.Client
}

const (
	defaultMaxTokens   = 4000
	defaultTemperature = 0.3
	defaultTimeout     = 2 * time.Minute
)

// New returns a Client for cfg.Provider.
func New(cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm: API key is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	t := transport{client: hc, provider: cfg.Provider}

	switch cfg.Provider {
	case ProviderGemini:
		return &gemini{
			transport: t,
			apiKey:    cfg.APIKey,
			baseURL:   strings.TrimRight(orDefault(cfg.Endpoint, "https://generativelanguage.googleapis.com/v1beta"), "/"),
			model:     orDefault(cfg.Model, "gemini-2.0-flash"),
		}, nil
	case ProviderOpenAI:
		return &openAI{
			transport: t,
			apiKey:    cfg.APIKey,
			url:       strings.TrimRight(orDefault(cfg.Endpoint, "https://api.openai.com/v1"), "/") + "/chat/completions",
			model:     orDefault(cfg.Model, "gpt-3.5-turbo"),
		}, nil
	case ProviderAIPipe:
		return &openAI{
			transport: t,
			apiKey:    cfg.APIKey,
			url:       orDefault(cfg.Endpoint, "https://aipipe.org/openrouter/v1/chat/completions"),
			model:     orDefault(cfg.Model, "openai/gpt-4o-mini"),
			lenient:   true,
		}, nil
	case ProviderCustom:
		if cfg.Endpoint == "" {
			return nil, errors.New("llm: custom endpoint URL is required")
		}
		return &openAI{
			transport: t,
			apiKey:    cfg.APIKey,
			url:       strings.TrimRight(cfg.Endpoint, "/") + "/chat/completions",
			model:     orDefault(cfg.Model, "gpt-3.5-turbo"),
		}, nil
	case ProviderAnthropic:
		return &anthropic{
			transport: t,
			apiKey:    cfg.APIKey,
			url:       orDefault(cfg.Endpoint, "https://api.anthropic.com/v1/messages"),
			model:     orDefault(cfg.Model, "claude-3-sonnet-20240229"),
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (o Options) withDefaults() Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaultMaxTokens
	}
	if o.Temperature <= 0 {
		o.Temperature = defaultTemperature
	}
	return o
}

// APIError is a non-2xx answer from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %d %s - %s", e.Provider, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// transport posts JSON and decodes JSON answers.
type transport struct {
	client   *http.Client
	provider string
}

func (t transport) postJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	start := time.Now()

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	slog.Debug("llm request completed",
		"provider", t.provider,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Provider: t.provider, StatusCode: resp.StatusCode, Body: string(payload)}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s response: %w", t.provider, err)
	}
	return nil
}
