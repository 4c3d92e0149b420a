package llm

import (
	"context"
	"fmt"
)

const anthropicVersion = "2023-06-01"

type anthropic struct {
	transport
	apiKey string
	url    string
	model  string
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (a *anthropic) Generate(ctx context.Context, prompt string, opts Options) (Response, error) {
	opts = opts.withDefaults()
	req := anthropicRequest{
		Model:       a.model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := a.postJSON(ctx, a.url, headers, req, &resp); err != nil {
		return Response{}, err
	}
	if len(resp.Content) == 0 {
		return Response{}, fmt.Errorf("%w: anthropic", ErrEmptyResponse)
	}

	out := Response{Text: resp.Content[0].Text}
	if u := resp.Usage; u != nil {
		out.Usage = &Usage{
			PromptTokens:     u.InputTokens,
			CompletionTokens: u.OutputTokens,
			TotalTokens:      u.InputTokens + u.OutputTokens,
		}
	}
	return out, nil
}
