package llm

import (
	"context"
	"fmt"
)

// openAI speaks the chat completions protocol used by OpenAI, AIPipe and compatible endpoints.
type openAI struct {
	transport
	apiKey string
	url    string
	model  string
	// lenient accepts the alternate response shapes AIPipe may return.
	lenient bool
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message *chatMessage `json:"message"`
		Text    string       `json:"text"`
	} `json:"choices"`
	Response string `json:"response"`
	Text     string `json:"text"`
	Usage    *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (o *openAI) Generate(ctx context.Context, prompt string, opts Options) (Response, error) {
	opts = opts.withDefaults()
	req := chatRequest{
		Model:       o.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}

	var resp chatResponse
	if err := o.postJSON(ctx, o.url, headers, req, &resp); err != nil {
		return Response{}, err
	}

	text, ok := o.text(resp)
	if !ok {
		return Response{}, fmt.Errorf("%w: %s", ErrEmptyResponse, o.provider)
	}
	out := Response{Text: text}
	if u := resp.Usage; u != nil {
		out.Usage = &Usage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	return out, nil
}

func (o *openAI) text(resp chatResponse) (string, bool) {
	if len(resp.Choices) > 0 {
		c := resp.Choices[0]
		if c.Message != nil && (c.Message.Content != "" || !o.lenient) {
			return c.Message.Content, true
		}
		if o.lenient {
			return c.Text, true
		}
		return "", false
	}
	if !o.lenient {
		return "", false
	}
	switch {
	case resp.Response != "":
		return resp.Response, true
	case resp.Text != "":
		return resp.Text, true
	}
	return "", false
}
