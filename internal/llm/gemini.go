package llm

import (
	"context"
	"fmt"
	"net/url"
)

type gemini struct {
	transport
	apiKey  string
	baseURL string
	model   string
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiSafety struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		TopK            int     `json:"topK"`
		TopP            float64 `json:"topP"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
	SafetySettings []geminiSafety `json:"safetySettings"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

var geminiSafetySettings = []geminiSafety{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

func (g *gemini) Generate(ctx context.Context, prompt string, opts Options) (Response, error) {
	opts = opts.withDefaults()

	var req geminiRequest
	req.Contents = []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}
	req.GenerationConfig.Temperature = opts.Temperature
	req.GenerationConfig.TopK = 40
	req.GenerationConfig.TopP = 0.95
	req.GenerationConfig.MaxOutputTokens = opts.MaxTokens
	req.SafetySettings = geminiSafetySettings

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, url.QueryEscape(g.apiKey))

	var resp geminiResponse
	if err := g.postJSON(ctx, endpoint, nil, req, &resp); err != nil {
		return Response{}, err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return Response{}, fmt.Errorf("%w: gemini", ErrEmptyResponse)
	}

	out := Response{Text: resp.Candidates[0].Content.Parts[0].Text}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = &Usage{
			PromptTokens:     u.PromptTokenCount,
			CompletionTokens: u.CandidatesTokenCount,
			TotalTokens:      u.TotalTokenCount,
		}
	}
	return out, nil
}
