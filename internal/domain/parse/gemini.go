package parse

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiCompleter backs the parser with the Gemini API. A shared rate limiter
// keeps concurrent statement workers under the per-minute quota.
type GeminiCompleter struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

// NewGeminiCompleter builds a client for the given API key. An empty key
// falls back to the credential sources the genai SDK resolves on its own
// (GEMINI_API_KEY or application default credentials).
func NewGeminiCompleter(ctx context.Context, apiKey, model string, requestsPerMinute int) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if requestsPerMinute <= 0 {
		requestsPerMinute = 15
	}
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60), 1)

	return &GeminiCompleter{client: client, model: model, limiter: limiter}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: user}},
		},
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("model returned an empty response")
	}
	return text, nil
}
