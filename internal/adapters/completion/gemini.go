package completion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"hotel_enricher/internal/adapters/observability"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// generator is the slice of *genai.Models the Gemini client needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient answers prompts with Gemini, grounded by Google Search.
type GeminiClient struct {
	models generator
	model  string
	rl     *rate.Limiter
}

func NewGeminiClient(ctx context.Context, key, model string, rps int) (*GeminiClient, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  key,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return newGeminiClient(client.Models, model, rps), nil
}

func newGeminiClient(g generator, model string, rps int) *GeminiClient {
	if rps <= 0 {
		rps = 1
	}
	return &GeminiClient{models: g, model: model, rl: rate.NewLimiter(rate.Limit(rps), rps)}
}

func (g *GeminiClient) Complete(ctx context.Context, system, user string) (string, error) {
	if err := g.rl.Wait(ctx); err != nil {
		return "", err
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.1),
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	status := 200
	if err != nil {
		status = 0
	}
	observability.ObserveExternal("gemini", "generate_content", status, time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
