package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"
)

// ErrAPIKeyMissing is returned when no provider key was configured.
var ErrAPIKeyMissing = errors.New("GEMINI_API_KEY not configured")

// Client is the subset of the generative AI provider the pipeline uses.
type Client interface {
	// ListModels returns model names that support content generation,
	// without the "models/" prefix.
	ListModels(ctx context.Context) ([]string, error)
	// Generate sends prompt to model and returns the text of the reply.
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// GeminiClient implements Client on top of the Gemini API.
// It is safe for concurrent use by multiple goroutines.
type GeminiClient struct {
	client *genai.Client
}

var _ Client = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini API client. Outgoing requests are traced.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// ListModels pages through the provider's model listing.
func (g *GeminiClient) ListModels(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	for m, err := range g.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
		if !supportsGenerate(m.SupportedActions) {
			continue
		}
		names = append(names, strings.TrimPrefix(m.Name, "models/"))
	}
	return names, nil
}

// Generate runs a single-turn text generation.
func (g *GeminiClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("model %s returned no text", model)
	}
	return text, nil
}

func supportsGenerate(actions []string) bool {
	// Older listings omit actions; keep those models as candidates.
	if len(actions) == 0 {
		return true
	}
	for _, a := range actions {
		if a == "generateContent" {
			return true
		}
	}
	return false
}
