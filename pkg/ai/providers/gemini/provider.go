// Package gemini implements the analysis provider port on the Google Gemini
// API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/evanblasband/spectrum/pkg/ai/prompt"
	"github.com/evanblasband/spectrum/pkg/spectrum"
)

const (
	defaultName       = "gemini"
	defaultAPIVersion = "v1beta"

	requestTemperature = 0.1

	responseMIMEJSON = "application/json"
)

// ProviderConfig configures one Gemini-backed provider instance.
type ProviderConfig struct {
	// Name is the stable provider name used in cache keys; defaults to
	// "gemini".
	Name string
	// APIKey is the credential used to authenticate requests.
	APIKey string
	// BaseURL optionally overrides the Gemini endpoint.
	BaseURL string
	// Model identifies which model to call.
	Model string
}

// Provider is an analysis provider backed by the Gemini API.
type Provider struct {
	name   string
	model  string
	models geminiModelsClient
}

type geminiModelsClient interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// New builds one Gemini API provider instance.
func New(cfg ProviderConfig) (*Provider, error) {
	normalized, err := normalizeProviderConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("new gemini provider: %w", err)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  normalized.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    normalized.BaseURL,
			APIVersion: defaultAPIVersion,
		},
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("new gemini client: %w", err)
	}
	if client == nil || client.Models == nil {
		return nil, fmt.Errorf("new gemini client: models client is nil")
	}

	return &Provider{
		name:   normalized.Name,
		model:  normalized.Model,
		models: client.Models,
	}, nil
}

// Name returns the stable provider name.
func (p *Provider) Name() string {
	if p == nil {
		return defaultName
	}

	return p.name
}

// ClassifyLeaning scores the article on the political leaning axis.
func (p *Provider) ClassifyLeaning(ctx context.Context, title, content, sourceName string) (spectrum.Leaning, error) {
	raw, err := p.generate(ctx, prompt.Leaning(title, content, sourceName))
	if err != nil {
		return spectrum.Leaning{}, fmt.Errorf("%s classify leaning: %w", p.Name(), err)
	}

	leaning, err := prompt.DecodeLeaning(raw)
	if err != nil {
		return spectrum.Leaning{}, fmt.Errorf("%s classify leaning: %w",
			p.Name(),
			spectrum.WrapError(spectrum.ErrorCodeAIProvider, "malformed model payload", err),
		)
	}

	return leaning, nil
}

// ExtractTopics extracts topics, keywords and named entities.
func (p *Provider) ExtractTopics(ctx context.Context, title, content string) (spectrum.Topics, error) {
	raw, err := p.generate(ctx, prompt.Topics(title, content))
	if err != nil {
		return spectrum.Topics{}, fmt.Errorf("%s extract topics: %w", p.Name(), err)
	}

	topics, err := prompt.DecodeTopics(raw)
	if err != nil {
		return spectrum.Topics{}, fmt.Errorf("%s extract topics: %w",
			p.Name(),
			spectrum.WrapError(spectrum.ErrorCodeAIProvider, "malformed model payload", err),
		)
	}

	return topics, nil
}

// ExtractPoints extracts up to maxPoints key claims.
func (p *Provider) ExtractPoints(ctx context.Context, title, content string, maxPoints int) ([]spectrum.ArticlePoint, error) {
	raw, err := p.generate(ctx, prompt.Points(title, content, maxPoints))
	if err != nil {
		return nil, fmt.Errorf("%s extract points: %w", p.Name(), err)
	}

	points, err := prompt.DecodePoints(raw, maxPoints)
	if err != nil {
		return nil, fmt.Errorf("%s extract points: %w",
			p.Name(),
			spectrum.WrapError(spectrum.ErrorCodeAIProvider, "malformed model payload", err),
		)
	}

	return points, nil
}

// MatchPoints relates points across two articles.
func (p *Provider) MatchPoints(ctx context.Context, req spectrum.MatchRequest) (spectrum.MatchResult, error) {
	if err := req.Validate(); err != nil {
		return spectrum.MatchResult{}, fmt.Errorf("%s match points: %w", p.Name(), err)
	}

	matchPrompt, err := prompt.Match(req)
	if err != nil {
		return spectrum.MatchResult{}, fmt.Errorf("%s match points: %w", p.Name(), err)
	}

	raw, err := p.generate(ctx, matchPrompt)
	if err != nil {
		return spectrum.MatchResult{}, fmt.Errorf("%s match points: %w", p.Name(), err)
	}

	result, err := prompt.DecodeMatch(raw)
	if err != nil {
		return spectrum.MatchResult{}, fmt.Errorf("%s match points: %w",
			p.Name(),
			spectrum.WrapError(spectrum.ErrorCodeAIProvider, "malformed model payload", err),
		)
	}

	return result, nil
}

// HealthCheck verifies the upstream API is reachable and responding.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if _, err := p.generate(ctx, prompt.HealthPrompt); err != nil {
		return fmt.Errorf("%s health check: %w", p.Name(), err)
	}

	return nil
}

func (p *Provider) generate(ctx context.Context, userPrompt string) (string, error) {
	if p == nil {
		return "", fmt.Errorf("nil provider")
	}
	if ctx == nil {
		return "", fmt.Errorf("nil context")
	}
	if p.models == nil {
		return "", fmt.Errorf("models client is nil")
	}

	response, err := p.models.GenerateContent(
		ctx,
		p.model,
		genai.Text(userPrompt),
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](requestTemperature),
			ResponseMIMEType: responseMIMEJSON,
		},
	)
	if err != nil {
		return "", classifyError(err)
	}
	if response == nil {
		return "", spectrum.NewError(spectrum.ErrorCodeAIProvider, "empty response")
	}

	text := strings.TrimSpace(response.Text())
	if text == "" {
		return "", spectrum.NewError(spectrum.ErrorCodeAIProvider, "empty response text")
	}

	return text, nil
}

// classifyError maps SDK failures onto the structured taxonomy. Status codes
// that indicate a malformed or unauthorized request are terminal; everything
// else is worth retrying.
func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		wrapped := spectrum.WrapError(
			spectrum.ErrorCodeAIProvider,
			fmt.Sprintf("upstream status %d", apiErr.Code),
			err,
		)
		if apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != 429 {
			wrapped.Retryable = false
		}

		return wrapped
	}

	return spectrum.WrapError(spectrum.ErrorCodeAIProvider, "upstream request failed", err)
}

func normalizeProviderConfig(cfg ProviderConfig) (ProviderConfig, error) {
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)

	if cfg.Name == "" {
		cfg.Name = defaultName
	}
	if cfg.APIKey == "" {
		return ProviderConfig{}, fmt.Errorf("missing api_key")
	}
	if cfg.Model == "" {
		return ProviderConfig{}, fmt.Errorf("missing model")
	}

	return cfg, nil
}

var _ spectrum.AnalysisProvider = (*Provider)(nil)
