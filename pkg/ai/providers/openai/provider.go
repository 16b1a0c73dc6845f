// Package openai implements the analysis provider port on the OpenAI chat
// completions API. Pointing BaseURL at an OpenAI-compatible endpoint (Groq)
// reuses the same implementation under a different provider name.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/evanblasband/spectrum/pkg/ai/prompt"
	"github.com/evanblasband/spectrum/pkg/spectrum"
)

const (
	defaultName = "openai"

	requestTemperature = 0.1
	requestMaxTokens   = 2000
)

// ProviderConfig configures one OpenAI-backed provider instance.
type ProviderConfig struct {
	// Name is the stable provider name used in cache keys; defaults to
	// "openai". A Groq profile should set this to "groq".
	Name string
	// APIKey is the credential used to authenticate requests.
	APIKey string
	// BaseURL optionally overrides the OpenAI endpoint.
	BaseURL string
	// Model identifies which model to call.
	Model string
}

// Provider is an analysis provider backed by OpenAI chat completions.
type Provider struct {
	name  string
	model string
	chat  chatCompletionsClient
}

type chatCompletionsClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// New builds one OpenAI chat completions provider instance.
func New(cfg ProviderConfig) (*Provider, error) {
	normalized, err := normalizeProviderConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("new openai provider: %w", err)
	}

	options := make([]option.RequestOption, 0, 2)
	options = append(options, option.WithAPIKey(normalized.APIKey))
	if normalized.BaseURL != "" {
		options = append(options, option.WithBaseURL(normalized.BaseURL))
	}

	client := openai.NewClient(options...)

	return &Provider{
		name:  normalized.Name,
		model: normalized.Model,
		chat:  &client.Chat.Completions,
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
	if p.chat == nil {
		return "", fmt.Errorf("chat completions client is nil")
	}

	completion, err := p.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(requestTemperature),
		MaxTokens:   openai.Int(requestMaxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", classifyError(err)
	}
	if completion == nil || len(completion.Choices) == 0 {
		return "", spectrum.NewError(spectrum.ErrorCodeAIProvider, "empty completion")
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", spectrum.NewError(spectrum.ErrorCodeAIProvider, "empty completion text")
	}

	return text, nil
}

// classifyError maps SDK failures onto the structured taxonomy. Status codes
// that indicate a malformed or unauthorized request are terminal; everything
// else is worth retrying.
func classifyError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		wrapped := spectrum.WrapError(
			spectrum.ErrorCodeAIProvider,
			fmt.Sprintf("upstream status %d", apiErr.StatusCode),
			err,
		)
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != 429 {
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
	if cfg.BaseURL != "" {
		parsed, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return ProviderConfig{}, fmt.Errorf("parse base_url: %w", err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return ProviderConfig{}, fmt.Errorf("parse base_url: must include scheme and host")
		}
	}

	return cfg, nil
}

var _ spectrum.AnalysisProvider = (*Provider)(nil)
