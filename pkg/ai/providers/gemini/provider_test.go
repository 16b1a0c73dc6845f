package gemini

import (
	"context"
	"testing"

	"google.golang.org/genai"

	"github.com/evanblasband/spectrum/pkg/spectrum"
)

// stubModels replaces the SDK models service with canned responses.
type stubModels struct {
	response string
	err      error

	capturedModel   string
	capturedConfigs []*genai.GenerateContentConfig
}

func (s *stubModels) GenerateContent(
	_ context.Context,
	model string,
	_ []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	s.capturedModel = model
	s.capturedConfigs = append(s.capturedConfigs, config)
	if s.err != nil {
		return nil, s.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: s.response}}}},
		},
	}, nil
}

func newStubProvider(models *stubModels) *Provider {
	return &Provider{name: "gemini", model: "gemini-2.0-flash", models: models}
}

func TestNormalizeProviderConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      ProviderConfig
		wantName string
		wantErr  bool
	}{
		{name: "defaults name", cfg: ProviderConfig{APIKey: "g-test", Model: "gemini-2.0-flash"}, wantName: "gemini"},
		{name: "explicit name", cfg: ProviderConfig{Name: "gem-pro", APIKey: "g-test", Model: "gemini-2.5-pro"}, wantName: "gem-pro"},
		{name: "missing api key", cfg: ProviderConfig{Model: "gemini-2.0-flash"}, wantErr: true},
		{name: "missing model", cfg: ProviderConfig{APIKey: "g-test"}, wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			normalized, err := normalizeProviderConfig(test.cfg)
			if test.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeProviderConfig: %v", err)
			}
			if normalized.Name != test.wantName {
				t.Fatalf("name = %q, want %q", normalized.Name, test.wantName)
			}
		})
	}
}

func TestClassifyLeaning(t *testing.T) {
	t.Parallel()

	models := &stubModels{response: `{"score": 0.3, "confidence": 0.7, "reasoning": "market framing"}`}
	provider := newStubProvider(models)

	leaning, err := provider.ClassifyLeaning(context.Background(), "Budget Bill Passes", "Body text.", "Example News")
	if err != nil {
		t.Fatalf("ClassifyLeaning: %v", err)
	}

	if leaning.Score != 0.3 || leaning.Confidence != 0.7 {
		t.Fatalf("leaning = %+v", leaning)
	}
	if models.capturedModel != "gemini-2.0-flash" {
		t.Fatalf("model = %q", models.capturedModel)
	}
	if len(models.capturedConfigs) != 1 {
		t.Fatalf("requests = %d, want 1", len(models.capturedConfigs))
	}
	config := models.capturedConfigs[0]
	if config.ResponseMIMEType != responseMIMEJSON {
		t.Fatalf("response mime = %q, want %q", config.ResponseMIMEType, responseMIMEJSON)
	}
	if config.Temperature == nil || *config.Temperature != requestTemperature {
		t.Fatalf("temperature = %v, want %v", config.Temperature, requestTemperature)
	}
}

func TestExtractTopicsAndPoints(t *testing.T) {
	t.Parallel()

	topics, err := newStubProvider(&stubModels{
		response: `{"primary_topic": "Immigration", "keywords": ["border"]}`,
	}).ExtractTopics(context.Background(), "Title", "Body")
	if err != nil {
		t.Fatalf("ExtractTopics: %v", err)
	}
	if topics.Primary != "Immigration" {
		t.Fatalf("primary = %q", topics.Primary)
	}

	points, err := newStubProvider(&stubModels{
		response: `{"points": [{"id": "p1", "statement": "The bill passed.", "sentiment": "neutral"}]}`,
	}).ExtractPoints(context.Background(), "Title", "Body", 3)
	if err != nil {
		t.Fatalf("ExtractPoints: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("points = %+v", points)
	}
}

func TestMatchPoints(t *testing.T) {
	t.Parallel()

	provider := newStubProvider(&stubModels{
		response: `{"same_story": false, "same_story_confidence": 0.2, "relationships": []}`,
	})

	result, err := provider.MatchPoints(context.Background(), spectrum.MatchRequest{
		PointsA:  []spectrum.ArticlePoint{{ID: "p1", Statement: "The bill passed.", Sentiment: spectrum.SentimentNeutral}},
		PointsB:  []spectrum.ArticlePoint{{ID: "p1", Statement: "Markets rallied.", Sentiment: spectrum.SentimentPositive}},
		ContextA: "Story A (Example News)",
		ContextB: "Story B (Other News)",
	})
	if err != nil {
		t.Fatalf("MatchPoints: %v", err)
	}
	if result.SameStory {
		t.Fatal("same_story must carry through as false")
	}

	if _, err := provider.MatchPoints(context.Background(), spectrum.MatchRequest{}); err == nil {
		t.Fatal("expected error for empty match request")
	}
}

func TestGenerateEmptyResponse(t *testing.T) {
	t.Parallel()

	provider := newStubProvider(&stubModels{response: ""})

	_, err := provider.ClassifyLeaning(context.Background(), "Title", "Body", "")
	if err == nil {
		t.Fatal("expected error for empty response text")
	}
	if code := spectrum.CodeOf(err); code != spectrum.ErrorCodeAIProvider {
		t.Fatalf("code = %q, want ai_provider", code)
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		err           error
		wantRetryable bool
	}{
		{name: "bad request", err: genai.APIError{Code: 400, Message: "bad request"}, wantRetryable: false},
		{name: "unauthorized", err: genai.APIError{Code: 403, Message: "forbidden"}, wantRetryable: false},
		{name: "rate limited", err: genai.APIError{Code: 429, Message: "quota"}, wantRetryable: true},
		{name: "server error", err: genai.APIError{Code: 503, Message: "overloaded"}, wantRetryable: true},
		{name: "transport failure", err: context.DeadlineExceeded, wantRetryable: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			classified := classifyError(test.err)
			if code := spectrum.CodeOf(classified); code != spectrum.ErrorCodeAIProvider {
				t.Fatalf("code = %q, want ai_provider", code)
			}
			if retryable := spectrum.IsRetryable(classified); retryable != test.wantRetryable {
				t.Fatalf("retryable = %v, want %v", retryable, test.wantRetryable)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	if err := newStubProvider(&stubModels{response: `{"ok": true}`}).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if err := newStubProvider(&stubModels{err: context.DeadlineExceeded}).HealthCheck(context.Background()); err == nil {
		t.Fatal("expected error from failing upstream")
	}
}
