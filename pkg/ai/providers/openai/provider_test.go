package openai

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/evanblasband/spectrum/pkg/spectrum"
)

// apiError builds an *openai.Error with the Request and Response fields
// populated, since the SDK's Error() method dereferences both.
func apiError(status int) *openai.Error {
	return &openai.Error{
		StatusCode: status,
		Request: &http.Request{
			Method: http.MethodPost,
			URL:    &url.URL{Scheme: "https", Host: "api.openai.com", Path: "/v1/chat/completions"},
		},
		Response: &http.Response{StatusCode: status},
	}
}

// stubChat replaces the SDK chat completions service with canned responses.
type stubChat struct {
	response string
	err      error

	captured []openai.ChatCompletionNewParams
}

func (s *stubChat) New(_ context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	s.captured = append(s.captured, body)
	if s.err != nil {
		return nil, s.err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.response}},
		},
	}, nil
}

func newStubProvider(chat *stubChat) *Provider {
	return &Provider{name: "openai", model: "gpt-4o-mini", chat: chat}
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     ProviderConfig
		wantErr bool
	}{
		{name: "valid", cfg: ProviderConfig{APIKey: "sk-test", Model: "gpt-4o-mini"}},
		{name: "valid with base url", cfg: ProviderConfig{Name: "groq", APIKey: "gsk-test", Model: "llama-3.3-70b-versatile", BaseURL: "https://api.groq.com/openai/v1"}},
		{name: "missing api key", cfg: ProviderConfig{Model: "gpt-4o-mini"}, wantErr: true},
		{name: "missing model", cfg: ProviderConfig{APIKey: "sk-test"}, wantErr: true},
		{name: "relative base url", cfg: ProviderConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: "api.groq.com"}, wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			provider, err := New(test.cfg)
			if test.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if provider.Name() == "" {
				t.Fatal("provider must carry a name")
			}
		})
	}
}

func TestNameDefaults(t *testing.T) {
	t.Parallel()

	provider, err := New(ProviderConfig{APIKey: "sk-test", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if provider.Name() != "openai" {
		t.Fatalf("name = %q, want openai default", provider.Name())
	}

	named, err := New(ProviderConfig{Name: "groq", APIKey: "gsk-test", Model: "llama-3.3-70b-versatile"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if named.Name() != "groq" {
		t.Fatalf("name = %q, want groq", named.Name())
	}
}

func TestClassifyLeaning(t *testing.T) {
	t.Parallel()

	chat := &stubChat{response: `{"score": -0.4, "confidence": 0.8, "reasoning": "labor framing"}`}
	provider := newStubProvider(chat)

	leaning, err := provider.ClassifyLeaning(context.Background(), "Budget Bill Passes", "Body text.", "Example News")
	if err != nil {
		t.Fatalf("ClassifyLeaning: %v", err)
	}

	if leaning.Score != -0.4 || leaning.Confidence != 0.8 {
		t.Fatalf("leaning = %+v", leaning)
	}
	if len(chat.captured) != 1 {
		t.Fatalf("requests = %d, want 1", len(chat.captured))
	}

	request := chat.captured[0]
	if string(request.Model) != "gpt-4o-mini" {
		t.Fatalf("model = %q", request.Model)
	}
	if got := request.Temperature.Or(0); got != requestTemperature {
		t.Fatalf("temperature = %v, want %v", got, requestTemperature)
	}
	if request.ResponseFormat.OfJSONObject == nil {
		t.Fatal("requests must force a JSON object response")
	}
	if len(request.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(request.Messages))
	}
}

func TestClassifyLeaningMalformedPayload(t *testing.T) {
	t.Parallel()

	provider := newStubProvider(&stubChat{response: "no json here"})

	_, err := provider.ClassifyLeaning(context.Background(), "Title", "Body", "")
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if code := spectrum.CodeOf(err); code != spectrum.ErrorCodeAIProvider {
		t.Fatalf("code = %q, want ai_provider", code)
	}
}

func TestExtractTopics(t *testing.T) {
	t.Parallel()

	chat := &stubChat{response: `{"primary_topic": "Healthcare", "keywords": ["medicare"]}`}
	provider := newStubProvider(chat)

	topics, err := provider.ExtractTopics(context.Background(), "Title", "Body")
	if err != nil {
		t.Fatalf("ExtractTopics: %v", err)
	}
	if topics.Primary != "Healthcare" {
		t.Fatalf("primary = %q", topics.Primary)
	}
}

func TestExtractPoints(t *testing.T) {
	t.Parallel()

	chat := &stubChat{response: `{"points": [{"id": "p1", "statement": "The bill passed.", "sentiment": "neutral"}]}`}
	provider := newStubProvider(chat)

	points, err := provider.ExtractPoints(context.Background(), "Title", "Body", 3)
	if err != nil {
		t.Fatalf("ExtractPoints: %v", err)
	}
	if len(points) != 1 || points[0].ID != "p1" {
		t.Fatalf("points = %+v", points)
	}
}

func TestMatchPointsValidatesRequest(t *testing.T) {
	t.Parallel()

	provider := newStubProvider(&stubChat{response: `{"same_story": true}`})

	_, err := provider.MatchPoints(context.Background(), spectrum.MatchRequest{})
	if err == nil {
		t.Fatal("expected error for empty match request")
	}
}

func TestMatchPoints(t *testing.T) {
	t.Parallel()

	chat := &stubChat{response: `{"same_story": true, "same_story_confidence": 0.9, "relationships": []}`}
	provider := newStubProvider(chat)

	result, err := provider.MatchPoints(context.Background(), spectrum.MatchRequest{
		PointsA:  []spectrum.ArticlePoint{{ID: "p1", Statement: "The bill passed.", Sentiment: spectrum.SentimentNeutral}},
		PointsB:  []spectrum.ArticlePoint{{ID: "p1", Statement: "Lawmakers approved it.", Sentiment: spectrum.SentimentNeutral}},
		ContextA: "Story A (Example News)",
		ContextB: "Story B (Other News)",
	})
	if err != nil {
		t.Fatalf("MatchPoints: %v", err)
	}
	if !result.SameStory || result.SameStoryConfidence != 0.9 {
		t.Fatalf("result = %+v", result)
	}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	provider := newStubProvider(&stubChat{response: `{"ok": true}`})
	if err := provider.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}

	failing := newStubProvider(&stubChat{err: context.DeadlineExceeded})
	if err := failing.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected error from failing upstream")
	}
}

func TestGenerateEmptyCompletion(t *testing.T) {
	t.Parallel()

	provider := newStubProvider(&stubChat{response: "   "})

	_, err := provider.ClassifyLeaning(context.Background(), "Title", "Body", "")
	if err == nil {
		t.Fatal("expected error for empty completion text")
	}
	if code := spectrum.CodeOf(err); code != spectrum.ErrorCodeAIProvider {
		t.Fatalf("code = %q, want ai_provider", code)
	}
	if !spectrum.IsRetryable(err) {
		t.Fatal("empty completions are transient and must stay retryable")
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		err           error
		wantRetryable bool
	}{
		{name: "bad request", err: apiError(400), wantRetryable: false},
		{name: "unauthorized", err: apiError(401), wantRetryable: false},
		{name: "rate limited", err: apiError(429), wantRetryable: true},
		{name: "server error", err: apiError(500), wantRetryable: true},
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
			if !strings.Contains(classified.Error(), "upstream") {
				t.Fatalf("classified error %q must mention the upstream", classified.Error())
			}
		})
	}
}
