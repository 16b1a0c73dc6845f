// Package search implements the news search port against the GNews REST API.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/evanblasband/spectrum/pkg/spectrum"
)

const (
	defaultBaseURL = "https://gnews.io/api/v4"
	defaultTimeout = 15 * time.Second

	maxResponseBytes = 4 << 20

	// GNews caps a single page at 100; the engine asks for far less.
	maxSearchLimit = 25
)

// GNewsOption mutates GNews client configuration.
type GNewsOption func(*GNewsClient)

// WithHTTPClient injects the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) GNewsOption {
	return func(gnews *GNewsClient) {
		if client != nil {
			gnews.client = client
		}
	}
}

// WithBaseURL overrides the GNews API endpoint.
func WithBaseURL(baseURL string) GNewsOption {
	return func(gnews *GNewsClient) {
		if strings.TrimSpace(baseURL) != "" {
			gnews.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithLogger injects a logger directly.
func WithLogger(logger *slog.Logger) GNewsOption {
	return func(gnews *GNewsClient) {
		if logger != nil {
			gnews.logger = logger
		}
	}
}

// GNewsClient searches recent news through the GNews API.
type GNewsClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewGNewsClient builds one GNews search client.
func NewGNewsClient(apiKey string, options ...GNewsOption) (*GNewsClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("new gnews client: missing api key")
	}

	gnews := &GNewsClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  slog.Default(),
	}
	for _, option := range options {
		option(gnews)
	}

	return gnews, nil
}

// Name returns the stable searcher name used in cache keys.
func (g *GNewsClient) Name() string {
	return "gnews"
}

type gnewsResponse struct {
	TotalArticles int            `json:"totalArticles"`
	Articles      []gnewsArticle `json:"articles"`
}

type gnewsArticle struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	URL         string      `json:"url"`
	PublishedAt time.Time   `json:"publishedAt"`
	Source      gnewsSource `json:"source"`
}

type gnewsSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Search returns up to limit articles matching the keywords.
func (g *GNewsClient) Search(ctx context.Context, keywords []string, limit int) ([]spectrum.SearchResult, error) {
	if g == nil {
		return nil, fmt.Errorf("gnews search: nil client")
	}

	query := buildQuery(keywords)
	if query == "" {
		return nil, fmt.Errorf("gnews search: %w", spectrum.Validatef("no usable keywords"))
	}
	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	endpoint := g.baseURL + "/search?" + url.Values{
		"q":      {query},
		"lang":   {"en"},
		"max":    {strconv.Itoa(limit)},
		"apikey": {g.apiKey},
	}.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("gnews search: build request: %w", err)
	}

	response, err := g.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("gnews search: %w",
			spectrum.WrapError(spectrum.ErrorCodeNetwork, "request failed", err),
		)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("gnews search: %w",
			spectrum.WrapError(spectrum.ErrorCodeNetwork, "read response body", err),
		)
	}
	if err := classifyStatus(response.StatusCode); err != nil {
		return nil, fmt.Errorf("gnews search: %w", err)
	}

	var decoded gnewsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("gnews search: %w",
			spectrum.WrapError(spectrum.ErrorCodeInternal, "decode response", err),
		)
	}

	results := make([]spectrum.SearchResult, 0, len(decoded.Articles))
	for _, article := range decoded.Articles {
		if strings.TrimSpace(article.URL) == "" {
			continue
		}
		results = append(results, spectrum.SearchResult{
			Title:       strings.TrimSpace(article.Title),
			URL:         strings.TrimSpace(article.URL),
			SourceName:  strings.TrimSpace(article.Source.Name),
			Description: strings.TrimSpace(article.Description),
			PublishedAt: article.PublishedAt,
		})
	}

	g.logger.DebugContext(ctx,
		"news search completed",
		"query", query,
		"total", decoded.TotalArticles,
		"returned", len(results),
	)

	return results, nil
}

func buildQuery(keywords []string) string {
	usable := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		trimmed := strings.TrimSpace(keyword)
		if trimmed == "" {
			continue
		}
		usable = append(usable, trimmed)
	}

	return strings.Join(usable, " ")
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusTooManyRequests || status >= 500:
		return spectrum.NewError(
			spectrum.ErrorCodeNetwork,
			fmt.Sprintf("transient search failure (status %d)", status),
		)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return spectrum.NewError(
			spectrum.ErrorCodeValidation,
			fmt.Sprintf("search api rejected credentials (status %d)", status),
		)
	default:
		return spectrum.NewError(
			spectrum.ErrorCodeInternal,
			fmt.Sprintf("unexpected search status %d", status),
		)
	}
}

var _ spectrum.NewsSearcher = (*GNewsClient)(nil)
