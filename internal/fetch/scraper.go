// Package fetch implements the article fetcher port with a plain HTTP client
// and readability-based content extraction.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/evanblasband/spectrum/pkg/spectrum"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "Spectrum/1.0 (News Analysis Bot)"

	// minContentLength rejects pages where extraction produced boilerplate
	// instead of an article body.
	minContentLength = 100

	maxBodyBytes = 10 << 20

	healthCheckURL = "https://httpbin.org/status/200"
)

// Option mutates scraper configuration.
type Option func(*Scraper)

// WithHTTPClient injects the HTTP client used for page downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(scraper *Scraper) {
		if client != nil {
			scraper.client = client
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(scraper *Scraper) {
		if strings.TrimSpace(userAgent) != "" {
			scraper.userAgent = userAgent
		}
	}
}

// WithLogger injects a logger directly.
func WithLogger(logger *slog.Logger) Option {
	return func(scraper *Scraper) {
		if logger != nil {
			scraper.logger = logger
		}
	}
}

// WithClock injects a time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(scraper *Scraper) {
		if clock != nil {
			scraper.clock = clock
		}
	}
}

// WithHealthCheckURL overrides the endpoint probed by HealthCheck.
func WithHealthCheckURL(rawURL string) Option {
	return func(scraper *Scraper) {
		if strings.TrimSpace(rawURL) != "" {
			scraper.healthURL = rawURL
		}
	}
}

// Scraper fetches article pages and extracts their readable content.
type Scraper struct {
	client    *http.Client
	userAgent string
	healthURL string
	logger    *slog.Logger
	clock     func() time.Time
}

// NewScraper builds one article scraper.
func NewScraper(options ...Option) *Scraper {
	scraper := &Scraper{
		client:    &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
		healthURL: healthCheckURL,
		logger:    slog.Default(),
		clock:     time.Now,
	}
	for _, option := range options {
		option(scraper)
	}

	return scraper
}

// Fetch downloads one URL and extracts its readable article content.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (spectrum.Article, error) {
	if s == nil {
		return spectrum.Article{}, fmt.Errorf("fetch article: nil scraper")
	}
	if err := spectrum.ValidateURL(rawURL); err != nil {
		return spectrum.Article{}, fmt.Errorf("fetch article: %w", err)
	}

	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return spectrum.Article{}, fmt.Errorf("fetch article: %w", spectrum.Validatef("parse url: %v", err))
	}

	body, err := s.download(ctx, parsed)
	if err != nil {
		return spectrum.Article{}, fmt.Errorf("fetch article %s: %w", parsed.Host, err)
	}

	extracted, err := readability.FromReader(strings.NewReader(body), parsed)
	if err != nil {
		return spectrum.Article{}, fmt.Errorf("fetch article %s: %w",
			parsed.Host,
			spectrum.WrapError(spectrum.ErrorCodeContentExtraction, "readability extraction failed", err),
		)
	}

	content := strings.TrimSpace(extracted.TextContent)
	if len(content) < minContentLength {
		return spectrum.Article{}, fmt.Errorf("fetch article %s: %w",
			parsed.Host,
			spectrum.NewError(spectrum.ErrorCodeContentExtraction, "could not extract meaningful content"),
		)
	}

	domain := strings.TrimPrefix(parsed.Host, "www.")
	sourceName := strings.TrimSpace(extracted.SiteName)
	if sourceName == "" {
		sourceName = domain
	}
	title := strings.TrimSpace(extracted.Title)
	if title == "" {
		title = "Unknown"
	}

	article := spectrum.Article{
		ID:      spectrum.ArticleID(parsed.String()),
		URL:     parsed.String(),
		Title:   title,
		Content: content,
		Source: spectrum.Source{
			Name:   sourceName,
			Domain: domain,
		},
		Author:    strings.TrimSpace(extracted.Byline),
		WordCount: len(strings.Fields(content)),
		FetchedAt: s.clock().UTC(),
	}
	if extracted.PublishedTime != nil {
		article.PublishedAt = extracted.PublishedTime.UTC()
	}

	s.logger.DebugContext(ctx,
		"article fetched",
		"url", article.URL,
		"title", article.Title,
		"word_count", article.WordCount,
	)

	return article, nil
}

// HealthCheck verifies the scraper can reach the network.
func (s *Scraper) HealthCheck(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("fetcher health check: nil scraper")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, s.healthURL, nil)
	if err != nil {
		return fmt.Errorf("fetcher health check: %w", err)
	}
	request.Header.Set("User-Agent", s.userAgent)

	response, err := s.client.Do(request)
	if err != nil {
		return fmt.Errorf("fetcher health check: %w",
			spectrum.WrapError(spectrum.ErrorCodeNetwork, "health endpoint unreachable", err),
		)
	}
	defer response.Body.Close()
	if _, err := io.Copy(io.Discard, io.LimitReader(response.Body, maxBodyBytes)); err != nil {
		return fmt.Errorf("fetcher health check: drain response: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("fetcher health check: unexpected status %d", response.StatusCode)
	}

	return nil
}

func (s *Scraper) download(ctx context.Context, pageURL *url.URL) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("User-Agent", s.userAgent)
	request.Header.Set("Accept", "text/html,application/xhtml+xml")
	request.Header.Set("Accept-Language", "en-US,en;q=0.9")

	response, err := s.client.Do(request)
	if err != nil {
		return "", spectrum.WrapError(spectrum.ErrorCodeNetwork, "request failed", err)
	}
	defer response.Body.Close()

	if err := classifyStatus(response.StatusCode); err != nil {
		return "", err
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))
	if err != nil {
		return "", spectrum.WrapError(spectrum.ErrorCodeNetwork, "read response body", err)
	}

	return string(body), nil
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized,
		status == http.StatusForbidden,
		status == http.StatusUnavailableForLegalReasons:
		return spectrum.NewError(
			spectrum.ErrorCodeBlockedSource,
			fmt.Sprintf("source refused access (status %d)", status),
		)
	case status == http.StatusTooManyRequests || status >= 500:
		return spectrum.NewError(
			spectrum.ErrorCodeNetwork,
			fmt.Sprintf("transient upstream failure (status %d)", status),
		)
	default:
		return spectrum.NewError(
			spectrum.ErrorCodeContentExtraction,
			fmt.Sprintf("unexpected status %d", status),
		)
	}
}

var _ spectrum.Fetcher = (*Scraper)(nil)
