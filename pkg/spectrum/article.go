package spectrum

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Source describes the publication an article came from.
type Source struct {
	// Name is the publication display name.
	Name string `json:"name"`
	// Domain is the publication host without a www prefix.
	Domain string `json:"domain"`
}

// Article is one fetched article ready for analysis.
//
// Articles are immutable after construction; re-fetching a URL produces a new
// value rather than mutating an existing one.
type Article struct {
	// ID is a stable identifier derived from the article URL.
	ID string `json:"id"`
	// URL is the canonical location the article was fetched from.
	URL string `json:"url"`
	// Title is the extracted article headline.
	Title string `json:"title"`
	// Content is the extracted article body text.
	Content string `json:"content"`
	// Source identifies the publication.
	Source Source `json:"source"`
	// Author is the extracted byline when known.
	Author string `json:"author,omitempty"`
	// PublishedAt is the publication timestamp when known.
	PublishedAt time.Time `json:"published_at,omitzero"`
	// WordCount counts whitespace-separated content tokens.
	WordCount int `json:"word_count"`
	// FetchedAt records when the article was retrieved.
	FetchedAt time.Time `json:"fetched_at"`
}

// Validate checks one article contract.
func (a Article) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("validate article: missing id")
	}
	if strings.TrimSpace(a.URL) == "" {
		return fmt.Errorf("validate article: missing url")
	}
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("validate article: missing title")
	}
	if strings.TrimSpace(a.Content) == "" {
		return fmt.Errorf("validate article: missing content")
	}

	return nil
}

// ArticleID derives the stable article identifier for one URL.
//
// The identifier is deterministic so repeated analyses of the same URL agree
// on identity across cache hits and fresh fetches.
func ArticleID(rawURL string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(strings.TrimSpace(rawURL)))
}

// ValidateURL checks that one raw URL is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return Validatef("empty url")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return Validatef("parse url %q: %v", trimmed, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Validatef("url %q: unsupported scheme %q", trimmed, parsed.Scheme)
	}
	if parsed.Host == "" {
		return Validatef("url %q: missing host", trimmed)
	}

	return nil
}

// Fetcher retrieves and extracts one article by URL.
//
// Implementations must be concurrency-safe; the engine fetches multiple
// articles in parallel during multi-article comparisons.
type Fetcher interface {
	// Fetch downloads one URL and extracts its readable article content.
	Fetch(ctx context.Context, url string) (Article, error)
	// HealthCheck verifies the fetcher can reach the network.
	HealthCheck(ctx context.Context) error
}
