package spectrum

import (
	"context"
	"time"
)

// SearchResult is one article reference returned by a news search.
type SearchResult struct {
	// Title is the result headline.
	Title string `json:"title"`
	// URL is the result location.
	URL string `json:"url"`
	// SourceName names the publication.
	SourceName string `json:"source_name"`
	// Description is a short result summary when the search API returns one.
	Description string `json:"description,omitempty"`
	// PublishedAt is the publication timestamp when known.
	PublishedAt time.Time `json:"published_at,omitzero"`
}

// NewsSearcher finds recent articles matching a keyword set.
//
// Implementations wrap one news search API. Keyword order must not affect
// results so cached searches stay stable across callers.
type NewsSearcher interface {
	// Name returns the stable searcher name used in cache keys.
	Name() string
	// Search returns up to limit articles matching the keywords.
	Search(ctx context.Context, keywords []string, limit int) ([]SearchResult, error)
}
