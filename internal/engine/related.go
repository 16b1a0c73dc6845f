package engine

import (
	"context"
	"fmt"

	"github.com/evanblasband/spectrum/internal/cache"
	"github.com/evanblasband/spectrum/pkg/spectrum"
)

// FindRelated returns recent articles covering the same topics as the URL.
//
// The source article is analyzed (through the usual cached path), its topic
// keywords drive one news search, and both the raw search and the filtered
// related list are cached under their own entry types.
func (e *Engine) FindRelated(ctx context.Context, url string, limit int) ([]spectrum.SearchResult, error) {
	if e == nil {
		return nil, fmt.Errorf("find related: nil engine")
	}
	if e.searcher == nil {
		return nil, fmt.Errorf("find related: %w",
			spectrum.NewError(spectrum.ErrorCodeInternal, "no news searcher configured"),
		)
	}
	if err := spectrum.ValidateURL(url); err != nil {
		return nil, fmt.Errorf("find related: %w", err)
	}
	if limit <= 0 {
		limit = defaultRelatedLimit
	}

	relatedKey := cache.RelatedKey(url)
	if cached, exists := cache.GetAs[[]spectrum.SearchResult](e.store, relatedKey); exists {
		if len(cached) > limit {
			cached = cached[:limit]
		}
		return cached, nil
	}

	analysis, err := e.Analyze(ctx, url, spectrum.AnalyzeOptions{IncludePoints: false})
	if err != nil {
		return nil, fmt.Errorf("find related: %w", err)
	}

	keywords := searchKeywords(analysis.Topics)
	if len(keywords) == 0 {
		return []spectrum.SearchResult{}, nil
	}

	results, err := e.search(ctx, keywords, limit)
	if err != nil {
		return nil, fmt.Errorf("find related: %w", err)
	}

	related := make([]spectrum.SearchResult, 0, len(results))
	for _, result := range results {
		if result.URL == analysis.URL {
			continue
		}
		related = append(related, result)
		if len(related) == limit {
			break
		}
	}

	e.store.Set(relatedKey, related)

	return related, nil
}

// search runs one keyword search through the search result cache.
func (e *Engine) search(ctx context.Context, keywords []string, limit int) ([]spectrum.SearchResult, error) {
	key := cache.SearchKey(keywords, e.searcher.Name())
	if cached, exists := cache.GetAs[[]spectrum.SearchResult](e.store, key); exists {
		return cached, nil
	}

	var results []spectrum.SearchResult
	err := e.withRetry(ctx, func() error {
		found, searchErr := e.searcher.Search(ctx, keywords, limit)
		if searchErr != nil {
			return searchErr
		}
		results = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.store.Set(key, results)

	return results, nil
}

// searchKeywords picks the query terms for one related-articles search: the
// primary topic plus the strongest extracted keywords.
func searchKeywords(topics spectrum.Topics) []string {
	const maxQueryTerms = 4

	keywords := make([]string, 0, maxQueryTerms)
	if topics.Primary != "" {
		keywords = append(keywords, topics.Primary)
	}
	for _, keyword := range topics.Keywords {
		if len(keywords) == maxQueryTerms {
			break
		}
		keywords = append(keywords, keyword)
	}

	return keywords
}
