package cache

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// EntryType is a cache-key category governing its own TTL and capacity
// policy. The type is derived from the prefix before the first colon.
type EntryType string

const (
	// EntryTypeArticle covers fetched article content.
	EntryTypeArticle EntryType = "article"
	// EntryTypeAnalysis covers AI analysis results.
	EntryTypeAnalysis EntryType = "analysis"
	// EntryTypeSearch covers news search results.
	EntryTypeSearch EntryType = "search"
	// EntryTypeRelated covers related-article lists.
	EntryTypeRelated EntryType = "related"
	// EntryTypeDefault covers keys with an unrecognized prefix.
	EntryTypeDefault EntryType = "default"
)

// Fingerprint returns a stable short hash of one semantic input.
func Fingerprint(input string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(input))
}

// ArticleKey builds the cache key for fetched article content.
func ArticleKey(url string) string {
	return string(EntryTypeArticle) + ":" + Fingerprint(strings.TrimSpace(url))
}

// AnalysisKey builds the cache key for one (url, provider) analysis.
//
// Different providers produce different results, so the provider name is
// part of the key.
func AnalysisKey(url, provider string) string {
	return string(EntryTypeAnalysis) + ":" + strings.TrimSpace(provider) + ":" + Fingerprint(strings.TrimSpace(url))
}

// SearchKey builds the cache key for one keyword search against one source.
// Keyword order and case do not affect the key.
func SearchKey(keywords []string, source string) string {
	normalized := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		trimmed := strings.ToLower(strings.TrimSpace(keyword))
		if trimmed == "" {
			continue
		}
		normalized = append(normalized, trimmed)
	}
	sort.Strings(normalized)

	return string(EntryTypeSearch) + ":" + strings.TrimSpace(source) + ":" + Fingerprint(strings.Join(normalized, "|"))
}

// RelatedKey builds the cache key for related articles of one URL.
func RelatedKey(url string) string {
	return string(EntryTypeRelated) + ":" + Fingerprint(strings.TrimSpace(url))
}

// TypeOfKey derives the entry type from one cache key prefix.
func TypeOfKey(key string) EntryType {
	prefix, _, found := strings.Cut(key, ":")
	if !found {
		return EntryTypeDefault
	}

	switch EntryType(prefix) {
	case EntryTypeArticle, EntryTypeAnalysis, EntryTypeSearch, EntryTypeRelated:
		return EntryType(prefix)
	default:
		return EntryTypeDefault
	}
}
