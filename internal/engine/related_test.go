package engine

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/evanblasband/spectrum/pkg/spectrum"
)

func searchResults(count int) []spectrum.SearchResult {
	results := make([]spectrum.SearchResult, count)
	for i := range results {
		results[i] = spectrum.SearchResult{
			Title:      fmt.Sprintf("Related story %d", i),
			URL:        fmt.Sprintf("https://other.example.com/story-%d", i),
			SourceName: "Other News",
		}
	}
	return results
}

func TestFindRelatedFiltersSourceArticle(t *testing.T) {
	t.Parallel()

	source := "https://example.com/story"
	searcher := &stubSearcher{
		searchFn: func(context.Context, []string, int) ([]spectrum.SearchResult, error) {
			results := searchResults(3)
			results = append(results, spectrum.SearchResult{Title: "The source itself", URL: source})
			return results, nil
		},
	}
	engine := newTestEngine(t, &stubProvider{}, &stubFetcher{}, WithSearcher(searcher))

	related, err := engine.FindRelated(context.Background(), source, 10)
	if err != nil {
		t.Fatalf("FindRelated: %v", err)
	}

	if len(related) != 3 {
		t.Fatalf("related = %d, want 3 after dropping the source", len(related))
	}
	for _, result := range related {
		if result.URL == source {
			t.Fatal("source article must not appear in its own related list")
		}
	}
}

func TestFindRelatedHonorsLimit(t *testing.T) {
	t.Parallel()

	searcher := &stubSearcher{
		searchFn: func(context.Context, []string, int) ([]spectrum.SearchResult, error) {
			return searchResults(8), nil
		},
	}
	engine := newTestEngine(t, &stubProvider{}, &stubFetcher{}, WithSearcher(searcher))

	related, err := engine.FindRelated(context.Background(), "https://example.com/story", 2)
	if err != nil {
		t.Fatalf("FindRelated: %v", err)
	}
	if len(related) != 2 {
		t.Fatalf("related = %d, want limit of 2", len(related))
	}
}

func TestFindRelatedCachesResults(t *testing.T) {
	t.Parallel()

	searcher := &stubSearcher{
		searchFn: func(context.Context, []string, int) ([]spectrum.SearchResult, error) {
			return searchResults(3), nil
		},
	}
	engine := newTestEngine(t, &stubProvider{}, &stubFetcher{}, WithSearcher(searcher))

	url := "https://example.com/story"
	first, err := engine.FindRelated(context.Background(), url, 10)
	if err != nil {
		t.Fatalf("first FindRelated: %v", err)
	}
	second, err := engine.FindRelated(context.Background(), url, 10)
	if err != nil {
		t.Fatalf("second FindRelated: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatal("cached related list must match the fresh one")
	}
	if got := searcher.searchCalls.Load(); got != 1 {
		t.Fatalf("search calls = %d, want 1", got)
	}
}

func TestFindRelatedBuildsKeywordsFromTopics(t *testing.T) {
	t.Parallel()

	var captured []string
	searcher := &stubSearcher{
		searchFn: func(_ context.Context, keywords []string, _ int) ([]spectrum.SearchResult, error) {
			captured = append([]string(nil), keywords...)
			return nil, nil
		},
	}
	provider := &stubProvider{
		topicsFn: func(context.Context, string, string) (spectrum.Topics, error) {
			return spectrum.Topics{
				Primary:  "healthcare",
				Keywords: []string{"medicare", "premiums", "congress", "budget", "vote"},
			}, nil
		},
	}
	engine := newTestEngine(t, provider, &stubFetcher{}, WithSearcher(searcher))

	if _, err := engine.FindRelated(context.Background(), "https://example.com/story", 5); err != nil {
		t.Fatalf("FindRelated: %v", err)
	}

	want := []string{"healthcare", "medicare", "premiums", "congress"}
	sort.Strings(captured)
	sort.Strings(want)
	if !reflect.DeepEqual(captured, want) {
		t.Fatalf("keywords = %v, want primary topic plus strongest keywords", captured)
	}
}

func TestFindRelatedWithoutKeywords(t *testing.T) {
	t.Parallel()

	searcher := &stubSearcher{}
	provider := &stubProvider{
		topicsFn: func(context.Context, string, string) (spectrum.Topics, error) {
			return spectrum.Topics{}, nil
		},
	}
	engine := newTestEngine(t, provider, &stubFetcher{}, WithSearcher(searcher))

	related, err := engine.FindRelated(context.Background(), "https://example.com/story", 5)
	if err != nil {
		t.Fatalf("FindRelated: %v", err)
	}
	if len(related) != 0 {
		t.Fatalf("related = %d, want none without keywords", len(related))
	}
	if got := searcher.searchCalls.Load(); got != 0 {
		t.Fatalf("search calls = %d, want 0 without keywords", got)
	}
}

func TestFindRelatedRequiresSearcher(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, &stubProvider{}, &stubFetcher{})

	_, err := engine.FindRelated(context.Background(), "https://example.com/story", 5)
	if err == nil {
		t.Fatal("expected error without a configured searcher")
	}
	if code := spectrum.CodeOf(err); code != spectrum.ErrorCodeInternal {
		t.Fatalf("code = %q, want internal_error", code)
	}
}
