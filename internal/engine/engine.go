// Package engine implements the analysis and comparison core: cached
// single-flight article analysis, all-pairs comparison of analyzed articles,
// and aggregation of pairwise findings into one response.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evanblasband/spectrum/internal/cache"
	"github.com/evanblasband/spectrum/internal/flight"
	"github.com/evanblasband/spectrum/pkg/spectrum"
)

const (
	minCompareArticles = 2
	maxCompareArticles = 5

	defaultMaxConcurrentAnalyses = 3
	defaultRelatedLimit          = 10
)

// Option mutates engine configuration.
type Option func(*Engine)

// WithStore injects the keyed TTL store; a fresh default store is used
// otherwise.
func WithStore(store *cache.Store) Option {
	return func(engine *Engine) {
		if store != nil {
			engine.store = store
		}
	}
}

// WithSearcher injects the news search port used by FindRelated.
func WithSearcher(searcher spectrum.NewsSearcher) Option {
	return func(engine *Engine) {
		if searcher != nil {
			engine.searcher = searcher
		}
	}
}

// WithLogger injects a logger directly.
func WithLogger(logger *slog.Logger) Option {
	return func(engine *Engine) {
		if logger != nil {
			engine.logger = logger
		}
	}
}

// WithClock injects a time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(engine *Engine) {
		if clock != nil {
			engine.clock = clock
		}
	}
}

// WithMaxConcurrentAnalyses bounds parallel per-article analyses during a
// comparison, respecting upstream rate limits.
func WithMaxConcurrentAnalyses(limit int) Option {
	return func(engine *Engine) {
		if limit > 0 {
			engine.maxConcurrent = limit
		}
	}
}

// WithMaxPoints bounds key point extraction per article.
func WithMaxPoints(maxPoints int) Option {
	return func(engine *Engine) {
		if maxPoints > 0 {
			engine.maxPoints = maxPoints
		}
	}
}

// Engine is the result-cache-and-comparison core.
//
// All collaborators arrive through the constructor; the engine keeps no
// global state and is safe for concurrent use.
type Engine struct {
	provider spectrum.AnalysisProvider
	fetcher  spectrum.Fetcher
	searcher spectrum.NewsSearcher
	store    *cache.Store
	flights  *flight.Group[spectrum.ArticleAnalysis]
	logger   *slog.Logger
	clock    func() time.Time

	maxConcurrent int
	maxPoints     int
	retries       uint64
	retryInterval time.Duration
}

// New builds one analysis engine around a provider and a fetcher.
func New(provider spectrum.AnalysisProvider, fetcher spectrum.Fetcher, options ...Option) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("new engine: nil analysis provider")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("new engine: nil fetcher")
	}

	engine := &Engine{
		provider:      provider,
		fetcher:       fetcher,
		store:         cache.NewStore(),
		flights:       flight.NewGroup[spectrum.ArticleAnalysis](),
		logger:        slog.Default(),
		clock:         time.Now,
		maxConcurrent: defaultMaxConcurrentAnalyses,
		maxPoints:     spectrum.DefaultMaxPoints,
		retries:       defaultRetries,
		retryInterval: defaultRetryInterval,
	}
	for _, option := range options {
		option(engine)
	}

	return engine, nil
}

// CompareMany analyzes 2 to 5 URLs and produces the all-pairs comparison.
//
// Articles that fail to fetch or analyze are excluded and the comparison
// proceeds with the remainder; fewer than two surviving analyses fail the
// request. Surviving articles keep the caller's URL order.
func (e *Engine) CompareMany(ctx context.Context, urls []string) (spectrum.MultiArticleComparison, error) {
	if e == nil {
		return spectrum.MultiArticleComparison{}, fmt.Errorf("compare articles: nil engine")
	}

	deduped, err := normalizeCompareURLs(urls)
	if err != nil {
		return spectrum.MultiArticleComparison{}, fmt.Errorf("compare articles: %w", err)
	}

	analyses, analyzeErrs := e.analyzeAll(ctx, deduped)
	if len(analyses) < minCompareArticles {
		return spectrum.MultiArticleComparison{}, fmt.Errorf("compare articles: %w",
			spectrum.WrapError(
				spectrum.ErrorCodeValidation,
				fmt.Sprintf("only %d of %d articles could be analyzed", len(analyses), len(deduped)),
				errors.Join(analyzeErrs...),
			),
		)
	}
	for _, analyzeErr := range analyzeErrs {
		e.logger.WarnContext(ctx, "article excluded from comparison", "error", analyzeErr)
	}

	pairs := e.compareAllPairs(ctx, analyses)

	return aggregate(analyses, pairs), nil
}

// Health verifies the engine's external dependencies are reachable.
func (e *Engine) Health(ctx context.Context) error {
	if e == nil {
		return fmt.Errorf("engine health: nil engine")
	}

	var failures []error
	if err := e.provider.HealthCheck(ctx); err != nil {
		failures = append(failures, fmt.Errorf("engine health: provider: %w", err))
	}
	if err := e.fetcher.HealthCheck(ctx); err != nil {
		failures = append(failures, fmt.Errorf("engine health: fetcher: %w", err))
	}

	return errors.Join(failures...)
}

// CacheStats returns the per-type cache snapshot for telemetry.
func (e *Engine) CacheStats() map[cache.EntryType]cache.TypeStats {
	if e == nil {
		return nil
	}

	return e.store.Stats()
}

// analyzeAll runs per-article analyses with bounded concurrency and returns
// the survivors in request order plus one error per failed URL.
func (e *Engine) analyzeAll(ctx context.Context, urls []string) ([]spectrum.ArticleAnalysis, []error) {
	type outcome struct {
		analysis spectrum.ArticleAnalysis
		err      error
	}

	outcomes := make([]outcome, len(urls))

	var group errgroup.Group
	group.SetLimit(e.maxConcurrent)
	for index, url := range urls {
		group.Go(func() error {
			analysis, err := e.Analyze(ctx, url, spectrum.AnalyzeOptions{IncludePoints: true})
			if err != nil {
				outcomes[index] = outcome{err: fmt.Errorf("analyze %s: %w", url, err)}
				return nil
			}
			outcomes[index] = outcome{analysis: analysis}
			return nil
		})
	}
	_ = group.Wait()

	analyses := make([]spectrum.ArticleAnalysis, 0, len(urls))
	failures := make([]error, 0)
	for _, result := range outcomes {
		if result.err != nil {
			failures = append(failures, result.err)
			continue
		}
		analyses = append(analyses, result.analysis)
	}

	return analyses, failures
}

// compareAllPairs produces one comparison per unordered pair. Pairs are
// independent, so they run concurrently under the same provider-facing
// concurrency bound as analyses.
func (e *Engine) compareAllPairs(ctx context.Context, analyses []spectrum.ArticleAnalysis) []spectrum.PairwiseComparison {
	pairCount := len(analyses) * (len(analyses) - 1) / 2
	pairs := make([]spectrum.PairwiseComparison, pairCount)

	var group errgroup.Group
	group.SetLimit(e.maxConcurrent)

	slot := 0
	for i := 0; i < len(analyses); i++ {
		for j := i + 1; j < len(analyses); j++ {
			first, second, target := analyses[i], analyses[j], slot
			slot++
			group.Go(func() error {
				pairs[target] = e.ComparePair(ctx, first, second)
				return nil
			})
		}
	}
	_ = group.Wait()

	return pairs
}

func normalizeCompareURLs(urls []string) ([]string, error) {
	seen := make(map[string]struct{}, len(urls))
	deduped := make([]string, 0, len(urls))
	for _, url := range urls {
		if err := spectrum.ValidateURL(url); err != nil {
			return nil, err
		}
		if _, duplicate := seen[url]; duplicate {
			continue
		}
		seen[url] = struct{}{}
		deduped = append(deduped, url)
	}

	if len(deduped) < minCompareArticles {
		return nil, spectrum.Validatef("need at least %d distinct articles to compare, got %d", minCompareArticles, len(deduped))
	}
	if len(deduped) > maxCompareArticles {
		return nil, spectrum.Validatef("at most %d articles can be compared, got %d", maxCompareArticles, len(deduped))
	}

	return deduped, nil
}
