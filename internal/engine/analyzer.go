package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/evanblasband/spectrum/internal/cache"
	"github.com/evanblasband/spectrum/pkg/spectrum"
)

// Analyze produces the analysis for one URL, reusing a cached result inside
// the analysis TTL window and deduplicating concurrent requests for the same
// URL into a single fetch-and-classify execution.
//
// ForceRefresh bypasses the cached result but still attaches to an in-flight
// computation when one exists. Results served from the cache or from a warm
// in-flight computation carry FromCache set.
func (e *Engine) Analyze(ctx context.Context, url string, opts spectrum.AnalyzeOptions) (spectrum.ArticleAnalysis, error) {
	if e == nil {
		return spectrum.ArticleAnalysis{}, fmt.Errorf("analyze article: nil engine")
	}
	if err := spectrum.ValidateURL(url); err != nil {
		return spectrum.ArticleAnalysis{}, fmt.Errorf("analyze article: %w", err)
	}

	key := cache.AnalysisKey(url, e.provider.Name())

	if !opts.ForceRefresh {
		if cached, exists := cache.GetAs[spectrum.ArticleAnalysis](e.store, key); exists {
			e.logger.DebugContext(ctx, "analysis cache hit", "url", url, "provider", e.provider.Name())
			cached.FromCache = true
			return cached, nil
		}
	}

	analysis, shared, err := e.flights.Do(ctx, key, func(flightCtx context.Context) (spectrum.ArticleAnalysis, error) {
		return e.computeAnalysis(flightCtx, key, url, opts.IncludePoints)
	})
	if err != nil {
		return spectrum.ArticleAnalysis{}, err
	}
	if shared {
		// A warm reuse of the in-flight computation is indistinguishable
		// from a cache hit to the caller; mark it for telemetry.
		analysis.FromCache = true
	}

	return analysis, nil
}

// computeAnalysis is the expensive path behind the single-flight group:
// fetch the article, run classification and topic extraction in parallel,
// optionally extract key points, then persist the result. Failures are never
// cached.
func (e *Engine) computeAnalysis(ctx context.Context, key, url string, includePoints bool) (spectrum.ArticleAnalysis, error) {
	article, err := e.fetchArticle(ctx, url)
	if err != nil {
		return spectrum.ArticleAnalysis{}, fmt.Errorf("analyze article %s: %w", url, err)
	}

	var (
		leaning spectrum.Leaning
		topics  spectrum.Topics
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return e.withRetry(groupCtx, func() error {
			classified, classifyErr := e.provider.ClassifyLeaning(groupCtx, article.Title, article.Content, article.Source.Name)
			if classifyErr != nil {
				return classifyErr
			}
			leaning = classified
			return nil
		})
	})
	group.Go(func() error {
		return e.withRetry(groupCtx, func() error {
			extracted, topicsErr := e.provider.ExtractTopics(groupCtx, article.Title, article.Content)
			if topicsErr != nil {
				return topicsErr
			}
			topics = extracted
			return nil
		})
	})
	if err := group.Wait(); err != nil {
		return spectrum.ArticleAnalysis{}, fmt.Errorf("analyze article %s: %w", url, err)
	}

	var points []spectrum.ArticlePoint
	if includePoints {
		err := e.withRetry(ctx, func() error {
			extracted, pointsErr := e.provider.ExtractPoints(ctx, article.Title, article.Content, e.maxPoints)
			if pointsErr != nil {
				return pointsErr
			}
			points = extracted
			return nil
		})
		if err != nil {
			return spectrum.ArticleAnalysis{}, fmt.Errorf("analyze article %s: %w", url, err)
		}
	}

	analysis := spectrum.ArticleAnalysis{
		ArticleID:  article.ID,
		URL:        article.URL,
		Title:      article.Title,
		SourceName: article.Source.Name,
		Leaning:    leaning,
		Topics:     topics,
		Points:     points,
		AnalyzedAt: e.clock().UTC(),
		Provider:   e.provider.Name(),
		FromCache:  false,
	}
	e.store.Set(key, analysis)

	e.logger.InfoContext(ctx,
		"analysis complete",
		"url", url,
		"provider", analysis.Provider,
		"score", leaning.Score,
		"label", leaning.Label(),
		"points", len(points),
	)

	return analysis, nil
}

// fetchArticle retrieves one article through the article content cache.
func (e *Engine) fetchArticle(ctx context.Context, url string) (spectrum.Article, error) {
	key := cache.ArticleKey(url)
	if cached, exists := cache.GetAs[spectrum.Article](e.store, key); exists {
		return cached, nil
	}

	var article spectrum.Article
	err := e.withRetry(ctx, func() error {
		fetched, fetchErr := e.fetcher.Fetch(ctx, url)
		if fetchErr != nil {
			return fetchErr
		}
		article = fetched
		return nil
	})
	if err != nil {
		return spectrum.Article{}, err
	}

	e.store.Set(key, article)

	return article, nil
}
