package spectrum

import "context"

// DefaultMaxPoints bounds key point extraction when the caller does not
// override it.
const DefaultMaxPoints = 5

// AnalysisProvider is the external AI capability consumed by the engine.
//
// Implementations wrap one upstream model API and must be concurrency-safe;
// the engine issues classification and topic extraction calls in parallel.
// Transient upstream failures must surface as a structured Error with code
// ErrorCodeAIProvider and Retryable set, so the engine's retry schedule can
// distinguish them from permanent failures.
type AnalysisProvider interface {
	// Name returns the stable provider name used in cache keys and
	// telemetry. Two providers with the same name share cached analyses.
	Name() string
	// ClassifyLeaning scores the article on the political leaning axis.
	ClassifyLeaning(ctx context.Context, title, content, sourceName string) (Leaning, error)
	// ExtractTopics extracts topics, keywords and named entities.
	ExtractTopics(ctx context.Context, title, content string) (Topics, error)
	// ExtractPoints extracts up to maxPoints key claims.
	ExtractPoints(ctx context.Context, title, content string, maxPoints int) ([]ArticlePoint, error)
	// MatchPoints relates points across two articles and gives the
	// advisory same-story verdict. Output is unvalidated.
	MatchPoints(ctx context.Context, req MatchRequest) (MatchResult, error)
	// HealthCheck verifies the upstream API is reachable and responding.
	HealthCheck(ctx context.Context) error
}
