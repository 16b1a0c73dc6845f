// Package prompt builds the provider-agnostic analysis prompts and decodes
// the strict-JSON payloads they request. Every provider implementation sends
// these prompts and funnels raw model output through these decoders, so all
// providers agree on one payload schema.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/evanblasband/spectrum/pkg/spectrum"
)

// maxContentChars bounds how much article body is sent to a model. Leaning
// and topic signals concentrate early in news articles, and upstream token
// limits make full bodies wasteful.
const maxContentChars = 8000

// Leaning builds the political leaning classification prompt.
func Leaning(title, content, sourceName string) string {
	var builder strings.Builder
	builder.WriteString("Analyze the political leaning of this news article.\n")
	builder.WriteString("Respond with a single JSON object, no prose, with keys:\n")
	builder.WriteString(`"score" (number, -1 far left to 1 far right), `)
	builder.WriteString(`"confidence" (number, 0 to 1), "reasoning" (string), `)
	builder.WriteString(`"economic_score" (number or null), "social_score" (number or null).` + "\n\n")
	if trimmed := strings.TrimSpace(sourceName); trimmed != "" {
		fmt.Fprintf(&builder, "Source: %s\n", trimmed)
	}
	fmt.Fprintf(&builder, "Title: %s\n\nArticle:\n%s\n", strings.TrimSpace(title), Truncate(content))

	return builder.String()
}

// Topics builds the topic extraction prompt.
func Topics(title, content string) string {
	var builder strings.Builder
	builder.WriteString("Extract the topics of this news article.\n")
	builder.WriteString("Respond with a single JSON object, no prose, with keys:\n")
	builder.WriteString(`"primary_topic" (string), "secondary_topics" (array of strings), `)
	builder.WriteString(`"keywords" (array of up to 10 strings), "entities" (array of strings naming people and organizations).` + "\n\n")
	fmt.Fprintf(&builder, "Title: %s\n\nArticle:\n%s\n", strings.TrimSpace(title), Truncate(content))

	return builder.String()
}

// Points builds the key point extraction prompt.
func Points(title, content string, maxPoints int) string {
	if maxPoints <= 0 {
		maxPoints = spectrum.DefaultMaxPoints
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Extract the %d most important claims made by this news article.\n", maxPoints)
	builder.WriteString("Respond with a single JSON object, no prose, of the form:\n")
	builder.WriteString(`{"points": [{"id": "p1", "statement": "...", "supporting_quote": "...", "sentiment": "positive|negative|neutral"}]}` + "\n\n")
	fmt.Fprintf(&builder, "Title: %s\n\nArticle:\n%s\n", strings.TrimSpace(title), Truncate(content))

	return builder.String()
}

// Match builds the cross-article point matching prompt.
func Match(req spectrum.MatchRequest) (string, error) {
	pointsA, err := json.Marshal(req.PointsA)
	if err != nil {
		return "", fmt.Errorf("match prompt: marshal first article points: %w", err)
	}
	pointsB, err := json.Marshal(req.PointsB)
	if err != nil {
		return "", fmt.Errorf("match prompt: marshal second article points: %w", err)
	}

	var builder strings.Builder
	builder.WriteString("Two news articles cover potentially the same story. Relate their key points.\n")
	builder.WriteString("Respond with a single JSON object, no prose, of the form:\n")
	builder.WriteString(`{"same_story": true|false, "same_story_confidence": 0..1, "relationships": [{"point_a_id": "...", "point_b_id": "...", "relationship": "agrees|disagrees|related|unrelated", "explanation": "..."}]}` + "\n")
	builder.WriteString("Use only point ids that appear in the input lists.\n\n")
	fmt.Fprintf(&builder, "Article A: %s\nPoints A: %s\n\n", strings.TrimSpace(req.ContextA), pointsA)
	fmt.Fprintf(&builder, "Article B: %s\nPoints B: %s\n", strings.TrimSpace(req.ContextB), pointsB)

	return builder.String(), nil
}

// HealthPrompt is the minimal generation used by provider health checks.
const HealthPrompt = `Respond with the JSON object {"ok": true}.`

// Truncate bounds article content for prompt embedding.
func Truncate(content string) string {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) <= maxContentChars {
		return trimmed
	}

	return trimmed[:maxContentChars]
}
