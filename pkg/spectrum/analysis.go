package spectrum

import (
	"fmt"
	"strings"
	"time"
)

// Leaning is one political leaning classification for an article.
type Leaning struct {
	// Score places the article on a -1 (far left) to 1 (far right) axis.
	Score float64 `json:"score"`
	// Confidence is the provider's certainty in the score, 0 to 1.
	Confidence float64 `json:"confidence"`
	// Reasoning explains how the score was reached.
	Reasoning string `json:"reasoning"`
	// EconomicScore optionally isolates economic-policy stance.
	EconomicScore *float64 `json:"economic_score,omitempty"`
	// SocialScore optionally isolates social-policy stance.
	SocialScore *float64 `json:"social_score,omitempty"`
}

// Validate checks one leaning contract.
func (l Leaning) Validate() error {
	if l.Score < -1 || l.Score > 1 {
		return fmt.Errorf("validate leaning: score %v outside [-1, 1]", l.Score)
	}
	if l.Confidence < 0 || l.Confidence > 1 {
		return fmt.Errorf("validate leaning: confidence %v outside [0, 1]", l.Confidence)
	}
	if l.EconomicScore != nil && (*l.EconomicScore < -1 || *l.EconomicScore > 1) {
		return fmt.Errorf("validate leaning: economic_score %v outside [-1, 1]", *l.EconomicScore)
	}
	if l.SocialScore != nil && (*l.SocialScore < -1 || *l.SocialScore > 1) {
		return fmt.Errorf("validate leaning: social_score %v outside [-1, 1]", *l.SocialScore)
	}

	return nil
}

// Label returns one human-readable bucket for the score.
func (l Leaning) Label() string {
	switch {
	case l.Score <= -0.6:
		return "Far Left"
	case l.Score <= -0.2:
		return "Left"
	case l.Score <= 0.2:
		return "Center"
	case l.Score <= 0.6:
		return "Right"
	default:
		return "Far Right"
	}
}

// Topics is one topic and keyword extraction result for an article.
type Topics struct {
	// Primary is the single dominant topic.
	Primary string `json:"primary"`
	// Secondary lists additional covered topics.
	Secondary []string `json:"secondary"`
	// Keywords lists salient terms from the article body.
	Keywords []string `json:"keywords"`
	// Entities lists named people and organizations.
	Entities []string `json:"entities"`
}

// NormalizedSet returns the case-normalized set over primary and secondary
// topics. Empty names are dropped.
func (t Topics) NormalizedSet() map[string]struct{} {
	set := make(map[string]struct{}, 1+len(t.Secondary))
	for _, topic := range append([]string{t.Primary}, t.Secondary...) {
		normalized := strings.ToLower(strings.TrimSpace(topic))
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}

	return set
}

// Sentiment classifies the tone of one article point.
type Sentiment string

const (
	// SentimentPositive marks approving or optimistic points.
	SentimentPositive Sentiment = "positive"
	// SentimentNegative marks critical or pessimistic points.
	SentimentNegative Sentiment = "negative"
	// SentimentNeutral marks descriptive points without tone.
	SentimentNeutral Sentiment = "neutral"
)

// Validate checks whether this sentiment value is supported.
func (s Sentiment) Validate() error {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return nil
	default:
		return fmt.Errorf("validate sentiment: unsupported value %q", s)
	}
}

// ArticlePoint is one key claim extracted from an article.
//
// Point ids are unique only within their owning analysis.
type ArticlePoint struct {
	// ID identifies the point within its analysis.
	ID string `json:"id"`
	// Statement is the claim in one sentence.
	Statement string `json:"statement"`
	// SupportingQuote is an optional verbatim excerpt backing the claim.
	SupportingQuote string `json:"supporting_quote,omitempty"`
	// Sentiment classifies the claim's tone.
	Sentiment Sentiment `json:"sentiment"`
}

// Validate checks one article point contract.
func (p ArticlePoint) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("validate article point: missing id")
	}
	if strings.TrimSpace(p.Statement) == "" {
		return fmt.Errorf("validate article point: missing statement")
	}
	if err := p.Sentiment.Validate(); err != nil {
		return fmt.Errorf("validate article point %s: %w", p.ID, err)
	}

	return nil
}

// ArticleAnalysis is one complete analysis result for an article.
//
// An analysis is created once per (url, provider) pair and never mutated; a
// force refresh supersedes the stored value with a new one.
type ArticleAnalysis struct {
	// ArticleID identifies the analyzed article.
	ArticleID string `json:"article_id"`
	// URL is the analyzed article location.
	URL string `json:"url"`
	// Title is the analyzed article headline.
	Title string `json:"title"`
	// SourceName names the publication.
	SourceName string `json:"source_name"`
	// Leaning is the political leaning classification.
	Leaning Leaning `json:"leaning"`
	// Topics is the topic extraction result.
	Topics Topics `json:"topics"`
	// Points lists extracted key claims, when requested.
	Points []ArticlePoint `json:"points"`
	// AnalyzedAt records when the analysis was produced.
	AnalyzedAt time.Time `json:"analyzed_at"`
	// Provider names the AI provider that produced the analysis.
	Provider string `json:"provider"`
	// FromCache reports whether this result was served without a fresh
	// provider call. Warm single-flight reuse also counts as cached.
	FromCache bool `json:"from_cache"`
}

// Validate checks one analysis contract.
func (a ArticleAnalysis) Validate() error {
	if strings.TrimSpace(a.ArticleID) == "" {
		return fmt.Errorf("validate analysis: missing article id")
	}
	if strings.TrimSpace(a.URL) == "" {
		return fmt.Errorf("validate analysis: missing url")
	}
	if strings.TrimSpace(a.Provider) == "" {
		return fmt.Errorf("validate analysis: missing provider")
	}
	if err := a.Leaning.Validate(); err != nil {
		return fmt.Errorf("validate analysis %s: %w", a.ArticleID, err)
	}
	for index, point := range a.Points {
		if err := point.Validate(); err != nil {
			return fmt.Errorf("validate analysis %s points[%d]: %w", a.ArticleID, index, err)
		}
	}

	return nil
}

// HasPoint reports whether the analysis owns a point with the given id.
func (a ArticleAnalysis) HasPoint(id string) bool {
	for _, point := range a.Points {
		if point.ID == id {
			return true
		}
	}

	return false
}

// PointByID returns the owned point with the given id.
func (a ArticleAnalysis) PointByID(id string) (ArticlePoint, bool) {
	for _, point := range a.Points {
		if point.ID == id {
			return point, true
		}
	}

	return ArticlePoint{}, false
}

// AnalyzeOptions controls one analysis request.
type AnalyzeOptions struct {
	// ForceRefresh bypasses the cached analysis but still deduplicates
	// concurrent refreshes of the same URL.
	ForceRefresh bool
	// IncludePoints requests key point extraction, a slower provider call.
	IncludePoints bool
}
