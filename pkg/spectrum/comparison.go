package spectrum

import (
	"fmt"
	"strings"
)

// RelationshipKind classifies how two points from different articles relate.
type RelationshipKind string

const (
	// RelationshipAgrees marks points making compatible claims.
	RelationshipAgrees RelationshipKind = "agrees"
	// RelationshipDisagrees marks points making conflicting claims.
	RelationshipDisagrees RelationshipKind = "disagrees"
	// RelationshipRelated marks points covering the same ground without a
	// clear agree/disagree verdict.
	RelationshipRelated RelationshipKind = "related"
	// RelationshipUnrelated marks points with no meaningful connection.
	RelationshipUnrelated RelationshipKind = "unrelated"
)

// Validate checks whether this relationship kind is supported.
func (k RelationshipKind) Validate() error {
	switch k {
	case RelationshipAgrees, RelationshipDisagrees, RelationshipRelated, RelationshipUnrelated:
		return nil
	default:
		return fmt.Errorf("validate relationship kind: unsupported value %q", k)
	}
}

// RawRelationship is one provider-asserted link between two point ids.
//
// Raw relationships are advisory: the comparator validates the ids against
// the owning analyses and drops entries it cannot resolve.
type RawRelationship struct {
	// PointAID references a point owned by the first article.
	PointAID string `json:"point_a_id"`
	// PointBID references a point owned by the second article.
	PointBID string `json:"point_b_id"`
	// Kind classifies the link.
	Kind RelationshipKind `json:"relationship"`
	// Explanation says why the provider asserted the link.
	Explanation string `json:"explanation"`
}

// PointRelationship is one validated link between points of two articles.
type PointRelationship struct {
	// PointA is the resolved point from the first article.
	PointA ArticlePoint `json:"point_a"`
	// PointB is the resolved point from the second article.
	PointB ArticlePoint `json:"point_b"`
	// ArticleAID identifies the first article.
	ArticleAID string `json:"article_a_id"`
	// ArticleBID identifies the second article.
	ArticleBID string `json:"article_b_id"`
	// Kind classifies the link.
	Kind RelationshipKind `json:"relationship"`
	// Explanation says why the provider asserted the link.
	Explanation string `json:"explanation"`
}

// MatchRequest asks a provider to relate points across two articles.
type MatchRequest struct {
	// PointsA are the first article's extracted points.
	PointsA []ArticlePoint
	// PointsB are the second article's extracted points.
	PointsB []ArticlePoint
	// ContextA describes the first article, typically title and source.
	ContextA string
	// ContextB describes the second article, typically title and source.
	ContextB string
}

// Validate checks one match request contract.
func (r MatchRequest) Validate() error {
	if len(r.PointsA) == 0 {
		return fmt.Errorf("validate match request: no points for first article")
	}
	if len(r.PointsB) == 0 {
		return fmt.Errorf("validate match request: no points for second article")
	}
	if strings.TrimSpace(r.ContextA) == "" {
		return fmt.Errorf("validate match request: missing first article context")
	}
	if strings.TrimSpace(r.ContextB) == "" {
		return fmt.Errorf("validate match request: missing second article context")
	}

	return nil
}

// MatchResult carries one provider point-matching verdict.
type MatchResult struct {
	// SameStory reports whether both articles cover the same underlying
	// story. There is no local heuristic for this; it is entirely the
	// provider's advisory verdict.
	SameStory bool `json:"same_story"`
	// SameStoryConfidence is the provider's certainty in SameStory, 0 to 1.
	SameStoryConfidence float64 `json:"same_story_confidence"`
	// Relationships lists asserted point links, unvalidated.
	Relationships []RawRelationship `json:"relationships"`
}

// PairwiseComparison is the result of comparing exactly two analyzed
// articles. It exists only inside one comparison response and is never
// cached on its own.
type PairwiseComparison struct {
	// ArticleAID identifies the first article.
	ArticleAID string `json:"article_a_id"`
	// ArticleBID identifies the second article.
	ArticleBID string `json:"article_b_id"`
	// SameStory is the provider's advisory same-story verdict.
	SameStory bool `json:"same_story"`
	// SameStoryConfidence is the provider's certainty in SameStory.
	SameStoryConfidence float64 `json:"same_story_confidence"`
	// LeaningDifference is the absolute distance between leaning scores.
	LeaningDifference float64 `json:"leaning_difference"`
	// LeaningSummary is a deterministic bucketed label for the difference.
	LeaningSummary string `json:"leaning_summary"`
	// SharedTopics lists topics covered by both articles.
	SharedTopics []string `json:"shared_topics"`
	// UniqueTopicsA lists topics only the first article covers.
	UniqueTopicsA []string `json:"unique_topics_a"`
	// UniqueTopicsB lists topics only the second article covers.
	UniqueTopicsB []string `json:"unique_topics_b"`
	// Agreements lists validated agreeing point links.
	Agreements []PointRelationship `json:"agreements"`
	// Disagreements lists validated disagreeing point links.
	Disagreements []PointRelationship `json:"disagreements"`
}

// MultiArticleComparison is one complete comparison response over N articles.
// It is built fresh per request and carries no independent identity.
type MultiArticleComparison struct {
	// Articles lists the surviving analyses in request order.
	Articles []ArticleAnalysis `json:"articles"`
	// PairwiseComparisons holds one entry per unordered article pair.
	PairwiseComparisons []PairwiseComparison `json:"pairwise_comparisons"`
	// LeaningSpectrum maps each article id to its leaning score.
	LeaningSpectrum map[string]float64 `json:"leaning_spectrum"`
	// ConsensusPoints lists deduplicated cross-article agreement findings.
	ConsensusPoints []string `json:"consensus_points"`
	// ContestedPoints lists deduplicated cross-article disagreement findings.
	ContestedPoints []string `json:"contested_points"`
	// OverallSummary describes the leaning spread across the whole set.
	OverallSummary string `json:"overall_summary"`
}
