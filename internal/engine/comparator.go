package engine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/evanblasband/spectrum/pkg/spectrum"
)

// Leaning difference buckets shared by pair summaries and the aggregate
// summary.
const (
	similarSpreadThreshold  = 0.3
	moderateSpreadThreshold = 0.6

	labelSimilar           = "similar"
	labelModerateSpread    = "moderate spread"
	labelSignificantSpread = "significant spread"
)

// ComparePair compares two analyzed articles.
//
// Topic overlap and leaning distance are computed locally; point matching
// and the same-story verdict are delegated to the provider as one advisory
// call. A failed or nonsensical advisory result degrades to an empty
// relationship list and a low-confidence "not the same story" verdict rather
// than failing the comparison.
//
// The result is symmetric up to the A/B label swap: swapping the arguments
// swaps the unique topic sets and each relationship's point ordering while
// leaving shared topics and the leaning difference unchanged.
func (e *Engine) ComparePair(ctx context.Context, a, b spectrum.ArticleAnalysis) spectrum.PairwiseComparison {
	setA := a.Topics.NormalizedSet()
	setB := b.Topics.NormalizedSet()

	difference := math.Abs(a.Leaning.Score - b.Leaning.Score)

	comparison := spectrum.PairwiseComparison{
		ArticleAID:        a.ArticleID,
		ArticleBID:        b.ArticleID,
		LeaningDifference: difference,
		LeaningSummary:    spreadLabel(difference),
		SharedTopics:      sortedIntersection(setA, setB),
		UniqueTopicsA:     sortedDifference(setA, setB),
		UniqueTopicsB:     sortedDifference(setB, setA),
		Agreements:        []spectrum.PointRelationship{},
		Disagreements:     []spectrum.PointRelationship{},
	}

	if len(a.Points) == 0 || len(b.Points) == 0 {
		return comparison
	}

	match, err := e.provider.MatchPoints(ctx, spectrum.MatchRequest{
		PointsA:  a.Points,
		PointsB:  b.Points,
		ContextA: fmt.Sprintf("%s (%s)", a.Title, a.SourceName),
		ContextB: fmt.Sprintf("%s (%s)", b.Title, b.SourceName),
	})
	if err != nil {
		// Point matching is an enhancement; topic and leaning comparison
		// carry the pair on their own.
		e.logger.WarnContext(ctx,
			"point matching failed, continuing without relationships",
			"article_a", a.ArticleID,
			"article_b", b.ArticleID,
			"error", err,
		)
		return comparison
	}

	comparison.SameStory = match.SameStory
	comparison.SameStoryConfidence = match.SameStoryConfidence

	for _, raw := range match.Relationships {
		relationship, valid := resolveRelationship(a, b, raw)
		if !valid {
			e.logger.DebugContext(ctx,
				"dropping unresolvable relationship",
				"point_a_id", raw.PointAID,
				"point_b_id", raw.PointBID,
				"relationship", raw.Kind,
			)
			continue
		}

		switch relationship.Kind {
		case spectrum.RelationshipAgrees:
			comparison.Agreements = append(comparison.Agreements, relationship)
		case spectrum.RelationshipDisagrees:
			comparison.Disagreements = append(comparison.Disagreements, relationship)
		}
	}

	return comparison
}

// resolveRelationship validates one advisory relationship against the two
// articles' own points. Provider output is advisory, not authoritative:
// anything referencing unknown point ids or an unknown kind is dropped.
func resolveRelationship(a, b spectrum.ArticleAnalysis, raw spectrum.RawRelationship) (spectrum.PointRelationship, bool) {
	if raw.Kind.Validate() != nil {
		return spectrum.PointRelationship{}, false
	}

	pointA, okA := a.PointByID(raw.PointAID)
	pointB, okB := b.PointByID(raw.PointBID)
	if !okA || !okB {
		return spectrum.PointRelationship{}, false
	}

	return spectrum.PointRelationship{
		PointA:      pointA,
		PointB:      pointB,
		ArticleAID:  a.ArticleID,
		ArticleBID:  b.ArticleID,
		Kind:        raw.Kind,
		Explanation: raw.Explanation,
	}, true
}

func spreadLabel(spread float64) string {
	switch {
	case spread < similarSpreadThreshold:
		return labelSimilar
	case spread < moderateSpreadThreshold:
		return labelModerateSpread
	default:
		return labelSignificantSpread
	}
}

func sortedIntersection(setA, setB map[string]struct{}) []string {
	intersection := make([]string, 0)
	for topic := range setA {
		if _, shared := setB[topic]; shared {
			intersection = append(intersection, topic)
		}
	}
	sort.Strings(intersection)

	return intersection
}

func sortedDifference(setA, setB map[string]struct{}) []string {
	difference := make([]string, 0)
	for topic := range setA {
		if _, shared := setB[topic]; !shared {
			difference = append(difference, topic)
		}
	}
	sort.Strings(difference)

	return difference
}
