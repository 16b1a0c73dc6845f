package engine

import (
	"fmt"
	"strings"

	"github.com/evanblasband/spectrum/pkg/spectrum"
)

// maxAggregatedPoints caps how many consensus and contested findings one
// response carries; beyond a handful they stop being readable.
const maxAggregatedPoints = 5

// aggregate folds N analyses and their pairwise comparisons into one
// response. It tolerates fewer than two articles, returning an otherwise
// empty comparison, and makes no assumption about article ordering beyond
// preserving it.
func aggregate(analyses []spectrum.ArticleAnalysis, pairs []spectrum.PairwiseComparison) spectrum.MultiArticleComparison {
	spectrumMap := make(map[string]float64, len(analyses))
	for _, analysis := range analyses {
		spectrumMap[analysis.ArticleID] = analysis.Leaning.Score
	}

	consensus := make([]string, 0)
	contested := make([]string, 0)
	seenConsensus := make(map[string]struct{})
	seenContested := make(map[string]struct{})
	for _, pair := range pairs {
		for _, agreement := range pair.Agreements {
			appendDeduped(&consensus, seenConsensus, agreement.Explanation)
		}
		for _, disagreement := range pair.Disagreements {
			appendDeduped(&contested, seenContested, disagreement.Explanation)
		}
	}
	if len(consensus) > maxAggregatedPoints {
		consensus = consensus[:maxAggregatedPoints]
	}
	if len(contested) > maxAggregatedPoints {
		contested = contested[:maxAggregatedPoints]
	}

	return spectrum.MultiArticleComparison{
		Articles:            analyses,
		PairwiseComparisons: pairs,
		LeaningSpectrum:     spectrumMap,
		ConsensusPoints:     consensus,
		ContestedPoints:     contested,
		OverallSummary:      overallSummary(analyses),
	}
}

// overallSummary describes the leaning spread of the whole set using the
// same buckets as pairwise summaries.
func overallSummary(analyses []spectrum.ArticleAnalysis) string {
	if len(analyses) == 0 {
		return ""
	}

	low, high := analyses[0].Leaning.Score, analyses[0].Leaning.Score
	for _, analysis := range analyses[1:] {
		if analysis.Leaning.Score < low {
			low = analysis.Leaning.Score
		}
		if analysis.Leaning.Score > high {
			high = analysis.Leaning.Score
		}
	}
	spread := high - low

	return fmt.Sprintf(
		"Across %d articles the political leaning spread is %.2f (%s).",
		len(analyses),
		spread,
		spreadLabel(spread),
	)
}

// appendDeduped adds one finding unless a case- and space-insensitive
// duplicate was already collected. Empty findings are dropped.
func appendDeduped(findings *[]string, seen map[string]struct{}, finding string) {
	trimmed := strings.TrimSpace(finding)
	if trimmed == "" {
		return
	}

	normalized := strings.ToLower(strings.Join(strings.Fields(trimmed), " "))
	if _, duplicate := seen[normalized]; duplicate {
		return
	}
	seen[normalized] = struct{}{}
	*findings = append(*findings, trimmed)
}
