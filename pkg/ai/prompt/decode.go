package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/evanblasband/spectrum/pkg/spectrum"
)

type leaningPayload struct {
	Score         float64  `json:"score"`
	Confidence    float64  `json:"confidence"`
	Reasoning     string   `json:"reasoning"`
	EconomicScore *float64 `json:"economic_score"`
	SocialScore   *float64 `json:"social_score"`
}

// DecodeLeaning parses one leaning classification payload. Scores outside
// the documented ranges are clamped rather than rejected; model output is
// advisory and a mild overshoot should not fail an analysis.
func DecodeLeaning(raw string) (spectrum.Leaning, error) {
	var payload leaningPayload
	if err := unmarshalPayload(raw, &payload); err != nil {
		return spectrum.Leaning{}, fmt.Errorf("decode leaning payload: %w", err)
	}

	leaning := spectrum.Leaning{
		Score:      clamp(payload.Score, -1, 1),
		Confidence: clamp(payload.Confidence, 0, 1),
		Reasoning:  strings.TrimSpace(payload.Reasoning),
	}
	if payload.EconomicScore != nil {
		clamped := clamp(*payload.EconomicScore, -1, 1)
		leaning.EconomicScore = &clamped
	}
	if payload.SocialScore != nil {
		clamped := clamp(*payload.SocialScore, -1, 1)
		leaning.SocialScore = &clamped
	}

	return leaning, nil
}

type topicsPayload struct {
	PrimaryTopic    string   `json:"primary_topic"`
	SecondaryTopics []string `json:"secondary_topics"`
	Keywords        []string `json:"keywords"`
	Entities        []string `json:"entities"`
}

// DecodeTopics parses one topic extraction payload.
func DecodeTopics(raw string) (spectrum.Topics, error) {
	var payload topicsPayload
	if err := unmarshalPayload(raw, &payload); err != nil {
		return spectrum.Topics{}, fmt.Errorf("decode topics payload: %w", err)
	}
	if strings.TrimSpace(payload.PrimaryTopic) == "" {
		return spectrum.Topics{}, fmt.Errorf("decode topics payload: missing primary topic")
	}

	keywords := payload.Keywords
	if len(keywords) > 10 {
		keywords = keywords[:10]
	}

	return spectrum.Topics{
		Primary:   strings.TrimSpace(payload.PrimaryTopic),
		Secondary: trimAll(payload.SecondaryTopics),
		Keywords:  trimAll(keywords),
		Entities:  trimAll(payload.Entities),
	}, nil
}

type pointsPayload struct {
	Points []pointPayload `json:"points"`
}

type pointPayload struct {
	ID              string `json:"id"`
	Statement       string `json:"statement"`
	SupportingQuote string `json:"supporting_quote"`
	Sentiment       string `json:"sentiment"`
}

// DecodePoints parses one key point extraction payload. Entries without a
// statement are dropped; missing ids and sentiments get defaults.
func DecodePoints(raw string, maxPoints int) ([]spectrum.ArticlePoint, error) {
	var payload pointsPayload
	if err := unmarshalPayload(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode points payload: %w", err)
	}
	if maxPoints <= 0 {
		maxPoints = spectrum.DefaultMaxPoints
	}

	points := make([]spectrum.ArticlePoint, 0, len(payload.Points))
	for index, decoded := range payload.Points {
		statement := strings.TrimSpace(decoded.Statement)
		if statement == "" {
			continue
		}

		point := spectrum.ArticlePoint{
			ID:              strings.TrimSpace(decoded.ID),
			Statement:       statement,
			SupportingQuote: strings.TrimSpace(decoded.SupportingQuote),
			Sentiment:       spectrum.Sentiment(strings.ToLower(strings.TrimSpace(decoded.Sentiment))),
		}
		if point.ID == "" {
			point.ID = fmt.Sprintf("p%d", index+1)
		}
		if point.Sentiment.Validate() != nil {
			point.Sentiment = spectrum.SentimentNeutral
		}

		points = append(points, point)
		if len(points) == maxPoints {
			break
		}
	}

	return points, nil
}

type matchPayload struct {
	SameStory           bool                  `json:"same_story"`
	SameStoryConfidence float64               `json:"same_story_confidence"`
	Relationships       []relationshipPayload `json:"relationships"`
}

type relationshipPayload struct {
	PointAID     string `json:"point_a_id"`
	PointBID     string `json:"point_b_id"`
	Relationship string `json:"relationship"`
	Explanation  string `json:"explanation"`
}

// DecodeMatch parses one point matching payload. Relationships are passed
// through unvalidated; the comparator owns id validation.
func DecodeMatch(raw string) (spectrum.MatchResult, error) {
	var payload matchPayload
	if err := unmarshalPayload(raw, &payload); err != nil {
		return spectrum.MatchResult{}, fmt.Errorf("decode match payload: %w", err)
	}

	relationships := make([]spectrum.RawRelationship, 0, len(payload.Relationships))
	for _, decoded := range payload.Relationships {
		relationships = append(relationships, spectrum.RawRelationship{
			PointAID:    strings.TrimSpace(decoded.PointAID),
			PointBID:    strings.TrimSpace(decoded.PointBID),
			Kind:        spectrum.RelationshipKind(strings.ToLower(strings.TrimSpace(decoded.Relationship))),
			Explanation: strings.TrimSpace(decoded.Explanation),
		})
	}

	return spectrum.MatchResult{
		SameStory:           payload.SameStory,
		SameStoryConfidence: clamp(payload.SameStoryConfidence, 0, 1),
		Relationships:       relationships,
	}, nil
}

// StripFences removes one surrounding markdown code fence when a model wraps
// its JSON despite instructions.
func StripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")

	return strings.TrimSpace(trimmed)
}

func unmarshalPayload(raw string, target any) error {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return fmt.Errorf("empty payload")
	}

	return json.Unmarshal([]byte(cleaned), target)
}

func trimAll(values []string) []string {
	trimmed := make([]string, 0, len(values))
	for _, value := range values {
		if cleaned := strings.TrimSpace(value); cleaned != "" {
			trimmed = append(trimmed, cleaned)
		}
	}

	return trimmed
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}

	return value
}
