package models

// Confidence levels derived from the overall score.
const (
	ConfidenceLevelHigh   = "high"
	ConfidenceLevelMedium = "medium"
	ConfidenceLevelLow    = "low"
)

// Level thresholds. Overall >= high is high, >= medium is medium,
// anything below is low.
const (
	ConfidenceThresholdHigh   = 0.8
	ConfidenceThresholdMedium = 0.5
)

// SubScore is one named component of a confidence score. A nil SubScore
// pointer on ConfidenceScore means the component was inapplicable and its
// weight was redistributed, not that it scored zero.
type SubScore struct {
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"`
}

// ConfidenceScore is the weighted multi-factor score over one iteration's
// entities, relationships, filters, and paths.
type ConfidenceScore struct {
	Overall float64 `json:"overall"`
	Level   string  `json:"level"`

	EntityRelevance     *SubScore `json:"entity_relevance,omitempty"`
	EntityCompleteness  *SubScore `json:"entity_completeness,omitempty"`
	RelationshipClarity *SubScore `json:"relationship_clarity,omitempty"`
	FilterQuality       *SubScore `json:"filter_quality,omitempty"`
	PathQuality         *SubScore `json:"path_quality,omitempty"`
}

// LevelForScore buckets an overall score into a confidence level.
func LevelForScore(overall float64) string {
	switch {
	case overall >= ConfidenceThresholdHigh:
		return ConfidenceLevelHigh
	case overall >= ConfidenceThresholdMedium:
		return ConfidenceLevelMedium
	default:
		return ConfidenceLevelLow
	}
}
