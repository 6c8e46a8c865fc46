// Package nlu defines the natural-language-understanding collaborator
// contract. Its output is a hint, never ground truth: the orchestrator
// validates every schema reference before anything from here reaches a
// plan.
package nlu

import "context"

// TemporalHint is the NLU service's proposed temporal scope.
type TemporalHint struct {
	// Start/End are ISO dates for an explicit range.
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	// RelativePeriod is a normalized relative description ("last_quarter").
	RelativePeriod string `json:"relative_period,omitempty"`
	// Phrase is the query fragment the hint came from.
	Phrase string `json:"phrase,omitempty"`
	// Confidence is the service's own score for this hint.
	Confidence float64 `json:"confidence,omitempty"`
}

// FilterHint is a candidate filter phrase proposed by the NLU service.
// Column is a suggestion only; it may reference schema elements that do
// not exist and must be independently verified.
type FilterHint struct {
	Column     string   `json:"column,omitempty"`
	Operator   string   `json:"operator,omitempty"`
	Values     []string `json:"values,omitempty"`
	Phrase     string   `json:"phrase,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
}

// RankingHint carries order/limit requests ("top 5 ... by AUM").
type RankingHint struct {
	Term       string `json:"term,omitempty"`
	Descending bool   `json:"descending,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// Hints is the full untrusted NLU output for one query.
type Hints struct {
	AggregationIntents []string      `json:"aggregation_intents,omitempty"`
	Temporal           *TemporalHint `json:"temporal_hint,omitempty"`
	CandidateFilters   []FilterHint  `json:"candidate_filters,omitempty"`
	Ranking            *RankingHint  `json:"ranking_hint,omitempty"`
	Reasoning          string        `json:"free_text_reasoning,omitempty"`
}

// Extractor is the NLU service contract: structured hints for a query
// given a summary of the target schema.
type Extractor interface {
	Extract(ctx context.Context, text string, schemaSummary string) (*Hints, error)
}

var (
	_ Extractor = (*LLMExtractor)(nil)
	_ Extractor = (*Mock)(nil)
)
