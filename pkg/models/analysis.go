package models

import (
	"time"

	"github.com/google/uuid"
)

// QueryAnalysisResult is one iteration's complete, immutable snapshot of
// the analysis pipeline. The refinement loop retains every iteration for
// the audit trail; only the last (or best, on exhaustion) is authoritative.
type QueryAnalysisResult struct {
	ID        uuid.UUID `json:"id"`
	Iteration int       `json:"iteration"`
	Query     string    `json:"query"`

	Entities      []Entity             `json:"entities"`
	Relationships []ScoredRelationship `json:"relationships"`
	Context       ContextInfo          `json:"context"`
	Filters       []Filter             `json:"filters"`
	Navigation    NavigationResult     `json:"navigation"`
	Confidence    ConfidenceScore      `json:"confidence"`

	// Suggestions are human-readable refinement hints: broad-query
	// warnings, unresolved terms, disconnected table pairs.
	Suggestions []string `json:"suggestions,omitempty"`

	// TermCount and ResolvedTerms feed the entity-completeness sub-score.
	TermCount     int `json:"term_count"`
	ResolvedTerms int `json:"resolved_terms"`

	CreatedAt time.Time `json:"created_at"`
}

// RequiredTables returns the distinct tables carrying at least one
// entity, in first-seen order.
func (r *QueryAnalysisResult) RequiredTables() []string {
	seen := make(map[string]bool)
	var tables []string
	for _, e := range r.Entities {
		if !seen[e.Table] {
			seen[e.Table] = true
			tables = append(tables, e.Table)
		}
	}
	return tables
}

// HasEntityFor reports whether some entity of this iteration resolves the
// given table (and column, when non-empty). The plan builder uses this to
// refuse references that were never identified.
func (r *QueryAnalysisResult) HasEntityFor(table, column string) bool {
	for _, e := range r.Entities {
		if e.Table != table {
			continue
		}
		if column == "" || e.Column == column {
			return true
		}
	}
	return false
}
