// Package matcher provides the semantic matching capability: given free
// text and a catalog of candidates, return ranked matches with similarity
// scores in [0,1]. Implementations are a dependency-injection point; the
// orchestrator is polymorphic over anything satisfying Matcher.
package matcher

import "context"

// Entry is one candidate in a catalog: a stable identifier plus the text
// it is matched against.
type Entry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Catalog is a named set of candidates. The ID lets implementations cache
// derived state (e.g. embeddings) across searches.
type Catalog struct {
	ID      string  `json:"id"`
	Entries []Entry `json:"entries"`
}

// Candidate is one ranked match.
type Candidate struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Matcher searches a catalog for candidates matching the given text.
// Results are ordered by score descending (ties broken by ID ascending for
// reproducibility) and include every candidate at or above minScore with
// no implicit cap.
type Matcher interface {
	Search(ctx context.Context, text string, catalog Catalog, minScore float64) ([]Candidate, error)
}

var (
	_ Matcher = (*EmbeddingMatcher)(nil)
	_ Matcher = (*LexicalMatcher)(nil)
	_ Matcher = (*Mock)(nil)
)
