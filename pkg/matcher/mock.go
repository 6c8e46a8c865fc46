package matcher

import "context"

// Mock is a configurable matcher for tests. Set SearchFunc to control
// behavior; if nil, Search returns no candidates.
type Mock struct {
	SearchFunc func(ctx context.Context, text string, catalog Catalog, minScore float64) ([]Candidate, error)

	SearchCalls int
}

// Search implements Matcher.
func (m *Mock) Search(ctx context.Context, text string, catalog Catalog, minScore float64) ([]Candidate, error) {
	m.SearchCalls++
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, text, catalog, minScore)
	}
	return nil, nil
}
