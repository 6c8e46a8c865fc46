package nlu

import "context"

// Mock is a configurable extractor for tests. If ExtractFunc is nil,
// Extract returns empty hints.
type Mock struct {
	ExtractFunc func(ctx context.Context, text string, schemaSummary string) (*Hints, error)

	ExtractCalls int
}

// Extract implements Extractor.
func (m *Mock) Extract(ctx context.Context, text string, schemaSummary string) (*Hints, error) {
	m.ExtractCalls++
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, text, schemaSummary)
	}
	return &Hints{}, nil
}
