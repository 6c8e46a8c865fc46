package matcher

import (
	"context"
	"testing"
)

func testCatalog() Catalog {
	return Catalog{
		ID: "schema",
		Entries: []Entry{
			{ID: "table|funds", Text: "funds investment funds under management"},
			{ID: "column|funds|aum", Text: "aum assets under management"},
			{ID: "column|funds|fund_type_id", Text: "fund_type_id"},
			{ID: "value|fund_types|label|Equity", Text: "Equity"},
		},
	}
}

func TestLexicalExactMatch(t *testing.T) {
	m := NewLexicalMatcher()

	got, err := m.Search(context.Background(), "equity", testCatalog(), 0.5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1: %v", len(got), got)
	}
	if got[0].ID != "value|fund_types|label|Equity" || got[0].Score != 1.0 {
		t.Errorf("candidate = %+v", got[0])
	}
}

func TestLexicalPartialOverlap(t *testing.T) {
	m := NewLexicalMatcher()

	got, err := m.Search(context.Background(), "aum", testCatalog(), 0.5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1: %v", len(got), got)
	}
	// One shared token out of four entry tokens: overlap 1.0, Jaccard
	// 1/4, mean 0.625.
	if got[0].ID != "column|funds|aum" || got[0].Score != 0.625 {
		t.Errorf("candidate = %+v", got[0])
	}
}

func TestLexicalOrdering(t *testing.T) {
	m := NewLexicalMatcher()
	catalog := Catalog{
		ID: "schema",
		Entries: []Entry{
			{ID: "b", Text: "trade settlement"},
			{ID: "a", Text: "trade settlement"},
			{ID: "c", Text: "trade"},
		},
	}

	got, err := m.Search(context.Background(), "trade", catalog, 0.1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}
	// Exact match first, then equal scores break ties by ID.
	if got[0].ID != "c" || got[1].ID != "a" || got[2].ID != "b" {
		t.Errorf("order = [%s %s %s]", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestLexicalMinScoreCutoff(t *testing.T) {
	m := NewLexicalMatcher()

	got, err := m.Search(context.Background(), "aum", testCatalog(), 0.7)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d candidates above 0.7, want 0: %v", len(got), got)
	}
}

func TestLexicalNoTokens(t *testing.T) {
	m := NewLexicalMatcher()

	got, err := m.Search(context.Background(), "!!!", testCatalog(), 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for a tokenless query, got %v", got)
	}
}

func TestLexicalSnakeCaseTokens(t *testing.T) {
	m := NewLexicalMatcher()

	got, err := m.Search(context.Background(), "fund type", testCatalog(), 0.5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "column|funds|fund_type_id" {
		t.Fatalf("candidates = %v", got)
	}
	// Tokens {fund, type} against {fund, type, id}: overlap 1.0, Jaccard
	// 2/3.
	want := (1.0 + 2.0/3.0) / 2
	if got[0].Score != want {
		t.Errorf("score = %v, want %v", got[0].Score, want)
	}
}
