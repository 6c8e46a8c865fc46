package matcher

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// LexicalMatcher ranks candidates by token overlap. It is fully
// deterministic and needs no remote service, which makes it the default
// for local deployments and the reference implementation in tests.
type LexicalMatcher struct{}

// NewLexicalMatcher creates a lexical matcher.
func NewLexicalMatcher() *LexicalMatcher {
	return &LexicalMatcher{}
}

// Search implements Matcher. The score for a candidate is 1.0 on an exact
// normalized match, otherwise the mean of the overlap coefficient and the
// Jaccard index of the token sets.
func (m *LexicalMatcher) Search(_ context.Context, text string, catalog Catalog, minScore float64) ([]Candidate, error) {
	queryTokens := tokenize(text)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	var results []Candidate
	for _, entry := range catalog.Entries {
		score := lexicalScore(queryTokens, tokenize(entry.Text))
		if score >= minScore && score > 0 {
			results = append(results, Candidate{ID: entry.ID, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

// tokenize lowercases and splits on non-alphanumerics, so snake_case,
// kebab-case, and multi-word text all produce comparable token sets.
func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range tokenSplitPattern.Split(strings.ToLower(s), -1) {
		if t != "" {
			tokens[t] = true
		}
	}
	return tokens
}

func lexicalScore(query, entry map[string]bool) float64 {
	if len(query) == 0 || len(entry) == 0 {
		return 0
	}

	intersection := 0
	for t := range query {
		if entry[t] {
			intersection++
		}
	}
	if intersection == 0 {
		return 0
	}

	if intersection == len(query) && intersection == len(entry) {
		return 1.0
	}

	smaller := len(query)
	if len(entry) < smaller {
		smaller = len(entry)
	}
	union := len(query) + len(entry) - intersection

	overlap := float64(intersection) / float64(smaller)
	jaccard := float64(intersection) / float64(union)
	return (overlap + jaccard) / 2
}
