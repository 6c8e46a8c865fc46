package models

// ScoredRelationship is a relationship annotated by the discoverer.
// Induced edges (both endpoints implied by entities) score 1.0; expansion
// edges (exactly one endpoint implied) are demoted, since the navigator
// may need them to bridge required tables but they were not asked for.
type ScoredRelationship struct {
	Relationship
	Score   float64 `json:"score"`
	Induced bool    `json:"induced"`
}

// NavigationPath is a minimal join path over one connected component of
// the required tables: the tables visited in order and the relationships
// used to connect them.
type NavigationPath struct {
	Tables        []string       `json:"tables"`
	Relationships []Relationship `json:"relationships"`
	HopCount      int            `json:"hop_count"`
}

// NavigationResult is the navigator's full answer: one path per connected
// component plus the required-table pairs that could not be connected.
// Disconnected pairs are reported, never silently omitted.
type NavigationResult struct {
	Paths        []NavigationPath `json:"paths"`
	Disconnected []TablePair      `json:"disconnected,omitempty"`
}

// TablePair names two required tables with no join path between them.
type TablePair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// TotalHops sums hop counts across all paths.
func (n NavigationResult) TotalHops() int {
	total := 0
	for _, p := range n.Paths {
		total += p.HopCount
	}
	return total
}

// FullyConnected reports whether every required-table pair was joined.
func (n NavigationResult) FullyConnected() bool {
	return len(n.Disconnected) == 0
}
