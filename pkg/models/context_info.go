package models

// Aggregation intents in the order the extractor emits them.
const (
	AggregationSum     = "sum"
	AggregationAvg     = "avg"
	AggregationCount   = "count"
	AggregationMin     = "min"
	AggregationMax     = "max"
	AggregationGroupBy = "group_by"
)

// TemporalScope is the canonical form of a temporal phrase: either an
// explicit inclusive start/end range or a relative period description.
type TemporalScope struct {
	// Start and End are inclusive ISO dates when the scope is explicit.
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	// RelativePeriod holds a normalized relative description such as
	// "last_quarter" or "ytd" when no explicit range was given.
	RelativePeriod string `json:"relative_period,omitempty"`
	// Phrase is the original query fragment the scope was derived from.
	Phrase string `json:"phrase,omitempty"`
}

// IsExplicit reports whether the scope carries an explicit start/end range.
func (t TemporalScope) IsExplicit() bool {
	return t.Start != "" && t.End != ""
}

// IsZero reports whether no temporal scope was detected at all.
func (t TemporalScope) IsZero() bool {
	return t.Start == "" && t.End == "" && t.RelativePeriod == ""
}

// OrderHint is an ordering request taken from NLU ranking hints,
// e.g. "top 5 funds by AUM" -> {Column: aum-ish term, Descending: true}.
type OrderHint struct {
	Term       string `json:"term"`
	Descending bool   `json:"descending"`
}

// ContextInfo captures aggregation intent, temporal scope, and business
// context derived from the query and the NLU collaborator.
type ContextInfo struct {
	// Aggregations is an ordered, deduplicated set of aggregation intents.
	Aggregations []string `json:"aggregations,omitempty"`
	// Temporal is the normalized temporal scope, zero-valued when absent.
	Temporal TemporalScope `json:"temporal,omitempty"`
	// Snippets are business-context descriptions retrieved for the query.
	Snippets []string `json:"snippets,omitempty"`
	// Order and Limit are ranking hints taken verbatim from the NLU output
	// (untrusted until the plan builder verifies the referenced column).
	Order *OrderHint `json:"order,omitempty"`
	Limit int        `json:"limit,omitempty"`
}

// HasAggregation reports whether any aggregation intent was detected.
func (c ContextInfo) HasAggregation() bool {
	return len(c.Aggregations) > 0
}
