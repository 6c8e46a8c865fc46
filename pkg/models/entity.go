package models

// Entity categories.
const (
	EntityCategoryTable       = "table"
	EntityCategoryColumn      = "column"
	EntityCategoryDomainValue = "domain_value"
	EntityCategoryMetric      = "metric"
)

// Entity is a schema element or domain value resolved from query text.
// Entities are immutable within one analysis iteration; refinement
// supersedes them with new instances rather than mutating in place.
type Entity struct {
	// Span is the query fragment this entity was resolved from.
	Span string `json:"span"`
	// Table is the resolved table name (always set).
	Table string `json:"table"`
	// Column is set for column, metric, and domain_value entities.
	Column string `json:"column,omitempty"`
	// Value is set for domain_value entities: the stored data value matched.
	Value string `json:"value,omitempty"`
	// Category is one of the EntityCategory constants.
	Category string `json:"category"`
	// Relevance is the semantic match score in [0,1].
	Relevance float64 `json:"relevance"`
	// Pinned marks an entity carried over from a prior iteration because
	// its score cleared the pinning bar; pinned entities are not re-matched
	// during refinement.
	Pinned bool `json:"pinned,omitempty"`
}

// Ref returns the schema reference in table or table.column form.
func (e Entity) Ref() string {
	if e.Column == "" {
		return e.Table
	}
	return e.Table + "." + e.Column
}
