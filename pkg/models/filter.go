package models

// Filter operators.
const (
	FilterOpEquals   = "equals"
	FilterOpRange    = "range"
	FilterOpInList   = "in_list"
	FilterOpTemporal = "temporal"
	FilterOpPattern  = "pattern"
)

// Filter origins.
const (
	FilterOriginDomainValue  = "domain_value_match"
	FilterOriginTemporalHint = "temporal_hint"
	FilterOriginNLUHint      = "nlu_hint"
)

// Filter is a candidate WHERE condition derived from domain values,
// temporal scope, or NLU hints.
type Filter struct {
	Table      string   `json:"table"`
	Column     string   `json:"column"`
	Operator   string   `json:"operator"`
	Values     []string `json:"values"`
	Confidence float64  `json:"confidence"`
	Origin     string   `json:"origin"`
}

// ColumnRef returns the filter's target column as table.column.
func (f Filter) ColumnRef() string {
	return f.Table + "." + f.Column
}
