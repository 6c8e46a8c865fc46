package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Cardinality values for table relationships.
const (
	Cardinality1To1    = "1:1"
	Cardinality1ToN    = "1:N"
	CardinalityNTo1    = "N:1"
	CardinalityNToM    = "N:M"
	CardinalityUnknown = "unknown"
)

// TableInfo describes a table in the caller-supplied schema catalog.
// Columns are kept in schema-declared order; that order is the
// tie-breaker for all deterministic traversals downstream.
type TableInfo struct {
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Columns     []ColumnInfo `json:"columns" yaml:"columns"`
}

// ColumnInfo describes a column in the schema catalog.
type ColumnInfo struct {
	Name        string `json:"name" yaml:"name"`
	DataType    string `json:"data_type" yaml:"data_type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	IsPrimary   bool   `json:"is_primary,omitempty" yaml:"is_primary,omitempty"`
	IsTemporal  bool   `json:"is_temporal,omitempty" yaml:"is_temporal,omitempty"`
	IsMetric    bool   `json:"is_metric,omitempty" yaml:"is_metric,omitempty"`
}

// Relationship is a foreign-key-like edge between two tables.
// Sourced statically from schema metadata; read-only at analysis time.
type Relationship struct {
	SourceTable  string `json:"source_table" yaml:"source_table"`
	SourceColumn string `json:"source_column" yaml:"source_column"`
	TargetTable  string `json:"target_table" yaml:"target_table"`
	TargetColumn string `json:"target_column" yaml:"target_column"`
	Cardinality  string `json:"cardinality,omitempty" yaml:"cardinality,omitempty"`
}

// Key returns a stable identifier for the relationship, used for
// deduplication when per-pair paths are merged.
func (r Relationship) Key() string {
	return fmt.Sprintf("%s.%s->%s.%s", r.SourceTable, r.SourceColumn, r.TargetTable, r.TargetColumn)
}

// DomainValueEntry is a stored data value (e.g. a fund-type label) tied to
// the column it lives in. Domain-value catalogs are matched per column.
type DomainValueEntry struct {
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column" yaml:"column"`
	Value  string `json:"value" yaml:"value"`
}

// BusinessContextEntry is a free-form business description attached to a
// schema element, matched against query text for context snippets and for
// temporal column selection.
type BusinessContextEntry struct {
	Table       string `json:"table" yaml:"table"`
	Column      string `json:"column,omitempty" yaml:"column,omitempty"`
	Description string `json:"description" yaml:"description"`
}

// SchemaContext is the static catalog an analysis request runs against:
// tables, columns, relationships, domain values, and business context.
// It is supplied by the caller, never mutated by the core, and safe to
// share across concurrent requests.
type SchemaContext struct {
	Tables          []TableInfo            `json:"tables" yaml:"tables"`
	Relationships   []Relationship         `json:"relationships" yaml:"relationships"`
	DomainValues    []DomainValueEntry     `json:"domain_values,omitempty" yaml:"domain_values,omitempty"`
	BusinessContext []BusinessContextEntry `json:"business_context,omitempty" yaml:"business_context,omitempty"`
}

// Table returns the table with the given name, or nil.
func (s *SchemaContext) Table(name string) *TableInfo {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// Column returns the column on the named table, or nil.
func (s *SchemaContext) Column(table, column string) *ColumnInfo {
	t := s.Table(table)
	if t == nil {
		return nil
	}
	for i := range t.Columns {
		if t.Columns[i].Name == column {
			return &t.Columns[i]
		}
	}
	return nil
}

// Validate checks structural integrity: every relationship endpoint must
// reference a declared table and column. A malformed catalog aborts the
// request immediately rather than producing a degraded analysis.
func (s *SchemaContext) Validate() error {
	if len(s.Tables) == 0 {
		return fmt.Errorf("schema context has no tables")
	}
	seen := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		if t.Name == "" {
			return fmt.Errorf("schema context contains a table with no name")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate table %q in schema context", t.Name)
		}
		seen[t.Name] = true
	}
	for _, r := range s.Relationships {
		if s.Column(r.SourceTable, r.SourceColumn) == nil {
			return fmt.Errorf("relationship %s references unknown column %s.%s",
				r.Key(), r.SourceTable, r.SourceColumn)
		}
		if s.Column(r.TargetTable, r.TargetColumn) == nil {
			return fmt.Errorf("relationship %s references unknown column %s.%s",
				r.Key(), r.TargetTable, r.TargetColumn)
		}
	}
	return nil
}

// LoadSchemaContext reads a schema context from a YAML file.
// Used by deployments that describe their reporting schema statically
// instead of pointing reportsmith at a live database.
func LoadSchemaContext(path string) (*SchemaContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema context: %w", err)
	}
	var sc SchemaContext
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse schema context: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema context: %w", err)
	}
	return &sc, nil
}

// ReverseCardinality returns the cardinality for the reverse direction of
// a relationship. N:1 becomes 1:N and vice versa; symmetric cardinalities
// are unchanged.
func ReverseCardinality(cardinality string) string {
	switch cardinality {
	case CardinalityNTo1:
		return Cardinality1ToN
	case Cardinality1ToN:
		return CardinalityNTo1
	default:
		return cardinality
	}
}
