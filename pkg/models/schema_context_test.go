package models

import (
	"strings"
	"testing"
)

func validSchema() *SchemaContext {
	return &SchemaContext{
		Tables: []TableInfo{
			{
				Name: "funds",
				Columns: []ColumnInfo{
					{Name: "id", DataType: "integer", IsPrimary: true},
					{Name: "fund_type_id", DataType: "integer"},
				},
			},
			{
				Name: "fund_types",
				Columns: []ColumnInfo{
					{Name: "id", DataType: "integer", IsPrimary: true},
				},
			},
		},
		Relationships: []Relationship{
			{SourceTable: "funds", SourceColumn: "fund_type_id", TargetTable: "fund_types", TargetColumn: "id"},
		},
	}
}

func TestValidateAcceptsWellFormedSchema(t *testing.T) {
	if err := validSchema().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SchemaContext)
		wantMsg string
	}{
		{
			name:    "no tables",
			mutate:  func(s *SchemaContext) { s.Tables = nil },
			wantMsg: "no tables",
		},
		{
			name: "unnamed table",
			mutate: func(s *SchemaContext) {
				s.Tables = append(s.Tables, TableInfo{})
			},
			wantMsg: "no name",
		},
		{
			name: "duplicate table",
			mutate: func(s *SchemaContext) {
				s.Tables = append(s.Tables, TableInfo{Name: "funds"})
			},
			wantMsg: "duplicate table",
		},
		{
			name: "relationship source column missing",
			mutate: func(s *SchemaContext) {
				s.Relationships[0].SourceColumn = "ghost"
			},
			wantMsg: "unknown column funds.ghost",
		},
		{
			name: "relationship target table missing",
			mutate: func(s *SchemaContext) {
				s.Relationships[0].TargetTable = "nowhere"
			},
			wantMsg: "unknown column nowhere.id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := validSchema()
			tt.mutate(sc)
			err := sc.Validate()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestTableAndColumnLookup(t *testing.T) {
	sc := validSchema()

	if tbl := sc.Table("funds"); tbl == nil || tbl.Name != "funds" {
		t.Errorf("Table(funds) = %+v", tbl)
	}
	if tbl := sc.Table("nope"); tbl != nil {
		t.Errorf("Table(nope) = %+v", tbl)
	}
	if col := sc.Column("funds", "fund_type_id"); col == nil || col.DataType != "integer" {
		t.Errorf("Column lookup = %+v", col)
	}
	if col := sc.Column("funds", "nope"); col != nil {
		t.Errorf("Column(funds, nope) = %+v", col)
	}
}

func TestReverseCardinality(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{CardinalityNTo1, Cardinality1ToN},
		{Cardinality1ToN, CardinalityNTo1},
		{Cardinality1To1, Cardinality1To1},
		{CardinalityNToM, CardinalityNToM},
		{CardinalityUnknown, CardinalityUnknown},
	}
	for _, tt := range tests {
		if got := ReverseCardinality(tt.in); got != tt.want {
			t.Errorf("ReverseCardinality(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestRelationshipKey(t *testing.T) {
	r := Relationship{SourceTable: "holdings", SourceColumn: "fund_id", TargetTable: "funds", TargetColumn: "id"}
	if got := r.Key(); got != "holdings.fund_id->funds.id" {
		t.Errorf("Key = %q", got)
	}
}

func TestTemporalScope(t *testing.T) {
	explicit := TemporalScope{Start: "2026-01-01", End: "2026-06-30"}
	if !explicit.IsExplicit() || explicit.IsZero() {
		t.Errorf("explicit scope misclassified: %+v", explicit)
	}

	relative := TemporalScope{RelativePeriod: "last_quarter"}
	if relative.IsExplicit() || relative.IsZero() {
		t.Errorf("relative scope misclassified: %+v", relative)
	}

	var none TemporalScope
	if !none.IsZero() || none.IsExplicit() {
		t.Errorf("zero scope misclassified: %+v", none)
	}

	halfOpen := TemporalScope{Start: "2026-01-01"}
	if halfOpen.IsExplicit() || halfOpen.IsZero() {
		t.Errorf("half-open scope misclassified: %+v", halfOpen)
	}
}
