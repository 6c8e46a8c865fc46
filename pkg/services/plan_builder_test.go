package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/sundar-blr76/report-smith-sub001/pkg/apperrors"
	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
)

// rankedFundsAnalysis is a hand-built snapshot for "top 5 equity funds by
// aum": aum metric on funds, Equity value on fund_types, a sum intent,
// and a verified single-hop navigation path.
func rankedFundsAnalysis() *models.QueryAnalysisResult {
	return &models.QueryAnalysisResult{
		ID:    uuid.New(),
		Query: "top 5 equity funds by aum",
		Entities: []models.Entity{
			{Span: "aum", Table: "funds", Column: "aum", Category: models.EntityCategoryMetric, Relevance: 0.9},
			{Span: "fund", Table: "funds", Category: models.EntityCategoryTable, Relevance: 0.8},
			{Span: "equity", Table: "fund_types", Column: "label", Value: "Equity", Category: models.EntityCategoryDomainValue, Relevance: 1.0},
		},
		Filters: []models.Filter{
			{Table: "fund_types", Column: "label", Operator: models.FilterOpEquals, Values: []string{"Equity"}, Confidence: 1.0, Origin: models.FilterOriginDomainValue},
		},
		Context: models.ContextInfo{
			Order: &models.OrderHint{Term: "aum", Descending: true},
			Limit: 5,
		},
		Navigation: models.NavigationResult{Paths: []models.NavigationPath{{
			Tables: []string{"funds", "fund_types"},
			Relationships: []models.Relationship{
				{SourceTable: "funds", SourceColumn: "fund_type_id", TargetTable: "fund_types", TargetColumn: "id"},
			},
			HopCount: 1,
		}}},
	}
}

func TestBuildRankedFundsPlan(t *testing.T) {
	pb := NewPlanBuilder(testLogger())

	plan, err := pb.Build(rankedFundsAnalysis(), fundsSchema())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	wantSQL := "SELECT funds.aum, funds.id FROM funds" +
		" JOIN fund_types ON funds.fund_type_id = fund_types.id" +
		" WHERE fund_types.label = 'Equity'" +
		" ORDER BY funds.aum DESC LIMIT 5"
	if plan.SQL != wantSQL {
		t.Errorf("SQL =\n%s\nwant\n%s", plan.SQL, wantSQL)
	}
	if plan.FromTable != "funds" {
		t.Errorf("from = %q", plan.FromTable)
	}
	if len(plan.Joins) != 1 || plan.Joins[0].RightTable != "fund_types" {
		t.Errorf("joins = %+v", plan.Joins)
	}
}

func TestBuildAggregatedPlanGetsGroupBy(t *testing.T) {
	pb := NewPlanBuilder(testLogger())

	analysis := rankedFundsAnalysis()
	analysis.Context = models.ContextInfo{
		Aggregations: []string{models.AggregationSum, models.AggregationGroupBy},
	}
	analysis.Entities = append(analysis.Entities, models.Entity{
		Span: "name", Table: "funds", Column: "name", Category: models.EntityCategoryColumn, Relevance: 0.7,
	})

	plan, err := pb.Build(analysis, fundsSchema())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !strings.Contains(plan.SQL, "SUM(funds.aum)") {
		t.Errorf("SQL missing aggregation: %s", plan.SQL)
	}
	if !strings.Contains(plan.SQL, "GROUP BY funds.id, funds.name") {
		t.Errorf("SQL missing group by: %s", plan.SQL)
	}
}

func TestBuildNoAggregationIntentNoGroupBy(t *testing.T) {
	pb := NewPlanBuilder(testLogger())

	analysis := rankedFundsAnalysis()
	analysis.Entities = append(analysis.Entities, models.Entity{
		Span: "name", Table: "funds", Column: "name", Category: models.EntityCategoryColumn, Relevance: 0.7,
	})

	plan, err := pb.Build(analysis, fundsSchema())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(plan.GroupBy) != 0 || strings.Contains(plan.SQL, "GROUP BY") {
		t.Errorf("unexpected grouping without an aggregation intent: %s", plan.SQL)
	}
}

func TestBuildRefusesUnidentifiedFilterColumn(t *testing.T) {
	pb := NewPlanBuilder(testLogger())

	analysis := rankedFundsAnalysis()
	analysis.Filters = append(analysis.Filters, models.Filter{
		Table: "funds", Column: "inception_date",
		Operator: models.FilterOpEquals, Values: []string{"2020-01-01"},
	})

	_, err := pb.Build(analysis, fundsSchema())
	var pae *apperrors.PlanAssemblyError
	if !errors.As(err, &pae) {
		t.Fatalf("expected PlanAssemblyError, got %v", err)
	}
	if !errors.Is(err, apperrors.ErrPlanAssembly) {
		t.Error("error does not unwrap to ErrPlanAssembly")
	}
	if len(pae.Offenders) != 1 || pae.Offenders[0] != "funds.inception_date" {
		t.Errorf("offenders = %v", pae.Offenders)
	}
}

func TestBuildRefusesContradictoryEqualities(t *testing.T) {
	pb := NewPlanBuilder(testLogger())

	analysis := rankedFundsAnalysis()
	analysis.Entities = append(analysis.Entities, models.Entity{
		Table: "fund_types", Column: "label", Value: "Bond", Category: models.EntityCategoryDomainValue, Relevance: 1.0,
	})
	analysis.Filters = append(analysis.Filters, models.Filter{
		Table: "fund_types", Column: "label",
		Operator: models.FilterOpEquals, Values: []string{"Bond"}, Confidence: 1.0,
	})

	_, err := pb.Build(analysis, fundsSchema())
	var pae *apperrors.PlanAssemblyError
	if !errors.As(err, &pae) {
		t.Fatalf("expected PlanAssemblyError, got %v", err)
	}
	if !strings.Contains(pae.Reason, "contradictory") {
		t.Errorf("reason = %q", pae.Reason)
	}
}

func TestBuildRefusesInjectionFlaggedValues(t *testing.T) {
	pb := NewPlanBuilder(testLogger())

	analysis := rankedFundsAnalysis()
	analysis.Filters[0].Values = []string{"Equity' OR '1'='1"}

	_, err := pb.Build(analysis, fundsSchema())
	var pae *apperrors.PlanAssemblyError
	if !errors.As(err, &pae) {
		t.Fatalf("expected PlanAssemblyError, got %v", err)
	}
	if !strings.Contains(pae.Reason, "injection") {
		t.Errorf("reason = %q", pae.Reason)
	}
}

func TestBuildDropsUnverifiableOrderHint(t *testing.T) {
	pb := NewPlanBuilder(testLogger())

	analysis := rankedFundsAnalysis()
	analysis.Context.Order = &models.OrderHint{Term: "sharpe ratio", Descending: true}

	plan, err := pb.Build(analysis, fundsSchema())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(plan.OrderBy) != 0 {
		t.Errorf("unverifiable order hint was kept: %+v", plan.OrderBy)
	}
}

func TestBuildNothingToSelect(t *testing.T) {
	pb := NewPlanBuilder(testLogger())

	analysis := &models.QueryAnalysisResult{
		ID:    uuid.New(),
		Query: "equity",
		Entities: []models.Entity{
			{Table: "fund_types", Column: "label", Value: "Equity", Category: models.EntityCategoryDomainValue, Relevance: 1.0},
		},
	}

	plan, err := pb.Build(analysis, fundsSchema())
	// A lone domain value still names its column; nothing to select only
	// happens when no entity carries a table the schema knows.
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if plan.FromTable != "fund_types" {
		t.Errorf("from = %q", plan.FromTable)
	}
}

func TestBuildNoTables(t *testing.T) {
	pb := NewPlanBuilder(testLogger())

	_, err := pb.Build(&models.QueryAnalysisResult{ID: uuid.New()}, fundsSchema())
	if !errors.Is(err, apperrors.ErrPlanAssembly) {
		t.Fatalf("expected ErrPlanAssembly, got %v", err)
	}
}

func TestRenderFilterOperators(t *testing.T) {
	tests := []struct {
		name   string
		filter models.Filter
		want   string
	}{
		{
			name:   "equals string",
			filter: models.Filter{Table: "t", Column: "c", Operator: models.FilterOpEquals, Values: []string{"x"}},
			want:   "t.c = 'x'",
		},
		{
			name:   "equals numeric unquoted",
			filter: models.Filter{Table: "t", Column: "c", Operator: models.FilterOpEquals, Values: []string{"42"}},
			want:   "t.c = 42",
		},
		{
			name:   "in list",
			filter: models.Filter{Table: "t", Column: "c", Operator: models.FilterOpInList, Values: []string{"a", "b"}},
			want:   "t.c IN ('a', 'b')",
		},
		{
			name:   "temporal between",
			filter: models.Filter{Table: "t", Column: "c", Operator: models.FilterOpTemporal, Values: []string{"2026-01-01", "2026-03-31"}},
			want:   "t.c BETWEEN '2026-01-01' AND '2026-03-31'",
		},
		{
			name:   "pattern",
			filter: models.Filter{Table: "t", Column: "c", Operator: models.FilterOpPattern, Values: []string{"Growth"}},
			want:   "t.c LIKE '%Growth%'",
		},
		{
			name:   "quote doubling",
			filter: models.Filter{Table: "t", Column: "c", Operator: models.FilterOpEquals, Values: []string{"O'Brien"}},
			want:   "t.c = 'O''Brien'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renderFilter(tt.filter)
			if err != nil {
				t.Fatalf("renderFilter: %v", err)
			}
			if got != tt.want {
				t.Errorf("renderFilter = %q, want %q", got, tt.want)
			}
		})
	}
}
