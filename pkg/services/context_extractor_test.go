package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sundar-blr76/report-smith-sub001/pkg/matcher"
	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
	"github.com/sundar-blr76/report-smith-sub001/pkg/nlu"
)

func TestDetectAggregations(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"total aum of equity funds", []string{models.AggregationSum}},
		{"average quantity per client", []string{models.AggregationAvg, models.AggregationGroupBy}},
		{"how many funds", []string{models.AggregationCount}},
		{"list funds", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := detectAggregations(tt.query); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("detectAggregations(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestDetectTopN(t *testing.T) {
	order, limit, ok := detectTopN("top 5 funds by aum")
	if !ok || limit != 5 {
		t.Fatalf("detectTopN: ok=%v limit=%d", ok, limit)
	}
	if order == nil || order.Term != "aum" || !order.Descending {
		t.Errorf("order = %+v, want descending aum", order)
	}

	if _, _, ok := detectTopN("all funds by aum"); ok {
		t.Error("detectTopN matched a query without top N")
	}
}

func TestExtractMergesNLUHints(t *testing.T) {
	mock := &nlu.Mock{
		ExtractFunc: func(context.Context, string, string) (*nlu.Hints, error) {
			return &nlu.Hints{
				AggregationIntents: []string{"SUM", "avg", "median"},
				Temporal: &nlu.TemporalHint{
					RelativePeriod: "Last Quarter",
					Phrase:         "last quarter",
				},
			}, nil
		},
	}
	ce := NewContextExtractor(mock, matcher.NewLexicalMatcher(), testAnalysisConfig(), testLogger())

	result := ce.Extract(context.Background(), "total aum last quarter", BuildCatalogs(fundsSchema()), "")

	// Keyword-detected sum first, NLU avg appended, unknown "median" dropped.
	want := []string{models.AggregationSum, models.AggregationAvg}
	if !reflect.DeepEqual(result.Context.Aggregations, want) {
		t.Errorf("aggregations = %v, want %v", result.Context.Aggregations, want)
	}
	if result.Context.Temporal.RelativePeriod != "last_quarter" {
		t.Errorf("relative period = %q, want last_quarter", result.Context.Temporal.RelativePeriod)
	}
	if result.Context.Temporal.IsExplicit() {
		t.Error("relative scope must not be explicit")
	}
}

func TestExtractLocalTopNWinsOverNLURanking(t *testing.T) {
	mock := &nlu.Mock{
		ExtractFunc: func(context.Context, string, string) (*nlu.Hints, error) {
			return &nlu.Hints{
				Ranking: &nlu.RankingHint{Term: "quantity", Descending: false, Limit: 100},
			}, nil
		},
	}
	ce := NewContextExtractor(mock, matcher.NewLexicalMatcher(), testAnalysisConfig(), testLogger())

	result := ce.Extract(context.Background(), "top 3 funds by aum", BuildCatalogs(fundsSchema()), "")

	if result.Context.Limit != 3 {
		t.Errorf("limit = %d, want 3", result.Context.Limit)
	}
	if result.Context.Order == nil || result.Context.Order.Term != "aum" {
		t.Errorf("order = %+v, want aum from query text", result.Context.Order)
	}
}

func TestExtractNLUFailureIsSoft(t *testing.T) {
	mock := &nlu.Mock{
		ExtractFunc: func(context.Context, string, string) (*nlu.Hints, error) {
			return nil, errors.New("nlu unavailable")
		},
	}
	ce := NewContextExtractor(mock, matcher.NewLexicalMatcher(), testAnalysisConfig(), testLogger())

	result := ce.Extract(context.Background(), "total aum", BuildCatalogs(fundsSchema()), "")

	if !reflect.DeepEqual(result.Context.Aggregations, []string{models.AggregationSum}) {
		t.Errorf("keyword aggregation lost on NLU failure: %v", result.Context.Aggregations)
	}
	if result.Hints == nil || len(result.Hints.CandidateFilters) != 0 {
		t.Errorf("expected empty hints on NLU failure, got %+v", result.Hints)
	}
}

func TestExtractRetrievesBusinessContextSnippets(t *testing.T) {
	ce := NewContextExtractor(&nlu.Mock{}, matcher.NewLexicalMatcher(), testAnalysisConfig(), testLogger())

	result := ce.Extract(context.Background(), "aum figures restated", BuildCatalogs(fundsSchema()), "")

	found := false
	for _, s := range result.Context.Snippets {
		if s == "AUM figures are restated monthly" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected business context snippet, got %v", result.Context.Snippets)
	}
}
