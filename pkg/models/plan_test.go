package models

import "testing"

func TestRenderSQL(t *testing.T) {
	tests := []struct {
		name string
		plan QueryPlan
		want string
	}{
		{
			name: "select only",
			plan: QueryPlan{
				FromTable: "funds",
				Select:    []SelectItem{{Table: "funds", Column: "id"}},
			},
			want: "SELECT funds.id FROM funds",
		},
		{
			name: "every clause",
			plan: QueryPlan{
				FromTable: "funds",
				Select: []SelectItem{
					{Table: "funds", Column: "name"},
					{Table: "funds", Column: "aum", Aggregation: "sum"},
				},
				Joins: []JoinClause{
					{LeftTable: "funds", LeftColumn: "fund_type_id", RightTable: "fund_types", RightColumn: "id"},
				},
				Where: []WhereClause{
					{SQL: "fund_types.label = 'Equity'"},
					{SQL: "funds.inception_date BETWEEN '2026-01-01' AND '2026-06-30'"},
				},
				GroupBy: []string{"funds.name"},
				OrderBy: []OrderByClause{{Table: "funds", Column: "aum", Descending: true}},
				Limit:   10,
			},
			want: "SELECT funds.name, SUM(funds.aum) FROM funds" +
				" JOIN fund_types ON funds.fund_type_id = fund_types.id" +
				" WHERE fund_types.label = 'Equity' AND funds.inception_date BETWEEN '2026-01-01' AND '2026-06-30'" +
				" GROUP BY funds.name" +
				" ORDER BY funds.aum DESC" +
				" LIMIT 10",
		},
		{
			name: "ascending order without limit",
			plan: QueryPlan{
				FromTable: "funds",
				Select:    []SelectItem{{Table: "funds", Column: "name"}},
				OrderBy:   []OrderByClause{{Table: "funds", Column: "name"}},
			},
			want: "SELECT funds.name FROM funds ORDER BY funds.name ASC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.plan.RenderSQL(); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestSelectItemSQL(t *testing.T) {
	plain := SelectItem{Table: "funds", Column: "aum"}
	if got := plain.SQL(); got != "funds.aum" {
		t.Errorf("plain = %q", got)
	}
	agg := SelectItem{Table: "funds", Column: "aum", Aggregation: "avg"}
	if got := agg.SQL(); got != "AVG(funds.aum)" {
		t.Errorf("aggregated = %q", got)
	}
}
