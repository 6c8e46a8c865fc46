package models

import (
	"strconv"
	"strings"
)

// SelectItem is one entry of the plan's select list.
type SelectItem struct {
	Table  string `json:"table"`
	Column string `json:"column"`
	// Aggregation wraps the column (sum/avg/count/min/max) when the
	// context carries an aggregation intent for a metric column.
	Aggregation string `json:"aggregation,omitempty"`
}

// SQL renders the select item as a SQL expression.
func (s SelectItem) SQL() string {
	ref := s.Table + "." + s.Column
	if s.Aggregation == "" {
		return ref
	}
	return strings.ToUpper(s.Aggregation) + "(" + ref + ")"
}

// JoinClause is one equality join taken from a navigation path, in path
// order.
type JoinClause struct {
	LeftTable   string `json:"left_table"`
	LeftColumn  string `json:"left_column"`
	RightTable  string `json:"right_table"`
	RightColumn string `json:"right_column"`
}

// SQL renders the join as a JOIN ... ON fragment.
func (j JoinClause) SQL() string {
	return "JOIN " + j.RightTable + " ON " + j.LeftTable + "." + j.LeftColumn +
		" = " + j.RightTable + "." + j.RightColumn
}

// WhereClause is one rendered filter condition.
type WhereClause struct {
	SQL    string `json:"sql"`
	Source Filter `json:"source"`
}

// OrderByClause is a verified ordering instruction.
type OrderByClause struct {
	Table      string `json:"table"`
	Column     string `json:"column"`
	Descending bool   `json:"descending"`
}

// SQL renders the order-by expression.
func (o OrderByClause) SQL() string {
	s := o.Table + "." + o.Column
	if o.Descending {
		return s + " DESC"
	}
	return s + " ASC"
}

// How the refinement loop ended for a plan.
const (
	// OutcomeAccepted means an iteration met the acceptance criteria.
	OutcomeAccepted = "accepted"
	// OutcomeExhausted means the budget ran out and the plan carries the
	// best iteration seen; callers should treat it as a best-effort answer.
	OutcomeExhausted = "exhausted"
)

// QueryPlan is the terminal artifact of an analysis request: the
// authoritative analysis snapshot plus the assembled SQL shape.
// Immutable once produced.
type QueryPlan struct {
	Analysis *QueryAnalysisResult `json:"analysis"`

	// Outcome records whether the plan was accepted or is the best effort
	// after refinement exhaustion.
	Outcome string `json:"outcome"`
	// History holds every iteration's snapshot in order, for auditing why
	// the loop converged (or didn't).
	History []*QueryAnalysisResult `json:"history,omitempty"`

	FromTable string          `json:"from_table"`
	Select    []SelectItem    `json:"select"`
	Joins     []JoinClause    `json:"joins,omitempty"`
	Where     []WhereClause   `json:"where,omitempty"`
	GroupBy   []string        `json:"group_by,omitempty"`
	OrderBy   []OrderByClause `json:"order_by,omitempty"`
	Limit     int             `json:"limit,omitempty"`

	// SQL is the rendered statement for the execution layer. reportsmith
	// never executes it; callers decide whether to run, confirm, or ask
	// for clarification based on the confidence score and suggestions.
	SQL string `json:"sql"`
}

// RenderSQL assembles the clause fragments into a single SELECT statement.
func (p *QueryPlan) RenderSQL() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	parts := make([]string, len(p.Select))
	for i, s := range p.Select {
		parts[i] = s.SQL()
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(" FROM ")
	b.WriteString(p.FromTable)
	for _, j := range p.Joins {
		b.WriteString(" ")
		b.WriteString(j.SQL())
	}
	if len(p.Where) > 0 {
		conds := make([]string, len(p.Where))
		for i, w := range p.Where {
			conds[i] = w.SQL
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	if len(p.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(p.GroupBy, ", "))
	}
	if len(p.OrderBy) > 0 {
		orders := make([]string, len(p.OrderBy))
		for i, o := range p.OrderBy {
			orders[i] = o.SQL()
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(orders, ", "))
	}
	if p.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(p.Limit))
	}
	return b.String()
}
