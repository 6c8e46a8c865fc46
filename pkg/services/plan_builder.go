package services

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/apperrors"
	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
	"github.com/sundar-blr76/report-smith-sub001/pkg/sql"
)

// PlanBuilder assembles the terminal query plan from an accepted
// analysis. It refuses rather than repairs: any reference that was not
// identified as an entity, any contradictory or injection-flagged filter,
// and any empty select list is a structured PlanAssemblyError, because a
// plan the analysis cannot vouch for is worse than no plan.
type PlanBuilder struct {
	logger *zap.Logger
}

func NewPlanBuilder(logger *zap.Logger) *PlanBuilder {
	return &PlanBuilder{logger: logger.Named("planner")}
}

// Build produces the query plan for a fully connected analysis.
func (pb *PlanBuilder) Build(analysis *models.QueryAnalysisResult, sc *models.SchemaContext) (*models.QueryPlan, error) {
	required := analysis.RequiredTables()
	if len(required) == 0 {
		return nil, &apperrors.PlanAssemblyError{Reason: "no tables identified"}
	}

	plan := &models.QueryPlan{Analysis: analysis}

	if len(analysis.Navigation.Paths) > 0 && len(analysis.Navigation.Paths[0].Tables) > 0 {
		plan.FromTable = analysis.Navigation.Paths[0].Tables[0]
	} else {
		plan.FromTable = required[0]
	}

	if err := pb.buildJoins(plan, analysis); err != nil {
		return nil, err
	}
	if err := pb.buildSelect(plan, analysis, sc); err != nil {
		return nil, err
	}
	if err := pb.buildWhere(plan, analysis); err != nil {
		return nil, err
	}
	pb.buildGroupBy(plan, analysis)
	pb.buildOrderBy(plan, analysis)
	plan.Limit = analysis.Context.Limit

	plan.SQL = plan.RenderSQL()
	if v := sql.ValidateRendered(plan.SQL); v.Error != nil {
		return nil, &apperrors.PlanAssemblyError{
			Reason: "rendered statement failed validation: " + v.Error.Error(),
		}
	}

	pb.logger.Info("plan assembled",
		zap.String("analysis_id", analysis.ID.String()),
		zap.String("from", plan.FromTable),
		zap.Int("selects", len(plan.Select)),
		zap.Int("joins", len(plan.Joins)),
		zap.Int("where", len(plan.Where)))
	return plan, nil
}

// buildJoins orients the navigation path's relationship tree into JOIN
// clauses rooted at the FROM table. Each pass attaches the first edge in
// path order with exactly one endpoint already joined, so the join order
// is fixed by the path.
func (pb *PlanBuilder) buildJoins(plan *models.QueryPlan, analysis *models.QueryAnalysisResult) error {
	if len(analysis.Navigation.Paths) == 0 {
		return nil
	}
	path := analysis.Navigation.Paths[0]

	joined := map[string]bool{plan.FromTable: true}
	remaining := append([]models.Relationship(nil), path.Relationships...)

	for len(remaining) > 0 {
		attached := -1
		for i, rel := range remaining {
			switch {
			case joined[rel.SourceTable] && !joined[rel.TargetTable]:
				plan.Joins = append(plan.Joins, models.JoinClause{
					LeftTable:   rel.SourceTable,
					LeftColumn:  rel.SourceColumn,
					RightTable:  rel.TargetTable,
					RightColumn: rel.TargetColumn,
				})
				joined[rel.TargetTable] = true
				attached = i
			case joined[rel.TargetTable] && !joined[rel.SourceTable]:
				plan.Joins = append(plan.Joins, models.JoinClause{
					LeftTable:   rel.TargetTable,
					LeftColumn:  rel.TargetColumn,
					RightTable:  rel.SourceTable,
					RightColumn: rel.SourceColumn,
				})
				joined[rel.SourceTable] = true
				attached = i
			case joined[rel.SourceTable] && joined[rel.TargetTable]:
				// Redundant edge inside the tree; path construction should
				// not produce these, drop it if it does.
				attached = i
			}
			if attached >= 0 {
				break
			}
		}
		if attached < 0 {
			return &apperrors.PlanAssemblyError{
				Reason: "navigation path does not connect to the FROM table",
			}
		}
		remaining = append(remaining[:attached], remaining[attached+1:]...)
	}
	return nil
}

// buildSelect derives the select list from column and metric entities,
// with table-only entities contributing their primary key column. Metric
// columns pick up the detected aggregation. Every select item must trace
// back to an identified entity.
func (pb *PlanBuilder) buildSelect(plan *models.QueryPlan, analysis *models.QueryAnalysisResult, sc *models.SchemaContext) error {
	agg := selectAggregation(analysis.Context)

	seen := make(map[string]bool)
	addItem := func(item models.SelectItem) {
		key := item.Table + "." + item.Column + "|" + item.Aggregation
		if !seen[key] {
			seen[key] = true
			plan.Select = append(plan.Select, item)
		}
	}

	for _, e := range analysis.Entities {
		switch e.Category {
		case models.EntityCategoryColumn:
			addItem(models.SelectItem{Table: e.Table, Column: e.Column})
		case models.EntityCategoryMetric:
			addItem(models.SelectItem{Table: e.Table, Column: e.Column, Aggregation: agg})
		case models.EntityCategoryTable:
			col := identityColumn(sc, e.Table)
			if col != "" {
				addItem(models.SelectItem{Table: e.Table, Column: col})
			}
		}
	}

	if len(plan.Select) == 0 {
		// A query naming only stored values ("equity") still has a
		// sensible projection: the identity of the rows being filtered.
		for _, e := range analysis.Entities {
			if e.Category != models.EntityCategoryDomainValue {
				continue
			}
			if col := identityColumn(sc, e.Table); col != "" {
				addItem(models.SelectItem{Table: e.Table, Column: col})
			}
		}
	}
	if len(plan.Select) == 0 {
		return &apperrors.PlanAssemblyError{Reason: "nothing to select", Offenders: analysis.RequiredTables()}
	}

	for _, item := range plan.Select {
		if !analysis.HasEntityFor(item.Table, "") {
			return &apperrors.PlanAssemblyError{
				Reason:    "select list references a table no entity resolved",
				Offenders: []string{item.Table + "." + item.Column},
			}
		}
	}
	return nil
}

// selectAggregation returns the aggregation to apply to metric columns:
// the first detected intent that is not a grouping instruction.
func selectAggregation(info models.ContextInfo) string {
	for _, a := range info.Aggregations {
		if a != models.AggregationGroupBy {
			return a
		}
	}
	return ""
}

// identityColumn picks the column representing a table selected as a
// whole: its primary key, or its first column when none is marked.
func identityColumn(sc *models.SchemaContext, table string) string {
	t := sc.Table(table)
	if t == nil || len(t.Columns) == 0 {
		return ""
	}
	for _, col := range t.Columns {
		if col.IsPrimary {
			return col.Name
		}
	}
	return t.Columns[0].Name
}

// buildWhere renders filters into WHERE clauses. Before rendering, every
// filter must target an identified entity, survive injection screening,
// and not contradict another equality on the same column.
func (pb *PlanBuilder) buildWhere(plan *models.QueryPlan, analysis *models.QueryAnalysisResult) error {
	equalities := make(map[string]string)

	for _, f := range analysis.Filters {
		if !analysis.HasEntityFor(f.Table, f.Column) {
			return &apperrors.PlanAssemblyError{
				Reason:    "filter references a column no entity resolved",
				Offenders: []string{f.ColumnRef()},
			}
		}
		if hits := sql.CheckFilterValues(f.ColumnRef(), f.Values); len(hits) > 0 {
			offenders := make([]string, len(hits))
			for i, h := range hits {
				offenders[i] = h.Column + "=" + h.Value
			}
			pb.logger.Warn("filter value failed injection screening",
				zap.String("column", f.ColumnRef()),
				zap.String("fingerprint", hits[0].Fingerprint))
			return &apperrors.PlanAssemblyError{
				Reason:    "filter value failed injection screening",
				Offenders: offenders,
			}
		}
		if f.Operator == models.FilterOpEquals && len(f.Values) == 1 {
			if prev, ok := equalities[f.ColumnRef()]; ok && prev != f.Values[0] {
				return &apperrors.PlanAssemblyError{
					Reason:    "contradictory equality filters",
					Offenders: []string{f.ColumnRef() + " = " + prev + " vs " + f.Values[0]},
				}
			}
			equalities[f.ColumnRef()] = f.Values[0]
		}

		rendered, err := renderFilter(f)
		if err != nil {
			return err
		}
		plan.Where = append(plan.Where, models.WhereClause{SQL: rendered, Source: f})
	}
	return nil
}

func renderFilter(f models.Filter) (string, error) {
	ref := f.ColumnRef()
	switch f.Operator {
	case models.FilterOpEquals:
		if len(f.Values) != 1 {
			return "", &apperrors.PlanAssemblyError{Reason: "equality filter needs exactly one value", Offenders: []string{ref}}
		}
		return ref + " = " + renderLiteral(f.Values[0]), nil
	case models.FilterOpInList:
		if len(f.Values) == 0 {
			return "", &apperrors.PlanAssemblyError{Reason: "in-list filter needs values", Offenders: []string{ref}}
		}
		parts := make([]string, len(f.Values))
		for i, v := range f.Values {
			parts[i] = renderLiteral(v)
		}
		return ref + " IN (" + strings.Join(parts, ", ") + ")", nil
	case models.FilterOpRange, models.FilterOpTemporal:
		if len(f.Values) != 2 {
			return "", &apperrors.PlanAssemblyError{Reason: "range filter needs start and end", Offenders: []string{ref}}
		}
		return ref + " BETWEEN " + renderLiteral(f.Values[0]) + " AND " + renderLiteral(f.Values[1]), nil
	case models.FilterOpPattern:
		if len(f.Values) != 1 {
			return "", &apperrors.PlanAssemblyError{Reason: "pattern filter needs exactly one value", Offenders: []string{ref}}
		}
		return ref + " LIKE " + sql.QuoteLiteral("%"+f.Values[0]+"%"), nil
	default:
		return "", &apperrors.PlanAssemblyError{Reason: "unknown filter operator " + f.Operator, Offenders: []string{ref}}
	}
}

// renderLiteral quotes string values; bare numerics stay unquoted so
// range comparisons over numeric columns behave.
func renderLiteral(value string) string {
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return value
	}
	return sql.QuoteLiteral(value)
}

// buildGroupBy emits grouping only when the request carried an
// aggregation intent and an aggregated select item exists: the
// non-aggregated select refs become the GROUP BY list.
func (pb *PlanBuilder) buildGroupBy(plan *models.QueryPlan, analysis *models.QueryAnalysisResult) {
	if !analysis.Context.HasAggregation() {
		return
	}
	hasAggregated := false
	for _, item := range plan.Select {
		if item.Aggregation != "" {
			hasAggregated = true
			break
		}
	}
	if !hasAggregated {
		return
	}
	for _, item := range plan.Select {
		if item.Aggregation == "" {
			plan.GroupBy = append(plan.GroupBy, item.Table+"."+item.Column)
		}
	}
}

// buildOrderBy verifies the ranking hint against identified columns. The
// hint term comes from the NLU collaborator; an ordering column that no
// entity resolved is dropped, not guessed.
func (pb *PlanBuilder) buildOrderBy(plan *models.QueryPlan, analysis *models.QueryAnalysisResult) {
	hint := analysis.Context.Order
	if hint == nil || hint.Term == "" {
		return
	}

	for _, e := range analysis.Entities {
		if e.Column == "" {
			continue
		}
		if columnMatchesTerm(e.Column, hint.Term) {
			plan.OrderBy = append(plan.OrderBy, models.OrderByClause{
				Table:      e.Table,
				Column:     e.Column,
				Descending: hint.Descending,
			})
			return
		}
	}
	pb.logger.Debug("dropped unverifiable ordering hint", zap.String("term", hint.Term))
}

// columnMatchesTerm checks a ranking term against a column name by token
// overlap, so "AUM" matches aum and "total value" matches total_value.
func columnMatchesTerm(column, term string) bool {
	colTokens := tokenizeIdentifier(column)
	for _, termToken := range tokenizeIdentifier(term) {
		for _, colToken := range colTokens {
			if termToken == colToken {
				return true
			}
		}
	}
	return false
}

func tokenizeIdentifier(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}
