package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/config"
	"github.com/sundar-blr76/report-smith-sub001/pkg/matcher"
	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
	"github.com/sundar-blr76/report-smith-sub001/pkg/nlu"
)

// maxHintConfidence caps the confidence of anything sourced from an NLU
// hint; only explicit temporal ranges reach 1.0.
const maxHintConfidence = 0.9

// FilterIdentifier derives candidate WHERE conditions from identified
// domain values, the temporal scope, and NLU filter hints.
type FilterIdentifier struct {
	matcher matcher.Matcher
	cfg     config.AnalysisConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewFilterIdentifier creates a filter identifier. The clock is
// injectable so relative temporal scopes resolve reproducibly in tests.
func NewFilterIdentifier(m matcher.Matcher, cfg config.AnalysisConfig, logger *zap.Logger, now func() time.Time) *FilterIdentifier {
	if now == nil {
		now = time.Now
	}
	return &FilterIdentifier{
		matcher: m,
		cfg:     cfg,
		logger:  logger.Named("filters"),
		now:     now,
	}
}

// FilterResult is the identifier's output: filters plus the
// schema-verified column entities the filters target. Supplemental
// entities keep the provenance invariant intact: every filter column is
// backed by an entity in the same iteration.
type FilterResult struct {
	Filters      []models.Filter
	Supplemental []models.Entity
	Suggestions  []string
}

// Identify produces filters for one iteration. Domain-value entities
// become equals filters (in-list when several values resolved to the same
// column); a temporal scope becomes one BETWEEN filter on the date column
// whose business context best matches the temporal phrase; NLU candidate
// filters are accepted only when their column verifies against the schema
// and targets a table already carrying an identified entity.
func (fi *FilterIdentifier) Identify(ctx context.Context, entities []models.Entity, info models.ContextInfo, hints *nlu.Hints, cats *Catalogs) *FilterResult {
	result := &FilterResult{}
	entityTables := make(map[string]bool)
	for _, e := range entities {
		entityTables[e.Table] = true
	}

	fi.domainValueFilters(entities, result)
	fi.temporalFilter(ctx, info, entityTables, cats, result)
	fi.hintFilters(hints, entityTables, cats, result)

	fi.logger.Debug("identified filters", zap.Int("filters", len(result.Filters)))
	return result
}

// domainValueFilters groups domain-value entities by target column:
// one value is an equals filter, several are an in-list. Confidence is
// the mean of the source match scores.
func (fi *FilterIdentifier) domainValueFilters(entities []models.Entity, result *FilterResult) {
	type columnKey struct{ table, column string }
	groups := make(map[columnKey][]models.Entity)
	var order []columnKey

	for _, e := range entities {
		if e.Category != models.EntityCategoryDomainValue {
			continue
		}
		key := columnKey{e.Table, e.Column}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], e)
	}

	for _, key := range order {
		group := groups[key]

		values := make([]string, 0, len(group))
		seen := make(map[string]bool)
		total := 0.0
		for _, e := range group {
			if !seen[e.Value] {
				seen[e.Value] = true
				values = append(values, e.Value)
			}
			total += e.Relevance
		}
		sort.Strings(values)

		operator := models.FilterOpEquals
		if len(values) > 1 {
			operator = models.FilterOpInList
		}

		result.Filters = append(result.Filters, models.Filter{
			Table:      key.table,
			Column:     key.column,
			Operator:   operator,
			Values:     values,
			Confidence: total / float64(len(group)),
			Origin:     models.FilterOriginDomainValue,
		})
	}
}

// temporalFilter renders the temporal scope as one inclusive BETWEEN
// filter. Column selection is semantic: among the date/time columns of
// entity tables, the one whose business-context description best matches
// the temporal phrase wins, not the first date column found.
func (fi *FilterIdentifier) temporalFilter(ctx context.Context, info models.ContextInfo, entityTables map[string]bool, cats *Catalogs, result *FilterResult) {
	if info.Temporal.IsZero() {
		return
	}

	start, end := info.Temporal.Start, info.Temporal.End
	confidence := 1.0
	if !info.Temporal.IsExplicit() {
		var ok bool
		start, end, ok = resolveRelativePeriod(info.Temporal.RelativePeriod, fi.now())
		if !ok {
			result.Suggestions = append(result.Suggestions,
				fmt.Sprintf("temporal scope %q could not be resolved to a date range", info.Temporal.RelativePeriod))
			return
		}
		confidence = maxHintConfidence
	}

	table, column, found := fi.selectTemporalColumn(ctx, info.Temporal, entityTables, cats)
	if !found {
		result.Suggestions = append(result.Suggestions,
			"a temporal scope was detected but no date column exists on the identified tables")
		return
	}

	result.Filters = append(result.Filters, models.Filter{
		Table:      table,
		Column:     column,
		Operator:   models.FilterOpTemporal,
		Values:     []string{start, end},
		Confidence: confidence,
		Origin:     models.FilterOriginTemporalHint,
	})
	result.Supplemental = append(result.Supplemental, models.Entity{
		Span:      info.Temporal.Phrase,
		Table:     table,
		Column:    column,
		Category:  models.EntityCategoryColumn,
		Relevance: confidence,
	})
}

// selectTemporalColumn ranks candidate date columns of entity tables by
// matching their business-context descriptions against the temporal
// phrase. Falls back to the first candidate in declaration order when the
// matcher yields nothing.
func (fi *FilterIdentifier) selectTemporalColumn(ctx context.Context, scope models.TemporalScope, entityTables map[string]bool, cats *Catalogs) (string, string, bool) {
	sc := cats.SchemaContext()

	candidateCatalog := matcher.Catalog{ID: "temporal_columns"}
	for _, t := range sc.Tables {
		if !entityTables[t.Name] {
			continue
		}
		for _, col := range t.Columns {
			if !isTemporalColumn(col) {
				continue
			}
			candidateCatalog.Entries = append(candidateCatalog.Entries, matcher.Entry{
				ID:   columnEntryID(t.Name, col.Name),
				Text: temporalColumnText(sc, t.Name, col),
			})
		}
	}
	if len(candidateCatalog.Entries) == 0 {
		return "", "", false
	}

	phrase := scope.Phrase
	if phrase == "" {
		phrase = strings.ReplaceAll(scope.RelativePeriod, "_", " ")
	}

	if phrase != "" && len(candidateCatalog.Entries) > 1 {
		callCtx, cancel := context.WithTimeout(ctx, fi.cfg.CollaboratorTimeout)
		defer cancel()

		candidates, err := fi.matcher.Search(callCtx, phrase, candidateCatalog, 0)
		if err != nil {
			fi.logger.Warn("temporal column ranking failed, using declaration order", zap.Error(err))
		} else if len(candidates) > 0 {
			if parsed, err := parseEntryID(candidates[0].ID); err == nil {
				return parsed.Table, parsed.Column, true
			}
		}
	}

	parsed, err := parseEntryID(candidateCatalog.Entries[0].ID)
	if err != nil {
		return "", "", false
	}
	return parsed.Table, parsed.Column, true
}

// hintFilters accepts NLU candidate filters only after verification: the
// referenced column must exist in the schema and its table must already
// carry an identified entity. Anything else is a hallucination risk and
// is dropped with a suggestion.
func (fi *FilterIdentifier) hintFilters(hints *nlu.Hints, entityTables map[string]bool, cats *Catalogs, result *FilterResult) {
	if hints == nil {
		return
	}

	covered := make(map[string]bool)
	for _, f := range result.Filters {
		covered[f.ColumnRef()] = true
	}

	for _, hint := range hints.CandidateFilters {
		table, column, ok := splitColumnRef(hint.Column)
		if !ok || cats.SchemaContext().Column(table, column) == nil {
			result.Suggestions = append(result.Suggestions,
				fmt.Sprintf("ignored filter hint on unknown column %q", hint.Column))
			continue
		}
		if !entityTables[table] {
			result.Suggestions = append(result.Suggestions,
				fmt.Sprintf("ignored filter hint on %s: table not identified in the query", hint.Column))
			continue
		}
		if covered[table+"."+column] {
			continue // domain-value or temporal filter already owns this column
		}
		operator, ok := normalizeHintOperator(hint.Operator)
		if !ok || len(hint.Values) == 0 {
			continue
		}

		confidence := hint.Confidence
		if confidence <= 0 || confidence > maxHintConfidence {
			confidence = maxHintConfidence / 2
		}

		covered[table+"."+column] = true
		result.Filters = append(result.Filters, models.Filter{
			Table:      table,
			Column:     column,
			Operator:   operator,
			Values:     hint.Values,
			Confidence: confidence,
			Origin:     models.FilterOriginNLUHint,
		})
		result.Supplemental = append(result.Supplemental, models.Entity{
			Span:      hint.Phrase,
			Table:     table,
			Column:    column,
			Category:  models.EntityCategoryColumn,
			Relevance: confidence,
		})
	}
}

func isTemporalColumn(col models.ColumnInfo) bool {
	if col.IsTemporal {
		return true
	}
	lower := strings.ToLower(col.DataType)
	return strings.Contains(lower, "date") || strings.Contains(lower, "time")
}

// temporalColumnText builds the match text for a candidate date column:
// its business-context description when one exists, else the column's own
// description, else its name.
func temporalColumnText(sc *models.SchemaContext, table string, col models.ColumnInfo) string {
	for _, bc := range sc.BusinessContext {
		if bc.Table == table && bc.Column == col.Name {
			return bc.Description
		}
	}
	if col.Description != "" {
		return col.Description
	}
	return col.Name
}

func splitColumnRef(ref string) (table, column string, ok bool) {
	parts := strings.SplitN(ref, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func normalizeHintOperator(op string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(op)) {
	case "equals", "eq", "=":
		return models.FilterOpEquals, true
	case "in_list", "in", "in-list":
		return models.FilterOpInList, true
	case "range", "between":
		return models.FilterOpRange, true
	case "pattern", "like", "contains":
		return models.FilterOpPattern, true
	default:
		return "", false
	}
}

// resolveRelativePeriod converts a normalized relative period into an
// explicit inclusive [start, end] date range against the given reference
// time.
func resolveRelativePeriod(period string, now time.Time) (string, string, bool) {
	const day = 24 * time.Hour
	today := now.Truncate(day)

	switch period {
	case "last_7_days", "last_week":
		return today.Add(-7 * day).Format("2006-01-02"), today.Format("2006-01-02"), true
	case "last_30_days":
		return today.Add(-30 * day).Format("2006-01-02"), today.Format("2006-01-02"), true
	case "last_month":
		firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		firstOfLast := firstOfThis.AddDate(0, -1, 0)
		return firstOfLast.Format("2006-01-02"), firstOfThis.Add(-day).Format("2006-01-02"), true
	case "last_quarter":
		quarterStartMonth := time.Month(((int(now.Month())-1)/3)*3 + 1)
		firstOfThis := time.Date(now.Year(), quarterStartMonth, 1, 0, 0, 0, 0, time.UTC)
		firstOfLast := firstOfThis.AddDate(0, -3, 0)
		return firstOfLast.Format("2006-01-02"), firstOfThis.Add(-day).Format("2006-01-02"), true
	case "last_year":
		return fmt.Sprintf("%d-01-01", now.Year()-1), fmt.Sprintf("%d-12-31", now.Year()-1), true
	case "ytd", "year_to_date", "this_year":
		return fmt.Sprintf("%d-01-01", now.Year()), today.Format("2006-01-02"), true
	default:
		return "", "", false
	}
}
