package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/config"
	"github.com/sundar-blr76/report-smith-sub001/pkg/matcher"
	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
	"github.com/sundar-blr76/report-smith-sub001/pkg/nlu"
)

// aggregationKeywords maps query keywords to aggregation intents,
// detected independently of the NLU hint as a defense against hint
// failure. Checked in a fixed order so the intent list is reproducible.
var aggregationKeywords = []struct {
	intent   string
	keywords []string
}{
	{models.AggregationSum, []string{"total", "sum", "overall"}},
	{models.AggregationAvg, []string{"average", "avg", "mean"}},
	{models.AggregationCount, []string{"count", "how many", "number of"}},
	{models.AggregationMin, []string{"minimum", "lowest", "smallest", "least"}},
	{models.AggregationMax, []string{"maximum", "highest", "largest", "most"}},
	{models.AggregationGroupBy, []string{"per ", "for each", "grouped by", "breakdown", "by each"}},
}

var topNPattern = regexp.MustCompile(`(?i)\btop\s+(\d+)\s+(?:.*?\bby\s+([a-z0-9_ ]+))?`)

// ContextExtractor derives aggregation intent, temporal scope, and
// business context from the query and the NLU collaborator. NLU output is
// untrusted input: it is merged, never taken as authoritative.
type ContextExtractor struct {
	nlu     nlu.Extractor
	matcher matcher.Matcher
	cfg     config.AnalysisConfig
	logger  *zap.Logger
}

// NewContextExtractor creates a context extractor.
func NewContextExtractor(extractor nlu.Extractor, m matcher.Matcher, cfg config.AnalysisConfig, logger *zap.Logger) *ContextExtractor {
	return &ContextExtractor{
		nlu:     extractor,
		matcher: m,
		cfg:     cfg,
		logger:  logger.Named("context"),
	}
}

// ContextResult bundles the merged context with the raw hints, which the
// filter identifier needs for candidate filter phrases.
type ContextResult struct {
	Context models.ContextInfo
	Hints   *nlu.Hints
}

// Extract produces ContextInfo for one iteration. extraContext carries
// accumulated refinement information (e.g. disconnected table pairs) for
// the NLU re-query; empty on the initial pass. Collaborator failures
// degrade to keyword-only context.
func (ce *ContextExtractor) Extract(ctx context.Context, query string, cats *Catalogs, extraContext string) ContextResult {
	info := models.ContextInfo{
		Aggregations: detectAggregations(query),
	}

	hints := ce.extractHints(ctx, query, cats, extraContext)

	// Merge NLU aggregation intents after the keyword-detected ones.
	seen := make(map[string]bool)
	for _, a := range info.Aggregations {
		seen[a] = true
	}
	for _, a := range hints.AggregationIntents {
		a = strings.ToLower(strings.TrimSpace(a))
		if isKnownAggregation(a) && !seen[a] {
			seen[a] = true
			info.Aggregations = append(info.Aggregations, a)
		}
	}

	info.Temporal = normalizeTemporal(hints.Temporal)

	// Ranking: local top-N detection wins over the NLU hint; both are
	// verified against identified columns later by the plan builder.
	if order, limit, ok := detectTopN(query); ok {
		info.Order = order
		info.Limit = limit
	} else if hints.Ranking != nil {
		if hints.Ranking.Term != "" {
			info.Order = &models.OrderHint{
				Term:       hints.Ranking.Term,
				Descending: hints.Ranking.Descending,
			}
		}
		info.Limit = hints.Ranking.Limit
	}

	info.Snippets = ce.retrieveSnippets(ctx, query, cats)

	return ContextResult{Context: info, Hints: hints}
}

// extractHints calls the NLU service with a per-call timeout. Failure is
// soft: empty hints, never an abort.
func (ce *ContextExtractor) extractHints(ctx context.Context, query string, cats *Catalogs, extraContext string) *nlu.Hints {
	if ce.nlu == nil {
		return &nlu.Hints{}
	}

	callCtx, cancel := context.WithTimeout(ctx, ce.cfg.CollaboratorTimeout)
	defer cancel()

	summary := cats.SchemaSummary()
	if extraContext != "" {
		summary += "\n" + extraContext
	}

	hints, err := ce.nlu.Extract(callCtx, query, summary)
	if err != nil {
		ce.logger.Warn("nlu call failed, proceeding with keyword-only context", zap.Error(err))
		return &nlu.Hints{}
	}
	return hints
}

// retrieveSnippets matches the query against the business-context catalog.
func (ce *ContextExtractor) retrieveSnippets(ctx context.Context, query string, cats *Catalogs) []string {
	if len(cats.Context.Entries) == 0 {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, ce.cfg.CollaboratorTimeout)
	defer cancel()

	candidates, err := ce.matcher.Search(callCtx, query, cats.Context, ce.cfg.ContextMinScore)
	if err != nil {
		ce.logger.Warn("business-context search failed", zap.Error(err))
		return nil
	}

	var snippets []string
	for _, cand := range candidates {
		if text, ok := cats.ContextSnippet(cand.ID); ok {
			snippets = append(snippets, text)
		}
	}
	return snippets
}

func detectAggregations(query string) []string {
	lower := strings.ToLower(query)
	var intents []string
	for _, entry := range aggregationKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				intents = append(intents, entry.intent)
				break
			}
		}
	}
	return intents
}

func isKnownAggregation(a string) bool {
	switch a {
	case models.AggregationSum, models.AggregationAvg, models.AggregationCount,
		models.AggregationMin, models.AggregationMax, models.AggregationGroupBy:
		return true
	}
	return false
}

// detectTopN recognizes "top N ... by X" ranking phrases directly from
// the query text.
func detectTopN(query string) (*models.OrderHint, int, bool) {
	m := topNPattern.FindStringSubmatch(query)
	if m == nil {
		return nil, 0, false
	}
	limit, err := strconv.Atoi(m[1])
	if err != nil || limit <= 0 {
		return nil, 0, false
	}
	var order *models.OrderHint
	if term := strings.TrimSpace(m[2]); term != "" {
		order = &models.OrderHint{Term: term, Descending: true}
	}
	return order, limit, true
}

// normalizeTemporal converts an untrusted temporal hint into the
// canonical scope: explicit {start,end} wins; otherwise the relative
// period is lowercased and underscore-joined.
func normalizeTemporal(hint *nlu.TemporalHint) models.TemporalScope {
	if hint == nil {
		return models.TemporalScope{}
	}
	scope := models.TemporalScope{Phrase: hint.Phrase}
	if hint.Start != "" && hint.End != "" {
		scope.Start = hint.Start
		scope.End = hint.End
		return scope
	}
	if hint.RelativePeriod != "" {
		scope.RelativePeriod = strings.Join(strings.Fields(strings.ToLower(hint.RelativePeriod)), "_")
	}
	return scope
}
