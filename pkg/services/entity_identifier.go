package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/config"
	"github.com/sundar-blr76/report-smith-sub001/pkg/matcher"
	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
)

var termSplitPattern = regexp.MustCompile(`[^A-Za-z0-9]+`)

// stopwords excluded from term extraction. Aggregation keywords are kept:
// the context extractor owns them, but they are harmless as match terms.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "by": true, "for": true,
	"from": true, "in": true, "is": true, "me": true, "of": true, "on": true,
	"or": true, "show": true, "the": true, "to": true, "what": true,
	"which": true, "with": true, "give": true, "list": true, "all": true,
	"top": true, "per": true, "each": true,
}

// EntityIdentifier maps query terms to schema entities and domain values
// via the semantic matching service. Pure function of its inputs and the
// collaborator responses; no side effects.
type EntityIdentifier struct {
	matcher matcher.Matcher
	cfg     config.AnalysisConfig
	logger  *zap.Logger
}

// NewEntityIdentifier creates an entity identifier.
func NewEntityIdentifier(m matcher.Matcher, cfg config.AnalysisConfig, logger *zap.Logger) *EntityIdentifier {
	return &EntityIdentifier{
		matcher: m,
		cfg:     cfg,
		logger:  logger.Named("entities"),
	}
}

// IdentifyOptions adjust a refinement pass. Zero value means the initial
// pass: no relaxation, nothing pinned.
type IdentifyOptions struct {
	// Relax is subtracted from every catalog minimum score (floored at
	// the configured relax floor).
	Relax float64
	// Pinned entities are carried over verbatim; their source terms are
	// not re-matched.
	Pinned []models.Entity
}

// IdentifyResult is the identifier's output for one iteration.
type IdentifyResult struct {
	Entities      []models.Entity
	TermCount     int
	ResolvedTerms int
	Suggestions   []string
}

// Identify extracts terms from the query and matches each against the
// schema and domain-value catalogs. Every match at or above the catalog
// minimum is kept; a term with more kept matches than the warning
// threshold attaches a broad-query suggestion instead of truncating.
// Collaborator failures degrade to zero results for that call.
func (ei *EntityIdentifier) Identify(ctx context.Context, query string, cats *Catalogs, opts IdentifyOptions) *IdentifyResult {
	terms := extractTerms(query)
	result := &IdentifyResult{TermCount: len(terms)}

	pinnedSpans := make(map[string]bool)
	for _, p := range opts.Pinned {
		pinned := p
		pinned.Pinned = true
		result.Entities = append(result.Entities, pinned)
		pinnedSpans[p.Span] = true
	}

	schemaMin := ei.relaxed(ei.cfg.SchemaMinScore, opts.Relax)
	domainMin := ei.relaxed(ei.cfg.DomainMinScore, opts.Relax)

	seen := make(map[string]bool) // dedup by category+ref+value
	for _, p := range opts.Pinned {
		seen[entityKey(p)] = true
	}

	for _, term := range terms {
		if pinnedSpans[term] {
			result.ResolvedTerms++
			continue
		}

		kept := 0
		kept += ei.matchCatalog(ctx, term, cats.Schema, schemaMin, cats, seen, result)
		kept += ei.matchCatalog(ctx, term, cats.Domain, domainMin, cats, seen, result)

		if kept > 0 {
			result.ResolvedTerms++
		}
		if ei.cfg.BroadMatchWarning > 0 && kept > ei.cfg.BroadMatchWarning {
			result.Suggestions = append(result.Suggestions,
				fmt.Sprintf("term %q matched %d schema elements; the query may be too broad", term, kept))
		}
	}

	sortEntities(result.Entities)

	ei.logger.Debug("identified entities",
		zap.Int("terms", result.TermCount),
		zap.Int("resolved", result.ResolvedTerms),
		zap.Int("entities", len(result.Entities)))

	return result
}

// matchCatalog searches one catalog for one term and appends the decoded
// entities. Returns the number of kept matches.
func (ei *EntityIdentifier) matchCatalog(ctx context.Context, term string, cat matcher.Catalog, minScore float64, cats *Catalogs, seen map[string]bool, result *IdentifyResult) int {
	callCtx, cancel := context.WithTimeout(ctx, ei.cfg.CollaboratorTimeout)
	defer cancel()

	candidates, err := ei.matcher.Search(callCtx, term, cat, minScore)
	if err != nil {
		// Soft failure: a slow or broken matcher must not abort the
		// pipeline; the confidence score absorbs the missing results.
		ei.logger.Warn("matcher call failed, proceeding with no results",
			zap.String("catalog", cat.ID),
			zap.String("term", term),
			zap.Error(err))
		return 0
	}

	kept := 0
	for _, cand := range candidates {
		entity, err := ei.entityFromCandidate(term, cand, cats)
		if err != nil {
			ei.logger.Warn("skipping unparseable candidate", zap.String("id", cand.ID), zap.Error(err))
			continue
		}
		kept++
		key := entityKey(entity)
		if seen[key] {
			continue
		}
		seen[key] = true
		result.Entities = append(result.Entities, entity)
	}
	return kept
}

// entityFromCandidate decodes a matcher candidate into an Entity.
func (ei *EntityIdentifier) entityFromCandidate(term string, cand matcher.Candidate, cats *Catalogs) (models.Entity, error) {
	parsed, err := parseEntryID(cand.ID)
	if err != nil {
		return models.Entity{}, err
	}

	entity := models.Entity{
		Span:      term,
		Table:     parsed.Table,
		Column:    parsed.Column,
		Relevance: cand.Score,
	}

	switch parsed.Kind {
	case entryKindTable:
		entity.Category = models.EntityCategoryTable
	case entryKindColumn:
		entity.Category = models.EntityCategoryColumn
		if col := cats.SchemaContext().Column(parsed.Table, parsed.Column); col != nil && col.IsMetric {
			entity.Category = models.EntityCategoryMetric
		}
	case entryKindValue:
		entity.Category = models.EntityCategoryDomainValue
		entity.Value = parsed.Value
	default:
		return models.Entity{}, fmt.Errorf("unexpected entry kind %q", parsed.Kind)
	}
	return entity, nil
}

func (ei *EntityIdentifier) relaxed(minScore, relax float64) float64 {
	relaxed := minScore - relax
	if relaxed < ei.cfg.RelaxFloor {
		relaxed = ei.cfg.RelaxFloor
	}
	return relaxed
}

// extractTerms splits the query into singularized unigrams plus adjacent
// bigrams (multi-word domain values like "Equity Growth" only surface as
// bigrams). Order is first-appearance; duplicates are removed.
func extractTerms(query string) []string {
	var words []string
	for _, w := range termSplitPattern.Split(strings.ToLower(query), -1) {
		if w == "" || stopwords[w] || isNumeric(w) {
			continue
		}
		words = append(words, inflection.Singular(w))
	}

	seen := make(map[string]bool)
	var terms []string
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			terms = append(terms, w)
		}
	}
	for i := 0; i+1 < len(words); i++ {
		bigram := words[i] + " " + words[i+1]
		if !seen[bigram] {
			seen[bigram] = true
			terms = append(terms, bigram)
		}
	}
	return terms
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func entityKey(e models.Entity) string {
	return e.Category + "|" + e.Ref() + "|" + e.Value
}

// sortEntities orders entities by relevance descending, then by schema
// reference for reproducibility.
func sortEntities(entities []models.Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		if entities[i].Relevance != entities[j].Relevance {
			return entities[i].Relevance > entities[j].Relevance
		}
		return entities[i].Ref() < entities[j].Ref()
	})
}
