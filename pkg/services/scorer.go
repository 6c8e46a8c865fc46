package services

import (
	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
)

// Base weights for the confidence components. When a component is
// inapplicable its weight is redistributed proportionally across the
// rest, so a score over fewer components still spans [0, 1].
const (
	weightEntityRelevance     = 0.40
	weightEntityCompleteness  = 0.20
	weightRelationshipClarity = 0.20
	weightFilterQuality       = 0.10
	weightPathQuality         = 0.10
)

// ConfidenceScorer turns one iteration's analysis into a weighted
// confidence score. It is pure computation: same analysis in, same score
// out.
type ConfidenceScorer struct {
	logger *zap.Logger
}

func NewConfidenceScorer(logger *zap.Logger) *ConfidenceScorer {
	return &ConfidenceScorer{logger: logger.Named("scorer")}
}

// Score computes the multi-factor confidence for an analysis result.
// Components that do not apply to the query (no filters requested, a
// single-table query with no joins) are nil, not zero; penalizing a
// query for what it never needed would bias refinement toward padding.
func (cs *ConfidenceScorer) Score(analysis *models.QueryAnalysisResult) models.ConfidenceScore {
	score := models.ConfidenceScore{
		EntityRelevance:     cs.entityRelevance(analysis),
		EntityCompleteness:  cs.entityCompleteness(analysis),
		RelationshipClarity: cs.relationshipClarity(analysis),
		FilterQuality:       cs.filterQuality(analysis),
		PathQuality:         cs.pathQuality(analysis),
	}

	applicable := []*models.SubScore{
		score.EntityRelevance,
		score.EntityCompleteness,
		score.RelationshipClarity,
		score.FilterQuality,
		score.PathQuality,
	}

	totalWeight := 0.0
	weighted := 0.0
	for _, sub := range applicable {
		if sub == nil {
			continue
		}
		totalWeight += sub.Weight
		weighted += sub.Value * sub.Weight
	}

	if totalWeight > 0 {
		score.Overall = clamp01(weighted / totalWeight)
	}
	score.Level = models.LevelForScore(score.Overall)

	cs.logger.Debug("scored iteration",
		zap.Float64("overall", score.Overall),
		zap.String("level", score.Level))
	return score
}

// entityRelevance is the mean match relevance across identified entities.
// No entities means the component is inapplicable; that case surfaces as
// a resolution failure upstream, not as a zero here.
func (cs *ConfidenceScorer) entityRelevance(analysis *models.QueryAnalysisResult) *models.SubScore {
	if len(analysis.Entities) == 0 {
		return nil
	}
	total := 0.0
	for _, e := range analysis.Entities {
		total += e.Relevance
	}
	return &models.SubScore{
		Value:  clamp01(total / float64(len(analysis.Entities))),
		Weight: weightEntityRelevance,
	}
}

// entityCompleteness is the fraction of query terms that resolved to at
// least one catalog entry.
func (cs *ConfidenceScorer) entityCompleteness(analysis *models.QueryAnalysisResult) *models.SubScore {
	if analysis.TermCount == 0 {
		return nil
	}
	return &models.SubScore{
		Value:  clamp01(float64(analysis.ResolvedTerms) / float64(analysis.TermCount)),
		Weight: weightEntityCompleteness,
	}
}

// relationshipClarity is the fraction of required-table pairs reachable
// through a discovered path: 1.0 when every pair is connected, degrading
// proportionally with each disconnected pair. How an edge was found does
// not matter here, only whether the pair joins at all. Single-table
// queries have nothing to join, so the component does not apply.
func (cs *ConfidenceScorer) relationshipClarity(analysis *models.QueryAnalysisResult) *models.SubScore {
	required := analysis.RequiredTables()
	if len(required) < 2 {
		return nil
	}
	reqSet := make(map[string]bool, len(required))
	for _, tbl := range required {
		reqSet[tbl] = true
	}
	connected := 0
	for _, path := range analysis.Navigation.Paths {
		inPath := 0
		for _, tbl := range path.Tables {
			if reqSet[tbl] {
				inPath++
			}
		}
		connected += inPath * (inPath - 1) / 2
	}
	totalPairs := len(required) * (len(required) - 1) / 2
	return &models.SubScore{
		Value:  clamp01(float64(connected) / float64(totalPairs)),
		Weight: weightRelationshipClarity,
	}
}

// filterQuality is the mean confidence across identified filters.
func (cs *ConfidenceScorer) filterQuality(analysis *models.QueryAnalysisResult) *models.SubScore {
	if len(analysis.Filters) == 0 {
		return nil
	}
	total := 0.0
	for _, f := range analysis.Filters {
		total += f.Confidence
	}
	return &models.SubScore{
		Value:  clamp01(total / float64(len(analysis.Filters))),
		Weight: weightFilterQuality,
	}
}

// pathQuality rewards short join trees: 1.0 at zero hops, decaying with
// hop count down to a 0.2 floor. Connectivity is not judged here;
// disconnected pairs are relationshipClarity's concern.
func (cs *ConfidenceScorer) pathQuality(analysis *models.QueryAnalysisResult) *models.SubScore {
	if len(analysis.RequiredTables()) < 2 {
		return nil
	}
	hops := float64(analysis.Navigation.TotalHops())
	value := 1.0 / (1.0 + 0.2*hops)
	if value < 0.2 {
		value = 0.2
	}
	return &models.SubScore{Value: value, Weight: weightPathQuality}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
