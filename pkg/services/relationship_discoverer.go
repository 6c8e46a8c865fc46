package services

import (
	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
)

// ExpansionEdgeScore is the demoted score for relationships touching
// exactly one implied table. They were not asked for, but the navigator
// may need them to bridge required tables.
const ExpansionEdgeScore = 0.5

// RelationshipDiscoverer filters the full relationship set down to those
// touching identified entities. Deterministic; no external calls.
type RelationshipDiscoverer struct {
	logger *zap.Logger
}

// NewRelationshipDiscoverer creates a relationship discoverer.
func NewRelationshipDiscoverer(logger *zap.Logger) *RelationshipDiscoverer {
	return &RelationshipDiscoverer{logger: logger.Named("relationships")}
}

// Discover returns the induced-subgraph edge set (both endpoints implied,
// score 1.0) plus all expansion edges (exactly one endpoint implied,
// demoted score), in schema declaration order.
func (rd *RelationshipDiscoverer) Discover(graph *SchemaGraph, impliedTables []string) []models.ScoredRelationship {
	implied := make(map[string]bool, len(impliedTables))
	for _, t := range impliedTables {
		implied[t] = true
	}

	var discovered []models.ScoredRelationship
	for _, rel := range graph.Relationships() {
		srcImplied := implied[rel.SourceTable]
		tgtImplied := implied[rel.TargetTable]

		switch {
		case srcImplied && tgtImplied:
			discovered = append(discovered, models.ScoredRelationship{
				Relationship: rel,
				Score:        1.0,
				Induced:      true,
			})
		case srcImplied || tgtImplied:
			discovered = append(discovered, models.ScoredRelationship{
				Relationship: rel,
				Score:        ExpansionEdgeScore,
				Induced:      false,
			})
		}
	}

	rd.logger.Debug("discovered relationships",
		zap.Int("implied_tables", len(impliedTables)),
		zap.Int("edges", len(discovered)))

	return discovered
}
