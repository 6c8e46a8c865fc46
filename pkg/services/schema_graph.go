package services

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
)

// SchemaGraph is the adjacency structure over a schema context: tables as
// nodes, relationships as undirected edges. Built once per schema context
// and read-only afterwards, so it is safe to share across concurrent
// requests. Neighbor lists follow relationship declaration order, which
// fixes the tie-breaking order for every traversal.
type SchemaGraph struct {
	tables   []string
	tableIdx map[string]int
	edges    []models.Relationship
	// adjacency[t] lists (edge index, neighbor table index) pairs in
	// declaration order.
	adjacency [][]graphArc
}

type graphArc struct {
	edge     int
	neighbor int
}

// NewSchemaGraph builds the graph from a validated schema context.
func NewSchemaGraph(sc *models.SchemaContext) *SchemaGraph {
	g := &SchemaGraph{
		tableIdx: make(map[string]int, len(sc.Tables)),
	}
	for _, t := range sc.Tables {
		g.tableIdx[t.Name] = len(g.tables)
		g.tables = append(g.tables, t.Name)
	}
	g.adjacency = make([][]graphArc, len(g.tables))

	for _, rel := range sc.Relationships {
		src, srcOK := g.tableIdx[rel.SourceTable]
		tgt, tgtOK := g.tableIdx[rel.TargetTable]
		if !srcOK || !tgtOK {
			continue // Validate() rejects these before we get here
		}
		edgeIdx := len(g.edges)
		g.edges = append(g.edges, rel)
		g.adjacency[src] = append(g.adjacency[src], graphArc{edge: edgeIdx, neighbor: tgt})
		g.adjacency[tgt] = append(g.adjacency[tgt], graphArc{edge: edgeIdx, neighbor: src})
	}
	return g
}

// Tables returns all table names in schema declaration order.
func (g *SchemaGraph) Tables() []string {
	return g.tables
}

// Relationships returns all edges in declaration order.
func (g *SchemaGraph) Relationships() []models.Relationship {
	return g.edges
}

// Neighbors returns the neighbor table names of a table in declaration
// order, with duplicates when parallel edges exist.
func (g *SchemaGraph) Neighbors(table string) []string {
	idx, ok := g.tableIdx[table]
	if !ok {
		return nil
	}
	var names []string
	for _, arc := range g.adjacency[idx] {
		names = append(names, g.tables[arc.neighbor])
	}
	return names
}

// ConnectedComponent is a group of tables connected by relationships.
type ConnectedComponent struct {
	Tables []string
	Size   int
}

// ConnectedComponents identifies all connected components using BFS in
// declaration order. Single-table components are returned separately as
// islands.
func (g *SchemaGraph) ConnectedComponents() ([]ConnectedComponent, []string) {
	visited := make([]bool, len(g.tables))
	var components []ConnectedComponent
	var islands []string

	for i := range g.tables {
		if visited[i] {
			continue
		}
		component := g.bfsComponent(i, visited)
		if len(component) == 1 {
			islands = append(islands, component[0])
		} else {
			components = append(components, ConnectedComponent{
				Tables: component,
				Size:   len(component),
			})
		}
	}
	return components, islands
}

func (g *SchemaGraph) bfsComponent(start int, visited []bool) []string {
	var component []string
	queue := []int{start}
	visited[start] = true

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		component = append(component, g.tables[current])

		for _, arc := range g.adjacency[current] {
			if !visited[arc.neighbor] {
				visited[arc.neighbor] = true
				queue = append(queue, arc.neighbor)
			}
		}
	}
	return component
}

// LogConnectivity logs the graph's connectivity analysis, flagging island
// tables that no navigation path can ever reach.
func (g *SchemaGraph) LogConnectivity(logger *zap.Logger) {
	components, islands := g.ConnectedComponents()

	logger.Info("schema graph connectivity",
		zap.Int("tables", len(g.tables)),
		zap.Int("relationships", len(g.edges)),
		zap.Int("components", len(components)),
		zap.Int("islands", len(islands)))

	for i, comp := range components {
		preview := comp.Tables
		suffix := ""
		if len(preview) > 5 {
			preview = preview[:5]
			suffix = fmt.Sprintf(", ... (%d more)", comp.Size-5)
		}
		logger.Info(fmt.Sprintf("  component %d (%d tables): %v%s", i+1, comp.Size, preview, suffix))
	}
	if len(islands) > 0 {
		logger.Info(fmt.Sprintf("  island tables (%d): %v", len(islands), islands))
	}
}
