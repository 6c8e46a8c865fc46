package services

import (
	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
)

// GraphNavigator finds minimal join paths between required tables over the
// discovered relationship set. Traversal is breadth-first and ties break
// on edge order, so identical inputs always yield identical paths.
type GraphNavigator struct {
	logger *zap.Logger
}

func NewGraphNavigator(logger *zap.Logger) *GraphNavigator {
	return &GraphNavigator{logger: logger.Named("navigator")}
}

// Navigate connects every pair of required tables by a shortest path over
// the discovered edges, then unions the per-pair paths into one join tree
// per connected component. Required tables that cannot reach each other
// are reported as disconnected pairs rather than silently dropped.
func (gn *GraphNavigator) Navigate(edges []models.ScoredRelationship, required []string) models.NavigationResult {
	if len(required) == 0 {
		return models.NavigationResult{}
	}

	adj := buildNavAdjacency(edges)

	// Shortest path per required pair; union the edges used.
	used := make([]bool, len(edges))
	for i := 0; i < len(required); i++ {
		for j := i + 1; j < len(required); j++ {
			path := shortestEdgePath(adj, edges, required[i], required[j])
			for _, edgeIdx := range path {
				used[edgeIdx] = true
			}
		}
	}

	var unionEdges []models.Relationship
	unionIdx := make([]int, 0, len(edges))
	seen := make(map[string]bool)
	for idx, e := range edges {
		if !used[idx] || seen[e.Key()] {
			continue
		}
		seen[e.Key()] = true
		unionEdges = append(unionEdges, e.Relationship)
		unionIdx = append(unionIdx, idx)
	}

	result := gn.assembleComponents(unionEdges, required)

	gn.logger.Debug("navigation complete",
		zap.Int("required_tables", len(required)),
		zap.Int("edges_used", len(unionIdx)),
		zap.Int("paths", len(result.Paths)),
		zap.Int("disconnected_pairs", len(result.Disconnected)))
	return result
}

type navArc struct {
	edge     int
	neighbor string
}

// buildNavAdjacency indexes the discovered edges as an undirected
// adjacency list. Arc order follows edge order, which is what makes BFS
// tie-breaking deterministic.
func buildNavAdjacency(edges []models.ScoredRelationship) map[string][]navArc {
	adj := make(map[string][]navArc)
	for idx, e := range edges {
		adj[e.SourceTable] = append(adj[e.SourceTable], navArc{edge: idx, neighbor: e.TargetTable})
		adj[e.TargetTable] = append(adj[e.TargetTable], navArc{edge: idx, neighbor: e.SourceTable})
	}
	return adj
}

// shortestEdgePath runs BFS from one table to another and returns the
// edge indices along the first shortest path found, or nil when the
// tables are disconnected.
func shortestEdgePath(adj map[string][]navArc, edges []models.ScoredRelationship, from, to string) []int {
	if from == to {
		return nil
	}

	type parentLink struct {
		table string
		edge  int
	}
	parents := map[string]parentLink{from: {}}
	queue := []string{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == to {
			break
		}
		for _, arc := range adj[current] {
			if _, visited := parents[arc.neighbor]; visited {
				continue
			}
			parents[arc.neighbor] = parentLink{table: current, edge: arc.edge}
			queue = append(queue, arc.neighbor)
		}
	}

	if _, reached := parents[to]; !reached {
		return nil
	}

	var path []int
	for current := to; current != from; {
		link := parents[current]
		path = append(path, link.edge)
		current = link.table
	}
	// Reverse so the path reads from -> to.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// assembleComponents groups the union edge set into connected components
// and emits one NavigationPath per component containing a required table.
// A required table with no edges becomes a zero-hop singleton path.
// Components are then cross-checked: one disconnected pair is reported
// per pair of components, using each component's first required table as
// its representative.
func (gn *GraphNavigator) assembleComponents(unionEdges []models.Relationship, required []string) models.NavigationResult {
	adj := make(map[string][]navArc)
	for idx, e := range unionEdges {
		adj[e.SourceTable] = append(adj[e.SourceTable], navArc{edge: idx, neighbor: e.TargetTable})
		adj[e.TargetTable] = append(adj[e.TargetTable], navArc{edge: idx, neighbor: e.SourceTable})
	}

	var result models.NavigationResult
	componentOf := make(map[string]int)
	var representatives []string

	for _, start := range required {
		if _, assigned := componentOf[start]; assigned {
			continue
		}
		componentID := len(representatives)
		representatives = append(representatives, start)

		// BFS in edge order collects the component's tables in a stable
		// visit order. Only the edges that first reach each table are
		// kept: they form the spanning tree the joins will actually use,
		// so hop count stays tables-1 even when pair paths overlap into
		// a cycle.
		var tables []string
		inComponent := make(map[string]bool)
		treeEdges := make(map[int]bool)
		queue := []string{start}
		componentOf[start] = componentID
		inComponent[start] = true

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			tables = append(tables, current)
			for _, arc := range adj[current] {
				if !inComponent[arc.neighbor] {
					inComponent[arc.neighbor] = true
					componentOf[arc.neighbor] = componentID
					treeEdges[arc.edge] = true
					queue = append(queue, arc.neighbor)
				}
			}
		}

		var rels []models.Relationship
		for idx, e := range unionEdges {
			if treeEdges[idx] {
				rels = append(rels, e)
			}
		}

		result.Paths = append(result.Paths, models.NavigationPath{
			Tables:        tables,
			Relationships: rels,
			HopCount:      len(rels),
		})
	}

	for i := 0; i < len(representatives); i++ {
		for j := i + 1; j < len(representatives); j++ {
			result.Disconnected = append(result.Disconnected, models.TablePair{
				A: representatives[i],
				B: representatives[j],
			})
		}
	}
	return result
}
