package linker

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/asaabey/picorule-sentry/internal/catalog"
)

// GraphNode is a vertex reached by a dependency traversal.
type GraphNode struct {
	Key   string `json:"key"`
	Depth int    `json:"depth"`
}

// DependencyGraph is a directed graph over "ruleblock.variable" keys with an
// edge from each variable to every variable its statements depend on.
type DependencyGraph struct {
	g          graph.Graph[string, string]
	unresolved map[string][]string // key -> dependency tokens that resolved to nothing
}

// NewDependencyGraph builds the dependency graph of vars. Redefinitions of a
// key contribute the union of their dependencies.
func NewDependencyGraph(vars []catalog.Variable) (*DependencyGraph, error) {
	dg := &DependencyGraph{
		g:          graph.New(graph.StringHash, graph.Directed()),
		unresolved: make(map[string][]string),
	}

	for i := range vars {
		if err := dg.g.AddVertex(vars[i].Key()); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("add vertex %s: %w", vars[i].Key(), err)
		}
	}

	resolver := NewResolver(vars)
	for i := range vars {
		v := &vars[i]
		from := v.Key()
		for _, dep := range v.Dependencies() {
			to, ok := resolver.Resolve(dep, v.Ruleblock)
			if !ok {
				dg.unresolved[from] = appendUnique(dg.unresolved[from], dep)
				continue
			}
			if to == from {
				continue
			}
			if err := dg.g.AddEdge(from, to); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("add edge %s -> %s: %w", from, to, err)
			}
		}
	}
	return dg, nil
}

// Upstream returns the variables key depends on, transitively up to depth
// levels (depth <= 0 means unlimited), in breadth-first order.
func (dg *DependencyGraph) Upstream(key string, depth int) ([]GraphNode, error) {
	adj, err := dg.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("adjacency map: %w", err)
	}
	return traverse(adj, key, depth)
}

// Downstream returns the variables depending on key, transitively up to
// depth levels (depth <= 0 means unlimited), in breadth-first order.
func (dg *DependencyGraph) Downstream(key string, depth int) ([]GraphNode, error) {
	pred, err := dg.g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("predecessor map: %w", err)
	}
	return traverse(pred, key, depth)
}

// Unresolved returns the dependency tokens of key that name no catalog entry.
func (dg *DependencyGraph) Unresolved(key string) []string {
	return dg.unresolved[key]
}

// Cycles returns every group of mutually dependent variables, each group and
// the list itself sorted.
func (dg *DependencyGraph) Cycles() ([][]string, error) {
	sccs, err := graph.StronglyConnectedComponents(dg.g)
	if err != nil {
		return nil, fmt.Errorf("strongly connected components: %w", err)
	}
	var cycles [][]string
	for _, scc := range sccs {
		if len(scc) < 2 {
			continue
		}
		sort.Strings(scc)
		cycles = append(cycles, scc)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles, nil
}

// Size returns the number of vertices and edges.
func (dg *DependencyGraph) Size() (vertices, edges int, err error) {
	if vertices, err = dg.g.Order(); err != nil {
		return 0, 0, err
	}
	if edges, err = dg.g.Size(); err != nil {
		return 0, 0, err
	}
	return vertices, edges, nil
}

func traverse(adj map[string]map[string]graph.Edge[string], start string, depth int) ([]GraphNode, error) {
	if _, ok := adj[start]; !ok {
		return nil, fmt.Errorf("variable %s: %w", start, graph.ErrVertexNotFound)
	}

	visited := map[string]bool{start: true}
	frontier := []string{start}
	var out []GraphNode

	for level := 1; len(frontier) > 0 && (depth <= 0 || level <= depth); level++ {
		var next []string
		for _, key := range frontier {
			neighbours := make([]string, 0, len(adj[key]))
			for n := range adj[key] {
				neighbours = append(neighbours, n)
			}
			sort.Strings(neighbours)
			for _, n := range neighbours {
				if visited[n] {
					continue
				}
				visited[n] = true
				out = append(out, GraphNode{Key: n, Depth: level})
				next = append(next, n)
			}
		}
		frontier = next
	}
	return out, nil
}

func appendUnique(list []string, s string) []string {
	for _, item := range list {
		if item == s {
			return list
		}
	}
	return append(list, s)
}
