package model

import "context"

// ResponseCache stores validated raw JSON answers keyed by request fingerprint.
// Get returns an error matching errx.ErrCacheMiss when nothing is stored.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, raw []byte) error
}

type GraphNode struct {
	ID    string
	Label string
	Color string
}

type GraphEdge struct {
	Source string
	Target string
	Label  string
	Color  string
}

type StoredGraph struct {
	Nodes []GraphNode
	Edges []GraphEdge
}

// GraphStore persists named concept graphs.
type GraphStore interface {
	SaveGraph(ctx context.Context, name string, g *StoredGraph) error
	LoadGraph(ctx context.Context, name string) (*StoredGraph, error)
	DeleteGraph(ctx context.Context, name string) error
}

// Collapse returns g with one node per ID and one edge per (source, target,
// label), which is the identity a graph store keeps. Positions follow first
// occurrence; label and color follow the last one, as repeated writes would.
func (g *StoredGraph) Collapse() *StoredGraph {
	out := &StoredGraph{}
	if g == nil {
		return out
	}
	nodeAt := map[string]int{}
	for _, n := range g.Nodes {
		if i, ok := nodeAt[n.ID]; ok {
			out.Nodes[i] = n
			continue
		}
		nodeAt[n.ID] = len(out.Nodes)
		out.Nodes = append(out.Nodes, n)
	}
	type edgeKey struct{ source, target, label string }
	edgeAt := map[edgeKey]int{}
	for _, e := range g.Edges {
		k := edgeKey{e.Source, e.Target, e.Label}
		if i, ok := edgeAt[k]; ok {
			out.Edges[i] = e
			continue
		}
		edgeAt[k] = len(out.Edges)
		out.Edges = append(out.Edges, e)
	}
	return out
}
