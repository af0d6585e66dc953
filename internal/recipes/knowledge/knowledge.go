// Package knowledge builds a knowledge graph from text, one chunk at a time,
// and persists it.
package knowledge

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"

	errx "github.com/Chative-core-poc-v1/cookbook/internal/core/error"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/model"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes"
	"github.com/Chative-core-poc-v1/cookbook/internal/render"
	logx "github.com/Chative-core-poc-v1/cookbook/pkg/logger"
)

const Name = "knowledge_graph"

//go:embed template/system.txt
var systemPrompt string

//go:embed template/user.txt
var userPrompt string

var Sample = []string{
	"Jason knows a lot about quantum mechanics. He is a physicist. He is a professor",
	"Professors are smart.",
	"Sarah knows Jason and is a student of his.",
	"Sarah is a student at the University of Toronto. and UofT is in Canada.",
}

type Node struct {
	ID    int    `json:"id"`
	Label string `json:"label" validate:"required"`
	Color string `json:"color"`
}

type Edge struct {
	Source int    `json:"source"`
	Target int    `json:"target"`
	Label  string `json:"label" validate:"required"`
	Color  string `json:"color"`
}

type KnowledgeGraph struct {
	Nodes []Node `json:"nodes" validate:"dive"`
	Edges []Edge `json:"edges" validate:"dive"`
}

// Update returns the union of g and other. Duplicates, compared by full
// value, are dropped and first-seen order is kept, so applying the same
// update twice changes nothing.
func (g *KnowledgeGraph) Update(other *KnowledgeGraph) *KnowledgeGraph {
	out := &KnowledgeGraph{}
	seenNodes := map[Node]bool{}
	seenEdges := map[Edge]bool{}
	for _, src := range []*KnowledgeGraph{g, other} {
		if src == nil {
			continue
		}
		for _, n := range src.Nodes {
			if !seenNodes[n] {
				seenNodes[n] = true
				out.Nodes = append(out.Nodes, n)
			}
		}
		for _, e := range src.Edges {
			if !seenEdges[e] {
				seenEdges[e] = true
				out.Edges = append(out.Edges, e)
			}
		}
	}
	return out
}

func (g *KnowledgeGraph) Diagram() render.Diagram {
	d := render.Diagram{Name: "Knowledge graph"}
	for _, n := range g.Nodes {
		d.Nodes = append(d.Nodes, render.Node{ID: strconv.Itoa(n.ID), Label: n.Label, Color: n.Color})
	}
	for _, e := range g.Edges {
		d.Edges = append(d.Edges, render.Edge{
			From:  strconv.Itoa(e.Source),
			To:    strconv.Itoa(e.Target),
			Label: e.Label,
			Color: e.Color,
		})
	}
	return d
}

// Build feeds the chunks to the model in order, showing it the graph built so
// far each time. Reports of every step are returned, including the failing one.
func Build(ctx context.Context, ex *extract.Extractor, chunks []string) (*KnowledgeGraph, []*extract.Report, error) {
	if len(chunks) == 0 {
		return nil, nil, errx.Input("%s: no input chunks", Name)
	}
	for i, c := range chunks {
		if err := recipes.RequireText(fmt.Sprintf("%s chunk %d", Name, i), c); err != nil {
			return nil, nil, err
		}
	}

	tpl := recipes.NewPrompt(systemPrompt, userPrompt)
	graph := &KnowledgeGraph{}
	reports := make([]*extract.Report, 0, len(chunks))
	for i, chunk := range chunks {
		state, err := json.Marshal(graph)
		if err != nil {
			return nil, reports, fmt.Errorf("encode graph state: %w", err)
		}

		var step KnowledgeGraph
		report, err := ex.Extract(ctx, extract.Request{
			Name:        Name,
			Description: "Nodes and edges to add to the knowledge graph",
			Prompt:      tpl,
			Vars: map[string]any{
				"Part":  i + 1,
				"Total": len(chunks),
				"Input": chunk,
				"State": string(state),
			},
		}, &step)
		reports = append(reports, report)
		if err != nil {
			return nil, reports, fmt.Errorf("chunk %d: %w", i, err)
		}

		graph = graph.Update(&step)
		logx.Debug().Str("recipe", Name).Int("chunk", i).Int("nodes", len(graph.Nodes)).Int("edges", len(graph.Edges)).Msg("graph updated")
	}
	return graph, reports, nil
}

// Save writes the graph to store under name. The store keeps one node per
// ID, so nodes that differ only in label collapse into the last one.
func (g *KnowledgeGraph) Save(ctx context.Context, store model.GraphStore, name string) error {
	stored := &model.StoredGraph{}
	for _, n := range g.Nodes {
		stored.Nodes = append(stored.Nodes, model.GraphNode{ID: strconv.Itoa(n.ID), Label: n.Label, Color: n.Color})
	}
	for _, e := range g.Edges {
		stored.Edges = append(stored.Edges, model.GraphEdge{
			Source: strconv.Itoa(e.Source),
			Target: strconv.Itoa(e.Target),
			Label:  e.Label,
			Color:  e.Color,
		})
	}
	return store.SaveGraph(ctx, name, stored)
}

// Load reads the graph stored under name.
func Load(ctx context.Context, store model.GraphStore, name string) (*KnowledgeGraph, error) {
	stored, err := store.LoadGraph(ctx, name)
	if err != nil {
		return nil, err
	}
	g := &KnowledgeGraph{}
	for _, n := range stored.Nodes {
		id, err := strconv.Atoi(n.ID)
		if err != nil {
			return nil, fmt.Errorf("load graph %s: node id %q: %w", name, n.ID, err)
		}
		g.Nodes = append(g.Nodes, Node{ID: id, Label: n.Label, Color: n.Color})
	}
	for _, e := range stored.Edges {
		src, err := strconv.Atoi(e.Source)
		if err != nil {
			return nil, fmt.Errorf("load graph %s: edge source %q: %w", name, e.Source, err)
		}
		dst, err := strconv.Atoi(e.Target)
		if err != nil {
			return nil, fmt.Errorf("load graph %s: edge target %q: %w", name, e.Target, err)
		}
		g.Edges = append(g.Edges, Edge{Source: src, Target: dst, Label: e.Label, Color: e.Color})
	}
	return g, nil
}
