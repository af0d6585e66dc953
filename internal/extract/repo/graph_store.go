package repo

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	errx "github.com/Chative-core-poc-v1/cookbook/internal/core/error"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/model"
	logx "github.com/Chative-core-poc-v1/cookbook/pkg/logger"
)

const (
	mergeNodeCypher = `MERGE (n:Concept {graph: $graph, id: $id})
SET n.label = $label, n.color = $color`

	// Endpoints are merged too so edges to undeclared nodes survive.
	mergeEdgeCypher = `MERGE (a:Concept {graph: $graph, id: $source})
MERGE (b:Concept {graph: $graph, id: $target})
MERGE (a)-[r:RELATED {label: $label}]->(b)
SET r.color = $color`

	loadNodesCypher = `MATCH (n:Concept {graph: $graph})
RETURN n.id AS id, coalesce(n.label, n.id) AS label, coalesce(n.color, '') AS color
ORDER BY id`

	loadEdgesCypher = `MATCH (a:Concept {graph: $graph})-[r:RELATED]->(b:Concept {graph: $graph})
RETURN a.id AS source, b.id AS target, r.label AS label, coalesce(r.color, '') AS color
ORDER BY source, target, label`

	deleteGraphCypher = `MATCH (n:Concept {graph: $graph}) DETACH DELETE n`
)

// Neo4jGraphStore keeps each named graph as :Concept nodes tagged with the
// graph name, linked by :RELATED relationships.
type Neo4jGraphStore struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewNeo4jGraphStore(driver neo4j.DriverWithContext, database string) *Neo4jGraphStore {
	return &Neo4jGraphStore{driver: driver, database: database}
}

func (s *Neo4jGraphStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// SaveGraph merges g into the graph stored under name. Nodes are keyed by ID,
// so a repeated ID keeps the label and color of its last occurrence.
func (s *Neo4jGraphStore) SaveGraph(ctx context.Context, name string, g *model.StoredGraph) error {
	if g == nil {
		return fmt.Errorf("save graph %s: nil graph", name)
	}
	g = g.Collapse()
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, n := range g.Nodes {
			if _, err := tx.Run(ctx, mergeNodeCypher, nodeParams(name, n)); err != nil {
				return nil, fmt.Errorf("merge node %s: %w", n.ID, err)
			}
		}
		for _, e := range g.Edges {
			if _, err := tx.Run(ctx, mergeEdgeCypher, edgeParams(name, e)); err != nil {
				return nil, fmt.Errorf("merge edge %s->%s: %w", e.Source, e.Target, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		logx.Error().Err(err).Str("graph", name).Msg("failed to save graph to neo4j")
		return errx.WrapNeo4j(err)
	}

	logx.Debug().Str("graph", name).Int("nodes", len(g.Nodes)).Int("edges", len(g.Edges)).Msg("graph saved")
	return nil
}

func (s *Neo4jGraphStore) LoadGraph(ctx context.Context, name string) (*model.StoredGraph, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		g := &model.StoredGraph{}

		res, err := tx.Run(ctx, loadNodesCypher, map[string]any{"graph": name})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			g.Nodes = append(g.Nodes, model.GraphNode{
				ID:    recordString(rec, "id"),
				Label: recordString(rec, "label"),
				Color: recordString(rec, "color"),
			})
		}

		res, err = tx.Run(ctx, loadEdgesCypher, map[string]any{"graph": name})
		if err != nil {
			return nil, err
		}
		records, err = res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			g.Edges = append(g.Edges, model.GraphEdge{
				Source: recordString(rec, "source"),
				Target: recordString(rec, "target"),
				Label:  recordString(rec, "label"),
				Color:  recordString(rec, "color"),
			})
		}
		return g, nil
	})
	if err != nil {
		logx.Error().Err(err).Str("graph", name).Msg("failed to load graph from neo4j")
		return nil, errx.WrapNeo4j(err)
	}
	return out.(*model.StoredGraph), nil
}

func (s *Neo4jGraphStore) DeleteGraph(ctx context.Context, name string) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, deleteGraphCypher, map[string]any{"graph": name})
		return nil, err
	})
	return errx.WrapNeo4j(err)
}

func nodeParams(graph string, n model.GraphNode) map[string]any {
	label := n.Label
	if label == "" {
		label = n.ID
	}
	return map[string]any{
		"graph": graph,
		"id":    n.ID,
		"label": label,
		"color": n.Color,
	}
}

func edgeParams(graph string, e model.GraphEdge) map[string]any {
	return map[string]any{
		"graph":  graph,
		"source": e.Source,
		"target": e.Target,
		"label":  e.Label,
		"color":  e.Color,
	}
}

func recordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

var _ model.GraphStore = (*Neo4jGraphStore)(nil)
