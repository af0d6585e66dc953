package repo

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract/model"
	pkgneo4j "github.com/Chative-core-poc-v1/cookbook/pkg/neo4j"
)

// newLiveStore connects to the Neo4j server named by NEO4J_URL and skips the
// test when there is none.
func newLiveStore(t *testing.T) *Neo4jGraphStore {
	t.Helper()
	cfg := &pkgneo4j.Config{
		URL:      os.Getenv("NEO4J_URL"),
		User:     os.Getenv("NEO4J_USER"),
		Password: os.Getenv("NEO4J_PASSWORD"),
		Database: os.Getenv("NEO4J_DATABASE"),
	}
	if testing.Short() || !cfg.Enabled() {
		t.Skip("NEO4J_URL not set, skipping neo4j integration test")
	}
	if cfg.User == "" {
		cfg.User = "neo4j"
	}
	ctx := context.Background()
	driver, err := cfg.New(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close(ctx) })
	return NewNeo4jGraphStore(driver, cfg.Database)
}

func TestNeo4jGraphStoreRoundTrip(t *testing.T) {
	store := newLiveStore(t)
	ctx := context.Background()
	name := "test-" + uuid.NewString()
	t.Cleanup(func() { _ = store.DeleteGraph(ctx, name) })

	require.NoError(t, store.SaveGraph(ctx, name, &model.StoredGraph{
		Nodes: []model.GraphNode{
			{ID: "1", Label: "Jason"},
			{ID: "2", Label: "Sarah", Color: "red"},
			{ID: "1", Label: "Jason (physicist)", Color: "blue"},
		},
		Edges: []model.GraphEdge{
			{Source: "2", Target: "1", Label: "student of", Color: "black"},
			{Source: "2", Target: "1", Label: "friend of"},
			{Source: "2", Target: "3", Label: "cites"},
		},
	}))

	got, err := store.LoadGraph(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, []model.GraphNode{
		{ID: "1", Label: "Jason (physicist)", Color: "blue"},
		{ID: "2", Label: "Sarah", Color: "red"},
		{ID: "3", Label: "3"},
	}, got.Nodes)
	assert.Equal(t, []model.GraphEdge{
		{Source: "2", Target: "1", Label: "friend of"},
		{Source: "2", Target: "1", Label: "student of", Color: "black"},
		{Source: "2", Target: "3", Label: "cites"},
	}, got.Edges)

	require.NoError(t, store.DeleteGraph(ctx, name))
	got, err = store.LoadGraph(ctx, name)
	require.NoError(t, err)
	assert.Empty(t, got.Nodes)
	assert.Empty(t, got.Edges)
}

func TestNodeParamsDefaultsLabelToID(t *testing.T) {
	p := nodeParams("quantum", model.GraphNode{ID: "qubit"})
	assert.Equal(t, map[string]any{"graph": "quantum", "id": "qubit", "label": "qubit", "color": ""}, p)

	p = nodeParams("quantum", model.GraphNode{ID: "qubit", Label: "Qubit", Color: "blue"})
	assert.Equal(t, "Qubit", p["label"])
	assert.Equal(t, "blue", p["color"])
}

func TestEdgeParams(t *testing.T) {
	p := edgeParams("g", model.GraphEdge{Source: "a", Target: "b", Label: "uses", Color: "black"})
	assert.Equal(t, map[string]any{"graph": "g", "source": "a", "target": "b", "label": "uses", "color": "black"}, p)
}

func TestRecordString(t *testing.T) {
	rec := &neo4j.Record{Keys: []string{"id", "n", "missing"}, Values: []any{"x", int64(3), nil}}
	assert.Equal(t, "x", recordString(rec, "id"))
	assert.Equal(t, "3", recordString(rec, "n"))
	assert.Equal(t, "", recordString(rec, "missing"))
	assert.Equal(t, "", recordString(rec, "absent"))
}
