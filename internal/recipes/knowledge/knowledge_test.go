package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/Chative-core-poc-v1/cookbook/internal/core/error"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/model"
	"github.com/Chative-core-poc-v1/cookbook/internal/testutils"
)

type memStore struct {
	graphs map[string]*model.StoredGraph
}

func (m *memStore) SaveGraph(ctx context.Context, name string, g *model.StoredGraph) error {
	m.graphs[name] = g
	return nil
}

func (m *memStore) LoadGraph(ctx context.Context, name string) (*model.StoredGraph, error) {
	g, ok := m.graphs[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return g, nil
}

func (m *memStore) DeleteGraph(ctx context.Context, name string) error {
	delete(m.graphs, name)
	return nil
}

func TestUpdateIsIdempotent(t *testing.T) {
	a := &KnowledgeGraph{
		Nodes: []Node{{ID: 1, Label: "Jason", Color: "blue"}},
		Edges: []Edge{{Source: 1, Target: 2, Label: "knows"}},
	}
	b := &KnowledgeGraph{
		Nodes: []Node{{ID: 2, Label: "Physics"}, {ID: 1, Label: "Jason", Color: "blue"}, {ID: 1, Label: "Jason", Color: "red"}},
		Edges: []Edge{{Source: 1, Target: 2, Label: "knows"}, {Source: 1, Target: 2, Label: "teaches"}},
	}

	merged := a.Update(b)
	assert.Equal(t, []Node{{ID: 1, Label: "Jason", Color: "blue"}, {ID: 2, Label: "Physics"}, {ID: 1, Label: "Jason", Color: "red"}}, merged.Nodes)
	assert.Len(t, merged.Edges, 2)
	assert.Equal(t, merged, merged.Update(b))
	assert.Equal(t, merged, merged.Update(nil))
}

func TestBuild(t *testing.T) {
	gen := testutils.NewFakeGenerator(
		`{"nodes":[{"id":1,"label":"Jason","color":"blue"},{"id":2,"label":"Quantum mechanics","color":"green"}],"edges":[{"source":1,"target":2,"label":"knows about","color":"black"}]}`,
		`{"nodes":[{"id":1,"label":"Jason","color":"blue"},{"id":3,"label":"Sarah","color":"blue"}],"edges":[{"source":3,"target":1,"label":"student of","color":"black"}]}`,
	)
	ex, err := extract.New(context.Background(), gen)
	require.NoError(t, err)

	g, reports, err := Build(context.Background(), ex, []string{Sample[0], Sample[2]})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Len(t, g.Nodes, 3)
	assert.Len(t, g.Edges, 2)

	calls := gen.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].Messages[1].Content, "# Part 1/2 of the input:")
	assert.Contains(t, calls[0].Messages[1].Content, `{"nodes":null,"edges":null}`)
	assert.Contains(t, calls[1].Messages[1].Content, "# Part 2/2 of the input:")
	assert.Contains(t, calls[1].Messages[1].Content, `"label":"Quantum mechanics"`)

	d := g.Diagram()
	assert.Empty(t, d.Dangling())
	assert.Equal(t, "student of", d.Edges[1].Label)
}

func TestBuildRejectsEmptyInput(t *testing.T) {
	gen := testutils.NewFakeGenerator(`{}`)
	ex, err := extract.New(context.Background(), gen)
	require.NoError(t, err)

	_, _, err = Build(context.Background(), ex, nil)
	assert.True(t, errx.IsKind(err, errx.KindInput))
	_, _, err = Build(context.Background(), ex, []string{"fine", " "})
	assert.True(t, errx.IsKind(err, errx.KindInput))
	assert.Empty(t, gen.Calls())
}

func TestSaveAndLoad(t *testing.T) {
	store := &memStore{graphs: map[string]*model.StoredGraph{}}
	g := &KnowledgeGraph{
		Nodes: []Node{{ID: 1, Label: "Jason", Color: "blue"}, {ID: 2, Label: "Sarah"}},
		Edges: []Edge{{Source: 2, Target: 1, Label: "student of", Color: "black"}},
	}
	require.NoError(t, g.Save(context.Background(), store, "people"))
	assert.Equal(t, "2", store.graphs["people"].Edges[0].Source)

	loaded, err := Load(context.Background(), store, "people")
	require.NoError(t, err)
	assert.Equal(t, g, loaded)

	store.graphs["broken"] = &model.StoredGraph{Nodes: []model.GraphNode{{ID: "x"}}}
	_, err = Load(context.Background(), store, "broken")
	assert.ErrorContains(t, err, `node id "x"`)
}
