package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoredGraphCollapse(t *testing.T) {
	g := &StoredGraph{
		Nodes: []GraphNode{
			{ID: "1", Label: "Jason"},
			{ID: "2", Label: "Sarah"},
			{ID: "1", Label: "Jason (physicist)", Color: "blue"},
		},
		Edges: []GraphEdge{
			{Source: "2", Target: "1", Label: "student of"},
			{Source: "2", Target: "1", Label: "friend of"},
			{Source: "2", Target: "1", Label: "student of", Color: "black"},
		},
	}

	got := g.Collapse()
	assert.Equal(t, []GraphNode{
		{ID: "1", Label: "Jason (physicist)", Color: "blue"},
		{ID: "2", Label: "Sarah"},
	}, got.Nodes)
	assert.Equal(t, []GraphEdge{
		{Source: "2", Target: "1", Label: "student of", Color: "black"},
		{Source: "2", Target: "1", Label: "friend of"},
	}, got.Edges)

	assert.Len(t, g.Nodes, 3)
	assert.Empty(t, (*StoredGraph)(nil).Collapse().Nodes)
}
