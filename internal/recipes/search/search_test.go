package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/testutils"
)

func TestBackendTool(t *testing.T) {
	backends := NewBackends(SampleCorpus)
	ctx := context.Background()

	info, err := backends[Video].Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "search_video", info.Name)

	raw, err := backends[Email].InvokableRun(ctx, `{"query":"hiking gear order","max_results":1}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hits":[{"id":"eml-001","title":"Your order has shipped: hiking boots and trekking poles","date":"2024-07-30","score":3}],"total":2}`, raw)

	_, err = backends[Video].InvokableRun(ctx, `{"query":"  "}`)
	assert.Error(t, err)
}

func TestRank(t *testing.T) {
	hits := rank(SampleCorpus, "The Canadian Rockies hike!")
	require.Len(t, hits, 2)
	assert.Equal(t, "vid-001", hits[0].ID)
	assert.Equal(t, 3, hits[0].Score)
	assert.Equal(t, "vid-002", hits[1].ID)

	assert.Empty(t, rank(SampleCorpus, "of a to"))
}

func TestExecute(t *testing.T) {
	m := MultiSearch{Searches: []Search{
		{Title: "Rockies video", Query: "canadian rockies hike", Type: Video},
		{Title: "Gear email", Query: "hiking gear", Type: Email},
		{Title: "Nothing", Query: "quantum", Type: Email},
	}}
	results, err := m.Execute(context.Background(), NewBackends(SampleCorpus))
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "vid-001", results[0].Hits[0].ID)
	assert.Equal(t, 2, results[1].Total)
	assert.Equal(t, "Nothing", results[2].Search.Title)
	assert.Empty(t, results[2].Hits)
}

func TestExecuteMissingBackend(t *testing.T) {
	m := MultiSearch{Searches: []Search{{Title: "x", Query: "y", Type: "podcast"}}}
	_, err := m.Execute(context.Background(), NewBackends(SampleCorpus))
	assert.ErrorContains(t, err, "no backend for podcast")
}

func TestExtract(t *testing.T) {
	gen := testutils.NewFakeGenerator(
		`{"searches":[{"title":"Rockies","query":"canadian rockies hike","type":"podcast"}]}`,
		`{"searches":[{"title":"Rockies","query":"canadian rockies hike","type":"video"},{"title":"Gear","query":"hiking gear","type":"email"}]}`,
	)
	ex, err := extract.New(context.Background(), gen)
	require.NoError(t, err)

	m, report, err := Extract(context.Background(), ex, Sample)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Attempts)
	require.Len(t, m.Searches, 2)
	assert.Equal(t, Email, m.Searches[1].Type)
}
