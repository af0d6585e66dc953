package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract/model"
	"github.com/Chative-core-poc-v1/cookbook/internal/testutils"
)

type memStore struct {
	saved map[string]*model.StoredGraph
}

func (m *memStore) SaveGraph(ctx context.Context, name string, g *model.StoredGraph) error {
	m.saved[name] = g
	return nil
}

func (m *memStore) LoadGraph(ctx context.Context, name string) (*model.StoredGraph, error) {
	return m.saved[name], nil
}

func (m *memStore) DeleteGraph(ctx context.Context, name string) error {
	delete(m.saved, name)
	return nil
}

func run(t *testing.T, gen *testutils.FakeGenerator, args ...string) (string, error) {
	t.Helper()
	t.Setenv("REDIS_URL", "")
	t.Setenv("NEO4J_URL", "")
	t.Setenv("METRICS_TEXTFILE", "")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := NewRootCommand(WithGenerator(gen), WithGraphStore(&memStore{saved: map[string]*model.StoredGraph{}}))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRecipesList(t *testing.T) {
	out, err := run(t, nil, "recipes")
	require.NoError(t, err)
	for _, r := range catalog {
		assert.Contains(t, out, r.command)
	}
}

func TestActionItemsWritesGraph(t *testing.T) {
	gen := testutils.NewFakeGenerator(`{"items":[{"id":1,"name":"Auth","priority":"high"},{"id":2,"name":"Billing","priority":"low","dependencies":[1]}]}`)
	graph := filepath.Join(t.TempDir(), "items.dot")

	out, err := run(t, gen, "action-items", "--graph", graph)
	require.NoError(t, err)

	var got struct {
		Result struct {
			Items []struct {
				Name string `json:"name"`
			} `json:"items"`
		} `json:"result"`
		Reports []struct {
			Attempts int    `json:"attempts"`
			Model    string `json:"model"`
		} `json:"reports"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got.Result.Items, 2)
	require.Len(t, got.Reports, 1)
	assert.Equal(t, 1, got.Reports[0].Attempts)
	assert.Equal(t, "gemini-2.5-flash", got.Reports[0].Model)

	dot, err := os.ReadFile(graph)
	require.NoError(t, err)
	assert.Contains(t, string(dot), "->")
}

func TestPIIPrintsScrubbedText(t *testing.T) {
	gen := testutils.NewFakeGenerator(`{"private_data":[{"index":0,"data_type":"NAME","pii_value":"John Doe"}]}`)
	out, err := run(t, gen, "pii")
	require.NoError(t, err)
	assert.Contains(t, out, `"scrubbed": "<NAME_0>, born on`)
}

func TestSQLWritesFile(t *testing.T) {
	gen := testutils.NewFakeGenerator(`{"table":"orders","columns":["id"],"limit":5}`)
	path := filepath.Join(t.TempDir(), "q.sql")

	out, err := run(t, gen, "sql", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"sql": "SELECT id FROM orders LIMIT 5"`)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(raw), "SELECT id FROM orders LIMIT 5;\n"))
}

func TestKnowledgePersists(t *testing.T) {
	gen := testutils.NewFakeGenerator(`{"nodes":[{"id":1,"label":"Jason","color":"blue"}],"edges":[]}`)
	store := &memStore{saved: map[string]*model.StoredGraph{}}
	input := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(input, []byte("Jason is a physicist.\n\n\nJason is a professor.\n"), 0o644))

	t.Setenv("REDIS_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	var out bytes.Buffer
	cmd := NewRootCommand(WithGenerator(gen), WithGraphStore(store))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--env-file", "", "knowledge", "--file", input, "--persist", "people"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Len(t, gen.Calls(), 2)
	require.Contains(t, store.saved, "people")
	assert.Equal(t, "Jason", store.saved["people"].Nodes[0].Label)
}

func TestExtractionFailureIsReturned(t *testing.T) {
	gen := testutils.NewFakeGenerator(`{"name":"","age":5,"facts":[]}`)
	_, err := run(t, gen, "--max-retries", "1", "character")
	require.Error(t, err)
	assert.Len(t, gen.Calls(), 2)
}

func TestParagraphs(t *testing.T) {
	assert.Equal(t, []string{"a\nb", "c"}, paragraphs("a\nb\r\n\r\n\n c \n\n"))
	assert.Empty(t, paragraphs("  \n\n "))
}

func TestMetricsTextfile(t *testing.T) {
	gen := testutils.NewFakeGenerator(`{"class_label":"spam"}`)
	path := filepath.Join(t.TempDir(), "cookbook.prom")
	t.Setenv("REDIS_URL", "")
	t.Setenv("METRICS_TEXTFILE", path)
	t.Setenv("LOG_LEVEL", "error")

	cmd := NewRootCommand(WithGenerator(gen))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env-file", "", "classify"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `cookbook_extract_runs_total{provider="fake",recipe="single_prediction",status="ok"} 1`)
}
