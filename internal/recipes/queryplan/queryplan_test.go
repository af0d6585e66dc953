package queryplan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/Chative-core-poc-v1/cookbook/internal/core/error"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/testutils"
)

func plan() *QueryPlan {
	return &QueryPlan{QueryGraph: []Query{
		{ID: 1, Question: "Identify Jason's home country", NodeType: SingleQuestion},
		{ID: 2, Question: "Find the population of Canada", NodeType: SingleQuestion},
		{ID: 3, Question: "Find the population of Jason's home country", Dependencies: []int{1}, NodeType: SingleQuestion},
		{ID: 4, Question: "Calculate the difference", Dependencies: []int{2, 3}, NodeType: MergeMultipleResponses},
	}}
}

func TestWaves(t *testing.T) {
	waves, err := plan().Waves()
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 2}, {3}, {4}}, waves)
}

func TestWavesRejectsBrokenPlans(t *testing.T) {
	unknown := plan()
	unknown.QueryGraph[0].Dependencies = []int{42}
	_, err := unknown.Waves()
	assert.ErrorIs(t, err, ErrUnknownDependency)

	cyclic := plan()
	cyclic.QueryGraph[0].Dependencies = []int{4}
	_, err = cyclic.Waves()
	require.ErrorIs(t, err, ErrCycle)
	assert.Contains(t, err.Error(), "1, 3, 4")
}

func TestDependenciesOf(t *testing.T) {
	deps := plan().DependenciesOf([]int{3, 2, 99})
	require.Len(t, deps, 2)
	assert.Equal(t, 2, deps[0].ID)
	assert.Equal(t, 3, deps[1].ID)
}

func TestExecute(t *testing.T) {
	var running, peak int32
	answers, err := plan().Execute(context.Background(), AnswererFunc(func(ctx context.Context, q Query, deps map[int]string) (string, error) {
		n := atomic.AddInt32(&running, 1)
		defer atomic.AddInt32(&running, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		for _, dep := range q.Dependencies {
			if _, ok := deps[dep]; !ok {
				return "", fmt.Errorf("missing answer for %d", dep)
			}
		}
		var parts []string
		for _, dep := range q.Dependencies {
			parts = append(parts, deps[dep])
		}
		return fmt.Sprintf("a%d(%s)", q.ID, strings.Join(parts, ",")), nil
	}))
	require.NoError(t, err)

	assert.Equal(t, "a1()", answers[1])
	assert.Equal(t, "a3(a1())", answers[3])
	assert.Equal(t, "a4(a2(),a3(a1()))", answers[4])
	assert.LessOrEqual(t, int(peak), 2)
}

func TestExecuteStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	answers, err := plan().Execute(context.Background(), AnswererFunc(func(ctx context.Context, q Query, deps map[int]string) (string, error) {
		if q.ID == 3 {
			return "", boom
		}
		return "ok", nil
	}))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "query 3")
	assert.NotContains(t, answers, 4)
}

func TestExecuteRejectsCycles(t *testing.T) {
	p := plan()
	p.QueryGraph[1].Dependencies = []int{2}
	_, err := p.Execute(context.Background(), AnswererFunc(func(ctx context.Context, q Query, deps map[int]string) (string, error) {
		t.Fatal("no query should run")
		return "", nil
	}))
	require.ErrorIs(t, err, ErrCycle)
	assert.True(t, errx.IsKind(err, errx.KindInput))
}

func TestValidate(t *testing.T) {
	p := plan()
	assert.NoError(t, p.Validate())
	p.QueryGraph[1].ID = 1
	assert.EqualError(t, p.Validate(), "query id 1 is used more than once")
}

func TestDiagramKeepsBrokenReferences(t *testing.T) {
	p := plan()
	p.QueryGraph[0].Dependencies = []int{42}
	d := p.Diagram()
	assert.True(t, d.LeftToRight)
	assert.Len(t, d.Nodes, 4)
	assert.Len(t, d.Edges, 4)
	assert.Equal(t, []string{"42"}, d.Dangling())
	assert.Equal(t, "blue", d.Nodes[3].Color)
}

func TestExtractAndAnswer(t *testing.T) {
	gen := testutils.NewFakeGenerator(
		`{"query_graph":[{"id":1,"question":"Where is Jason from?","node_type":"SINGLE_QUESTION"},
		  {"id":2,"question":"How many people live there?","dependencies":[1],"node_type":"SINGLE_QUESTION"}]}`,
		`{"answer":"Japan"}`,
		`{"answer":"About 125 million"}`,
	)
	ex, err := extract.New(context.Background(), gen)
	require.NoError(t, err)

	p, report, err := Extract(context.Background(), ex, Sample)
	require.NoError(t, err)
	require.Len(t, p.QueryGraph, 2)
	assert.Equal(t, 1, report.Attempts)

	answers, err := p.Execute(context.Background(), NewExtractorAnswerer(ex))
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "Japan", 2: "About 125 million"}, answers)

	last := gen.LastMessages()
	require.Len(t, last, 2)
	assert.Equal(t, "Answers to sub questions:\n- [1] Japan\n\nQuestion: How many people live there?", last[1].Content)
}
