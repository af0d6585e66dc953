package actionitems

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/Chative-core-poc-v1/cookbook/internal/core/error"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/testutils"
)

const answer = `{"items":[
 {"id":1,"name":"Improve Authentication System","description":"Revamp front-end and optimise back-end","priority":"high","assignees":["Bob","Carol"],
  "subtasks":[{"id":2,"name":"Front-end Revamp"},{"id":3,"name":"Back-end Optimization"}]},
 {"id":4,"name":"Integrate Authentication System with Billing System","description":"Integrate auth with billing","priority":"medium","assignees":["Bob"],"dependencies":[1,5]},
 {"id":5,"name":"Update User Documentation","description":"Reflect the changes","priority":"low","assignees":["Carol"],"dependencies":[2]}
]}`

func newExtractor(t *testing.T, gen *testutils.FakeGenerator) *extract.Extractor {
	t.Helper()
	ex, err := extract.New(context.Background(), gen)
	require.NoError(t, err)
	return ex
}

func TestExtract(t *testing.T) {
	gen := testutils.NewFakeGenerator(answer)
	items, report, err := Extract(context.Background(), newExtractor(t, gen), Sample)
	require.NoError(t, err)

	require.Len(t, items.Items, 3)
	assert.Equal(t, PriorityHigh, items.Items[0].Priority)
	assert.Equal(t, []int{1, 5}, items.Items[1].Dependencies)
	assert.Equal(t, 1, report.Attempts)

	msgs := gen.LastMessages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "project manager")
	assert.True(t, strings.HasPrefix(msgs[1].Content, "Create the action items"))
	assert.Contains(t, msgs[1].Content, "Alice: Hey team")
}

func TestExtractReasksOnBadPriority(t *testing.T) {
	gen := testutils.NewFakeGenerator(
		`{"items":[{"id":1,"name":"Ship it","priority":"urgent"}]}`,
		`{"items":[{"id":1,"name":"Ship it","priority":"high"}]}`,
	)
	items, report, err := Extract(context.Background(), newExtractor(t, gen), "ship it asap")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, items.Items[0].Priority)
	assert.Equal(t, 2, report.Attempts)
	assert.Contains(t, gen.LastMessages()[3].Content, "priority")
}

func TestExtractRejectsEmptyTranscript(t *testing.T) {
	gen := testutils.NewFakeGenerator(answer)
	_, _, err := Extract(context.Background(), newExtractor(t, gen), "   ")
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindInput))
	assert.Empty(t, gen.Calls())
}

func TestValidate(t *testing.T) {
	ok := ActionItems{Items: []Ticket{{ID: 1, Dependencies: []int{9}}, {ID: 2, Dependencies: []int{1}}}}
	assert.NoError(t, ok.Validate())

	bad := ActionItems{Items: []Ticket{{ID: 1}, {ID: 1, Dependencies: []int{1}}}}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ticket id 1 is used more than once")
	assert.Contains(t, err.Error(), "ticket 1 depends on itself")
}

func TestDiagram(t *testing.T) {
	items := ActionItems{Items: []Ticket{
		{ID: 1, Name: "Auth", Priority: PriorityHigh, Assignees: []string{"Bob"}, Subtasks: []Subtask{{ID: 2, Name: "Front-end"}}},
		{ID: 4, Name: "Billing", Priority: PriorityLow, Dependencies: []int{1, 7}},
	}}
	d := items.Diagram()

	require.Len(t, d.Nodes, 2)
	assert.Equal(t, "#1 Auth", d.Nodes[0].Label)
	assert.Equal(t, "red", d.Nodes[0].Color)
	assert.Equal(t, []string{"assignees: Bob", "2. Front-end"}, d.Nodes[0].Fields)
	assert.Len(t, d.Edges, 2)
	assert.Equal(t, "1", d.Edges[0].From)
	assert.Equal(t, "4", d.Edges[0].To)
	assert.Equal(t, []string{"7"}, d.Dangling())

	ticket, ok := items.Ticket(4)
	require.True(t, ok)
	assert.Equal(t, "Billing", ticket.Name)
	_, ok = items.Ticket(3)
	assert.False(t, ok)
}
