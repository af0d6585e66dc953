// Package queryplan breaks a question into a dependency graph of sub-queries
// and executes that graph.
package queryplan

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	errx "github.com/Chative-core-poc-v1/cookbook/internal/core/error"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes"
	"github.com/Chative-core-poc-v1/cookbook/internal/render"
	logx "github.com/Chative-core-poc-v1/cookbook/pkg/logger"
)

const Name = "query_plan"

const Sample = "What is the difference in populations of Canada and the Jason's home country?"

//go:embed template/system.txt
var systemPrompt string

var (
	ErrCycle             = errors.New("query plan has a dependency cycle")
	ErrUnknownDependency = errors.New("query plan references an unknown query")
)

type QueryType string

const (
	SingleQuestion         QueryType = "SINGLE_QUESTION"
	MergeMultipleResponses QueryType = "MERGE_MULTIPLE_RESPONSES"
)

type Query struct {
	ID           int       `json:"id" jsonschema_description:"Unique id of the query"`
	Question     string    `json:"question" validate:"required" jsonschema_description:"Question we are asking using a question answer system, if we are asking multiple questions, this question is asked by also providing the answers to the sub questions"`
	Dependencies []int     `json:"dependencies,omitempty" jsonschema_description:"List of sub questions that need to be answered before we can ask the question. Use a subquery when anything may be unknown, and we need to ask multiple questions to get the answer. Dependencies must only be other queries."`
	NodeType     QueryType `json:"node_type" validate:"oneof=SINGLE_QUESTION MERGE_MULTIPLE_RESPONSES" jsonschema:"enum=SINGLE_QUESTION,enum=MERGE_MULTIPLE_RESPONSES" jsonschema_description:"Type of question we are asking, either a single question or a multi question merge when there are multiple questions"`
}

type QueryPlan struct {
	QueryGraph []Query `json:"query_graph" validate:"required,min=1,dive" jsonschema_description:"The original question we are asking"`
}

func (p *QueryPlan) Validate() error {
	seen := make(map[int]bool, len(p.QueryGraph))
	for _, q := range p.QueryGraph {
		if seen[q.ID] {
			return fmt.Errorf("query id %d is used more than once", q.ID)
		}
		seen[q.ID] = true
	}
	return nil
}

// DependenciesOf returns the queries with the given ids in plan order.
// Unknown ids are skipped.
func (p *QueryPlan) DependenciesOf(ids []int) []Query {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []Query
	for _, q := range p.QueryGraph {
		if want[q.ID] {
			out = append(out, q)
		}
	}
	return out
}

// Waves groups query ids into execution rounds: every query appears in a later
// round than all of its dependencies. Ids within a round are sorted.
func (p *QueryPlan) Waves() ([][]int, error) {
	byID := make(map[int]Query, len(p.QueryGraph))
	for _, q := range p.QueryGraph {
		byID[q.ID] = q
	}

	pending := make(map[int]int, len(byID))
	dependents := make(map[int][]int)
	for id, q := range byID {
		for _, dep := range q.Dependencies {
			if _, ok := byID[dep]; !ok {
				return nil, fmt.Errorf("%w: query %d depends on %d", ErrUnknownDependency, id, dep)
			}
			pending[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []int
	for id := range byID {
		if pending[id] == 0 {
			ready = append(ready, id)
		}
	}

	var waves [][]int
	done := 0
	for len(ready) > 0 {
		sort.Ints(ready)
		waves = append(waves, ready)
		done += len(ready)

		var next []int
		for _, id := range ready {
			for _, child := range dependents[id] {
				pending[child]--
				if pending[child] == 0 {
					next = append(next, child)
				}
			}
		}
		ready = next
	}
	if done != len(byID) {
		var stuck []string
		for id, n := range pending {
			if n > 0 {
				stuck = append(stuck, strconv.Itoa(id))
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("%w: queries %s never become ready", ErrCycle, strings.Join(stuck, ", "))
	}
	return waves, nil
}

// Answerer answers one query given the answers of its dependencies.
type Answerer interface {
	Answer(ctx context.Context, q Query, deps map[int]string) (string, error)
}

type AnswererFunc func(ctx context.Context, q Query, deps map[int]string) (string, error)

func (f AnswererFunc) Answer(ctx context.Context, q Query, deps map[int]string) (string, error) {
	return f(ctx, q, deps)
}

// Execute answers every query, running independent queries of the same wave
// concurrently. It fails on cycles and unknown dependency ids.
func (p *QueryPlan) Execute(ctx context.Context, a Answerer) (map[int]string, error) {
	waves, err := p.Waves()
	if err != nil {
		return nil, errx.New(err, errx.KindInput, errx.InputErrorMessage)
	}
	byID := make(map[int]Query, len(p.QueryGraph))
	for _, q := range p.QueryGraph {
		byID[q.ID] = q
	}

	answers := make(map[int]string, len(byID))
	var mu sync.Mutex
	for i, wave := range waves {
		logx.Debug().Str("recipe", Name).Int("wave", i).Ints("queries", wave).Msg("executing wave")

		g, gctx := errgroup.WithContext(ctx)
		for _, id := range wave {
			q := byID[id]
			deps := make(map[int]string, len(q.Dependencies))
			for _, dep := range q.Dependencies {
				deps[dep] = answers[dep]
			}
			g.Go(func() error {
				ans, err := a.Answer(gctx, q, deps)
				if err != nil {
					return fmt.Errorf("query %d: %w", q.ID, err)
				}
				mu.Lock()
				answers[q.ID] = ans
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return answers, err
		}
	}
	return answers, nil
}

func (p *QueryPlan) Diagram() render.Diagram {
	d := render.Diagram{Name: "Query plan", LeftToRight: true}
	for _, q := range p.QueryGraph {
		id := strconv.Itoa(q.ID)
		color := ""
		if q.NodeType == MergeMultipleResponses {
			color = "blue"
		}
		d.Nodes = append(d.Nodes, render.Node{ID: id, Label: q.Question, Color: color})
		for _, dep := range q.Dependencies {
			d.Edges = append(d.Edges, render.Edge{From: strconv.Itoa(dep), To: id})
		}
	}
	return d
}

// Extract plans how to answer question.
func Extract(ctx context.Context, ex *extract.Extractor, question string) (*QueryPlan, *extract.Report, error) {
	if err := recipes.RequireText(Name, question); err != nil {
		return nil, nil, err
	}

	var plan QueryPlan
	report, err := ex.Extract(ctx, extract.Request{
		Name:        Name,
		Description: "Use this to query and answer the question, breaking it into a graph of dependent sub-queries",
		Prompt:      recipes.NewPrompt(systemPrompt, "Consider: {{.Question}}\nGenerate the correct query plan."),
		Vars:        map[string]any{"Question": question},
	}, &plan)
	if err != nil {
		return nil, report, err
	}
	return &plan, report, nil
}
