// Package search splits a request into typed searches and runs them against
// search backends exposed as tools.
package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"golang.org/x/sync/errgroup"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes"
	logx "github.com/Chative-core-poc-v1/cookbook/pkg/logger"
)

const Name = "multi_search"

const Sample = "Send me a video from last year about the Canadian rockies hike and an email about the hiking gear I ordered."

// maxParallel bounds concurrent backend calls.
const maxParallel = 4

type SearchType string

const (
	Video SearchType = "video"
	Email SearchType = "email"
)

type Search struct {
	Title string     `json:"title" validate:"required" jsonschema_description:"Title of the request"`
	Query string     `json:"query" validate:"required" jsonschema_description:"Query to search for relevant content"`
	Type  SearchType `json:"type" validate:"oneof=video email" jsonschema:"enum=video,enum=email" jsonschema_description:"Type of search"`
}

type MultiSearch struct {
	Searches []Search `json:"searches" validate:"required,min=1,dive" jsonschema_description:"List of searches"`
}

type Result struct {
	Search Search `json:"search"`
	Hits   []Hit  `json:"hits"`
	Total  int    `json:"total"`
}

// Execute runs every search concurrently on the backend registered for its
// type. Results keep the order of the searches.
func (m *MultiSearch) Execute(ctx context.Context, backends map[SearchType]tool.InvokableTool) ([]Result, error) {
	for _, s := range m.Searches {
		if _, ok := backends[s.Type]; !ok {
			return nil, fmt.Errorf("no backend for %s search %q", s.Type, s.Title)
		}
	}
	results := make([]Result, len(m.Searches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, s := range m.Searches {
		backend := backends[s.Type]
		g.Go(func() error {
			args, err := json.Marshal(Input{Query: s.Query})
			if err != nil {
				return err
			}
			logx.Debug().Str("recipe", Name).Str("type", string(s.Type)).Str("query", s.Query).Msg("running search")

			raw, err := backend.InvokableRun(gctx, string(args))
			if err != nil {
				return fmt.Errorf("%s search %q: %w", s.Type, s.Title, err)
			}
			var out Output
			if err := json.Unmarshal([]byte(raw), &out); err != nil {
				return fmt.Errorf("%s search %q: decode result: %w", s.Type, s.Title, err)
			}
			results[i] = Result{Search: s, Hits: out.Hits, Total: out.Total}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

var searchPrompt = recipes.NewPrompt(
	"You split a user request into separate searches. Each search has a short title, a focused query and a type: video or email.",
	"Consider the data below:\n{{.Request}}\n\nCorrectly segment it into multiple search queries.",
)

func Extract(ctx context.Context, ex *extract.Extractor, request string) (*MultiSearch, *extract.Report, error) {
	if err := recipes.RequireText(Name, request); err != nil {
		return nil, nil, err
	}
	var out MultiSearch
	report, err := ex.Extract(ctx, extract.Request{
		Name:        Name,
		Description: "Correctly segmented set of search queries",
		Prompt:      searchPrompt,
		Vars:        map[string]any{"Request": request},
	}, &out)
	if err != nil {
		return nil, report, err
	}
	return &out, report, nil
}
