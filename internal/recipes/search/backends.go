package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

const (
	defaultMaxResults = 5
	maxMaxResults     = 20
)

// Document is an item in an in-memory search backend.
type Document struct {
	ID    string     `json:"id"`
	Type  SearchType `json:"type"`
	Title string     `json:"title"`
	Body  string     `json:"body"`
	Date  string     `json:"date"`
}

type Input struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type Hit struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
	Score int    `json:"score"`
}

type Output struct {
	Hits  []Hit `json:"hits"`
	Total int   `json:"total"`
}

// NewBackends exposes one search tool per search type over corpus.
func NewBackends(corpus []Document) map[SearchType]tool.InvokableTool {
	return map[SearchType]tool.InvokableTool{
		Video: newSearchTool(Video, "search_video", "Search recorded videos by title and transcript keywords.", corpus),
		Email: newSearchTool(Email, "search_email", "Search the mailbox by subject and body keywords.", corpus),
	}
}

func newSearchTool(kind SearchType, name, desc string, corpus []Document) tool.InvokableTool {
	docs := make([]Document, 0, len(corpus))
	for _, d := range corpus {
		if d.Type == kind {
			docs = append(docs, d)
		}
	}

	return utils.NewTool(
		&schema.ToolInfo{
			Name: name,
			Desc: desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     schema.String,
					Desc:     "Keywords to look for",
					Required: true,
				},
				"max_results": {
					Type: schema.Integer,
					Desc: fmt.Sprintf("Maximum number of results to return (default: %d, max: %d)", defaultMaxResults, maxMaxResults),
				},
			}),
		},
		func(ctx context.Context, in *Input) (*Output, error) {
			if strings.TrimSpace(in.Query) == "" {
				return nil, fmt.Errorf("query is required")
			}
			limit := in.MaxResults
			if limit <= 0 {
				limit = defaultMaxResults
			}
			if limit > maxMaxResults {
				limit = maxMaxResults
			}

			hits := rank(docs, in.Query)
			total := len(hits)
			if len(hits) > limit {
				hits = hits[:limit]
			}
			return &Output{Hits: hits, Total: total}, nil
		},
	)
}

// rank scores documents by how many distinct query terms they contain.
func rank(docs []Document, query string) []Hit {
	terms := uniqueTerms(query)
	var hits []Hit
	for _, d := range docs {
		text := strings.ToLower(d.Title + " " + d.Body)
		score := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, Hit{ID: d.ID, Title: d.Title, Date: d.Date, Score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	return hits
}

func uniqueTerms(query string) []string {
	seen := map[string]bool{}
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		f = strings.Trim(f, ".,!?;:'\"()")
		if len(f) < 3 || stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

var stopWords = map[string]bool{
	"the": true, "and": true, "about": true, "from": true, "for": true, "with": true, "that": true,
}

var SampleCorpus = []Document{
	{ID: "vid-001", Type: Video, Title: "Canadian Rockies hike, Lake Louise to Plain of Six Glaciers", Body: "Day hike vlog through the Canadian rockies with glacier views.", Date: "2024-08-14"},
	{ID: "vid-002", Type: Video, Title: "Banff winter ski trip", Body: "Skiing Sunshine Village in the rockies.", Date: "2024-02-03"},
	{ID: "vid-003", Type: Video, Title: "Sourdough baking basics", Body: "Starter, folding and baking a loaf at home.", Date: "2023-11-20"},
	{ID: "eml-001", Type: Email, Title: "Your order has shipped: hiking boots and trekking poles", Body: "Your hiking gear order #4821 is on its way.", Date: "2024-07-30"},
	{ID: "eml-002", Type: Email, Title: "Receipt for your order #4821", Body: "Thanks for ordering hiking gear: boots, poles, rain jacket.", Date: "2024-07-28"},
	{ID: "eml-003", Type: Email, Title: "Team offsite agenda", Body: "Agenda for the quarterly planning offsite.", Date: "2024-09-02"},
}
