// Package actionitems turns meeting transcripts into tickets with subtasks
// and dependencies.
package actionitems

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes"
	"github.com/Chative-core-poc-v1/cookbook/internal/render"
)

const Name = "action_items"

//go:embed template/system.txt
var systemPrompt string

//go:embed template/sample.txt
var Sample string

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Subtask struct {
	ID   int    `json:"id" jsonschema_description:"Unique identifier for the subtask"`
	Name string `json:"name" validate:"required" jsonschema_description:"Informative title of the subtask"`
}

type Ticket struct {
	ID           int       `json:"id" jsonschema_description:"Unique identifier for the ticket"`
	Name         string    `json:"name" validate:"required" jsonschema_description:"Title of the task"`
	Description  string    `json:"description" jsonschema_description:"Detailed description of the task"`
	Priority     Priority  `json:"priority" validate:"oneof=high medium low" jsonschema:"enum=high,enum=medium,enum=low" jsonschema_description:"Priority level"`
	Assignees    []string  `json:"assignees" jsonschema_description:"List of users assigned to the task"`
	Subtasks     []Subtask `json:"subtasks,omitempty" validate:"dive" jsonschema_description:"Subtasks or steps involved in completing the task"`
	Dependencies []int     `json:"dependencies,omitempty" jsonschema_description:"IDs of tickets that this ticket depends on"`
}

type ActionItems struct {
	Items []Ticket `json:"items" validate:"required,min=1,dive" jsonschema_description:"Tickets discussed in the meeting"`
}

// Validate rejects duplicate ids and self-dependencies. Unknown dependency
// ids are allowed and show up as placeholders in the graph.
func (a *ActionItems) Validate() error {
	seen := make(map[int]bool, len(a.Items))
	var problems []string
	for _, t := range a.Items {
		if seen[t.ID] {
			problems = append(problems, fmt.Sprintf("ticket id %d is used more than once", t.ID))
		}
		seen[t.ID] = true
		for _, dep := range t.Dependencies {
			if dep == t.ID {
				problems = append(problems, fmt.Sprintf("ticket %d depends on itself", t.ID))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// Ticket returns the ticket with the given id.
func (a *ActionItems) Ticket(id int) (Ticket, bool) {
	for _, t := range a.Items {
		if t.ID == id {
			return t, true
		}
	}
	return Ticket{}, false
}

var priorityColors = map[Priority]string{
	PriorityHigh:   "red",
	PriorityMedium: "orange",
	PriorityLow:    "darkgreen",
}

// Diagram draws an edge from every dependency to the ticket that waits on it.
func (a *ActionItems) Diagram() render.Diagram {
	d := render.Diagram{Name: "Action items"}
	for _, t := range a.Items {
		id := strconv.Itoa(t.ID)
		node := render.Node{
			ID:    id,
			Label: fmt.Sprintf("#%d %s", t.ID, t.Name),
			Color: priorityColors[t.Priority],
		}
		if len(t.Assignees) > 0 {
			node.Fields = append(node.Fields, "assignees: "+strings.Join(t.Assignees, ", "))
		}
		for _, s := range t.Subtasks {
			node.Fields = append(node.Fields, fmt.Sprintf("%d. %s", s.ID, s.Name))
		}
		d.Nodes = append(d.Nodes, node)
		for _, dep := range t.Dependencies {
			d.Edges = append(d.Edges, render.Edge{From: strconv.Itoa(dep), To: id})
		}
	}
	return d
}

// Extract generates tickets from a transcript.
func Extract(ctx context.Context, ex *extract.Extractor, transcript string) (*ActionItems, *extract.Report, error) {
	if err := recipes.RequireText(Name, transcript); err != nil {
		return nil, nil, err
	}

	var items ActionItems
	report, err := ex.Extract(ctx, extract.Request{
		Name:        Name,
		Description: "Correctly resolved set of action items from the given transcript",
		Prompt:      recipes.NewPrompt(systemPrompt, "Create the action items for the following transcript:\n\n{{.Transcript}}"),
		Vars:        map[string]any{"Transcript": transcript},
	}, &items)
	if err != nil {
		return nil, report, err
	}
	return &items, report, nil
}
