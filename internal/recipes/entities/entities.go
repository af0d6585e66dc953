// Package entities extracts entities with resolved properties and the
// dependencies between them.
package entities

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes"
	"github.com/Chative-core-poc-v1/cookbook/internal/render"
)

const Name = "document_extraction"

//go:embed template/system.txt
var systemPrompt string

//go:embed template/sample.txt
var Sample string

type Property struct {
	Key                   string `json:"key" validate:"required"`
	Value                 string `json:"value"`
	ResolvedAbsoluteValue string `json:"resolved_absolute_value"`
}

type Entity struct {
	ID             int        `json:"id" jsonschema_description:"Unique identifier for the entity, used for deduplication, design a scheme allows multiple entities"`
	SubquoteString []string   `json:"subquote_string" jsonschema_description:"Correctly resolved value of the entity, if the entity is a reference to another entity, this should be the id of the referenced entity, include a few more words before and after the value to allow for some context to be used in the resolution"`
	EntityTitle    string     `json:"entity_title" validate:"required"`
	Properties     []Property `json:"properties" validate:"dive" jsonschema_description:"List of properties of the entity"`
	Dependencies   []int      `json:"dependencies" jsonschema_description:"List of entity ids that this entity depends or relies on to resolve it"`
}

type DocumentExtraction struct {
	Entities []Entity `json:"entities" validate:"required,min=1,dive" jsonschema_description:"Body of the answer, each fact should be its separate object with a body and a list of sources"`
}

func (d *DocumentExtraction) Validate() error {
	seen := make(map[int]bool, len(d.Entities))
	for _, e := range d.Entities {
		if seen[e.ID] {
			return fmt.Errorf("entity id %d is used more than once", e.ID)
		}
		seen[e.ID] = true
	}
	return nil
}

// Diagram draws every entity as a record listing its resolved properties,
// with edges from each dependency to the entity relying on it.
func (d *DocumentExtraction) Diagram() render.Diagram {
	out := render.Diagram{Name: "Entities", LeftToRight: true}
	for _, e := range d.Entities {
		id := strconv.Itoa(e.ID)
		node := render.Node{ID: id, Label: e.EntityTitle}
		for _, p := range e.Properties {
			node.Fields = append(node.Fields, fmt.Sprintf("%s: %s", p.Key, p.Resolved()))
		}
		out.Nodes = append(out.Nodes, node)
		for _, dep := range e.Dependencies {
			out.Edges = append(out.Edges, render.Edge{From: strconv.Itoa(dep), To: id})
		}
	}
	return out
}

// Resolved prefers the resolved absolute value and falls back to the raw one.
func (p Property) Resolved() string {
	if p.ResolvedAbsoluteValue != "" {
		return p.ResolvedAbsoluteValue
	}
	return p.Value
}

func Extract(ctx context.Context, ex *extract.Extractor, doc string) (*DocumentExtraction, *extract.Report, error) {
	if err := recipes.RequireText(Name, doc); err != nil {
		return nil, nil, err
	}

	var out DocumentExtraction
	report, err := ex.Extract(ctx, extract.Request{
		Name:        Name,
		Description: "Entities resolved from a document",
		Prompt:      recipes.NewPrompt(systemPrompt, "{{.Document}}"),
		Vars:        map[string]any{"Document": doc},
	}, &out)
	if err != nil {
		return nil, report, err
	}
	return &out, report, nil
}
