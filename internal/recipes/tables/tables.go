// Package tables extracts tables from images or text as markdown and turns
// them into rows and columns.
package tables

import (
	"context"
	_ "embed"
	"fmt"

	errx "github.com/Chative-core-poc-v1/cookbook/internal/core/error"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/llm"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes"
)

const Name = "multiple_tables"

//go:embed template/system.txt
var systemPrompt string

//go:embed template/sample.txt
var Sample string

type Table struct {
	Caption  string `json:"caption" validate:"required" jsonschema_description:"Short description of what the table contains"`
	Markdown string `json:"dataframe" validate:"required" jsonschema_description:"The table as GitHub flavoured markdown with a header row"`
}

// Frame parses the table's markdown.
func (t Table) Frame() (*Frame, error) {
	return ParseMarkdown(t.Markdown)
}

type MultipleTables struct {
	Tables []Table `json:"tables" validate:"required,min=1,dive"`
}

func (m *MultipleTables) Validate() error {
	for i, t := range m.Tables {
		f, err := t.Frame()
		if err != nil {
			return fmt.Errorf("table %d (%q): dataframe is not a markdown table: %w", i, t.Caption, err)
		}
		if len(f.Columns) == 0 {
			return fmt.Errorf("table %d (%q): markdown table has no header", i, t.Caption)
		}
	}
	return nil
}

// Frames parses every table. Validation guarantees this succeeds for
// extracted results.
func (m *MultipleTables) Frames() ([]*Frame, error) {
	out := make([]*Frame, 0, len(m.Tables))
	for _, t := range m.Tables {
		f, err := t.Frame()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// ExtractImages reads tables out of one or more images.
func ExtractImages(ctx context.Context, ex *extract.Extractor, images ...llm.Image) (*MultipleTables, *extract.Report, error) {
	if len(images) == 0 {
		return nil, nil, errx.Input("%s: no image given", Name)
	}
	return run(ctx, ex, "Extract every table from the attached image.", images)
}

// ExtractText reads tables out of a text document.
func ExtractText(ctx context.Context, ex *extract.Extractor, doc string) (*MultipleTables, *extract.Report, error) {
	if err := recipes.RequireText(Name, doc); err != nil {
		return nil, nil, err
	}
	return run(ctx, ex, "Extract every table from this document:\n\n"+doc, nil)
}

func run(ctx context.Context, ex *extract.Extractor, instruction string, images []llm.Image) (*MultipleTables, *extract.Report, error) {
	var out MultipleTables
	report, err := ex.Extract(ctx, extract.Request{
		Name:        Name,
		Description: "Tables found in the input, each as a caption and markdown",
		Prompt:      recipes.NewPrompt(systemPrompt, "{{.Instruction}}"),
		Vars:        map[string]any{"Instruction": instruction},
		Images:      images,
	}, &out)
	if err != nil {
		return nil, report, err
	}
	return &out, report, nil
}
