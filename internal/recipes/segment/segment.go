// Package segment splits a document into topical sections addressed by line
// numbers.
package segment

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes"
)

const Name = "structured_document"

//go:embed template/system.txt
var systemPrompt string

//go:embed template/sample.txt
var Sample string

type Section struct {
	Title      string `json:"title" validate:"required" jsonschema_description:"main topic of this section of the document"`
	StartIndex int    `json:"start_index" validate:"gte=0" jsonschema_description:"line number where the section begins"`
	EndIndex   int    `json:"end_index" validate:"gte=0" jsonschema_description:"line number where the section ends"`
}

type StructuredDocument struct {
	Sections []Section `json:"sections" validate:"required,min=1,dive" jsonschema_description:"a list of sections of the document"`
}

func (d *StructuredDocument) Validate() error {
	for i, s := range d.Sections {
		if s.EndIndex < s.StartIndex {
			return fmt.Errorf("section %d (%q) ends at line %d before it starts at line %d", i, s.Title, s.EndIndex, s.StartIndex)
		}
	}
	return nil
}

// Segment is a section with its text resolved.
type Segment struct {
	Title string `json:"title"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Lines splits a document into lines, dropping a single trailing newline.
func Lines(doc string) []string {
	return strings.Split(strings.TrimSuffix(doc, "\n"), "\n")
}

// NumberLines prefixes every line with its zero-based index.
func NumberLines(lines []string) string {
	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "[%d] %s\n", i, line)
	}
	return b.String()
}

// SectionText joins lines start through end inclusive, clamped to the
// document. An empty string is returned when nothing is left after clamping.
func SectionText(lines []string, s Section) string {
	start, end := s.StartIndex, s.EndIndex
	if start < 0 {
		start = 0
	}
	if end >= len(lines) {
		end = len(lines) - 1
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start:end+1], "\n")
}

func (d *StructuredDocument) Segments(lines []string) []Segment {
	out := make([]Segment, 0, len(d.Sections))
	for _, s := range d.Sections {
		out = append(out, Segment{
			Title: s.Title,
			Start: s.StartIndex,
			End:   s.EndIndex,
			Text:  SectionText(lines, s),
		})
	}
	return out
}

// Extract segments doc and returns the sections with their text.
func Extract(ctx context.Context, ex *extract.Extractor, doc string) (*StructuredDocument, []Segment, *extract.Report, error) {
	if err := recipes.RequireText(Name, doc); err != nil {
		return nil, nil, nil, err
	}
	lines := Lines(doc)

	var out StructuredDocument
	report, err := ex.Extract(ctx, extract.Request{
		Name:        Name,
		Description: "Document split into sections by topic",
		Prompt:      recipes.NewPrompt(systemPrompt, "{{.Document}}"),
		Vars:        map[string]any{"Document": NumberLines(lines)},
		Validate: func() error {
			for _, s := range out.Sections {
				if s.StartIndex >= len(lines) {
					return fmt.Errorf("section %q starts at line %d but the document only has lines 0 to %d", s.Title, s.StartIndex, len(lines)-1)
				}
			}
			return nil
		},
	}, &out)
	if err != nil {
		return nil, nil, report, err
	}
	return &out, out.Segments(lines), report, nil
}
