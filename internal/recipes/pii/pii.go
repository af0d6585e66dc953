// Package pii finds personal data in a document and replaces it with
// placeholders.
package pii

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes"
)

const Name = "pii_data_extraction"

//go:embed template/system.txt
var systemPrompt string

//go:embed template/sample.txt
var Sample string

type Data struct {
	Index    int    `json:"index" validate:"gte=0"`
	DataType string `json:"data_type" validate:"required"`
	PIIValue string `json:"pii_value" validate:"required"`
}

// PIIDataExtraction extracts personally identifiable information from a text.
type PIIDataExtraction struct {
	PrivateData []Data `json:"private_data" validate:"dive"`
}

// Placeholder is the text that replaces d when it sits at position i of the
// extraction. The model's own Index is not trusted to be unique.
func (d Data) Placeholder(i int) string {
	return fmt.Sprintf("<%s_%d>", strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(d.DataType), " ", "_")), i)
}

// Scrub replaces every literal occurrence of each extracted value with its
// placeholder in a single pass over content, so placeholders are never
// rewritten by later values. Earlier values win where matches overlap.
func (p *PIIDataExtraction) Scrub(content string) string {
	pairs := make([]string, 0, 2*len(p.PrivateData))
	for i, d := range p.PrivateData {
		if d.PIIValue == "" {
			continue
		}
		pairs = append(pairs, d.PIIValue, d.Placeholder(i))
	}
	if len(pairs) == 0 {
		return content
	}
	return strings.NewReplacer(pairs...).Replace(content)
}

// Missing returns values that do not occur in content and so cannot be scrubbed.
func (p *PIIDataExtraction) Missing(content string) []string {
	var out []string
	for _, d := range p.PrivateData {
		if !strings.Contains(content, d.PIIValue) {
			out = append(out, d.PIIValue)
		}
	}
	return out
}

// Extract finds PII in doc. Values that are not verbatim substrings of the
// document are sent back for correction.
func Extract(ctx context.Context, ex *extract.Extractor, doc string) (*PIIDataExtraction, *extract.Report, error) {
	if err := recipes.RequireText(Name, doc); err != nil {
		return nil, nil, err
	}

	var out PIIDataExtraction
	report, err := ex.Extract(ctx, extract.Request{
		Name:        Name,
		Description: "Personally identifiable information found in the document",
		Prompt:      recipes.NewPrompt(systemPrompt, "{{.Document}}"),
		Vars:        map[string]any{"Document": doc},
		Validate: func() error {
			if missing := out.Missing(doc); len(missing) > 0 {
				return fmt.Errorf("pii_value must be copied exactly from the document, not found: %q", missing)
			}
			return nil
		},
	}, &out)
	if err != nil {
		return nil, report, err
	}
	return &out, report, nil
}
