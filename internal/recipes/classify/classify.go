// Package classify labels text with one or several labels from a fixed set.
package classify

import (
	"context"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes"
)

const (
	SingleName = "single_prediction"
	MultiName  = "multi_class_prediction"
)

type Label string

const (
	Spam    Label = "spam"
	NotSpam Label = "not_spam"
)

type SupportLabel string

const (
	TechIssue    SupportLabel = "tech_issue"
	Billing      SupportLabel = "billing"
	GeneralQuery SupportLabel = "general_query"
)

// SinglePrediction is the class label for a text.
type SinglePrediction struct {
	ClassLabel Label `json:"class_label" validate:"oneof=spam not_spam" jsonschema:"enum=spam,enum=not_spam"`
}

// MultiClassPrediction holds every label that applies to a support ticket.
type MultiClassPrediction struct {
	ClassLabels []SupportLabel `json:"class_labels" validate:"required,min=1,unique,dive,oneof=tech_issue billing general_query" jsonschema:"enum=tech_issue,enum=billing,enum=general_query"`
}

// Has reports whether l is among the predicted labels.
func (p *MultiClassPrediction) Has(l SupportLabel) bool {
	for _, c := range p.ClassLabels {
		if c == l {
			return true
		}
	}
	return false
}

var (
	singlePrompt = recipes.NewPrompt("Classify the following text as spam or not_spam.", "Classify the following text: {{.Text}}")
	multiPrompt  = recipes.NewPrompt("Classify the support ticket into every label that applies: tech_issue, billing, general_query.", "Classify the following support ticket: {{.Text}}")
)

func Classify(ctx context.Context, ex *extract.Extractor, text string) (*SinglePrediction, *extract.Report, error) {
	if err := recipes.RequireText(SingleName, text); err != nil {
		return nil, nil, err
	}
	var out SinglePrediction
	report, err := ex.Extract(ctx, extract.Request{
		Name:        SingleName,
		Description: "Class label for the text",
		Prompt:      singlePrompt,
		Vars:        map[string]any{"Text": text},
	}, &out)
	if err != nil {
		return nil, report, err
	}
	return &out, report, nil
}

func ClassifyMulti(ctx context.Context, ex *extract.Extractor, text string) (*MultiClassPrediction, *extract.Report, error) {
	if err := recipes.RequireText(MultiName, text); err != nil {
		return nil, nil, err
	}
	var out MultiClassPrediction
	report, err := ex.Extract(ctx, extract.Request{
		Name:        MultiName,
		Description: "Class labels for the support ticket",
		Prompt:      multiPrompt,
		Vars:        map[string]any{"Text": text},
	}, &out)
	if err != nil {
		return nil, report, err
	}
	return &out, report, nil
}
