// Package citations answers questions with facts backed by exact quotes from
// the context, dropping any quote that cannot be found.
package citations

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes"
	logx "github.com/Chative-core-poc-v1/cookbook/pkg/logger"
)

const Name = "question_answer"

const SampleQuestion = "What did the author do during college?"

//go:embed template/system.txt
var systemPrompt string

//go:embed template/sample.txt
var SampleContext string

var ErrNoSupportedFacts = errors.New("none of the substring quotes were found in the context, quote the context verbatim")

// Span is a byte range [Start, End) into the context.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type Fact struct {
	Fact           string   `json:"fact" validate:"required" jsonschema_description:"Body of the sentence, as part of a response"`
	SubstringQuote []string `json:"substring_quote" jsonschema_description:"Each source should be a direct quote from the context, as a substring of the original content"`
}

type QuestionAnswer struct {
	Question string `json:"question" jsonschema_description:"Question that was asked"`
	Answer   []Fact `json:"answer" validate:"dive" jsonschema_description:"Body of the answer, each fact should be its separate object with a body and a list of sources"`
}

// FindSpans returns the non-overlapping occurrences of quote in context.
// Blank quotes never match.
func FindSpans(quote, context string) []Span {
	quote = strings.TrimSpace(quote)
	if quote == "" {
		return nil
	}
	var spans []Span
	for offset := 0; offset <= len(context)-len(quote); {
		i := strings.Index(context[offset:], quote)
		if i < 0 {
			break
		}
		start := offset + i
		spans = append(spans, Span{Start: start, End: start + len(quote)})
		offset = start + len(quote)
	}
	return spans
}

// Spans locates every quote of the fact in context.
func (f Fact) Spans(context string) []Span {
	var out []Span
	for _, q := range f.SubstringQuote {
		out = append(out, FindSpans(q, context)...)
	}
	return out
}

// Verify keeps only quotes found in context, replacing each by the context
// text it matched, and drops facts left without quotes. It returns the
// quotes that were dropped.
func (qa *QuestionAnswer) Verify(context string) []string {
	var dropped []string
	facts := qa.Answer[:0]
	for _, f := range qa.Answer {
		var kept []string
		for _, q := range f.SubstringQuote {
			spans := FindSpans(q, context)
			if len(spans) == 0 {
				dropped = append(dropped, q)
				continue
			}
			kept = append(kept, context[spans[0].Start:spans[0].End])
		}
		if len(kept) == 0 {
			continue
		}
		f.SubstringQuote = kept
		facts = append(facts, f)
	}
	qa.Answer = facts
	return dropped
}

// Extract answers question from context. Answers whose quotes cannot be
// found are sent back for correction.
func Extract(ctx context.Context, ex *extract.Extractor, question, context string) (*QuestionAnswer, *extract.Report, error) {
	if err := recipes.RequireText(Name, question); err != nil {
		return nil, nil, err
	}
	if err := recipes.RequireText(Name, context); err != nil {
		return nil, nil, err
	}

	var out QuestionAnswer
	report, err := ex.Extract(ctx, extract.Request{
		Name:        Name,
		Description: "Answer to the question with facts and their exact supporting quotes",
		Prompt:      recipes.NewPrompt(systemPrompt, "Context:\n{{.Context}}\n\nQuestion: {{.Question}}\n\nTips: Make sure to cite your sources, and use the exact words from the context."),
		Vars:        map[string]any{"Context": context, "Question": question},
		Validate: func() error {
			if dropped := out.Verify(context); len(dropped) > 0 {
				logx.Debug().Str("recipe", Name).Strs("quotes", dropped).Msg("dropped unverifiable quotes")
			}
			if len(out.Answer) == 0 {
				return ErrNoSupportedFacts
			}
			return nil
		},
	}, &out)
	if err != nil {
		return nil, report, err
	}
	if out.Question == "" {
		out.Question = question
	}
	return &out, report, nil
}
