package queryplan

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes"
)

type Answer struct {
	Answer string `json:"answer" validate:"required" jsonschema_description:"Concise answer to the question"`
}

const answerSystem = `Answer the question as accurately as you can.
When answers to sub questions are given, base your answer on them.`

// NewExtractorAnswerer answers each query with a model call through ex.
func NewExtractorAnswerer(ex *extract.Extractor) Answerer {
	tpl := recipes.NewPrompt(answerSystem, "{{.Context}}Question: {{.Question}}")
	return AnswererFunc(func(ctx context.Context, q Query, deps map[int]string) (string, error) {
		var out Answer
		_, err := ex.Extract(ctx, extract.Request{
			Name:        "query_answer",
			Description: "Answer to a single query of a query plan",
			Prompt:      tpl,
			Vars:        map[string]any{"Question": q.Question, "Context": depContext(deps)},
		}, &out)
		if err != nil {
			return "", err
		}
		return out.Answer, nil
	})
}

func depContext(deps map[int]string) string {
	if len(deps) == 0 {
		return ""
	}
	ids := make([]int, 0, len(deps))
	for id := range deps {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var b strings.Builder
	b.WriteString("Answers to sub questions:\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "- [%d] %s\n", id, deps[id])
	}
	b.WriteString("\n")
	return b.String()
}
