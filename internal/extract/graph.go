package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	errx "github.com/Chative-core-poc-v1/cookbook/internal/core/error"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/llm"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/model"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/structure"
	logx "github.com/Chative-core-poc-v1/cookbook/pkg/logger"
)

const (
	NodeInputConverter = "input_converter"
	NodeGenerate       = "generate"
	NodeParser         = "parser"
	NodeReask          = "reask"
)

const reaskPrefix = "Recall the function correctly, fix the errors and exceptions found\n"

// job is the graph input. Nodes write run accounting back into it so the
// caller can report on failed runs too.
type job struct {
	req    Request
	def    *structure.Definition
	target any

	attempts int
	usage    schema.TokenUsage
	cost     float64
	failure  error
}

type outcome struct {
	raw       json.RawMessage
	content   string
	err       error
	exhausted bool
}

type state struct {
	job       *job
	promptLen int
	history   []*schema.Message
}

// buildGraph wires
//
//	START -> input_converter -> generate -> parser -> END
//	                               ^           |
//	                               +-- reask <-+ (invalid, retries left)
func (e *Extractor) buildGraph(ctx context.Context) (compose.Runnable[*job, *outcome], error) {
	g := compose.NewGraph[*job, *outcome](
		compose.WithGenLocalState(func(ctx context.Context) *state {
			return &state{}
		}),
	)

	if err := g.AddLambdaNode(NodeInputConverter, newInputConverterNode(),
		compose.WithStatePreHandler(newInputConverterPreHandler()),
		compose.WithStatePostHandler(newInputConverterPostHandler()),
	); err != nil {
		return nil, fmt.Errorf("add %s node: %w", NodeInputConverter, err)
	}
	if err := g.AddLambdaNode(NodeGenerate, newGenerateNode(e.gen),
		compose.WithStatePreHandler(newGeneratePreHandler(e.maxTurns)),
		compose.WithStatePostHandler(newGeneratePostHandler(e.gen.Model())),
	); err != nil {
		return nil, fmt.Errorf("add %s node: %w", NodeGenerate, err)
	}
	if err := g.AddLambdaNode(NodeParser, newParserNode(e.maxRetries),
		compose.WithStatePostHandler(newParserPostHandler(e.metrics, e.gen.Provider())),
	); err != nil {
		return nil, fmt.Errorf("add %s node: %w", NodeParser, err)
	}
	if err := g.AddLambdaNode(NodeReask, newReaskNode()); err != nil {
		return nil, fmt.Errorf("add %s node: %w", NodeReask, err)
	}

	edges := [][2]string{
		{compose.START, NodeInputConverter},
		{NodeInputConverter, NodeGenerate},
		{NodeGenerate, NodeParser},
		{NodeReask, NodeGenerate},
	}
	for _, edge := range edges {
		if err := g.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}

	retryBranch := compose.NewGraphBranch(
		newRetryCondition(),
		map[string]bool{
			NodeReask:   true,
			compose.END: true,
		},
	)
	if err := g.AddBranch(NodeParser, retryBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding retry branch")
		return nil, fmt.Errorf("error adding retry branch: %w", err)
	}

	// Each attempt walks generate, parser and reask once.
	maxSteps := 10 + 3*(e.maxRetries+1)
	runnable, err := g.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling extraction graph")
		return nil, fmt.Errorf("error compiling extraction graph: %w", err)
	}
	return runnable, nil
}

func newInputConverterPreHandler() func(context.Context, *job, *state) (*job, error) {
	return func(ctx context.Context, in *job, s *state) (*job, error) {
		s.job = in
		s.history = nil
		s.promptLen = 0
		return in, nil
	}
}

// newInputConverterNode renders the request prompt through the eino prompt
// component so prompt callbacks fire.
func newInputConverterNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, j *job) ([]*schema.Message, error) {
		msgs, err := j.req.Prompt.Format(ctx, j.req.Vars)
		if err != nil {
			j.failure = errx.New(fmt.Errorf("render %s prompt: %w", j.req.Name, err), errx.KindInput, errx.InputErrorMessage)
			return nil, j.failure
		}
		if len(msgs) == 0 {
			j.failure = errx.Input("render %s prompt: no messages", j.req.Name)
			return nil, j.failure
		}
		return msgs, nil
	})
}

func newInputConverterPostHandler() func(context.Context, []*schema.Message, *state) ([]*schema.Message, error) {
	return func(ctx context.Context, out []*schema.Message, s *state) ([]*schema.Message, error) {
		s.promptLen = len(out)
		return out, nil
	}
}

// newGeneratePreHandler appends the incoming messages to the history and
// hands the model the prompt plus the most recent failed attempts.
func newGeneratePreHandler(maxTurns int) func(context.Context, []*schema.Message, *state) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, s *state) ([]*schema.Message, error) {
		s.history = append(s.history, in...)
		s.job.attempts++
		return window(s.history, s.promptLen, maxTurns), nil
	}
}

func newGenerateNode(gen llm.Generator) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, msgs []*schema.Message) (*llm.Output, error) {
		var j *job
		if err := compose.ProcessState(ctx, func(_ context.Context, s *state) error {
			j = s.job
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		out, err := gen.Generate(ctx, &llm.Input{
			Messages: msgs,
			Schema:   j.def,
			Images:   j.req.Images,
		})
		if err != nil {
			if errx.KindOf(err) == errx.KindInternal {
				err = errx.WrapProvider(gen.Provider(), err)
			}
			j.failure = err
			return nil, err
		}
		if out == nil {
			out = &llm.Output{}
		}
		return out, nil
	})
}

// newGeneratePostHandler accumulates usage and cost for the run.
func newGeneratePostHandler(modelName string) func(context.Context, *llm.Output, *state) (*llm.Output, error) {
	return func(ctx context.Context, out *llm.Output, s *state) (*llm.Output, error) {
		if out == nil || out.Usage == nil {
			return out, nil
		}
		inC, outC, totalC := model.ComputeCost(out.Usage, model.ResolvePricing(modelName))
		model.AddUsage(&s.job.usage, out.Usage)
		s.job.cost += totalC

		logx.Debug().
			Str("recipe", s.job.req.Name).
			Str("node", NodeGenerate).
			Str("model", modelName).
			Int("attempt", s.job.attempts).
			Int("prompt_tokens", out.Usage.PromptTokens).
			Int("completion_tokens", out.Usage.CompletionTokens).
			Int("total_tokens", out.Usage.TotalTokens).
			Float64("input_cost_usd", inC).
			Float64("output_cost_usd", outC).
			Float64("total_cost_usd", totalC).
			Msg("LLM usage")
		return out, nil
	}
}

func newParserNode(maxRetries int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, out *llm.Output) (*outcome, error) {
		var j *job
		if err := compose.ProcessState(ctx, func(_ context.Context, s *state) error {
			j = s.job
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		raw, err := decode(j.target, out.Content, j.req.Validate)
		return &outcome{
			raw:       raw,
			content:   out.Content,
			err:       err,
			exhausted: err != nil && j.attempts > maxRetries,
		}, nil
	})
}

func newParserPostHandler(m *Metrics, provider string) func(context.Context, *outcome, *state) (*outcome, error) {
	return func(ctx context.Context, o *outcome, s *state) (*outcome, error) {
		if o.err == nil {
			return o, nil
		}
		m.validationFailed(s.job.req.Name, provider)
		logx.Warn().
			Str("recipe", s.job.req.Name).
			Int("attempt", s.job.attempts).
			Bool("exhausted", o.exhausted).
			Str("error", o.err.Error()).
			Msg("model output failed validation")
		return o, nil
	}
}

func newRetryCondition() func(context.Context, *outcome) (string, error) {
	return func(ctx context.Context, o *outcome) (string, error) {
		if o.err == nil || o.exhausted {
			return compose.END, nil
		}
		return NodeReask, nil
	}
}

// newReaskNode replays the rejected answer and asks for a correction.
func newReaskNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, o *outcome) ([]*schema.Message, error) {
		answer := strings.TrimSpace(o.content)
		if len(o.raw) > 0 {
			answer = string(o.raw)
		}
		if answer == "" {
			answer = "<empty response>"
		}
		return []*schema.Message{
			schema.AssistantMessage(answer, nil),
			schema.UserMessage(reaskMessage(o.err)),
		}, nil
	})
}

func reaskMessage(err error) string {
	return reaskPrefix + err.Error()
}

// window keeps the rendered prompt and the last maxTurns attempt/correction
// pairs that followed it.
func window(history []*schema.Message, promptLen, maxTurns int) []*schema.Message {
	if promptLen > len(history) {
		promptLen = len(history)
	}
	rest := history[promptLen:]
	if keep := 2 * maxTurns; len(rest) > keep {
		rest = rest[len(rest)-keep:]
	}
	out := make([]*schema.Message, 0, promptLen+len(rest))
	out = append(out, history[:promptLen]...)
	return append(out, rest...)
}
