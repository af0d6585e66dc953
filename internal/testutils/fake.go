package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract/llm"
)

// Call records what a FakeGenerator was asked.
type Call struct {
	Messages []*schema.Message
	Schema   string
	Images   int
}

// FakeGenerator replays scripted answers in order; the last one repeats.
// An entry in Errs at the same index makes that call fail instead.
type FakeGenerator struct {
	Responses []string
	Errs      []error
	Usage     *schema.TokenUsage
	ModelName string

	mu    sync.Mutex
	calls []Call
}

func NewFakeGenerator(responses ...string) *FakeGenerator {
	return &FakeGenerator{
		Responses: responses,
		Usage:     &schema.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
		ModelName: "gemini-2.5-flash",
	}
}

func (f *FakeGenerator) Provider() string { return "fake" }

func (f *FakeGenerator) Model() string { return f.ModelName }

func (f *FakeGenerator) Generate(ctx context.Context, in *llm.Input) (*llm.Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	i := len(f.calls)
	call := Call{Messages: append([]*schema.Message(nil), in.Messages...), Images: len(in.Images)}
	if in.Schema != nil {
		call.Schema = in.Schema.Name
	}
	f.calls = append(f.calls, call)

	if i < len(f.Errs) && f.Errs[i] != nil {
		return nil, f.Errs[i]
	}
	if len(f.Responses) == 0 {
		return nil, fmt.Errorf("fake generator: no scripted responses")
	}
	if i >= len(f.Responses) {
		i = len(f.Responses) - 1
	}
	out := &llm.Output{Content: f.Responses[i]}
	if f.Usage != nil {
		u := *f.Usage
		out.Usage = &u
	}
	return out, nil
}

// Calls returns a copy of the recorded calls.
func (f *FakeGenerator) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// LastMessages returns the conversation sent on the most recent call.
func (f *FakeGenerator) LastMessages() []*schema.Message {
	calls := f.Calls()
	if len(calls) == 0 {
		return nil
	}
	return calls[len(calls)-1].Messages
}

var _ llm.Generator = (*FakeGenerator)(nil)
