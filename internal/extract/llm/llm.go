// Package llm adapts hosted model APIs to a single structured-generation call.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract/model"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/structure"
)

const (
	ProviderGemini = "gemini"
	ProviderGenAI  = "genai"
	ProviderOpenAI = "openai"
)

// Image is an inline image attached to the first user message.
type Image struct {
	MIMEType string
	Data     []byte
}

type Input struct {
	Messages []*schema.Message
	Schema   *structure.Definition
	Images   []Image
}

type Output struct {
	// Content is the JSON the model produced for the schema.
	Content string
	Usage   *schema.TokenUsage
}

// Generator produces JSON for a schema from a conversation.
type Generator interface {
	Generate(ctx context.Context, in *Input) (*Output, error)
	Provider() string
	Model() string
}

type options struct {
	httpClient *http.Client
}

type Option func(*options)

// WithHTTPClient routes provider traffic through c. Tests use it to record
// and replay requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// New builds the generator selected by cfg.Provider.
func New(ctx context.Context, cfg model.LLMConfig, opts ...Option) (Generator, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini, "":
		return NewGemini(ctx, cfg, o.httpClient)
	case ProviderGenAI:
		return NewGenAI(ctx, cfg, o.httpClient)
	case ProviderOpenAI:
		return NewOpenAI(cfg, o.httpClient)
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q (want gemini, genai or openai)", cfg.Provider)
	}
}

func validateInput(in *Input) error {
	if in == nil || in.Schema == nil {
		return fmt.Errorf("generate: schema is required")
	}
	if len(in.Messages) == 0 {
		return fmt.Errorf("generate: no messages")
	}
	return nil
}

// splitSystem separates leading and interleaved system messages from the
// conversation, joining their content.
func splitSystem(msgs []*schema.Message) (string, []*schema.Message) {
	var sys []string
	rest := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		if m.Role == schema.System {
			if c := strings.TrimSpace(m.Content); c != "" {
				sys = append(sys, c)
			}
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(sys, "\n\n"), rest
}

func firstUserIndex(msgs []*schema.Message) int {
	for i, m := range msgs {
		if m.Role == schema.User {
			return i
		}
	}
	return -1
}
