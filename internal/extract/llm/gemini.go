package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	errx "github.com/Chative-core-poc-v1/cookbook/internal/core/error"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/model"
	logx "github.com/Chative-core-poc-v1/cookbook/pkg/logger"
)

// Gemini asks the eino Gemini chat model to call a tool whose parameters are
// the target schema, and reads the call arguments.
type Gemini struct {
	cm    *gemini.ChatModel
	model string
}

func NewGemini(ctx context.Context, cfg model.LLMConfig, httpClient *http.Client) (*Gemini, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.GeminiBaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.GeminiBaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens
	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini chat model")
		return nil, fmt.Errorf("error creating Gemini chat model: %w", err)
	}

	return &Gemini{cm: cm, model: cfg.Model}, nil
}

func (g *Gemini) Provider() string { return ProviderGemini }

func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Generate(ctx context.Context, in *Input) (*Output, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if len(in.Images) > 0 {
		return nil, errx.Input("the gemini chat model path does not take images; set LLM_PROVIDER=genai or openai")
	}

	cm, err := g.cm.WithTools([]*schema.ToolInfo{in.Schema.ToolInfo()})
	if err != nil {
		return nil, fmt.Errorf("bind %s tool: %w", in.Schema.Name, err)
	}

	msgs := make([]*schema.Message, 0, len(in.Messages)+1)
	msgs = append(msgs, schema.SystemMessage(fmt.Sprintf(
		"Answer only by calling the %s function. Its arguments must satisfy the function schema exactly.",
		in.Schema.Name,
	)))
	msgs = append(msgs, in.Messages...)

	resp, err := cm.Generate(ctx, msgs)
	if err != nil {
		return nil, errx.WrapProvider(ProviderGemini, err)
	}

	out := &Output{Content: resp.Content}
	for _, tc := range resp.ToolCalls {
		if tc.Function.Name == in.Schema.Name || tc.Function.Name == "" {
			out.Content = tc.Function.Arguments
			break
		}
	}
	if resp.ResponseMeta != nil {
		out.Usage = resp.ResponseMeta.Usage
	}
	return out, nil
}
