package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	errx "github.com/Chative-core-poc-v1/cookbook/internal/core/error"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/model"
)

// GenAI uses Gemini's native JSON mode: the response is constrained to the
// schema instead of going through a function call.
type GenAI struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewGenAI(ctx context.Context, cfg model.LLMConfig, httpClient *http.Client) (*GenAI, error) {
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
		return nil, fmt.Errorf("error creating genai client: %w", err)
	}
	return &GenAI{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (g *GenAI) Provider() string { return ProviderGenAI }

func (g *GenAI) Model() string { return g.model }

func (g *GenAI) Generate(ctx context.Context, in *Input) (*Output, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	system, contents := toGenAIContents(in.Messages, in.Images)
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: in.Schema.Schema,
		Temperature:        genai.Ptr(g.temperature),
	}
	if g.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(g.maxTokens)
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, errx.WrapProvider(ProviderGenAI, err)
	}

	out := &Output{Content: resp.Text()}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = &schema.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

func toGenAIContents(msgs []*schema.Message, images []Image) (string, []*genai.Content) {
	system, rest := splitSystem(msgs)
	imageAt := firstUserIndex(rest)

	contents := make([]*genai.Content, 0, len(rest))
	for i, m := range rest {
		role := genai.Role(genai.RoleUser)
		if m.Role == schema.Assistant {
			role = genai.RoleModel
		}
		parts := []*genai.Part{genai.NewPartFromText(m.Content)}
		if i == imageAt {
			for _, img := range images {
				parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
			}
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}
	return system, contents
}
