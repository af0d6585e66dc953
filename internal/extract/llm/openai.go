package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino/schema"
	openaiClient "github.com/sashabaranov/go-openai"

	errx "github.com/Chative-core-poc-v1/cookbook/internal/core/error"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/model"
)

// OpenAI requests a json_schema response format. Strict mode stays off
// because it forbids optional properties.
type OpenAI struct {
	client      *openaiClient.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAI(cfg model.LLMConfig, httpClient *http.Client) (*OpenAI, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
	}
	clientCfg := openaiClient.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}
	return &OpenAI{
		client:      openaiClient.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (o *OpenAI) Provider() string { return ProviderOpenAI }

func (o *OpenAI) Model() string { return o.model }

func (o *OpenAI) Generate(ctx context.Context, in *Input) (*Output, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	req := openaiClient.ChatCompletionRequest{
		Model:       o.model,
		Messages:    toOpenAIMessages(in.Messages, in.Images),
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
		ResponseFormat: &openaiClient.ChatCompletionResponseFormat{
			Type: openaiClient.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openaiClient.ChatCompletionResponseFormatJSONSchema{
				Name:        in.Schema.Name,
				Description: in.Schema.Description,
				Schema:      in.Schema.Schema,
			},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, errx.WrapProvider(ProviderOpenAI, err)
	}
	if len(resp.Choices) == 0 {
		return nil, errx.WrapProvider(ProviderOpenAI, fmt.Errorf("empty choices"))
	}

	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return nil, errx.WrapProvider(ProviderOpenAI, fmt.Errorf("model refused: %s", msg.Refusal))
	}
	return &Output{
		Content: msg.Content,
		Usage: &schema.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func toOpenAIMessages(msgs []*schema.Message, images []Image) []openaiClient.ChatCompletionMessage {
	imageAt := firstUserIndex(msgs)
	result := make([]openaiClient.ChatCompletionMessage, 0, len(msgs))

	for i, m := range msgs {
		if m == nil {
			continue
		}
		role := openaiClient.ChatMessageRoleUser
		switch m.Role {
		case schema.System:
			role = openaiClient.ChatMessageRoleSystem
		case schema.Assistant:
			role = openaiClient.ChatMessageRoleAssistant
		}
		completionMessage := openaiClient.ChatCompletionMessage{Role: role}

		if i == imageAt && len(images) > 0 {
			completionMessage.MultiContent = make([]openaiClient.ChatMessagePart, 0, len(images)+1)
			if m.Content != "" {
				completionMessage.MultiContent = append(completionMessage.MultiContent, openaiClient.ChatMessagePart{
					Type: openaiClient.ChatMessagePartTypeText,
					Text: m.Content,
				})
			}
			for _, img := range images {
				completionMessage.MultiContent = append(completionMessage.MultiContent, openaiClient.ChatMessagePart{
					Type: openaiClient.ChatMessagePartTypeImageURL,
					ImageURL: &openaiClient.ChatMessageImageURL{
						URL:    fmt.Sprintf("data:%s;base64,%s", img.MIMEType, base64.StdEncoding.EncodeToString(img.Data)),
						Detail: openaiClient.ImageURLDetailAuto,
					},
				})
			}
		} else {
			completionMessage.Content = m.Content
		}
		result = append(result, completionMessage)
	}
	return result
}
