package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/karne/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// ProviderOpenAI selects any OpenAI-compatible chat completions API.
const ProviderOpenAI = "openai"

const defaultOpenAIModel = "llama3.2-vision"

// OpenAI is a Backend for OpenAI-compatible chat completion APIs.
type OpenAI struct {
	api   *openai.Client
	model string
}

// NewOpenAI creates an OpenAI-compatible backend. An empty baseURL uses the
// public OpenAI endpoint.
func NewOpenAI(baseURL, apiKey, modelName string) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if modelName == "" {
		modelName = defaultOpenAIModel
	}
	return &OpenAI{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Name returns the backend name.
func (o *OpenAI) Name() string { return "openai:" + o.model }

// Generate sends all parts as a single user message.
func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	content := make([]openai.ChatMessagePart, 0, len(req.Parts))
	for _, p := range req.Parts {
		if !p.IsInline() {
			content = append(content, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: p.Text,
			})
			continue
		}
		if !strings.HasPrefix(p.MIMEType, "image/") {
			slog.Warn("openai backend cannot send inline document, skipping", "mime", p.MIMEType)
			continue
		}
		content = append(content, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:" + p.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Data),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	chatReq := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: content},
		},
		Temperature: req.Temperature,
		MaxTokens:   int(req.MaxTokens),
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := o.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonLength {
		return "", fmt.Errorf("%w: finish reason %s", ErrTruncated, choice.FinishReason)
	}
	slog.Debug("openai response", "raw", truncate(choice.Message.Content, 500))
	return choice.Message.Content, nil
}

// Chat sends the system instruction, the history and the new message.
func (o *OpenAI) Chat(ctx context.Context, req ChatRequest) (string, error) {
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.System},
	}
	for _, m := range req.History {
		role := openai.ChatMessageRoleUser
		if m.Role == model.ChatRoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Message})

	resp, err := o.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: msgs,
	})
	if err != nil {
		return "", wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Ping lists models to confirm the endpoint and key are usable.
func (o *OpenAI) Ping(ctx context.Context) error {
	if _, err := o.api.ListModels(ctx); err != nil {
		return wrapOpenAIError(err)
	}
	return nil
}

func wrapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return err
}
