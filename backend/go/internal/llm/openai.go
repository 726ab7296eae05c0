package llm

import (
	"context"
	"fmt"
	"net/http"

	"country_facts/backend/go/internal/models"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAI 是一个用于 OpenAI Chat Completions API 的 LLM 客户端。
// 设置 baseURL 后也可用于 LM Studio 等本地 OpenAI 兼容服务。
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI 创建一个新的 OpenAI 客户端。
func NewOpenAI(model, apiKey, baseURL string, httpClient *http.Client) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// GenerateContent 使用 OpenAI API 生成内容。
func (o *OpenAI) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	resp, err := o.client.CreateChatCompletion(ctx, o.toOpenAIRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	return o.toGenerateContentResponse(&resp), nil
}

// toOpenAIRequest 将我们的内部请求格式转换为 OpenAI 格式。
func (o *OpenAI) toOpenAIRequest(req *models.GenerateContentRequest) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	for _, content := range req.Content {
		role := openai.ChatMessageRoleUser
		switch content.Role {
		case models.SpeakerSystem:
			role = openai.ChatMessageRoleSystem
		case models.SpeakerAssistant, models.SpeakerModel:
			role = openai.ChatMessageRoleAssistant
		}
		for _, part := range content.Parts {
			if part == nil {
				continue
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    role,
				Content: part.Text,
			})
		}
	}

	return openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		MaxTokens:   req.MaxOutputTokens,
		Temperature: &req.Temperature,
	}
}

// toGenerateContentResponse 将 OpenAI 响应转换为我们的内部格式。
func (o *OpenAI) toGenerateContentResponse(resp *openai.ChatCompletionResponse) *models.GenerateContentResponse {
	var content []models.Content
	for _, choice := range resp.Choices {
		content = append(content, models.Content{
			Parts: []*models.Part{{Text: choice.Message.Content}},
			Role:  models.SpeakerModel,
		})
	}

	return &models.GenerateContentResponse{
		Content:      content,
		ResponseID:   resp.ID,
		ModelVersion: resp.Model,
	}
}
