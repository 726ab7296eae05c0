package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"country_facts/backend/go/internal/models"

	olla "github.com/ollama/ollama/api"
)

// Ollama 是一个用于本地 Ollama API 的 LLM 客户端。
type Ollama struct {
	client *olla.Client // Ollama 客户端实例。
	model  string       // 要使用的模型名称。
}

// NewOllama 创建一个新的 Ollama 客户端。
//
// 参数:
//
//	model: 要使用的模型名称。
//	baseURL: Ollama 服务的基准 URL。如果为空，则默认为 "http://localhost:11434"。
//	httpClient: 带超时设置的 HTTP 客户端。
func NewOllama(model, baseURL string, httpClient *http.Client) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Ollama{client: olla.NewClient(parsedURL, httpClient), model: model}, nil
}

// GenerateContent 使用 Ollama API 以非流式方式生成内容。
func (o *Ollama) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	options := map[string]interface{}{}
	if req.Temperature > 0 {
		options["temperature"] = req.Temperature
	}
	if req.MaxOutputTokens > 0 {
		options["num_predict"] = req.MaxOutputTokens
	}

	stream := false
	var result *olla.GenerateResponse
	err := o.client.Generate(ctx, &olla.GenerateRequest{
		Model:   o.model,
		Prompt:  req.Prompt(),
		Stream:  &stream,
		Options: options,
	}, func(resp olla.GenerateResponse) error {
		result = &resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with ollama: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("ollama returned no response")
	}

	return o.toGenerateContentResponse(result), nil
}

// toGenerateContentResponse 将 Ollama GenerateResponse 转换为内部 GenerateContentResponse 结构体。
func (o *Ollama) toGenerateContentResponse(resp *olla.GenerateResponse) *models.GenerateContentResponse {
	return &models.GenerateContentResponse{
		Content: []models.Content{
			{
				Parts: []*models.Part{{Text: resp.Response}},
				Role:  models.SpeakerModel,
			},
		},
		CreateTime:   resp.CreatedAt,
		ModelVersion: resp.Model,
	}
}
