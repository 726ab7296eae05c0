package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"country_facts/backend/go/internal/models"
)

const defaultHuggingFaceURL = "https://api-inference.huggingface.co/models/"

// HuggingFace 是一个用于 Hugging Face Inference API 的 LLM 客户端。
type HuggingFace struct {
	client  *http.Client // HTTP 客户端实例。
	model   string       // 要使用的模型名称，例如 "deepseek-ai/DeepSeek-R1"。
	apiKey  string       // Hugging Face API 密钥。
	baseURL string       // Inference API 的基准 URL。
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	Temperature    float32 `json:"temperature,omitempty"`
	DoSample       bool    `json:"do_sample"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

// NewHuggingFace 创建一个新的 HuggingFace 客户端。
// baseURL 为空时使用 "https://api-inference.huggingface.co/models/"。
func NewHuggingFace(model, apiKey, baseURL string, httpClient *http.Client) *HuggingFace {
	if baseURL == "" {
		baseURL = defaultHuggingFaceURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HuggingFace{
		client:  httpClient,
		model:   model,
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

// GenerateContent 使用 Hugging Face Inference API 生成内容。
// 请求中设置 return_full_text=false，因此响应中不会回显提示词。
func (h *HuggingFace) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	payload := hfRequest{
		Inputs: req.Prompt(),
		Parameters: hfParameters{
			MaxNewTokens:   req.MaxOutputTokens,
			Temperature:    req.Temperature,
			DoSample:       req.Temperature > 0,
			ReturnFullText: false,
		},
	}
	jsonReq, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+h.model, bytes.NewReader(jsonReq))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var generations []hfGeneration
	if err := json.NewDecoder(resp.Body).Decode(&generations); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(generations) == 0 {
		return nil, fmt.Errorf("no generated text returned")
	}

	return h.toGenerateContentResponse(generations), nil
}

// toGenerateContentResponse 将 Hugging Face 响应转换为我们的内部格式。
func (h *HuggingFace) toGenerateContentResponse(generations []hfGeneration) *models.GenerateContentResponse {
	content := make([]models.Content, 0, len(generations))
	for _, g := range generations {
		content = append(content, models.Content{
			Parts: []*models.Part{{Text: g.GeneratedText}},
			Role:  models.SpeakerModel,
		})
	}
	return &models.GenerateContentResponse{
		Content:      content,
		ModelVersion: h.model,
	}
}
