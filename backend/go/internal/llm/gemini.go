package llm

import (
	"context"
	"fmt"

	"country_facts/backend/go/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini 是一个实现了 LLM 接口的结构体，用于与 Gemini API 交互。
// 每次调用都创建独立的 GenerativeModel，请求之间不共享会话状态。
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini 创建一个新的 Gemini 客户端。
//
// 参数:
//
//	ctx: 上下文，用于控制客户端的生命周期。
//	model: 要使用的 Gemini 模型名称。
//	apiKey: Gemini API 密钥。
func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// GenerateContent 向 Gemini API 发送单轮请求并返回响应。
func (g *Gemini) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	gm := g.client.GenerativeModel(g.model)
	if req.Temperature > 0 {
		gm.SetTemperature(req.Temperature)
	}
	if req.MaxOutputTokens > 0 {
		gm.SetMaxOutputTokens(int32(req.MaxOutputTokens))
	}

	resp, err := gm.GenerateContent(ctx, toGenaiParts(req.Content)...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	out := fromGenaiResponse(resp)
	out.ModelVersion = g.model
	return out, nil
}

// Close 释放底层 gRPC 连接。
func (g *Gemini) Close() error {
	return g.client.Close()
}

// toGenaiParts 将内部 Content 结构体转换为 GenAI Part 切片。
func toGenaiParts(content []models.Content) []genai.Part {
	var parts []genai.Part
	for _, c := range content {
		for _, p := range c.Parts {
			if p != nil && p.Text != "" {
				parts = append(parts, genai.Text(p.Text))
			}
		}
	}
	return parts
}

// fromGenaiResponse 将 GenAI 响应转换为内部响应结构体，只保留文本部分。
func fromGenaiResponse(resp *genai.GenerateContentResponse) *models.GenerateContentResponse {
	out := &models.GenerateContentResponse{}
	if resp == nil {
		return out
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var parts []*models.Part
		for _, p := range cand.Content.Parts {
			if text, ok := p.(genai.Text); ok {
				parts = append(parts, &models.Part{Text: string(text)})
			}
		}
		out.Content = append(out.Content, models.Content{
			Parts: parts,
			Role:  models.SpeakerModel,
		})
	}
	return out
}
