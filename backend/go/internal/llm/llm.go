package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"country_facts/backend/go/internal/config"
	"country_facts/backend/go/internal/models"
)

// ErrMissingAPIKey 表示远程模型缺少 API 密钥，该后端不可用。
var ErrMissingAPIKey = errors.New("missing API key")

// LLM 定义了所有大型语言模型客户端必须实现的通用接口。
type LLM interface {
	GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error)
}

// StatusError 表示后端返回了非 2xx 状态码。
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// NewClient 是一个工厂函数，根据提供商配置创建并返回一个实现了 LLM 接口的客户端。
// 远程提供商未配置 API 密钥时返回 ErrMissingAPIKey。
func NewClient(ctx context.Context, p config.ProviderConfig) (LLM, error) {
	httpClient := &http.Client{Timeout: p.TimeoutDuration()}

	switch p.Provider {
	case config.ProviderGemini:
		if p.APIKey == "" {
			return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
		}
		return NewGemini(ctx, p.Model, p.APIKey)
	case config.ProviderOpenAI:
		if p.APIKey == "" && !p.IsLocal() {
			return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
		}
		return NewOpenAI(p.Model, p.APIKey, p.BaseURL, httpClient), nil
	case config.ProviderHuggingFace:
		if p.APIKey == "" {
			return nil, fmt.Errorf("huggingface: %w", ErrMissingAPIKey)
		}
		return NewHuggingFace(p.Model, p.APIKey, p.BaseURL, httpClient), nil
	case config.ProviderOllama:
		return NewOllama(p.Model, p.BaseURL, httpClient)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", p.Provider)
	}
}
