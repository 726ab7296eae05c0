package models

import (
	"strings"
	"time"
)

// SpeakerRole 定义了消息发送者的角色。
type SpeakerRole string

const (
	SpeakerUser      SpeakerRole = "user"      // 用户角色。
	SpeakerAssistant SpeakerRole = "assistant" // 助手角色。
	SpeakerSystem    SpeakerRole = "system"    // 系统角色。
	SpeakerModel     SpeakerRole = "model"     // 模型角色。
)

// Content 包含了构成单个消息的多个部分。
type Content struct {
	// 可选。构成单个消息的部分列表。
	Parts []*Part `json:"parts,omitempty"`
	// 可选。内容的生产者。
	Role SpeakerRole `json:"role,omitempty"`
}

// Part 定义了消息的单个文本部分。
type Part struct {
	Text string `json:"text,omitempty"`
}

// GenerateContentRequest 定义了生成内容的请求结构。
type GenerateContentRequest struct {
	Content []Content `json:"content,omitempty"` // 请求的内容列表。
	// Temperature 为采样温度，0 表示使用模型默认值。
	Temperature float32 `json:"temperature,omitempty"`
	// MaxOutputTokens 限制生成的最大 token 数，0 表示不限制。
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

// NewTextRequest builds a single-turn user request carrying prompt.
func NewTextRequest(prompt string, temperature float32, maxOutputTokens int) *GenerateContentRequest {
	return &GenerateContentRequest{
		Content: []Content{{
			Parts: []*Part{{Text: prompt}},
			Role:  SpeakerUser,
		}},
		Temperature:     temperature,
		MaxOutputTokens: maxOutputTokens,
	}
}

// Prompt 将请求中所有文本部分拼接为一个字符串。
func (r *GenerateContentRequest) Prompt() string {
	var sb strings.Builder
	for _, c := range r.Content {
		for _, p := range c.Parts {
			if p != nil {
				sb.WriteString(p.Text)
			}
		}
	}
	return sb.String()
}

// GenerateContentResponse 定义了生成内容的响应结构。
type GenerateContentResponse struct {
	Content      []Content `json:"content,omitempty"`      // 响应的内容列表。
	CreateTime   time.Time `json:"createTime,omitempty"`   // 响应创建时间。
	ResponseID   string    `json:"responseId,omitempty"`   // 响应ID。
	ModelVersion string    `json:"modelVersion,omitempty"` // 模型版本。
}

// Text returns the concatenated text of every part in the response.
func (r *GenerateContentResponse) Text() string {
	if r == nil {
		return ""
	}
	var sb strings.Builder
	for _, c := range r.Content {
		for _, p := range c.Parts {
			if p != nil {
				sb.WriteString(p.Text)
			}
		}
	}
	return sb.String()
}
