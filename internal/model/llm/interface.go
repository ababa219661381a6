package llm

import (
	"context"
)

// Client LLM 客户端接口
type Client interface {
	// Chat 聊天
	Chat(messages []Message, options GenerateOptions) (string, error)
	// ChatWithContext 使用上下文聊天
	ChatWithContext(ctx context.Context, messages []Message, options GenerateOptions) (string, error)
	// Model 返回模型名称
	Model() string
	// Provider 返回提供商名称
	Provider() string
}

// GenerateOptions 生成选项
type GenerateOptions struct {
	Temperature float64  `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	TopP        float64  `json:"top_p"`
	Stop        []string `json:"stop"`
}

// Message 聊天消息
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// NewClient 创建新的 LLM 客户端；baseURL 用于 OpenAI 兼容端点（如 Qwen/DashScope），空则用默认或环境变量
func NewClient(ctx context.Context, provider, model, apiKey, baseURL string) (Client, error) {
	switch provider {
	case "openai", "qwen", "":
		return NewOpenAIClient(model, apiKey, baseURL)
	case "eino-openai":
		return NewEinoChatClient(ctx, model, apiKey, baseURL)
	default:
		return NewOpenAIClient(model, apiKey, baseURL)
	}
}
