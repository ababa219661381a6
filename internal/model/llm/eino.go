// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// EinoChatClient 基于 eino ChatModel 的 Client 实现，
// 便于与 eino 编排组件（检索、索引）共用一套模型配置
type EinoChatClient struct {
	model     string
	chatModel model.ToolCallingChatModel
}

// NewEinoChatClient 创建 eino ChatModel 客户端
func NewEinoChatClient(ctx context.Context, modelName, apiKey, baseURL string) (*EinoChatClient, error) {
	cfg := &openai.ChatModelConfig{
		Model:  modelName,
		APIKey: apiKey,
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	chatModel, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("创建 OpenAI ChatModel failed: %w", err)
	}
	return &EinoChatClient{model: modelName, chatModel: chatModel}, nil
}

// Chat 聊天
func (c *EinoChatClient) Chat(messages []Message, options GenerateOptions) (string, error) {
	return c.ChatWithContext(context.Background(), messages, options)
}

// ChatWithContext 使用上下文聊天
func (c *EinoChatClient) ChatWithContext(ctx context.Context, messages []Message, options GenerateOptions) (string, error) {
	in := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			in = append(in, schema.SystemMessage(m.Content))
		case "assistant":
			in = append(in, schema.AssistantMessage(m.Content, nil))
		default:
			in = append(in, schema.UserMessage(m.Content))
		}
	}

	var opts []model.Option
	if options.Temperature > 0 {
		t := float32(options.Temperature)
		opts = append(opts, model.WithTemperature(t))
	}
	if options.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(options.MaxTokens))
	}

	out, err := c.chatModel.Generate(ctx, in, opts...)
	if err != nil {
		return "", fmt.Errorf("eino ChatModel 生成failed: %w", err)
	}
	return out.Content, nil
}

// Model 返回模型名称
func (c *EinoChatClient) Model() string {
	return c.model
}

// Provider 返回提供商名称
func (c *EinoChatClient) Provider() string {
	return "eino-openai"
}
