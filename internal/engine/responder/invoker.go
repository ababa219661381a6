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

// Package responder 组装角色提示词并调用语言模型生成回复
package responder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coworker-engine/internal/engine/common"
	"coworker-engine/internal/engine/state"
	"coworker-engine/internal/model/llm"
	"coworker-engine/internal/persona"
	"coworker-engine/pkg/log"
)

// historyWindow 注入提示词的历史消息条数
const historyWindow = 10

// Invoker 角色调用接口
type Invoker interface {
	// Invoke 以指定角色回复用户消息；retrievedContext 为检索到的知识上下文
	Invoke(ctx context.Context, p *persona.Persona, sess *state.Session, userMessage, retrievedContext string) (string, error)
}

// LLMInvoker 基于 LLM Client 的 Invoker 实现
type LLMInvoker struct {
	client  llm.Client
	options llm.GenerateOptions
	logger  *log.Logger
}

// NewLLMInvoker 创建 LLM 角色调用器
func NewLLMInvoker(client llm.Client, logger *log.Logger) *LLMInvoker {
	return &LLMInvoker{
		client: client,
		options: llm.GenerateOptions{
			Temperature: 0.7,
			MaxTokens:   800,
		},
		logger: logger,
	}
}

// Invoke 实现 Invoker。
// 模型调用失败标记为瞬时错误交由上层重试；上下文取消视为致命
func (i *LLMInvoker) Invoke(ctx context.Context, p *persona.Persona, sess *state.Session, userMessage, retrievedContext string) (string, error) {
	prompt := BuildPrompt(p, sess, userMessage, retrievedContext)

	text, err := i.client.ChatWithContext(ctx, []llm.Message{
		{Role: "system", Content: prompt},
		{Role: "user", Content: userMessage},
	}, i.options)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", common.Fatal(err)
		}
		i.logger.Warn("角色调用失败", "responder", p.ID, "error", err)
		return "", common.Transient(fmt.Errorf("调用角色 %s failed: %w", p.ID, err))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", common.Transient(fmt.Errorf("角色 %s 返回空回复", p.ID))
	}
	return text, nil
}

// BuildPrompt 渲染角色系统提示词
func BuildPrompt(p *persona.Persona, sess *state.Session, userMessage, retrievedContext string) string {
	rec := sess.Emotion(p.ID)
	return persona.RenderPrompt(persona.SystemPrompt(p.ID), map[string]string{
		"context":           retrievedContext,
		"emotional_context": persona.EmotionalContext(rec.RelationshipScore, rec.TensionCount, rec.MemorableEvents),
		"chat_history":      renderHistory(sess),
		"task_progress":     sess.TaskProgress.Checklist(),
		"user_message":      userMessage,
	})
}

// renderHistory 最近消息渲染为 "发言者: 内容" 形式
func renderHistory(sess *state.Session) string {
	msgs := sess.RecentMessages(historyWindow)
	if len(msgs) == 0 {
		return "(first message)"
	}
	var buf strings.Builder
	for i, m := range msgs {
		if i > 0 {
			buf.WriteString("\n")
		}
		speaker := m.Speaker
		if speaker == "" {
			speaker = string(m.Role)
		}
		buf.WriteString(speaker)
		buf.WriteString(": ")
		buf.WriteString(m.Content)
	}
	return buf.String()
}
