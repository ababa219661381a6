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

// Package knowledge 提供角色知识检索：文档入库、向量检索与按知识域过滤。
// 检索结果拼入角色系统提示词的 {context} 槽位
package knowledge

import (
	"context"
	"strings"

	einoretriever "github.com/cloudwego/eino/components/retriever"
)

// Snippet 检索到的知识片段
type Snippet struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
}

// Service 知识检索服务
type Service struct {
	retriever einoretriever.Retriever
}

// NewService 创建知识检索服务
func NewService(retriever einoretriever.Retriever) *Service {
	return &Service{retriever: retriever}
}

// Retrieve 检索与 query 相关、且属于 scopes 知识域的片段。
// scopes 为空表示不过滤；retriever 为 nil 时返回空
func (s *Service) Retrieve(ctx context.Context, query string, scopes []string) ([]Snippet, error) {
	if s == nil || s.retriever == nil {
		return nil, nil
	}
	docs, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	scopeSet := make(map[string]bool, len(scopes))
	for _, sc := range scopes {
		scopeSet[sc] = true
	}

	var out []Snippet
	for _, doc := range docs {
		source := ""
		if doc.MetaData != nil {
			if len(scopeSet) > 0 {
				scope, _ := doc.MetaData["scope"].(string)
				if !scopeSet[scope] {
					continue
				}
			}
			source, _ = doc.MetaData["source"].(string)
		}
		out = append(out, Snippet{
			Content: doc.Content,
			Source:  source,
			Score:   doc.Score(),
		})
	}
	return out, nil
}

// RenderContext 将片段拼接为提示词上下文文本，空片段返回空串
func RenderContext(snippets []Snippet) string {
	if len(snippets) == 0 {
		return ""
	}
	var buf strings.Builder
	for i, s := range snippets {
		if i > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(s.Content)
	}
	return buf.String()
}
