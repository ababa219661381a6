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

package embedding

import (
	"context"

	einoembedding "github.com/cloudwego/eino/components/embedding"
)

// EinoAdapter 将本包 Embedder 适配为 eino embedding.Embedder，
// 供 eino-ext 的 redis retriever/indexer 使用
type EinoAdapter struct {
	inner Embedder
}

// NewEinoAdapter 创建 eino 适配器
func NewEinoAdapter(inner Embedder) *EinoAdapter {
	return &EinoAdapter{inner: inner}
}

// EmbedStrings 实现 eino embedding.Embedder
func (a *EinoAdapter) EmbedStrings(ctx context.Context, texts []string, _ ...einoembedding.Option) ([][]float64, error) {
	return a.inner.Embed(ctx, texts)
}
