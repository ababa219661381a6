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
	"hash/fnv"
	"math"
	"strings"
)

// LocalEmbedder 离线哈希词袋向量器。
// 不依赖外部服务，语义相近文本（词重叠多）余弦相似度高，供开发与测试使用
type LocalEmbedder struct {
	dimension int
}

// NewLocalEmbedder 创建离线向量器
func NewLocalEmbedder(dimension int) *LocalEmbedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &LocalEmbedder{dimension: dimension}
}

// Embed 实现向量化：词哈希到固定维度后做 L2 归一化
func (e *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, e.dimension)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(word))
			vec[int(h.Sum32())%e.dimension] += 1.0
		}
		var norm float64
		for _, v := range vec {
			norm += v * v
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range vec {
				vec[j] /= norm
			}
		}
		out[i] = vec
	}
	return out, nil
}

// Model 返回模型名称
func (e *LocalEmbedder) Model() string {
	return "local-hash"
}

// Dimension 返回向量维度
func (e *LocalEmbedder) Dimension() int {
	return e.dimension
}
