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

package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore 内存向量存储实现
type MemoryStore struct {
	indexes map[string]*index
	mu      sync.RWMutex
}

type index struct {
	meta      *Index
	vectors   map[string]*Vector
	dimension int
}

// NewMemoryStore 创建新的内存向量存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		indexes: make(map[string]*index),
	}
}

// Create 创建向量索引；已存在时幂等返回
func (s *MemoryStore) Create(ctx context.Context, idx *Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.indexes[idx.Name]; exists {
		return nil
	}
	s.indexes[idx.Name] = &index{
		meta:      idx,
		vectors:   make(map[string]*Vector),
		dimension: idx.Dimension,
	}
	return nil
}

// Add 添加向量
func (s *MemoryStore) Add(ctx context.Context, indexName string, vectors []*Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.indexes[indexName]
	if !exists {
		return fmt.Errorf("index with name %s not found", indexName)
	}
	for _, vector := range vectors {
		if len(vector.Values) != idx.dimension {
			return fmt.Errorf("vector dimension %d does not match index dimension %d", len(vector.Values), idx.dimension)
		}
		idx.vectors[vector.ID] = vector
	}
	return nil
}

// Search 按余弦相似度搜索，支持元数据全匹配过滤
func (s *MemoryStore) Search(ctx context.Context, indexName string, query []float64, options *SearchOptions) ([]*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, exists := s.indexes[indexName]
	if !exists {
		return nil, fmt.Errorf("index with name %s not found", indexName)
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), idx.dimension)
	}
	if options == nil {
		options = &SearchOptions{TopK: 10}
	}

	var results []*SearchResult
	for id, vector := range idx.vectors {
		if len(options.Filter) > 0 {
			match := true
			for key, value := range options.Filter {
				if vector.Metadata == nil || vector.Metadata[key] != value {
					match = false
					break
				}
			}
			if !match {
				continue
			}
		}

		score := cosineSimilarity(query, vector.Values)
		if score < options.Threshold {
			continue
		}
		results = append(results, &SearchResult{
			ID:       id,
			Score:    score,
			Content:  vector.Content,
			Metadata: vector.Metadata,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if options.TopK > 0 && len(results) > options.TopK {
		results = results[:options.TopK]
	}
	return results, nil
}

// Delete 删除向量
func (s *MemoryStore) Delete(ctx context.Context, indexName string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.indexes[indexName]
	if !exists {
		return fmt.Errorf("index with name %s not found", indexName)
	}
	delete(idx.vectors, id)
	return nil
}

// DeleteIndex 删除索引
func (s *MemoryStore) DeleteIndex(ctx context.Context, indexName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.indexes[indexName]; !exists {
		return fmt.Errorf("index with name %s not found", indexName)
	}
	delete(s.indexes, indexName)
	return nil
}

// Close 关闭存储连接（内存实现无资源）
func (s *MemoryStore) Close() error {
	return nil
}

// cosineSimilarity 余弦相似度，零向量返回 0
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
