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

package knowledge

import (
	"context"
	"fmt"

	redisindexer "github.com/cloudwego/eino-ext/components/indexer/redis"
	einoembed "github.com/cloudwego/eino/components/embedding"
	einoindexer "github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"coworker-engine/internal/storage/vector"
	"coworker-engine/pkg/config"
)

// MemoryIndexer 基于 vector.Store 的 eino Indexer 实现
type MemoryIndexer struct {
	vectorStore vector.Store
	embedder    einoembed.Embedder
	index       string
	dimension   int
}

// MemoryIndexerConfig MemoryIndexer 构造参数
type MemoryIndexerConfig struct {
	VectorStore vector.Store
	Embedder    einoembed.Embedder
	Index       string
	Dimension   int
}

// NewMemoryIndexer 创建基于 vector.Store 的 eino Indexer
func NewMemoryIndexer(cfg *MemoryIndexerConfig) (*MemoryIndexer, error) {
	if cfg == nil || cfg.VectorStore == nil {
		return nil, fmt.Errorf("MemoryIndexer requires VectorStore")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("MemoryIndexer requires Embedder")
	}
	idx := cfg.Index
	if idx == "" {
		idx = defaultCollection
	}
	return &MemoryIndexer{
		vectorStore: cfg.VectorStore,
		embedder:    cfg.Embedder,
		index:       idx,
		dimension:   cfg.Dimension,
	}, nil
}

// Store 实现 github.com/cloudwego/eino/components/indexer.Indexer
func (m *MemoryIndexer) Store(ctx context.Context, docs []*schema.Document, opts ...einoindexer.Option) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	options := einoindexer.GetCommonOptions(nil, opts...)
	embedder := m.embedder
	if options != nil && options.Embedding != nil {
		embedder = options.Embedding
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	vecs, err := embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("向量化文档failed: %w", err)
	}
	if len(vecs) != len(docs) {
		return nil, fmt.Errorf("向量化返回数量不匹配: 期望 %d 实际 %d", len(docs), len(vecs))
	}

	dim := m.dimension
	if dim <= 0 && len(vecs) > 0 {
		dim = len(vecs[0])
	}
	if err := m.vectorStore.Create(ctx, &vector.Index{Name: m.index, Dimension: dim}); err != nil {
		return nil, err
	}

	vectors := make([]*vector.Vector, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		meta := make(map[string]string, len(doc.MetaData))
		for k, v := range doc.MetaData {
			if s, ok := v.(string); ok {
				meta[k] = s
			}
		}
		vectors[i] = &vector.Vector{
			ID:       doc.ID,
			Values:   vecs[i],
			Content:  doc.Content,
			Metadata: meta,
		}
		ids[i] = doc.ID
	}
	if err := m.vectorStore.Add(ctx, m.index, vectors); err != nil {
		return nil, err
	}
	return ids, nil
}

// NewIndexer 根据 VectorConfig 创建 eino Indexer
// （memory 用内置 vector.Store；redis 用 eino-ext redis indexer）
func NewIndexer(ctx context.Context, cfg config.VectorConfig, vectorStore vector.Store, embedder einoembed.Embedder, dimension int) (einoindexer.Indexer, error) {
	t := cfg.Type
	if t == "" {
		t = "memory"
	}
	switch t {
	case "memory":
		return NewMemoryIndexer(&MemoryIndexerConfig{
			VectorStore: vectorStore,
			Embedder:    embedder,
			Index:       cfg.Collection,
			Dimension:   dimension,
		})
	case "redis":
		client := redis.NewClient(redisOptions(cfg))
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		coll := cfg.Collection
		if coll == "" {
			coll = defaultCollection
		}
		idx, err := redisindexer.NewIndexer(ctx, &redisindexer.IndexerConfig{
			Client:    client,
			KeyPrefix: coll,
			BatchSize: defaultBatchSize,
			Embedding: embedder,
		})
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis indexer: %w", err)
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("不支持的向量存储类型: %s", t)
	}
}
