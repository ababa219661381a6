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
	"strconv"

	redisretriever "github.com/cloudwego/eino-ext/components/retriever/redis"
	einoembed "github.com/cloudwego/eino/components/embedding"
	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"coworker-engine/internal/storage/vector"
	"coworker-engine/pkg/config"
)

const (
	defaultTopK       = 3
	defaultThreshold  = 0.3
	defaultCollection = "knowledge"
	defaultBatchSize  = 100
)

// MemoryRetriever 基于 vector.Store 的 eino Retriever 实现
type MemoryRetriever struct {
	vectorStore vector.Store
	embedder    einoembed.Embedder
	index       string
	topK        int
	threshold   float64
}

// MemoryRetrieverConfig MemoryRetriever 构造参数
type MemoryRetrieverConfig struct {
	VectorStore vector.Store
	Embedder    einoembed.Embedder
	Index       string
	TopK        int
	Threshold   float64
}

// NewMemoryRetriever 创建基于 vector.Store 的 eino Retriever
func NewMemoryRetriever(cfg *MemoryRetrieverConfig) (*MemoryRetriever, error) {
	if cfg == nil || cfg.VectorStore == nil {
		return nil, fmt.Errorf("MemoryRetriever requires VectorStore")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("MemoryRetriever requires Embedder")
	}
	idx := cfg.Index
	if idx == "" {
		idx = defaultCollection
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	thresh := cfg.Threshold
	if thresh <= 0 {
		thresh = defaultThreshold
	}
	return &MemoryRetriever{
		vectorStore: cfg.VectorStore,
		embedder:    cfg.Embedder,
		index:       idx,
		topK:        topK,
		threshold:   thresh,
	}, nil
}

// Retrieve 实现 github.com/cloudwego/eino/components/retriever.Retriever
func (m *MemoryRetriever) Retrieve(ctx context.Context, query string, opts ...einoretriever.Option) ([]*schema.Document, error) {
	options := einoretriever.GetCommonOptions(nil, opts...)
	if options == nil {
		options = &einoretriever.Options{}
	}

	indexName := m.index
	if options.Index != nil && *options.Index != "" {
		indexName = *options.Index
	}
	topK := m.topK
	if options.TopK != nil && *options.TopK > 0 {
		topK = *options.TopK
	}
	threshold := m.threshold
	if options.ScoreThreshold != nil {
		threshold = *options.ScoreThreshold
	}
	embedder := m.embedder
	if options.Embedding != nil {
		embedder = options.Embedding
	}

	vecs, err := embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("向量化查询failed: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("向量化返回数量异常: %d", len(vecs))
	}

	results, err := m.vectorStore.Search(ctx, indexName, vecs[0], &vector.SearchOptions{
		TopK:      topK,
		Threshold: threshold,
	})
	if err != nil {
		return nil, err
	}

	docs := make([]*schema.Document, 0, len(results))
	for _, r := range results {
		meta := make(map[string]interface{}, len(r.Metadata)+1)
		for k, v := range r.Metadata {
			meta[k] = v
		}
		doc := &schema.Document{
			ID:       r.ID,
			Content:  r.Content,
			MetaData: meta,
		}
		doc.WithScore(r.Score)
		docs = append(docs, doc)
	}
	return docs, nil
}

// NewRetriever 根据 VectorConfig 创建 eino Retriever
// （memory 用内置 vector.Store；redis 用 eino-ext redis retriever）
func NewRetriever(ctx context.Context, cfg config.VectorConfig, kcfg config.KnowledgeConfig, vectorStore vector.Store, embedder einoembed.Embedder) (einoretriever.Retriever, error) {
	t := cfg.Type
	if t == "" {
		t = "memory"
	}
	switch t {
	case "memory":
		return NewMemoryRetriever(&MemoryRetrieverConfig{
			VectorStore: vectorStore,
			Embedder:    embedder,
			Index:       cfg.Collection,
			TopK:        kcfg.TopK,
			Threshold:   kcfg.Threshold,
		})
	case "redis":
		client := redis.NewClient(redisOptions(cfg))
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		indexName := cfg.Collection
		if indexName == "" {
			indexName = defaultCollection
		}
		topK := kcfg.TopK
		if topK <= 0 {
			topK = defaultTopK
		}
		ret, err := redisretriever.NewRetriever(ctx, &redisretriever.RetrieverConfig{
			Client:    client,
			Index:     indexName,
			TopK:      topK,
			Embedding: embedder,
		})
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis retriever: %w", err)
		}
		return ret, nil
	default:
		return nil, fmt.Errorf("不支持的向量存储类型: %s", t)
	}
}

// redisOptions 从 VectorConfig 构造 redis.Options。
// Redis Stack 向量检索需 Protocol 2、UnstableResp3 true（见 eino-ext retriever 注释）
func redisOptions(cfg config.VectorConfig) *redis.Options {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	}
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	if cfg.DB != "" {
		if db, err := strconv.Atoi(cfg.DB); err == nil && db >= 0 {
			opts.DB = db
		}
	}
	opts.Protocol = 2
	opts.UnstableResp3 = true
	return opts
}
