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

// Package cache 实现三层响应缓存：
// L1 精确匹配（LRU）、L2 语义相似（向量检索）、L3 检索结果（TTL）。
// L1/L2 键含状态指纹，状态变化后条目自动不可达；L3 缓存检索上下文而非答案
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"coworker-engine/internal/model/embedding"
	storagecache "coworker-engine/internal/storage/cache"
	"coworker-engine/internal/storage/vector"
	pkgerrors "coworker-engine/pkg/errors"
	"coworker-engine/pkg/metrics"
)

// Tier 命中层级标识
const (
	TierExact     = "exact"
	TierSemantic  = "semantic"
	TierRetrieval = "retrieval"
)

const semanticIndex = "response-cache"

// noCachePatterns 带个人上下文的问题永不缓存
var noCachePatterns = []string{
	"my proposal", "my plan", "i think", "should i", "what if",
	"how do you feel", "remember when", "last time", "you said",
}

// cacheablePatterns 事实型问题可安全缓存
var cacheablePatterns = []string{
	"what is", "define", "explain", "what are the", "list the",
	"describe", "who is", "vept framework", "competency",
}

// Tiered 三层响应缓存。
// 条目写入后不可变，过期与容量淘汰是仅有的删除路径，可被多会话并发访问
type Tiered struct {
	l1 *LRU

	vectorStore vector.Store
	embedder    embedding.Embedder
	threshold   float64

	retrieval storagecache.Store
	ttl       time.Duration
}

// Config Tiered 构造参数
type Config struct {
	L1MaxSize           int
	SimilarityThreshold float64 // <=0 默认 0.92
	RetrievalTTL        time.Duration
	VectorStore         vector.Store          // nil 时禁用 L2
	Embedder            embedding.Embedder    // nil 时禁用 L2
	RetrievalStore      storagecache.Store    // nil 时禁用 L3
}

// New 创建三层缓存
func New(cfg Config) *Tiered {
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 {
		threshold = 0.92
	}
	ttl := cfg.RetrievalTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Tiered{
		l1:          NewLRU(cfg.L1MaxSize),
		vectorStore: cfg.VectorStore,
		embedder:    cfg.Embedder,
		threshold:   threshold,
		retrieval:   cfg.RetrievalStore,
		ttl:         ttl,
	}
}

// Cacheable 判断问题是否可缓存：
// 含个人上下文的不缓存；事实型可缓存；默认不缓存（质量优先）
func Cacheable(message string) bool {
	msg := strings.ToLower(message)
	for _, p := range noCachePatterns {
		if strings.Contains(msg, p) {
			return false
		}
	}
	for _, p := range cacheablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// Lookup 依次查 L1、L2；命中返回 (响应文本, 层级, true)。
// 不可缓存的消息直接未命中
func (t *Tiered) Lookup(ctx context.Context, responder, message, fingerprint string) (string, string, bool) {
	if !Cacheable(message) {
		return "", "", false
	}

	if entry, ok := t.l1.Get(hashKey(responder, message, fingerprint)); ok {
		metrics.CacheHitTotal.WithLabelValues(TierExact).Inc()
		return entry.Value, TierExact, true
	}

	if text, ok := t.semanticLookup(ctx, responder, message, fingerprint); ok {
		metrics.CacheHitTotal.WithLabelValues(TierSemantic).Inc()
		return text, TierSemantic, true
	}

	metrics.CacheMissTotal.Inc()
	return "", "", false
}

// Store 回填 L1 与 L2（不可缓存的消息静默跳过）
func (t *Tiered) Store(ctx context.Context, responder, message, fingerprint, response string) {
	if !Cacheable(message) {
		return
	}
	t.l1.Put(hashKey(responder, message, fingerprint), response, responder)
	t.semanticStore(ctx, responder, message, fingerprint, response)
}

func (t *Tiered) semanticLookup(ctx context.Context, responder, message, fingerprint string) (string, bool) {
	if t.vectorStore == nil || t.embedder == nil {
		return "", false
	}
	vecs, err := t.embedder.Embed(ctx, []string{Normalize(message)})
	if err != nil || len(vecs) != 1 {
		return "", false
	}
	results, err := t.vectorStore.Search(ctx, semanticIndex, vecs[0], &vector.SearchOptions{
		TopK:      1,
		Threshold: t.threshold,
		Filter: map[string]string{
			"responder":   responder,
			"fingerprint": fingerprint,
		},
	})
	if err != nil || len(results) == 0 {
		return "", false
	}
	return results[0].Content, true
}

func (t *Tiered) semanticStore(ctx context.Context, responder, message, fingerprint, response string) {
	if t.vectorStore == nil || t.embedder == nil {
		return
	}
	vecs, err := t.embedder.Embed(ctx, []string{Normalize(message)})
	if err != nil || len(vecs) != 1 {
		return
	}
	if err := t.vectorStore.Create(ctx, &vector.Index{Name: semanticIndex, Dimension: len(vecs[0])}); err != nil {
		return
	}
	_ = t.vectorStore.Add(ctx, semanticIndex, []*vector.Vector{{
		ID:      uuid.New().String(),
		Values:  vecs[0],
		Content: response,
		Metadata: map[string]string{
			"responder":   responder,
			"fingerprint": fingerprint,
		},
	}})
}

// RetrievalLookup 查 L3 检索缓存；命中只省去检索，角色调用仍需进行
func (t *Tiered) RetrievalLookup(ctx context.Context, responder, query string) (string, bool) {
	if t.retrieval == nil {
		return "", false
	}
	var cached string
	err := t.retrieval.Get(ctx, retrievalKey(responder, query), &cached)
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return "", false
	}
	if err != nil {
		return "", false
	}
	metrics.CacheHitTotal.WithLabelValues(TierRetrieval).Inc()
	return cached, true
}

// RetrievalStore 写入 L3 检索缓存（带 TTL）
func (t *Tiered) RetrievalStore(ctx context.Context, responder, query, contextText string) {
	if t.retrieval == nil {
		return
	}
	_ = t.retrieval.Set(ctx, retrievalKey(responder, query), contextText, t.ttl)
}

func retrievalKey(responder, query string) string {
	return "retrieval:" + responder + ":" + Normalize(query)
}

// L1Stats 返回 L1 命中统计（运维端点用）
func (t *Tiered) L1Stats() Stats {
	return t.l1.Stats()
}

// Invalidate 清空 L1 与 L2（知识库更新后调用）
func (t *Tiered) Invalidate(ctx context.Context) {
	t.l1.Clear()
	if t.vectorStore != nil {
		_ = t.vectorStore.DeleteIndex(ctx, semanticIndex)
	}
}
