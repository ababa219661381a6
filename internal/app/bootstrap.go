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

// Package app 统一初始化：供 api 与 cli 复用，避免在 cmd 内装配业务组件
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	enginecache "coworker-engine/internal/engine/cache"
	"coworker-engine/internal/engine/director"
	"coworker-engine/internal/engine/emotion"
	"coworker-engine/internal/engine/responder"
	"coworker-engine/internal/engine/state"
	"coworker-engine/internal/engine/supervisor"
	"coworker-engine/internal/engine/turn"
	"coworker-engine/internal/knowledge"
	"coworker-engine/internal/model/embedding"
	"coworker-engine/internal/model/llm"
	"coworker-engine/internal/persona"
	"coworker-engine/internal/safety"
	storagecache "coworker-engine/internal/storage/cache"
	"coworker-engine/internal/storage/vector"
	"coworker-engine/pkg/config"
	"coworker-engine/pkg/log"
	"coworker-engine/pkg/secrets"
)

// Bootstrap 装配完成的应用组件
type Bootstrap struct {
	Config       *config.Config
	Logger       *log.Logger
	Secrets      secrets.Store
	Registry     *persona.Registry
	SessionStore state.SessionStore
	VectorStore  vector.Store
	CacheStore   storagecache.Store
	Embedder     embedding.Embedder
	Knowledge    *knowledge.Service
	Pipeline     *turn.Pipeline
}

// NewBootstrap 根据配置装配全部组件（存储、模型、知识库、回合协调器）
func NewBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}

	logger, err := log.NewLogger(&log.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化日志failed: %w", err)
	}

	secretProvider := cfg.Secrets.Provider
	if secretProvider == "" {
		secretProvider = "env"
	}
	secretStore, err := secrets.NewStore(secrets.Config{Provider: secretProvider, Config: cfg.Secrets.Config})
	if err != nil {
		return nil, fmt.Errorf("初始化 Secret 存储failed: %w", err)
	}

	sessionStore, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// type=memory 或空时创建 vector.Store；type=redis 由 eino-ext 组件直连，不创建 Store
	var vecStore vector.Store
	if t := cfg.Storage.Vector.Type; t == "" || t == "memory" {
		vecStore, err = vector.NewStore(cfg.Storage.Vector)
		if err != nil {
			return nil, fmt.Errorf("初始化向量存储failed: %w", err)
		}
	}

	cacheStore, err := storagecache.NewCache(ctx, cfg.Storage.Cache)
	if err != nil {
		return nil, fmt.Errorf("初始化缓存存储failed: %w", err)
	}

	embedder, err := newEmbedder(ctx, cfg, secretStore)
	if err != nil {
		return nil, fmt.Errorf("初始化向量模型failed: %w", err)
	}

	knowledgeService, err := newKnowledge(ctx, cfg, vecStore, embedder, logger)
	if err != nil {
		return nil, err
	}

	client, err := newLLMClient(ctx, cfg, secretStore)
	if err != nil {
		return nil, fmt.Errorf("初始化 LLM 客户端failed: %w", err)
	}
	invoker := responder.NewLLMInvoker(client, logger)

	tiered := enginecache.New(enginecache.Config{
		L1MaxSize:           cfg.Cache.L1MaxSize,
		SimilarityThreshold: cfg.Cache.SimilarityThreshold,
		RetrievalTTL:        parseDuration(cfg.Cache.RetrievalTTL, 10*time.Minute),
		VectorStore:         vecStore,
		Embedder:            embedder,
		RetrievalStore:      cacheStore,
	})

	registry := persona.NewRegistry()
	defaultResponder := cfg.Engine.DefaultResponder
	if defaultResponder == "" {
		defaultResponder = persona.CEO
	}

	pipeline := turn.New(
		sessionStore,
		registry,
		safety.NewGate(cfg.Safety, logger),
		supervisor.New(registry, defaultResponder),
		director.New(cfg.Engine.StuckThreshold, cfg.Engine.SentimentFloor, cfg.Engine.HintTurnLimit),
		emotion.New(cfg.Engine.EmotionGain, cfg.Engine.NegativeThreshold, cfg.Engine.PositiveThreshold, cfg.Engine.MemorableEventCap),
		tiered,
		invoker,
		knowledgeService,
		turn.Config{
			InvokeTimeout: parseDuration(cfg.Engine.InvokeTimeout, 30*time.Second),
			RetryMax:      cfg.Engine.RetryMax,
			RetryBackoff:  parseDuration(cfg.Engine.RetryBackoff, time.Second),
		},
		logger,
	)

	return &Bootstrap{
		Config:       cfg,
		Logger:       logger,
		Secrets:      secretStore,
		Registry:     registry,
		SessionStore: sessionStore,
		VectorStore:  vecStore,
		CacheStore:   cacheStore,
		Embedder:     embedder,
		Knowledge:    knowledgeService,
		Pipeline:     pipeline,
	}, nil
}

// Close 释放存储连接
func (b *Bootstrap) Close() {
	if b.SessionStore != nil {
		b.SessionStore.Close()
	}
	if b.CacheStore != nil {
		_ = b.CacheStore.Close()
	}
	if b.VectorStore != nil {
		_ = b.VectorStore.Close()
	}
}

// newSessionStore 创建会话存储，type=postgres 且有 DSN 时走 PostgreSQL
func newSessionStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (state.SessionStore, error) {
	if cfg.Session.Type == "postgres" && cfg.Session.DSN != "" {
		store, err := state.NewPostgresStore(ctx, cfg.Session.DSN)
		if err != nil {
			return nil, fmt.Errorf("初始化会话存储(postgres)failed: %w", err)
		}
		logger.Info("会话存储使用 PostgreSQL 后端")
		return store, nil
	}
	return state.NewMemoryStore(), nil
}

// newEmbedder 根据默认 Embedding 提供商创建向量模型，未配置时使用离线哈希向量器
func newEmbedder(ctx context.Context, cfg *config.Config, secretStore secrets.Store) (embedding.Embedder, error) {
	provider := cfg.Model.Defaults.Embedding
	if provider == "" {
		provider = "local"
	}
	pc := cfg.Model.Embedding.Providers[provider]
	info := pickModel(pc)
	apiKey := resolveAPIKey(ctx, secretStore, provider, pc.APIKey)
	return embedding.NewEmbedder(provider, info.Name, apiKey, pc.BaseURL, info.Dimension)
}

// newLLMClient 创建默认 LLM 客户端并套上限流
func newLLMClient(ctx context.Context, cfg *config.Config, secretStore secrets.Store) (llm.Client, error) {
	provider := cfg.Model.Defaults.LLM
	if provider == "" {
		provider = "openai"
	}
	pc := cfg.Model.LLM.Providers[provider]
	info := pickModel(pc)
	apiKey := resolveAPIKey(ctx, secretStore, provider, pc.APIKey)

	client, err := llm.NewClient(ctx, provider, info.Name, apiKey, pc.BaseURL)
	if err != nil {
		return nil, err
	}

	rpm := cfg.Model.RateLimitRPM
	if rpm <= 0 {
		rpm = 60
	}
	maxConcurrent := cfg.Model.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return llm.NewRateLimitedClient(client, rpm, maxConcurrent), nil
}

// newKnowledge 创建知识检索服务并导入知识目录。目录未配置时返回 nil 服务（检索跳过）
func newKnowledge(ctx context.Context, cfg *config.Config, vecStore vector.Store, embedder embedding.Embedder, logger *log.Logger) (*knowledge.Service, error) {
	if cfg.Knowledge.Dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(cfg.Knowledge.Dir); os.IsNotExist(err) {
		logger.Warn("知识目录不存在，跳过检索", "dir", cfg.Knowledge.Dir)
		return nil, nil
	}

	adapter := embedding.NewEinoAdapter(embedder)
	indexer, err := knowledge.NewIndexer(ctx, cfg.Storage.Vector, vecStore, adapter, embedder.Dimension())
	if err != nil {
		return nil, fmt.Errorf("初始化知识索引器failed: %w", err)
	}
	count, err := knowledge.IngestDir(ctx, cfg.Knowledge.Dir, indexer, logger)
	if err != nil {
		return nil, fmt.Errorf("导入知识目录failed: %w", err)
	}
	logger.Info("知识库导入完成", "dir", cfg.Knowledge.Dir, "documents", count)

	retriever, err := knowledge.NewRetriever(ctx, cfg.Storage.Vector, cfg.Knowledge, vecStore, adapter)
	if err != nil {
		return nil, fmt.Errorf("初始化知识检索器failed: %w", err)
	}
	return knowledge.NewService(retriever), nil
}

// pickModel 取提供商的 default 模型，缺省时取任意一个
func pickModel(pc config.ProviderConfig) config.ModelInfo {
	if info, ok := pc.Models["default"]; ok {
		return info
	}
	for _, info := range pc.Models {
		return info
	}
	return config.ModelInfo{}
}

// resolveAPIKey 配置中未给出 API Key 时从 Secret 存储读取 model/<provider>/api_key
func resolveAPIKey(ctx context.Context, store secrets.Store, provider, configured string) string {
	if configured != "" {
		return configured
	}
	if store == nil {
		return ""
	}
	key, err := store.Get(ctx, "model/"+provider+"/api_key")
	if err != nil {
		return ""
	}
	return key
}

// parseDuration 解析时长字符串，无效或空时返回 defaultVal
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
