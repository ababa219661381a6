package vector

import (
	"context"
)

// Store 向量存储接口。
// 语义响应缓存与知识检索共用：前者以 (responder, fingerprint) 元数据过滤，
// 后者以角色知识域过滤
type Store interface {
	// Create 创建向量索引
	Create(ctx context.Context, index *Index) error
	// Add 添加向量
	Add(ctx context.Context, indexName string, vectors []*Vector) error
	// Search 搜索向量
	Search(ctx context.Context, indexName string, query []float64, options *SearchOptions) ([]*SearchResult, error)
	// Delete 删除向量
	Delete(ctx context.Context, indexName string, id string) error
	// DeleteIndex 删除索引
	DeleteIndex(ctx context.Context, indexName string) error
	// Close 关闭存储连接
	Close() error
}

// Index 向量索引
type Index struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
}

// Vector 向量数据
type Vector struct {
	ID       string            `json:"id"`
	Values   []float64         `json:"values"`
	Content  string            `json:"content"`  // 原始文本（缓存响应体或知识片段）
	Metadata map[string]string `json:"metadata"` // 过滤维度
}

// SearchOptions 搜索选项
type SearchOptions struct {
	TopK      int               `json:"top_k"`
	Filter    map[string]string `json:"filter"`    // 元数据全匹配过滤
	Threshold float64           `json:"threshold"` // 余弦相似度下限
}

// SearchResult 搜索结果
type SearchResult struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}
