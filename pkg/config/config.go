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

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Cache      CacheTuning      `mapstructure:"cache"`
	Safety     SafetyConfig     `mapstructure:"safety"`
	Session    SessionConfig    `mapstructure:"session"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Model      ModelConfig      `mapstructure:"model"`
	Knowledge  KnowledgeConfig  `mapstructure:"knowledge"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// APIConfig API 服务配置
type APIConfig struct {
	Port    int        `mapstructure:"port"`
	Host    string     `mapstructure:"host"`
	Timeout string     `mapstructure:"timeout"`
	CORS    CORSConfig `mapstructure:"cors"`
	Grpc    GrpcConfig `mapstructure:"grpc"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	Enable       bool     `mapstructure:"enable"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// GrpcConfig gRPC 健康服务配置
type GrpcConfig struct {
	Enable bool `mapstructure:"enable"`
	Port   int  `mapstructure:"port"`
}

// EngineConfig 回合编排引擎配置。阈值常量为可调项，默认值见各组件构造函数
type EngineConfig struct {
	DefaultResponder  string  `mapstructure:"default_responder"`   // 无法分类时的默认角色，空则 CEO
	StuckThreshold    int     `mapstructure:"stuck_threshold"`     // 连续无进展回合数，达到后触发提示，<=0 默认 3
	SentimentFloor    float64 `mapstructure:"sentiment_floor"`     // 情绪下限，低于则触发提示，<=0 默认 0.3
	HintTurnLimit     int     `mapstructure:"hint_turn_limit"`     // 超过此回合数且任务未完成时触发提示，<=0 默认 8
	EmotionGain       float64 `mapstructure:"emotion_gain"`        // 关系分增量系数 k，<=0 默认 0.3
	NegativeThreshold float64 `mapstructure:"negative_threshold"`  // 负面事件阈值，<=0 默认 0.3
	PositiveThreshold float64 `mapstructure:"positive_threshold"`  // 强正面事件阈值，<=0 默认 0.8
	MemorableEventCap int     `mapstructure:"memorable_event_cap"` // 记忆事件上限，<=0 默认 10
	InvokeTimeout     string  `mapstructure:"invoke_timeout"`      // 单次角色调用超时，如 "30s"
	RetryMax          int     `mapstructure:"retry_max"`           // 瞬时错误最大重试次数（不含首次），<0 默认 2
	RetryBackoff      string  `mapstructure:"retry_backoff"`       // 重试前等待时间，如 "1s"
}

// CacheTuning 分层响应缓存配置
type CacheTuning struct {
	L1MaxSize           int     `mapstructure:"l1_max_size"`          // 精确匹配缓存容量，<=0 默认 500
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"` // L2 语义命中余弦阈值，<=0 默认 0.92
	RetrievalTTL        string  `mapstructure:"retrieval_ttl"`        // L3 检索缓存 TTL，如 "10m"
}

// SafetyConfig 安全门禁配置
type SafetyConfig struct {
	MaxMessageLength int      `mapstructure:"max_message_length"` // 消息长度上限，<=0 默认 2000
	RateLimitRPS     float64  `mapstructure:"rate_limit_rps"`     // 每会话每秒请求数，<=0 默认 2
	RateLimitBurst   int      `mapstructure:"rate_limit_burst"`   // 突发容量，<=0 默认 5
	BlockedTopics    []string `mapstructure:"blocked_topics"`     // 额外封禁主题关键词
}

// SessionConfig 会话存储配置
type SessionConfig struct {
	Type string `mapstructure:"type"` // memory | postgres
	DSN  string `mapstructure:"dsn"`  // Postgres 连接串，type=postgres 时必填
}

// StorageConfig 存储配置
type StorageConfig struct {
	Vector VectorConfig `mapstructure:"vector"`
	Cache  CacheConfig  `mapstructure:"cache"`
}

// VectorConfig 向量存储配置（memory 为内置内存；redis 使用 eino-ext 组件）
type VectorConfig struct {
	Type       string `mapstructure:"type"`
	Addr       string `mapstructure:"addr"`
	DB         string `mapstructure:"db"`         // memory 忽略；Redis 为 DB 编号，如 "0"
	Collection string `mapstructure:"collection"` // 默认索引/集合名
	Password   string `mapstructure:"password"`   // Redis 密码，可选
}

// CacheConfig 通用 KV 缓存配置（L3 检索缓存后端）
type CacheConfig struct {
	Type     string `mapstructure:"type"` // memory | redis
	Addr     string `mapstructure:"addr"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

// ModelConfig 模型配置
type ModelConfig struct {
	LLM           LLMConfig       `mapstructure:"llm"`
	Embedding     EmbeddingConfig `mapstructure:"embedding"`
	Defaults      DefaultsConfig  `mapstructure:"defaults"`
	RateLimitRPM  float64         `mapstructure:"rate_limit_rpm"`  // 模型调用每分钟请求数，<=0 默认 60
	MaxConcurrent int             `mapstructure:"max_concurrent"`  // 模型并发调用上限，<=0 默认 4
}

// LLMConfig LLM 模型配置
type LLMConfig struct {
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// EmbeddingConfig Embedding 模型配置
type EmbeddingConfig struct {
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig 模型提供商配置
type ProviderConfig struct {
	APIKey  string               `mapstructure:"api_key"`
	BaseURL string               `mapstructure:"base_url"`
	Models  map[string]ModelInfo `mapstructure:"models"`
}

// ModelInfo 模型信息
type ModelInfo struct {
	Name        string  `mapstructure:"name"`
	Temperature float64 `mapstructure:"temperature"`
	Dimension   int     `mapstructure:"dimension"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// DefaultsConfig 默认模型配置
type DefaultsConfig struct {
	LLM       string `mapstructure:"llm"`
	Embedding string `mapstructure:"embedding"`
}

// KnowledgeConfig 知识库配置
type KnowledgeConfig struct {
	Dir        string `mapstructure:"dir"`         // 角色知识文档目录
	TopK       int    `mapstructure:"top_k"`       // 每次检索返回片段数，<=0 默认 3
	Threshold  float64 `mapstructure:"threshold"`  // 检索相似度阈值，<=0 默认 0.3
}

// SecretsConfig Secret 存储配置
type SecretsConfig struct {
	Provider string            `mapstructure:"provider"` // memory | env | vault
	Config   map[string]string `mapstructure:"config"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// PrometheusConfig Prometheus 配置
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
}

// TracingConfig 链路追踪配置（OpenTelemetry）
type TracingConfig struct {
	Enable         bool   `mapstructure:"enable"`
	ServiceName    string `mapstructure:"service_name"`
	ExportEndpoint string `mapstructure:"export_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	replaceEnvVars(&config)
	return &config, nil
}

// replaceEnvVars 替换配置中 ${VAR} 形式的环境变量（模型 API Key 等）
func replaceEnvVars(config *Config) {
	for provider, pc := range config.Model.LLM.Providers {
		pc.APIKey = expandEnv(pc.APIKey)
		config.Model.LLM.Providers[provider] = pc
	}
	for provider, pc := range config.Model.Embedding.Providers {
		pc.APIKey = expandEnv(pc.APIKey)
		config.Model.Embedding.Providers[provider] = pc
	}
	config.Session.DSN = expandEnv(config.Session.DSN)
	config.Storage.Cache.Password = expandEnv(config.Storage.Cache.Password)
	config.Storage.Vector.Password = expandEnv(config.Storage.Vector.Password)
}

// expandEnv 将 ${VAR} 替换为环境变量值，非该形式原样返回
func expandEnv(v string) string {
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		if val := os.Getenv(strings.TrimSuffix(strings.TrimPrefix(v, "${"), "}")); val != "" {
			return val
		}
	}
	return v
}
