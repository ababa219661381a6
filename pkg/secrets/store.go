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

// Package secrets 提供模型 API Key 等敏感配置的读取抽象

package secrets

import (
	"context"
)

// Store Secret 存储接口
type Store interface {
	// Get 获取 secret 值
	Get(ctx context.Context, key string) (string, error)

	// Set 设置 secret 值
	Set(ctx context.Context, key string, value string) error

	// Delete 删除 secret
	Delete(ctx context.Context, key string) error

	// List 列出所有 secret keys
	List(ctx context.Context, prefix string) ([]string, error)
}

// Config Secret Store 配置
type Config struct {
	Provider string            `yaml:"provider"` // vault | env | memory
	Config   map[string]string `yaml:"config"`   // Provider-specific config
}

// NewStore 创建 Secret Store
func NewStore(config Config) (Store, error) {
	switch config.Provider {
	case "memory":
		return NewMemoryStore(), nil
	case "env":
		return NewEnvStore(), nil
	case "vault":
		return NewVaultStore(VaultConfig{
			Address:    config.Config["address"],
			Token:      config.Config["token"],
			PathPrefix: config.Config["path_prefix"],
		})
	default:
		return NewEnvStore(), nil
	}
}
