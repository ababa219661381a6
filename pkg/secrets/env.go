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

package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// envKeyPrefix 映射后环境变量名的统一前缀
const envKeyPrefix = "COWORKER_"

// envStore 把 secret 路径键映射到进程环境变量。
// 路径键含斜杠不能直接做环境变量名：
// model/openai/api_key → COWORKER_MODEL_OPENAI_API_KEY
type envStore struct{}

// NewEnvStore 创建环境变量 secret 存储
func NewEnvStore() Store {
	return &envStore{}
}

// envKey 路径键 → 环境变量名：非字母数字折叠为下划线并大写，加统一前缀
func envKey(key string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - ('a' - 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, key)
	return envKeyPrefix + mapped
}

func (e *envStore) Get(ctx context.Context, key string) (string, error) {
	if v := os.Getenv(envKey(key)); v != "" {
		return v, nil
	}
	// 兼容直接用环境变量名做键的调用方
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("环境变量未设置: %s", envKey(key))
}

func (e *envStore) Set(ctx context.Context, key string, value string) error {
	return os.Setenv(envKey(key), value)
}

func (e *envStore) Delete(ctx context.Context, key string) error {
	return os.Unsetenv(envKey(key))
}

// List 返回前缀匹配的已映射环境变量名；prefix 按路径键形式给出
func (e *envStore) List(ctx context.Context, prefix string) ([]string, error) {
	want := envKey(prefix)
	var keys []string
	for _, env := range os.Environ() {
		name, _, ok := strings.Cut(env, "=")
		if ok && strings.HasPrefix(name, want) {
			keys = append(keys, name)
		}
	}
	return keys, nil
}
