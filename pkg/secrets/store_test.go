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
	"os"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Set(ctx, "model/openai/api_key", "sk-abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "model/local/api_key", "sk-def"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := s.Get(ctx, "model/openai/api_key")
	if err != nil || v != "sk-abc" {
		t.Errorf("Get: v=%q err=%v", v, err)
	}

	keys, err := s.List(ctx, "model/")
	if err != nil || len(keys) != 2 {
		t.Errorf("List: keys=%v err=%v", keys, err)
	}
	if len(keys) == 2 && keys[0] != "model/local/api_key" {
		t.Errorf("List 应返回排序后的键，得到 %v", keys)
	}

	if err := s.Delete(ctx, "model/openai/api_key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "model/openai/api_key"); err == nil {
		t.Error("Get after Delete should fail")
	}
}

func TestEnvKeyMapping(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"model/openai/api_key", "COWORKER_MODEL_OPENAI_API_KEY"},
		{"model/local/api_key", "COWORKER_MODEL_LOCAL_API_KEY"},
		{"log-level", "COWORKER_LOG_LEVEL"},
		{"ABC123", "COWORKER_ABC123"},
	}
	for _, tt := range tests {
		if got := envKey(tt.key); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestEnvStore(t *testing.T) {
	ctx := context.Background()
	s := NewEnvStore()

	// 路径键经映射查找
	os.Setenv("COWORKER_MODEL_OPENAI_API_KEY", "sk-mapped")
	defer os.Unsetenv("COWORKER_MODEL_OPENAI_API_KEY")

	v, err := s.Get(ctx, "model/openai/api_key")
	if err != nil || v != "sk-mapped" {
		t.Errorf("Get mapped: v=%q err=%v", v, err)
	}

	// 直接用环境变量名做键也能取到
	os.Setenv("CW_SECRET_TEST", "v1")
	defer os.Unsetenv("CW_SECRET_TEST")

	v, err = s.Get(ctx, "CW_SECRET_TEST")
	if err != nil || v != "v1" {
		t.Errorf("Get raw: v=%q err=%v", v, err)
	}
	if _, err := s.Get(ctx, "CW_SECRET_UNSET"); err == nil {
		t.Error("Get unset var should fail")
	}
}

func TestNewStore_Defaults(t *testing.T) {
	s, err := NewStore(Config{Provider: "memory"})
	if err != nil || s == nil {
		t.Fatalf("NewStore memory: %v", err)
	}
	s, err = NewStore(Config{Provider: ""})
	if err != nil || s == nil {
		t.Fatalf("NewStore default: %v", err)
	}
}
