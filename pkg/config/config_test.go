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
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
api:
  port: 8080
  host: "0.0.0.0"
engine:
  default_responder: "CEO"
  stuck_threshold: 3
  sentiment_floor: 0.3
cache:
  l1_max_size: 500
  similarity_threshold: 0.92
  retrieval_ttl: "10m"
session:
  type: "memory"
model:
  llm:
    providers:
      openai:
        api_key: "${TEST_OPENAI_KEY}"
log:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	os.Setenv("TEST_OPENAI_KEY", "sk-test")
	defer os.Unsetenv("TEST_OPENAI_KEY")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("api.port = %d", cfg.API.Port)
	}
	if cfg.Engine.StuckThreshold != 3 || cfg.Engine.SentimentFloor != 0.3 {
		t.Errorf("engine config: %+v", cfg.Engine)
	}
	if cfg.Cache.SimilarityThreshold != 0.92 || cfg.Cache.RetrievalTTL != "10m" {
		t.Errorf("cache config: %+v", cfg.Cache)
	}
	if got := cfg.Model.LLM.Providers["openai"].APIKey; got != "sk-test" {
		t.Errorf("api key env substitution: %q", got)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q", cfg.Log.Level)
	}
}

func TestExpandEnv(t *testing.T) {
	os.Setenv("CW_TEST_VAR", "value1")
	defer os.Unsetenv("CW_TEST_VAR")
	if got := expandEnv("${CW_TEST_VAR}"); got != "value1" {
		t.Errorf("expandEnv set var: %q", got)
	}
	if got := expandEnv("plain"); got != "plain" {
		t.Errorf("expandEnv plain: %q", got)
	}
	if got := expandEnv("${CW_MISSING_VAR}"); got != "${CW_MISSING_VAR}" {
		t.Errorf("expandEnv missing var: %q", got)
	}
}
