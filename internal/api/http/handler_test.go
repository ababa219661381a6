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

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"

	"coworker-engine/internal/engine/cache"
	"coworker-engine/internal/engine/director"
	"coworker-engine/internal/engine/emotion"
	"coworker-engine/internal/engine/state"
	"coworker-engine/internal/engine/supervisor"
	"coworker-engine/internal/engine/turn"
	"coworker-engine/internal/persona"
	"coworker-engine/internal/safety"
	"coworker-engine/pkg/config"
	"coworker-engine/pkg/log"
)

type echoInvoker struct{}

func (echoInvoker) Invoke(_ context.Context, p *persona.Persona, _ *state.Session, _, _ string) (string, error) {
	return "reply from " + p.ID, nil
}

func buildServerForTest(t *testing.T) (*server.Hertz, state.SessionStore) {
	t.Helper()
	logger, err := log.NewLogger(nil)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	registry := persona.NewRegistry()
	store := state.NewMemoryStore()
	gate := safety.NewGate(config.SafetyConfig{RateLimitRPS: 1000, RateLimitBurst: 1000}, logger)
	pipeline := turn.New(
		store,
		registry,
		gate,
		supervisor.New(registry, persona.CEO),
		director.New(3, 0.3, 8),
		emotion.New(0.3, 0.3, 0.8, 10),
		cache.New(cache.Config{L1MaxSize: 100}),
		echoInvoker{},
		nil,
		turn.Config{InvokeTimeout: time.Second, RetryMax: 0, RetryBackoff: time.Millisecond},
		logger,
	)
	handler := NewHandler(pipeline, store, registry)
	h := server.Default(server.WithHostPorts(":0"))
	NewRouter(handler).register(h)
	return h, store
}

func performJSON(h *server.Hertz, method, path string, body []byte) *ut.ResponseRecorder {
	return ut.PerformRequest(h.Engine, method, path,
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
}

func TestChatEndpoint(t *testing.T) {
	h, _ := buildServerForTest(t)

	body := []byte(`{"session_id":"s1","message":"what about brand autonomy and group dna"}`)
	w := performJSON(h, "POST", "/api/chat", body)
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("POST /api/chat status = %d, body = %s", resp.StatusCode(), resp.Body())
	}

	var result turn.Result
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		t.Fatalf("解析响应: %v", err)
	}
	if result.Responder != persona.CEO {
		t.Fatalf("品牌话题应路由到 CEO，得到 %s", result.Responder)
	}
	if result.TurnCount != 1 {
		t.Fatalf("回合计数应为 1，得到 %d", result.TurnCount)
	}
}

func TestChatEndpointValidation(t *testing.T) {
	h, _ := buildServerForTest(t)

	// 空消息
	w := performJSON(h, "POST", "/api/chat", []byte(`{"session_id":"s1","message":""}`))
	if got := w.Result().StatusCode(); got != 400 {
		t.Fatalf("空消息 status = %d, want 400", got)
	}

	// 未知角色
	w = performJSON(h, "POST", "/api/chat", []byte(`{"session_id":"s1","message":"hi","target":"Intern"}`))
	if got := w.Result().StatusCode(); got != 400 {
		t.Fatalf("未知角色 status = %d, want 400", got)
	}
}

func TestSessionEndpoints(t *testing.T) {
	h, _ := buildServerForTest(t)

	// 未知会话
	w := performJSON(h, "GET", "/api/sessions/missing", nil)
	if got := w.Result().StatusCode(); got != 404 {
		t.Fatalf("未知会话 status = %d, want 404", got)
	}

	// 创建一个回合后可读取
	performJSON(h, "POST", "/api/chat", []byte(`{"session_id":"s1","message":"hello everyone"}`))

	w = performJSON(h, "GET", "/api/sessions/s1", nil)
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("GET session status = %d", got)
	}

	w = performJSON(h, "GET", "/api/sessions/s1/progress", nil)
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("GET progress status = %d", resp.StatusCode())
	}
	if !bytes.Contains(resp.Body(), []byte("task_progress")) {
		t.Fatalf("progress 响应缺少任务进展: %s", resp.Body())
	}

	// 删除后再读 404
	w = performJSON(h, "DELETE", "/api/sessions/s1", nil)
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("DELETE session status = %d", got)
	}
	w = performJSON(h, "GET", "/api/sessions/s1", nil)
	if got := w.Result().StatusCode(); got != 404 {
		t.Fatalf("删除后 GET status = %d, want 404", got)
	}
}

func TestHealthAndSystemEndpoints(t *testing.T) {
	h, _ := buildServerForTest(t)

	w := performJSON(h, "GET", "/api/health", nil)
	resp := w.Result()
	if resp.StatusCode() != 200 || !bytes.Contains(resp.Body(), []byte("healthy")) {
		t.Fatalf("health status = %d body = %s", resp.StatusCode(), resp.Body())
	}

	w = performJSON(h, "GET", "/api/responders", nil)
	resp = w.Result()
	if resp.StatusCode() != 200 || !bytes.Contains(resp.Body(), []byte(persona.CEO)) {
		t.Fatalf("responders status = %d body = %s", resp.StatusCode(), resp.Body())
	}

	w = performJSON(h, "GET", "/api/system/cache", nil)
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("cache stats status = %d", got)
	}

	w = performJSON(h, "GET", "/metrics", nil)
	resp = w.Result()
	if resp.StatusCode() != 200 || !bytes.Contains(resp.Body(), []byte("coworker_")) {
		t.Fatalf("metrics status = %d", resp.StatusCode())
	}
}
