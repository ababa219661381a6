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

// Package http 提供 Hertz HTTP 服务端，调用回合协调器与会话存储，不直接调底层组件
package http

import (
	"bytes"
	"context"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"coworker-engine/internal/engine/common"
	"coworker-engine/internal/engine/state"
	"coworker-engine/internal/engine/turn"
	"coworker-engine/internal/persona"
	"coworker-engine/pkg/metrics"
)

// Handler HTTP 处理器
type Handler struct {
	pipeline *turn.Pipeline
	store    state.SessionStore
	registry *persona.Registry
}

// NewHandler 创建 HTTP 处理器
func NewHandler(pipeline *turn.Pipeline, store state.SessionStore, registry *persona.Registry) *Handler {
	return &Handler{pipeline: pipeline, store: store, registry: registry}
}

// chatRequest POST /api/chat 请求体
type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Target    string `json:"target,omitempty"` // 显式指定回应角色，可选
}

// Chat 处理一个对话回合
// POST /api/chat
func (h *Handler) Chat(c context.Context, ctx *app.RequestContext) {
	var req chatRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.pipeline.ProcessTurn(c, req.SessionID, req.Message, req.Target)
	if err != nil {
		switch {
		case common.IsValidationError(err):
			ctx.JSON(consts.StatusBadRequest, map[string]string{"error": err.Error()})
		case common.IsStateConflict(err):
			ctx.JSON(consts.StatusConflict, map[string]string{"error": "another turn is in progress for this session"})
		default:
			hlog.CtxErrorf(c, "处理回合失败 session=%s: %v", req.SessionID, err)
			ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		return
	}
	ctx.JSON(consts.StatusOK, result)
}

// loadExisting 读取已有会话。
// Load 对任意标识都返回全新会话，读端点要把从未落盘的会话视为不存在
func (h *Handler) loadExisting(c context.Context, id string) (*state.Session, error) {
	sess, err := h.store.Load(c, id)
	if err != nil {
		return nil, err
	}
	if sess.TurnCount == 0 && len(sess.Messages) == 0 {
		return nil, common.ErrSessionNotFound
	}
	return sess, nil
}

// GetSession 返回会话快照
// GET /api/sessions/:id
func (h *Handler) GetSession(c context.Context, ctx *app.RequestContext) {
	id := ctx.Param("id")
	sess, err := h.loadExisting(c, id)
	if err != nil {
		if errors.Is(err, common.ErrSessionNotFound) {
			ctx.JSON(consts.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		hlog.CtxErrorf(c, "加载会话失败 session=%s: %v", id, err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	ctx.JSON(consts.StatusOK, sess)
}

// GetProgress 返回任务进展与监控状态
// GET /api/sessions/:id/progress
func (h *Handler) GetProgress(c context.Context, ctx *app.RequestContext) {
	id := ctx.Param("id")
	sess, err := h.loadExisting(c, id)
	if err != nil {
		if errors.Is(err, common.ErrSessionNotFound) {
			ctx.JSON(consts.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		hlog.CtxErrorf(c, "加载会话失败 session=%s: %v", id, err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"session_id":      sess.ID,
		"task_progress":   sess.TaskProgress,
		"checklist":       sess.TaskProgress.Checklist(),
		"all_done":        sess.TaskProgress.AllDone(),
		"turn_count":      sess.TurnCount,
		"stuck_counter":   sess.StuckCounter,
		"sentiment_score": sess.SentimentScore,
	})
}

// DeleteSession 删除会话及其协调器状态
// DELETE /api/sessions/:id
func (h *Handler) DeleteSession(c context.Context, ctx *app.RequestContext) {
	id := ctx.Param("id")
	if err := h.store.Delete(c, id); err != nil {
		hlog.CtxErrorf(c, "删除会话失败 session=%s: %v", id, err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	h.pipeline.Forget(id)
	ctx.JSON(consts.StatusOK, map[string]string{"status": "deleted", "session_id": id})
}

// ListResponders 返回可路由角色列表
// GET /api/responders
func (h *Handler) ListResponders(c context.Context, ctx *app.RequestContext) {
	type responderInfo struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		RoleTitle   string `json:"role_title"`
	}
	var out []responderInfo
	for _, id := range h.registry.RoutableOrder() {
		p := h.registry.Get(id)
		out = append(out, responderInfo{ID: p.ID, DisplayName: p.DisplayName, RoleTitle: p.RoleTitle})
	}
	ctx.JSON(consts.StatusOK, map[string]interface{}{"responders": out})
}

// HealthCheck 健康检查
// GET /api/health
func (h *Handler) HealthCheck(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{"status": "healthy"})
}

// CacheStats 返回响应缓存统计
// GET /api/system/cache
func (h *Handler) CacheStats(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, h.pipeline.CacheStats())
}

// Metrics Prometheus 文本格式指标
// GET /metrics
func (h *Handler) Metrics(c context.Context, ctx *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		hlog.CtxErrorf(c, "导出指标失败: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	ctx.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}
