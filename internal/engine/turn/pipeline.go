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

// Package turn 是回合编排协调器：
// 安全门禁 → 路由 → 进展监控（可覆盖路由）→ 缓存 → 调用 → 情绪更新 → 原子提交。
// 会话在回合内由协调器独占，组件在副本上做纯变换，失败回合不落盘
package turn

import (
	"context"
	"fmt"
	"time"

	"coworker-engine/internal/engine/cache"
	"coworker-engine/internal/engine/common"
	"coworker-engine/internal/engine/director"
	"coworker-engine/internal/engine/emotion"
	"coworker-engine/internal/engine/responder"
	"coworker-engine/internal/engine/state"
	"coworker-engine/internal/engine/supervisor"
	"coworker-engine/internal/knowledge"
	"coworker-engine/internal/persona"
	"coworker-engine/internal/safety"
	"coworker-engine/pkg/log"
	"coworker-engine/pkg/metrics"
	"coworker-engine/pkg/tracing"
)

// DegradedResponse 重试耗尽后的兜底回复；会话状态不提交，回合可安全重试
const DegradedResponse = "I need a moment to collect my thoughts — could you repeat that in a second? " +
	"(The simulation hit a temporary issue; your progress is unchanged.)"

// 回合结局
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeBlocked  = "blocked"
	OutcomeError    = "error"
)

// Result 单回合处理结果
type Result struct {
	SessionID      string         `json:"session_id"`
	Response       string         `json:"response"`
	Responder      string         `json:"responder"`
	TaskProgress   state.Progress `json:"task_progress"`
	SentimentScore float64        `json:"sentiment_score"`
	TurnCount      int            `json:"turn_count"`
	Outcome        string         `json:"outcome"`
	CacheTier      string         `json:"cache_tier,omitempty"` // 命中层级，未命中为空
	HintTriggered  bool           `json:"hint_triggered"`
	BlockReason    string         `json:"block_reason,omitempty"`
}

// Config 协调器可调参数
type Config struct {
	InvokeTimeout time.Duration // <=0 默认 30s
	RetryMax      int           // 瞬时错误最大重试次数（不含首次），<0 默认 2
	RetryBackoff  time.Duration // <=0 默认 1s
}

// Pipeline 回合协调器
type Pipeline struct {
	store      state.SessionStore
	registry   *persona.Registry
	gate       *safety.Gate
	supervisor *supervisor.Supervisor
	director   *director.Director
	emotions   *emotion.Updater
	cache      *cache.Tiered
	invoker    responder.Invoker
	knowledge  *knowledge.Service

	locks *sessionLocks

	invokeTimeout time.Duration
	retryMax      int
	retryBackoff  time.Duration

	logger *log.Logger
}

// New 创建回合协调器。knowledge 可为 nil（无知识库时跳过检索）
func New(
	store state.SessionStore,
	registry *persona.Registry,
	gate *safety.Gate,
	sup *supervisor.Supervisor,
	dir *director.Director,
	emo *emotion.Updater,
	tiered *cache.Tiered,
	invoker responder.Invoker,
	kn *knowledge.Service,
	cfg Config,
	logger *log.Logger,
) *Pipeline {
	if cfg.InvokeTimeout <= 0 {
		cfg.InvokeTimeout = 30 * time.Second
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 2
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	return &Pipeline{
		store:         store,
		registry:      registry,
		gate:          gate,
		supervisor:    sup,
		director:      dir,
		emotions:      emo,
		cache:         tiered,
		invoker:       invoker,
		knowledge:     kn,
		locks:         newSessionLocks(),
		invokeTimeout: cfg.InvokeTimeout,
		retryMax:      cfg.RetryMax,
		retryBackoff:  cfg.RetryBackoff,
		logger:        logger.WithComponent("turn"),
	}
}

// ProcessTurn 处理一个回合。
// 同一会话的并发回合返回状态冲突错误，绝不交错执行
func (p *Pipeline) ProcessTurn(ctx context.Context, sessionID, userMessage, explicitTarget string) (*Result, error) {
	if sessionID == "" {
		return nil, common.NewValidationError("session_id", "会话标识不能为空")
	}
	if userMessage == "" {
		return nil, common.NewValidationError("message", "消息不能为空")
	}

	if !p.locks.tryAcquire(sessionID) {
		return nil, common.ErrStateConflict
	}
	defer p.locks.release(sessionID)

	ctx, span := tracing.StartTurnSpan(ctx, sessionID)
	defer span.End()

	start := time.Now()
	result, err := p.processLocked(ctx, sessionID, userMessage, explicitTarget)
	if err != nil {
		metrics.TurnTotal.WithLabelValues(OutcomeError).Inc()
		return nil, err
	}
	metrics.TurnTotal.WithLabelValues(result.Outcome).Inc()
	metrics.TurnDuration.WithLabelValues(result.Responder).Observe(time.Since(start).Seconds())
	return result, nil
}

func (p *Pipeline) processLocked(ctx context.Context, sessionID, userMessage, explicitTarget string) (*Result, error) {
	sess, err := p.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("加载会话failed: %w", err)
	}

	// 安全门禁先于一切：拦截即短路，不跑路由、监控与缓存
	if verdict := p.gate.Classify(sessionID, userMessage); !verdict.Allow {
		return p.finishBlocked(ctx, sess, userMessage, verdict.Reason)
	}

	sess.TurnCount++

	selected, err := p.supervisor.Select(sess, userMessage, explicitTarget)
	if err != nil {
		return nil, err
	}

	// 进展更新先于提示判定，本回合的进展（含选中角色的咨询标记）可避免触发提示；
	// 显式指定角色时满足条件也不覆盖路由
	decision := p.director.Check(sess, userMessage, selected, explicitTarget != "")
	hinted := decision.TriggerHint
	if hinted {
		p.logger.Info("触发导师提示",
			"session_id", sessionID,
			"sentiment", sess.SentimentScore,
			"overridden", selected)
		metrics.HintTriggerTotal.Inc()
		selected = persona.HintResponder
	}

	pers := p.registry.Get(selected)
	if pers == nil {
		return nil, fmt.Errorf("角色未注册: %s", selected)
	}

	fingerprint := cache.Fingerprint(sess.TaskProgress, sess.Emotion(selected).RelationshipScore, sess.SentimentScore)

	responseText, tier, hit := p.cache.Lookup(ctx, selected, userMessage, fingerprint)
	if !hit {
		responseText, err = p.retrieveAndInvoke(ctx, pers, sess, userMessage)
		if err != nil {
			if common.IsTransient(err) {
				// 重试耗尽：兜底回复，不提交任何状态，回合可安全重试
				p.logger.Warn("调用重试耗尽，返回兜底回复", "session_id", sessionID, "responder", selected, "error", err)
				return &Result{
					SessionID:      sessionID,
					Response:       DegradedResponse,
					Responder:      selected,
					TaskProgress:   sess.TaskProgress,
					SentimentScore: sess.SentimentScore,
					TurnCount:      sess.TurnCount,
					Outcome:        OutcomeDegraded,
					HintTriggered:  hinted,
				}, nil
			}
			return nil, err
		}
	}

	// 情绪更新在实际输出确定之后、提交之前
	sess.Append(state.NewUserMessage(userMessage))
	sess.Append(state.NewResponderMessage(selected, responseText))
	p.emotions.Apply(sess.Emotion(selected), sess.SentimentScore, userMessage, "")
	sess.PreviousSpeaker = selected

	if !hit {
		p.cache.Store(ctx, selected, userMessage, fingerprint, responseText)
	}

	if err := p.store.Commit(ctx, sess); err != nil {
		return nil, fmt.Errorf("提交会话failed: %w", err)
	}

	return &Result{
		SessionID:      sessionID,
		Response:       responseText,
		Responder:      selected,
		TaskProgress:   sess.TaskProgress,
		SentimentScore: sess.SentimentScore,
		TurnCount:      sess.TurnCount,
		Outcome:        OutcomeOK,
		CacheTier:      tier,
		HintTriggered:  hinted,
	}, nil
}

// finishBlocked 拦截回合：记录消息与固定回应后提交，这是正常终局而非错误
func (p *Pipeline) finishBlocked(ctx context.Context, sess *state.Session, userMessage, reason string) (*Result, error) {
	sess.TurnCount++
	sess.Append(state.NewUserMessage(userMessage))
	sess.Append(state.NewSystemMessage(persona.BlockedResponse))

	if err := p.store.Commit(ctx, sess); err != nil {
		return nil, fmt.Errorf("提交会话failed: %w", err)
	}
	return &Result{
		SessionID:      sess.ID,
		Response:       persona.BlockedResponse,
		Responder:      persona.BlockResponder,
		TaskProgress:   sess.TaskProgress,
		SentimentScore: sess.SentimentScore,
		TurnCount:      sess.TurnCount,
		Outcome:        OutcomeBlocked,
		BlockReason:    reason,
	}, nil
}

// retrieveAndInvoke 检索知识上下文（带 L3 缓存）并调用角色，瞬时错误有界重试
func (p *Pipeline) retrieveAndInvoke(ctx context.Context, pers *persona.Persona, sess *state.Session, userMessage string) (string, error) {
	contextText := p.retrieveContext(ctx, pers, userMessage)

	var lastErr error
	for attempt := 0; attempt <= p.retryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(p.retryBackoff):
			case <-ctx.Done():
				return "", common.Fatal(ctx.Err())
			}
		}

		invokeCtx, cancel := context.WithTimeout(ctx, p.invokeTimeout)
		invokeCtx, span := tracing.StartInvokeSpan(invokeCtx, pers.ID)
		start := time.Now()
		text, err := p.invoker.Invoke(invokeCtx, pers, sess, userMessage, contextText)
		metrics.InvokeDuration.WithLabelValues(pers.ID).Observe(time.Since(start).Seconds())
		span.End()
		cancel()

		if err == nil {
			return text, nil
		}
		if !common.IsTransient(err) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

// retrieveContext 查 L3 检索缓存，未命中走知识检索并回填。
// 检索失败降级为空上下文，不阻断回合
func (p *Pipeline) retrieveContext(ctx context.Context, pers *persona.Persona, userMessage string) string {
	if p.knowledge == nil {
		return ""
	}
	if cached, ok := p.cache.RetrievalLookup(ctx, pers.ID, userMessage); ok {
		return cached
	}

	ctx, span := tracing.StartRetrieveSpan(ctx, pers.ID)
	defer span.End()

	snippets, err := p.knowledge.Retrieve(ctx, userMessage, pers.KnowledgeScope)
	if err != nil {
		p.logger.Warn("知识检索失败，使用空上下文", "responder", pers.ID, "error", err)
		return ""
	}
	contextText := knowledge.RenderContext(snippets)
	if contextText != "" {
		p.cache.RetrievalStore(ctx, pers.ID, userMessage, contextText)
	}
	return contextText
}

// Forget 清理会话相关的协调器状态（会话删除时调用）
func (p *Pipeline) Forget(sessionID string) {
	p.locks.forget(sessionID)
}

// CacheStats 返回 L1 缓存统计（运维端点用）
func (p *Pipeline) CacheStats() cache.Stats {
	return p.cache.L1Stats()
}
