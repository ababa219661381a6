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

// Package metrics 定义回合编排引擎的 Prometheus 指标
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// DefaultRegistry 全局注册表（API /metrics 端点与测试共用）
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		TurnDuration, TurnTotal,
		CacheHitTotal, CacheMissTotal,
		HintTriggerTotal, SafetyBlockTotal,
		InvokeDuration, RateLimitWaitSeconds,
	)
}

// TurnDuration 单回合处理耗时（秒）
var TurnDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "coworker_turn_duration_seconds",
		Help:    "单回合处理耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"responder"},
)

// TurnTotal 回合总数（按结局）
var TurnTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "coworker_turn_total",
		Help: "回合总数（按结局）",
	},
	[]string{"outcome"}, // ok | degraded | blocked | error
)

// CacheHitTotal 响应缓存命中总数（按层）
var CacheHitTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "coworker_cache_hit_total",
		Help: "响应缓存命中总数（按层）",
	},
	[]string{"tier"}, // exact | semantic | retrieval
)

// CacheMissTotal 响应缓存未命中总数
var CacheMissTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "coworker_cache_miss_total",
		Help: "响应缓存未命中总数",
	},
)

// HintTriggerTotal Director 触发 Mentor 提示总数
var HintTriggerTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "coworker_hint_trigger_total",
		Help: "Director 触发提示总数",
	},
)

// SafetyBlockTotal 安全门禁拦截总数（按原因）
var SafetyBlockTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "coworker_safety_block_total",
		Help: "安全门禁拦截总数（按原因）",
	},
	[]string{"reason"},
)

// InvokeDuration 角色调用耗时（秒）
var InvokeDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "coworker_invoke_duration_seconds",
		Help:    "角色调用耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"responder"},
)

// RateLimitWaitSeconds 模型调用限流等待耗时（秒）
var RateLimitWaitSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "coworker_rate_limit_wait_seconds",
		Help:    "模型调用限流等待耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"provider"},
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
