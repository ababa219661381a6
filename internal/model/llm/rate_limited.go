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

package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"coworker-engine/pkg/metrics"
)

// RateLimitedClient 包装任意 Client，在真实调用前执行 RPS 与并发控制
type RateLimitedClient struct {
	inner     Client
	limiter   *rate.Limiter
	semaphore chan struct{}
}

// NewRateLimitedClient 创建带限流的 LLM 客户端。
// requestsPerMinute <= 0 时不做 RPS 限制；maxConcurrent <= 0 时不做并发限制
func NewRateLimitedClient(inner Client, requestsPerMinute float64, maxConcurrent int) *RateLimitedClient {
	c := &RateLimitedClient{inner: inner}
	if requestsPerMinute > 0 {
		burst := int(requestsPerMinute / 6)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerMinute/60.0), burst)
	}
	if maxConcurrent > 0 {
		c.semaphore = make(chan struct{}, maxConcurrent)
	}
	return c
}

// Chat 实现 Client.Chat
func (c *RateLimitedClient) Chat(messages []Message, options GenerateOptions) (string, error) {
	return c.ChatWithContext(context.Background(), messages, options)
}

// ChatWithContext 实现 Client.ChatWithContext，调用前执行限流
func (c *RateLimitedClient) ChatWithContext(ctx context.Context, messages []Message, options GenerateOptions) (string, error) {
	start := time.Now()
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	if c.semaphore != nil {
		select {
		case c.semaphore <- struct{}{}:
			defer func() { <-c.semaphore }()
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if waited := time.Since(start); waited > 100*time.Millisecond {
		metrics.RateLimitWaitSeconds.WithLabelValues(c.inner.Provider()).Observe(waited.Seconds())
	}
	return c.inner.ChatWithContext(ctx, messages, options)
}

// Model 返回底层 Client 的模型名称
func (c *RateLimitedClient) Model() string {
	return c.inner.Model()
}

// Provider 返回底层 Client 的提供商名称
func (c *RateLimitedClient) Provider() string {
	return c.inner.Provider()
}
