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

package safety

import (
	"sync"

	"golang.org/x/time/rate"
)

// SessionLimiter 会话维度的令牌桶限流器
type SessionLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewSessionLimiter 创建限流器；非法参数回退默认（2 rps / burst 5）
func NewSessionLimiter(rps float64, burst int) *SessionLimiter {
	if rps <= 0 {
		rps = 2
	}
	if burst <= 0 {
		burst = 5
	}
	return &SessionLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// Allow 判定该会话当前是否放行
func (l *SessionLimiter) Allow(sessionID string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[sessionID]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[sessionID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// Forget 移除会话的限流状态（会话删除时调用）
func (l *SessionLimiter) Forget(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, sessionID)
}
