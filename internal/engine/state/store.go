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

package state

import (
	"context"
	"sync"

	"coworker-engine/internal/engine/common"
)

// SessionStore 会话存储抽象。
// Load 不存在时创建带默认值的新会话；Commit 原子替换，失败回合的半成品绝不落盘。
// 仅当外部保留策略已清除会话时 Load 返回 common.ErrSessionNotFound，
// 调用方应视为"从新开始"而非致命错误。
type SessionStore interface {
	Load(ctx context.Context, id string) (*Session, error)
	Commit(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	Close()
}

// MemoryStore 内存实现（map + mutex），双向深拷贝保证提交原子性
type MemoryStore struct {
	mu   sync.RWMutex
	sess map[string]*Session
}

// NewMemoryStore 创建内存会话存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sess: make(map[string]*Session)}
}

// Load 实现 SessionStore。缺失时返回新会话，不视为错误
func (m *MemoryStore) Load(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sess[id]
	if !ok {
		return New(id), nil
	}
	return s.Clone(), nil
}

// Commit 实现 SessionStore
func (m *MemoryStore) Commit(ctx context.Context, s *Session) error {
	if s == nil {
		return common.NewValidationError("session", "nil session")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess[s.ID] = s.Clone()
	return nil
}

// Delete 实现 SessionStore
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sess, id)
	return nil
}

// Close 实现 SessionStore（内存实现无资源）
func (m *MemoryStore) Close() {}
