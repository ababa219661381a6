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

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pkgerrors "coworker-engine/pkg/errors"
)

// MemoryStore 内存缓存存储实现
type MemoryStore struct {
	items map[string]*cacheItem
	mu    sync.RWMutex
}

// cacheItem 缓存项
type cacheItem struct {
	value      []byte
	expiration int64
}

// NewMemoryStore 创建新的内存缓存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]*cacheItem),
	}
}

// Set 设置缓存
func (s *MemoryStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	var exp int64
	if expiration > 0 {
		exp = time.Now().Add(expiration).UnixNano()
	}

	s.items[key] = &cacheItem{
		value:      data,
		expiration: exp,
	}
	return nil
}

// Get 获取缓存；未命中或已过期返回 errors.ErrNotFound
func (s *MemoryStore) Get(ctx context.Context, key string, dest interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[key]
	if !exists {
		return pkgerrors.Wrapf(pkgerrors.ErrNotFound, "cache key %s", key)
	}
	if item.expiration > 0 && item.expiration < time.Now().UnixNano() {
		return pkgerrors.Wrapf(pkgerrors.ErrNotFound, "cache key %s expired", key)
	}
	if err := json.Unmarshal(item.value, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return nil
}

// Delete 删除缓存（不存在视为成功）
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Exists 检查缓存是否存在
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[key]
	if !exists {
		return false, nil
	}
	if item.expiration > 0 && item.expiration < time.Now().UnixNano() {
		return false, nil
	}
	return true, nil
}

// Clear 清除所有缓存
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*cacheItem)
	return nil
}

// Close 关闭缓存连接（内存实现无资源）
func (s *MemoryStore) Close() error {
	return nil
}
