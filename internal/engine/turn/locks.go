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

package turn

import "sync"

// sessionLocks 会话互斥令牌注册表。
// 同一会话的回合必须串行：任务进度单调性与情绪增量不可交换，
// 并发回合直接拒绝而非排队，由调用方带状态冲突错误重试
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sync.Mutex)}
}

// tryAcquire 非阻塞抢占会话令牌，成功返回真
func (s *sessionLocks) tryAcquire(id string) bool {
	s.mu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	s.mu.Unlock()
	return lock.TryLock()
}

// release 释放会话令牌
func (s *sessionLocks) release(id string) {
	s.mu.Lock()
	lock, ok := s.locks[id]
	s.mu.Unlock()
	if ok {
		lock.Unlock()
	}
}

// forget 会话删除后清理令牌
func (s *sessionLocks) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, id)
}
