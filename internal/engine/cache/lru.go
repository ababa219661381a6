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
	"container/list"
	"sync"
	"time"
)

// Entry 单条缓存记录
type Entry struct {
	Key       string
	Value     string
	Responder string
	CreatedAt time.Time
}

// LRU 带容量上限的线程安全 LRU，满时淘汰最久未使用项
type LRU struct {
	mu      sync.Mutex
	maxSize int
	items   map[string]*list.Element
	order   *list.List // 头部为最新
	hits    int64
	misses  int64
}

// NewLRU 创建 LRU；maxSize <= 0 时默认 500
func NewLRU(maxSize int) *LRU {
	if maxSize <= 0 {
		maxSize = 500
	}
	return &LRU{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get 命中时将条目提升为最新
func (c *LRU) Get(key string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.order.MoveToFront(el)
	c.hits++
	return el.Value.(*Entry), true
}

// Put 写入条目，容量满时淘汰最旧项
func (c *LRU) Put(key, value, responder string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*Entry).Value = value
		c.order.MoveToFront(el)
		return
	}
	if c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*Entry).Key)
		}
	}
	c.items[key] = c.order.PushFront(&Entry{
		Key:       key,
		Value:     value,
		Responder: responder,
		CreatedAt: time.Now(),
	})
}

// Clear 清空缓存
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// Stats LRU 统计信息
type Stats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"max_size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Stats 返回命中统计
func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		Size:    c.order.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: rate,
	}
}
