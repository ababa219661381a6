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

// Package state 定义模拟会话的唯一状态载体。
// 会话在单个回合内由协调器独占；组件在副本上做纯变换，回合结束原子提交。
package state

import (
	"time"

	"github.com/google/uuid"
)

// Session 单个模拟会话的全部状态
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []*Message `json:"messages"` // 追加式，插入序有意义

	SentimentScore  float64 `json:"sentiment_score"`  // 0 沮丧, 1 自信
	TurnCount       int     `json:"turn_count"`       // 单调计数
	StuckCounter    int     `json:"stuck_counter"`    // 连续无进展回合数
	PreviousSpeaker string  `json:"previous_speaker"` // 上一回合实际发言角色，空为无

	TaskProgress Progress                    `json:"task_progress"`
	Emotions     map[string]*EmotionalMemory `json:"emotions"` // 角色标识 → 情绪记录
}

// New 创建新会话（id 为空时生成）
func New(id string) *Session {
	now := time.Now()
	if id == "" {
		id = "session-" + uuid.New().String()
	}
	return &Session{
		ID:             id,
		CreatedAt:      now,
		UpdatedAt:      now,
		Messages:       nil,
		SentimentScore: 0.5,
		TaskProgress:   NewProgress(),
		Emotions:       make(map[string]*EmotionalMemory),
	}
}

// Append 追加一条消息
func (s *Session) Append(m *Message) {
	s.Messages = append(s.Messages, m)
	s.UpdatedAt = time.Now()
}

// Emotion 获取角色情绪记录，不存在时创建中性初始记录
func (s *Session) Emotion(responder string) *EmotionalMemory {
	if s.Emotions == nil {
		s.Emotions = make(map[string]*EmotionalMemory)
	}
	rec, ok := s.Emotions[responder]
	if !ok {
		rec = NewEmotionalMemory()
		s.Emotions[responder] = rec
	}
	return rec
}

// RecentMessages 返回最近 n 条消息（不拷贝内容，调用方只读）
func (s *Session) RecentMessages(n int) []*Message {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// Clone 深拷贝，供回合内变换与存储隔离使用
func (s *Session) Clone() *Session {
	cp := *s
	if s.Messages != nil {
		cp.Messages = make([]*Message, len(s.Messages))
		for i, m := range s.Messages {
			cp.Messages[i] = m.Clone()
		}
	}
	cp.TaskProgress = s.TaskProgress.Clone()
	cp.Emotions = make(map[string]*EmotionalMemory, len(s.Emotions))
	for k, v := range s.Emotions {
		cp.Emotions[k] = v.Clone()
	}
	return &cp
}
