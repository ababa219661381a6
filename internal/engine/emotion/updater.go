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

// Package emotion 是 EmotionalMemoryRecord 的唯一写入方。
// 每回合对实际发言角色（含提示覆盖后）的记录做一次纯变换，
// 从不读写 TaskProgress
package emotion

import (
	"fmt"

	"coworker-engine/internal/engine/state"
)

// Updater 情绪记录更新器
type Updater struct {
	gain              float64 // 关系分增量系数 k
	negativeThreshold float64 // 负面事件阈值
	positiveThreshold float64 // 强正面事件阈值
	eventCap          int     // 记忆事件上限
}

// New 创建 Updater；非法参数回退默认值（0.3 / 0.3 / 0.8 / 10）
func New(gain, negativeThreshold, positiveThreshold float64, eventCap int) *Updater {
	if gain <= 0 {
		gain = 0.3
	}
	if negativeThreshold <= 0 {
		negativeThreshold = 0.3
	}
	if positiveThreshold <= 0 {
		positiveThreshold = 0.8
	}
	if eventCap <= 0 {
		eventCap = 10
	}
	return &Updater{
		gain:              gain,
		negativeThreshold: negativeThreshold,
		positiveThreshold: positiveThreshold,
		eventCap:          eventCap,
	}
}

// Apply 应用本回合情绪到角色记录。
// 关系分按 sentiment 偏离中性值 0.5 的方向线性调整并钳制到 [0,1]；
// tensionCount 只增不减
func (u *Updater) Apply(rec *state.EmotionalMemory, turnSentiment float64, topic, notableEvent string) {
	score := rec.RelationshipScore + u.gain*(turnSentiment-0.5)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	rec.RelationshipScore = score

	if turnSentiment < u.negativeThreshold {
		rec.TensionCount++
	}

	rec.LastTopic = topic

	if turnSentiment < u.negativeThreshold || turnSentiment > u.positiveThreshold {
		note := notableEvent
		if note == "" {
			if turnSentiment < u.negativeThreshold {
				note = fmt.Sprintf("紧张时刻: %s", topic)
			} else {
				note = fmt.Sprintf("高光时刻: %s", topic)
			}
		}
		rec.MemorableEvents = append(rec.MemorableEvents, note)
		if len(rec.MemorableEvents) > u.eventCap {
			rec.MemorableEvents = rec.MemorableEvents[len(rec.MemorableEvents)-u.eventCap:]
		}
	}
}
