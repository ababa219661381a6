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

// Package supervisor 将用户消息路由到角色。
// 显式指定优先；否则按关键词计分做内容路由，
// 平局先取上一回合发言角色（对话连续性），再按固定优先级
package supervisor

import (
	"coworker-engine/internal/engine/common"
	"coworker-engine/internal/engine/state"
	"coworker-engine/internal/persona"
)

// Supervisor 路由器
type Supervisor struct {
	registry         *persona.Registry
	defaultResponder string
}

// New 创建 Supervisor；defaultResponder 为空或不可路由时回退 CEO
func New(registry *persona.Registry, defaultResponder string) *Supervisor {
	if defaultResponder == "" || !registry.Routable(defaultResponder) {
		defaultResponder = persona.CEO
	}
	return &Supervisor{registry: registry, defaultResponder: defaultResponder}
}

// Select 选择本回合的角色。
// explicitTarget 非空但未知时返回 ValidationError；
// 永不返回导师或拦截角色，它们只由 Director 或安全门禁指派
func (s *Supervisor) Select(sess *state.Session, userMessage, explicitTarget string) (string, error) {
	if explicitTarget != "" {
		if !s.registry.Known(explicitTarget) || !s.registry.Routable(explicitTarget) {
			return "", common.NewValidationError("target", "未知的目标角色: "+explicitTarget)
		}
		return explicitTarget, nil
	}

	bestScore := 0
	var tied []string
	for _, id := range s.registry.RoutableOrder() {
		score := s.registry.Get(id).MatchCount(userMessage)
		switch {
		case score > bestScore:
			bestScore = score
			tied = []string{id}
		case score == bestScore && score > 0:
			tied = append(tied, id)
		}
	}

	if len(tied) == 0 {
		if sess.PreviousSpeaker != "" && s.registry.Routable(sess.PreviousSpeaker) {
			return sess.PreviousSpeaker, nil
		}
		return s.defaultResponder, nil
	}
	for _, id := range tied {
		if id == sess.PreviousSpeaker {
			return id, nil
		}
	}
	// RoutableOrder 已按固定优先级排列，取首个
	return tied[0], nil
}
