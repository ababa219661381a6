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

// Package director 监控任务进展与卡壳状态。
// 每回合先更新 TaskProgress（本回合的进展可避免触发提示），
// 再决定是否用导师角色覆盖 Supervisor 的路由结果
package director

import (
	"strings"

	"coworker-engine/internal/engine/state"
	"coworker-engine/internal/persona"
)

// progressSignals 任务键 → 内容信号词。
// 最近消息中出现任一信号词即认为该任务已完成
var progressSignals = map[string][]string{
	state.TaskCEOConsulted:      {"dna", "autonomy", "brand identity", "group dna", "mission", "heritage"},
	state.TaskCHROConsulted:     {"competency", "vision", "entrepreneurship", "passion", "trust", "framework", "360"},
	state.TaskProblemStatement:  {"problem statement", "key tension", "challenge is", "the problem"},
	state.TaskCompetencyModel:   {"junior level", "mid level", "senior level", "behavior indicator"},
	state.Task360Program:        {"rater", "anonymity", "coaching", "survey", "feedback"},
	state.TaskRegionalConsulted: {"europe", "regional", "rollout", "france", "italy", "train-the-trainer"},
	state.TaskRolloutPlan:       {"phase 1", "phase 2", "pilot", "cascade", "timeline"},
	state.TaskKPITable:          {"kpi", "metric", "dashboard", "promotion rate", "mobility rate"},
}

// consultationFlags 角色标识 → 被选中发言当回合即翻转的咨询任务键
var consultationFlags = map[string]string{
	persona.CEO:             state.TaskCEOConsulted,
	persona.CHRO:            state.TaskCHROConsulted,
	persona.RegionalManager: state.TaskRegionalConsulted,
}

// progressScanWindow 内容信号扫描的最近消息条数
const progressScanWindow = 5

// Director 进展与卡壳监控器
type Director struct {
	stuckThreshold int
	sentimentFloor float64
	hintTurnLimit  int
}

// New 创建 Director；非法参数回退默认值（3 / 0.3 / 8）
func New(stuckThreshold int, sentimentFloor float64, hintTurnLimit int) *Director {
	if stuckThreshold <= 0 {
		stuckThreshold = 3
	}
	if sentimentFloor <= 0 {
		sentimentFloor = 0.3
	}
	if hintTurnLimit <= 0 {
		hintTurnLimit = 8
	}
	return &Director{
		stuckThreshold: stuckThreshold,
		sentimentFloor: sentimentFloor,
		hintTurnLimit:  hintTurnLimit,
	}
}

// Decision Director 的回合判定结果
type Decision struct {
	ProgressMade bool // 本回合是否有任务翻转
	TriggerHint  bool // 是否用导师角色覆盖路由
}

// Check 更新进展与情绪并判定是否触发提示。
// selected 是 Supervisor 本回合选出的角色，其咨询任务当回合即翻转并计入进展。
// explicitChoice 表示调用方显式指定了角色，此时满足条件也不做导师覆盖。
// 只修改传入的会话副本，无其他副作用。
// 顺序约束：先更新进展（含咨询标记与内容信号），再更新卡壳计数，最后判定提示
func (d *Director) Check(sess *state.Session, userMessage, selected string, explicitChoice bool) Decision {
	progressMade := d.updateProgress(sess, userMessage, selected)

	sess.SentimentScore = DetectSentiment(sess.SentimentScore, userMessage)

	if progressMade {
		sess.StuckCounter = 0
	} else {
		sess.StuckCounter++
	}

	hint := !explicitChoice && d.shouldTriggerHint(sess)
	if hint {
		// 触发即清零，计数重新累积，导师不会隔一回合就再次介入
		sess.StuckCounter = 0
	}

	return Decision{
		ProgressMade: progressMade,
		TriggerHint:  hint,
	}
}

// updateProgress 两条翻转路径：本回合选中角色的咨询标记与内容信号词
func (d *Director) updateProgress(sess *state.Session, userMessage, selected string) bool {
	made := false

	if key, ok := consultationFlags[selected]; ok {
		if sess.TaskProgress.MarkDone(key) {
			made = true
		}
	}

	var parts []string
	for _, m := range sess.RecentMessages(progressScanWindow) {
		parts = append(parts, strings.ToLower(m.Content))
	}
	parts = append(parts, strings.ToLower(userMessage))
	recentText := strings.Join(parts, " ")

	for key, keywords := range progressSignals {
		if sess.TaskProgress.Done(key) {
			continue
		}
		for _, kw := range keywords {
			if strings.Contains(recentText, kw) {
				if sess.TaskProgress.MarkDone(key) {
					made = true
				}
				break
			}
		}
	}
	return made
}

// shouldTriggerHint 提示触发条件。
// 全部任务完成后不再提示；上一回合已是导师则冷却一回合
func (d *Director) shouldTriggerHint(sess *state.Session) bool {
	if sess.TaskProgress.AllDone() {
		return false
	}
	if sess.PreviousSpeaker == persona.HintResponder {
		return false
	}
	stuck := sess.StuckCounter >= d.stuckThreshold
	frustrated := sess.SentimentScore < d.sentimentFloor
	dragging := sess.TurnCount > d.hintTurnLimit
	return stuck || frustrated || dragging
}
