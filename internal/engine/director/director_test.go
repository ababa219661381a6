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

package director

import (
	"testing"

	"coworker-engine/internal/engine/state"
	"coworker-engine/internal/persona"
)

func TestDetectSentiment(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		msg     string
		want    float64
	}{
		{"负面信号下调", 0.5, "I'm confused and stuck", 0.35},
		{"正面信号上调", 0.5, "great, makes sense", 0.6},
		{"无信号不变", 0.5, "tell me about the framework structure", 0.5},
		{"下界钳制", 0.1, "i don't know, i'm lost, no idea", 0},
		{"上界钳制", 0.95, "great, thanks", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectSentiment(tt.current, tt.msg)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("DetectSentiment = %v，期望 %v", got, tt.want)
			}
		})
	}
}

func TestCheckContentProgress(t *testing.T) {
	d := New(0, 0, 0)
	sess := state.New("s1")
	sess.Append(state.NewResponderMessage(persona.CHRO, "我们需要一个 competency framework"))

	dec := d.Check(sess, "let's draft the problem statement", "", false)
	if !dec.ProgressMade {
		t.Fatal("内容信号应翻转任务")
	}
	if !sess.TaskProgress.Done(state.TaskProblemStatement) {
		t.Fatal("problem_statement_written 应为真")
	}
	if !sess.TaskProgress.Done(state.TaskCHROConsulted) {
		t.Fatal("competency 信号应翻转 chro_consulted")
	}
	if sess.StuckCounter != 0 {
		t.Fatalf("有进展时卡壳计数应清零，得到 %d", sess.StuckCounter)
	}
}

// 咨询标记在角色被选中的当回合翻转，不等下一回合
func TestCheckConsultationFlagSameTurn(t *testing.T) {
	d := New(0, 0, 0)
	sess := state.New("s1")

	// 消息只含路由关键词，不触发任何内容信号
	dec := d.Check(sess, "let's talk strategy and budget", persona.CEO, false)
	if !dec.ProgressMade {
		t.Fatal("CEO 被选中发言的回合应翻转 ceo_consulted")
	}
	if !sess.TaskProgress.Done(state.TaskCEOConsulted) {
		t.Fatal("ceo_consulted 应为真")
	}
	if sess.StuckCounter != 0 {
		t.Fatalf("翻转计入进展，卡壳计数应为 0，得到 %d", sess.StuckCounter)
	}
}

func TestCheckStuckIncrement(t *testing.T) {
	d := New(3, 0.3, 8)
	sess := state.New("s1")

	for i := 0; i < 2; i++ {
		dec := d.Check(sess, "ok", "", false)
		if dec.TriggerHint {
			t.Fatalf("第 %d 回合不应触发提示", i+1)
		}
	}
	if sess.StuckCounter != 2 {
		t.Fatalf("卡壳计数 = %d", sess.StuckCounter)
	}

	dec := d.Check(sess, "ok", "", false)
	if !dec.TriggerHint {
		t.Fatal("连续三回合无进展应触发提示")
	}
	if sess.StuckCounter != 0 {
		t.Fatalf("触发提示后卡壳计数应清零，得到 %d", sess.StuckCounter)
	}
}

// 触发后计数清零重新累积：无进展时导师按阈值周期介入，而不是隔一回合就来
func TestCheckHintResetsStuckCounter(t *testing.T) {
	d := New(3, 0.3, 8)
	sess := state.New("s1")

	for i := 0; i < 3; i++ {
		d.Check(sess, "ok", "", false)
	}
	if sess.StuckCounter != 0 {
		t.Fatalf("前置：提示后计数应为 0，得到 %d", sess.StuckCounter)
	}
	sess.PreviousSpeaker = persona.HintResponder

	// 冷却回合：计数回到 1
	if dec := d.Check(sess, "ok", "", false); dec.TriggerHint {
		t.Fatal("导师发言后的下一回合应冷却")
	}
	sess.PreviousSpeaker = persona.CEO

	// 计数 2：仍未到阈值，不应因旧计数残留而触发
	if dec := d.Check(sess, "ok", "", false); dec.TriggerHint {
		t.Fatal("计数未到阈值不应触发提示")
	}

	// 计数 3：再次到达阈值才触发
	if dec := d.Check(sess, "ok", "", false); !dec.TriggerHint {
		t.Fatal("计数重新到达阈值应触发提示")
	}
}

// 显式指定角色时不做导师覆盖，卡壳计数也不因提示清零
func TestCheckExplicitChoiceSkipsHint(t *testing.T) {
	d := New(3, 0.3, 8)
	sess := state.New("s1")
	sess.TaskProgress.MarkDone(state.TaskCHROConsulted)
	sess.StuckCounter = 5

	dec := d.Check(sess, "ok", persona.CHRO, true)
	if dec.TriggerHint {
		t.Fatal("显式指定角色时不应触发提示")
	}
	if sess.StuckCounter != 6 {
		t.Fatalf("未触发提示时计数应继续累积，得到 %d", sess.StuckCounter)
	}

	// 同样状态的自动路由回合会触发
	auto := state.New("s2")
	auto.TaskProgress.MarkDone(state.TaskCHROConsulted)
	auto.StuckCounter = 5
	if dec := d.Check(auto, "ok", persona.CHRO, false); !dec.TriggerHint {
		t.Fatal("自动路由下同样状态应触发提示")
	}
}

func TestCheckFrustrationTrigger(t *testing.T) {
	d := New(3, 0.3, 8)
	sess := state.New("s1")
	sess.SentimentScore = 0.35

	dec := d.Check(sess, "i'm lost, no idea what to do", "", false)
	if !dec.TriggerHint {
		t.Fatalf("情绪跌破下限应触发提示，sentiment=%v", sess.SentimentScore)
	}
}

func TestCheckTurnLimitTrigger(t *testing.T) {
	d := New(3, 0.3, 8)
	sess := state.New("s1")
	sess.TurnCount = 9

	dec := d.Check(sess, "tell me more about the group", "", false)
	if !dec.TriggerHint {
		t.Fatal("超过回合上限且任务未完成应触发提示")
	}
}

func TestCheckHintCooldown(t *testing.T) {
	d := New(3, 0.3, 8)
	sess := state.New("s1")
	sess.StuckCounter = 5
	sess.PreviousSpeaker = persona.HintResponder

	dec := d.Check(sess, "ok", "", false)
	if dec.TriggerHint {
		t.Fatal("上一回合已是导师时应冷却")
	}
}

func TestCheckAllDoneNeverHints(t *testing.T) {
	d := New(3, 0.3, 8)
	sess := state.New("s1")
	for _, k := range state.TaskKeys {
		sess.TaskProgress.MarkDone(k)
	}
	sess.StuckCounter = 10
	sess.TurnCount = 20
	sess.SentimentScore = 0.1

	dec := d.Check(sess, "??", "", false)
	if dec.TriggerHint {
		t.Fatal("全部任务完成后不应再提示")
	}
}

// 进展单调性：多次 Check 不会让任何标记回退
func TestCheckProgressMonotonic(t *testing.T) {
	d := New(0, 0, 0)
	sess := state.New("s1")
	_ = d.Check(sess, "the problem statement is ready", "", false)
	if !sess.TaskProgress.Done(state.TaskProblemStatement) {
		t.Fatal("前置：标记应为真")
	}
	_ = d.Check(sess, "something unrelated", "", false)
	if !sess.TaskProgress.Done(state.TaskProblemStatement) {
		t.Fatal("标记不应回退")
	}
}
