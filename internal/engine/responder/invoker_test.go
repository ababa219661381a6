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

package responder

import (
	"strings"
	"testing"

	"coworker-engine/internal/engine/state"
	"coworker-engine/internal/persona"
)

func TestBuildPromptRendersAllSections(t *testing.T) {
	registry := persona.NewRegistry()
	p := registry.Get(persona.CHRO)
	sess := state.New("s1")
	sess.Append(state.NewUserMessage("how many competency themes do we need"))
	sess.Append(state.NewResponderMessage(persona.CHRO, "at least four"))

	prompt := BuildPrompt(p, sess, "what about rater anonymity", "VEPT framework reference text")

	if strings.Contains(prompt, "{") {
		t.Fatalf("模板占位符未全部替换: %s", prompt)
	}
	if !strings.Contains(prompt, "VEPT framework reference text") {
		t.Fatal("检索上下文未注入")
	}
	if !strings.Contains(prompt, "CHRO: at least four") {
		t.Fatal("历史消息应带角色名")
	}
	if !strings.Contains(prompt, "user: how many competency themes do we need") {
		t.Fatal("用户历史消息应带 user 标识")
	}
	if !strings.Contains(prompt, "what about rater anonymity") {
		t.Fatal("用户消息未注入")
	}
}

func TestBuildPromptEmotionalInjection(t *testing.T) {
	registry := persona.NewRegistry()
	p := registry.Get(persona.CEO)
	sess := state.New("s1")

	// 初始 0.5 中性，不注入情绪段
	prompt := BuildPrompt(p, sess, "hello", "")
	if strings.Contains(prompt, "EMOTIONAL STATE") {
		t.Fatal("中性关系不应注入情绪段")
	}

	rec := sess.Emotion(persona.CEO)
	rec.RelationshipScore = 0.2
	rec.TensionCount = 3
	prompt = BuildPrompt(p, sess, "hello", "")
	if !strings.Contains(prompt, "EMOTIONAL STATE") {
		t.Fatal("低关系分应注入情绪段")
	}
	if !strings.Contains(prompt, "HIGH TENSION") {
		t.Fatal("高紧张度应注入提示")
	}
}

func TestBuildPromptFirstMessage(t *testing.T) {
	registry := persona.NewRegistry()
	p := registry.Get(persona.CEO)
	sess := state.New("s1")

	prompt := BuildPrompt(p, sess, "hello", "")
	if !strings.Contains(prompt, "(first message)") {
		t.Fatal("无历史时应渲染占位文本")
	}
}
