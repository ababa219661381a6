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
	"strings"
	"testing"
)

func TestProgressMarkDoneMonotonic(t *testing.T) {
	p := NewProgress()
	if p.Done(TaskProblemStatement) {
		t.Fatal("新进度不应有已完成项")
	}
	if !p.MarkDone(TaskProblemStatement) {
		t.Fatal("首次标记应返回翻转")
	}
	if p.MarkDone(TaskProblemStatement) {
		t.Fatal("重复标记不应再翻转")
	}
	if !p.Done(TaskProblemStatement) {
		t.Fatal("标记后应为已完成")
	}
}

func TestProgressMarkDoneUnknownKey(t *testing.T) {
	p := NewProgress()
	if p.MarkDone("no_such_task") {
		t.Fatal("未知任务键不应翻转")
	}
}

func TestProgressAllDone(t *testing.T) {
	p := NewProgress()
	for _, k := range TaskKeys {
		if p.AllDone() {
			t.Fatal("未全部完成时 AllDone 应为假")
		}
		p.MarkDone(k)
	}
	if !p.AllDone() {
		t.Fatal("全部标记后 AllDone 应为真")
	}
}

func TestProgressBitset(t *testing.T) {
	p := NewProgress()
	if p.Bitset() != 0 {
		t.Fatalf("空进度位集应为 0，得到 %d", p.Bitset())
	}
	p.MarkDone(TaskKeys[0])
	p.MarkDone(TaskKeys[2])
	want := uint32(1) | uint32(1)<<2
	if got := p.Bitset(); got != want {
		t.Fatalf("位集 = %d，期望 %d", got, want)
	}
}

func TestProgressClone(t *testing.T) {
	p := NewProgress()
	p.MarkDone(TaskCEOConsulted)
	cp := p.Clone()
	cp.MarkDone(TaskCHROConsulted)
	if p.Done(TaskCHROConsulted) {
		t.Fatal("副本修改不应影响原件")
	}
}

func TestProgressChecklist(t *testing.T) {
	p := NewProgress()
	p.MarkDone(TaskProblemStatement)
	text := p.Checklist()
	if !strings.Contains(text, "[x]") || !strings.Contains(text, "[ ]") {
		t.Fatalf("清单应同时包含已完成与未完成标记:\n%s", text)
	}
}
