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

import "strings"

// 模拟任务键，闭集。标志只允许 false→true 单调翻转。
const (
	TaskProblemStatement   = "problem_statement_written"
	TaskCEOConsulted       = "ceo_consulted"
	TaskCHROConsulted      = "chro_consulted"
	TaskCompetencyModel    = "competency_model_drafted"
	Task360Program         = "360_program_designed"
	TaskRegionalConsulted  = "regional_manager_consulted"
	TaskRolloutPlan        = "rollout_plan_built"
	TaskKPITable           = "kpi_table_defined"
)

// TaskKeys 任务键的规范顺序，位图按此序编码
var TaskKeys = []string{
	TaskProblemStatement,
	TaskCEOConsulted,
	TaskCHROConsulted,
	TaskCompetencyModel,
	Task360Program,
	TaskRegionalConsulted,
	TaskRolloutPlan,
	TaskKPITable,
}

// Progress 任务进度，键为 TaskKeys 闭集
type Progress map[string]bool

// NewProgress 创建全 false 的初始进度
func NewProgress() Progress {
	p := make(Progress, len(TaskKeys))
	for _, k := range TaskKeys {
		p[k] = false
	}
	return p
}

// MarkDone 翻转标志为完成；返回本次是否发生 false→true 翻转。
// 已完成的标志不会回退，未知键忽略。
func (p Progress) MarkDone(key string) bool {
	done, ok := p[key]
	if !ok || done {
		return false
	}
	p[key] = true
	return true
}

// Done 查询标志
func (p Progress) Done(key string) bool {
	return p[key]
}

// AllDone 是否全部任务完成
func (p Progress) AllDone() bool {
	for _, k := range TaskKeys {
		if !p[k] {
			return false
		}
	}
	return true
}

// Bitset 按 TaskKeys 规范序编码为位图，用于缓存指纹
func (p Progress) Bitset() uint32 {
	var bits uint32
	for i, k := range TaskKeys {
		if p[k] {
			bits |= 1 << uint(i)
		}
	}
	return bits
}

// Clone 深拷贝
func (p Progress) Clone() Progress {
	cp := make(Progress, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

// Checklist 渲染为提示用清单文本
func (p Progress) Checklist() string {
	var b strings.Builder
	for _, k := range TaskKeys {
		if p[k] {
			b.WriteString("  [x] ")
		} else {
			b.WriteString("  [ ] ")
		}
		b.WriteString(k)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
