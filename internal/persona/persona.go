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

// Package persona 定义固定的角色集合与路由数据表。
// 新增角色是数据变更，不引入类型层级。
package persona

import "strings"

// 固定角色标识。Mentor 仅由 Director 指派，SafetyBlock 仅由安全门禁指派，
// 二者不参与关键词路由。
const (
	CEO             = "CEO"
	CHRO            = "CHRO"
	RegionalManager = "RegionalManager"
	Mentor          = "Mentor"
	SafetyBlock     = "SafetyBlock"
)

// HintResponder Director 提示干预使用的角色
const HintResponder = Mentor

// BlockResponder 安全拦截回应使用的角色
const BlockResponder = SafetyBlock

// Persona 单个角色的静态配置
type Persona struct {
	ID               string
	DisplayName      string
	RoleTitle        string
	Traits           []string
	HiddenConstraints []string
	Keywords         []string // 内容路由关键词（小写）
	KnowledgeScope   []string // 知识检索主题域
	Priority         int      // 平局时的固定排序，数值小者优先
	Routable         bool     // 是否可被 Supervisor 关键词路由选中
}

// Registry 角色注册表
type Registry struct {
	personas map[string]*Persona
	order    []string // 固定优先级序（Routable 角色）
}

// NewRegistry 创建默认角色注册表
func NewRegistry() *Registry {
	all := []*Persona{
		{
			ID:          CEO,
			DisplayName: "Marco Bizzarri",
			RoleTitle:   "Gucci Group CEO",
			Traits: []string{
				"visionary", "decisive", "protective_of_brand_dna",
				"charismatic", "impatient_with_vagueness",
			},
			HiddenConstraints: []string{
				"Will NOT approve plans that treat all 9 brands identically",
				"Dislikes bureaucratic jargon",
				"Believes mobility should be voluntary, never forced",
				"Always references luxury craftsmanship logic",
			},
			Keywords: []string{
				"strategy", "brand dna", "group dna", "mission", "culture",
				"autonomy", "vision", "budget", "heritage", "brand identity",
			},
			KnowledgeScope: []string{
				"group_dna", "brand_autonomy", "company_mission", "strategic_direction",
			},
			Priority: 1,
			Routable: true,
		},
		{
			ID:          CHRO,
			DisplayName: "Elena Rossi",
			RoleTitle:   "Gucci Group CHRO",
			Traits: []string{
				"empathetic", "structured_thinker", "diplomatic",
				"patient", "data_informed",
			},
			HiddenConstraints: []string{
				"Will NOT accept fewer than 4 competency themes",
				"Insists on anonymity for all raters except Manager",
				"Pushes for cultural adaptation of competencies",
				"Advocates mobility as development, not mandate",
			},
			Keywords: []string{
				"hr", "competency", "framework", "360", "feedback", "coaching",
				"talent", "pillars", "mobility", "entrepreneurship", "passion", "trust",
			},
			KnowledgeScope: []string{
				"competency_framework", "360_feedback", "coaching_program",
				"talent_development", "inter_brand_mobility",
			},
			Priority: 2,
			Routable: true,
		},
		{
			ID:          RegionalManager,
			DisplayName: "Sophie Dubois",
			RoleTitle:   "Employer Branding & Internal Comms Regional Manager (Europe)",
			Traits: []string{
				"practical", "cautiously_supportive", "detail_oriented",
				"culturally_aware", "slightly_stressed",
			},
			HiddenConstraints: []string{
				"Will NOT agree to rollout during Q3 (peak season)",
				"Insists on local HR champions, not top-down mandates",
				"Skeptical of expensive external consultants",
			},
			Keywords: []string{
				"europe", "regional", "rollout", "france", "italy", "logistics",
				"train-the-trainer", "local", "pilot", "cascade",
			},
			KnowledgeScope: []string{
				"regional_rollout", "training_logistics", "local_adaptation",
			},
			Priority: 3,
			Routable: true,
		},
		{
			ID:          Mentor,
			DisplayName: "Alex",
			RoleTitle:   "Simulation Mentor",
			Traits:      []string{"supportive", "concise", "never_gives_answers_directly"},
			Priority:    10,
			Routable:    false,
		},
		{
			ID:          SafetyBlock,
			DisplayName: "System",
			RoleTitle:   "Safety Gate",
			Priority:    99,
			Routable:    false,
		},
	}

	m := make(map[string]*Persona, len(all))
	var order []string
	for _, p := range all {
		m[p.ID] = p
		if p.Routable {
			order = append(order, p.ID)
		}
	}
	return &Registry{personas: m, order: order}
}

// Get 按标识获取角色，不存在返回 nil
func (r *Registry) Get(id string) *Persona {
	return r.personas[id]
}

// Known 判断是否为已知角色标识
func (r *Registry) Known(id string) bool {
	_, ok := r.personas[id]
	return ok
}

// Routable 判断是否为可路由角色
func (r *Registry) Routable(id string) bool {
	p, ok := r.personas[id]
	return ok && p.Routable
}

// RoutableOrder 返回可路由角色的固定优先级序
func (r *Registry) RoutableOrder() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// MatchCount 统计消息命中该角色关键词表的去重个数
func (p *Persona) MatchCount(message string) int {
	lower := strings.ToLower(message)
	count := 0
	for _, kw := range p.Keywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}
