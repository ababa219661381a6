package state

// EmotionalMemory 单个角色对用户的情绪记录。
// 只由情绪更新器写入，且仅限当前回合实际发言的角色。
type EmotionalMemory struct {
	RelationshipScore float64  `json:"relationship_score"` // 0 敌意, 1 信任, 初始 0.5
	TensionCount      int      `json:"tension_count"`      // 单调递增
	LastTopic         string   `json:"last_topic"`
	MemorableEvents   []string `json:"memorable_events"` // 追加式，超限淘汰最旧
}

// NewEmotionalMemory 创建中性初始情绪
func NewEmotionalMemory() *EmotionalMemory {
	return &EmotionalMemory{
		RelationshipScore: 0.5,
		TensionCount:      0,
		LastTopic:         "",
		MemorableEvents:   nil,
	}
}

// Clone 深拷贝
func (e *EmotionalMemory) Clone() *EmotionalMemory {
	cp := *e
	if e.MemorableEvents != nil {
		cp.MemorableEvents = make([]string, len(e.MemorableEvents))
		copy(cp.MemorableEvents, e.MemorableEvents)
	}
	return &cp
}
