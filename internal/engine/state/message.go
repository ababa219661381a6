package state

import "time"

// 消息角色
const (
	RoleUser      = "user"
	RoleResponder = "responder"
	RoleSystem    = "system"
)

// Message 单条对话消息，追加后不可变
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Speaker   string    `json:"speaker,omitempty"` // 角色标识，user/system 消息为空
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage 创建用户消息
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// NewResponderMessage 创建带角色标识的回应消息
func NewResponderMessage(speaker, content string) *Message {
	return &Message{Role: RoleResponder, Content: content, Speaker: speaker, Timestamp: time.Now()}
}

// NewSystemMessage 创建系统消息（安全拦截回应等）
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content, Timestamp: time.Now()}
}

// Clone 深拷贝
func (m *Message) Clone() *Message {
	cp := *m
	return &cp
}
