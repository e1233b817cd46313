package model

import "time"

// ChatSession 聊天会话
// 首条消息时惰性创建，标题取第一个问题的前 20 个字符
type ChatSession struct {
	ID        string        `json:"id" gorm:"primaryKey;size:36"`
	Title     string        `json:"title" gorm:"size:255"`
	CreatedAt time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time     `json:"updated_at" gorm:"autoUpdateTime;index"`
	Messages  []ChatMessage `json:"-" gorm:"foreignKey:SessionID"`
}

// ChatMessage 聊天消息
// 只追加不修改；每条消息记录生成时刻的参数（kb_id/temperature/top_k），
// 便于审计与复现
type ChatMessage struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	SessionID       string    `json:"session_id" gorm:"index;size:36"`
	Role            string    `json:"role" gorm:"size:20"` // user, assistant
	Content         string    `json:"content" gorm:"type:text"`
	KnowledgeBaseID string    `json:"kb_id" gorm:"index;size:36"`
	Temperature     float64   `json:"temperature" gorm:"default:0"`
	TopK            int       `json:"top_k" gorm:"default:0"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TableName 指定表名
func (ChatSession) TableName() string {
	return "chat_sessions"
}

func (ChatMessage) TableName() string {
	return "chat_history"
}
