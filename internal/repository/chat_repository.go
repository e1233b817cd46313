package repository

import (
	"time"

	"github.com/ashwinyue/kb-chat/internal/model"
	"gorm.io/gorm"
)

// chatRepositoryImpl 聊天数据访问
type chatRepositoryImpl struct {
	db *gorm.DB
}

// NewChatRepository 创建聊天仓库
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepositoryImpl{db: db}
}

// CreateSession 创建会话
func (r *chatRepositoryImpl) CreateSession(session *model.ChatSession) error {
	return r.db.Create(session).Error
}

// GetSessionByID 获取会话
func (r *chatRepositoryImpl) GetSessionByID(id string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions 列出会话（按最近更新倒序）
func (r *chatRepositoryImpl) ListSessions(offset, limit int) ([]*model.ChatSession, error) {
	var sessions []*model.ChatSession
	err := r.db.Order("updated_at DESC").Offset(offset).Limit(limit).Find(&sessions).Error
	return sessions, err
}

// AppendMessage 插入消息并刷新会话的 updated_at
// 两个写入在同一事务内完成
func (r *chatRepositoryImpl) AppendMessage(msg *model.ChatMessage) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&model.ChatSession{}).
			Where("id = ?", msg.SessionID).
			Update("updated_at", time.Now()).Error
	})
}

// GetMessagesBySession 获取会话消息（按时间正序，限制条数）
func (r *chatRepositoryImpl) GetMessagesBySession(sessionID string, limit int) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// GetRecentMessages 获取全局最近消息（按时间正序，限制条数）
func (r *chatRepositoryImpl) GetRecentMessages(limit int) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.Order("created_at ASC").Limit(limit).Find(&messages).Error
	return messages, err
}
