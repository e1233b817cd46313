// Package repository 定义数据访问接口
// 接口抽象使依赖注入和单元测试成为可能
package repository

import "github.com/ashwinyue/kb-chat/internal/model"

// ========== KnowledgeRepository 接口 ==========

// KnowledgeRepository 知识库数据访问接口
// 接口定义使 Service 层可以轻松 mock 进行单元测试
type KnowledgeRepository interface {
	// 知识库操作
	CreateKnowledgeBase(kb *model.KnowledgeBase) error
	GetKnowledgeBaseByID(id string) (*model.KnowledgeBase, error)
	ListKnowledgeBases(offset, limit int) ([]*model.KnowledgeBase, error)
	UpdateKnowledgeBase(kb *model.KnowledgeBase) error

	// 文档操作
	CreateDocument(doc *model.Document) error
	GetDocumentByID(id string) (*model.Document, error)
	ListDocuments(kbID string, offset, limit int) ([]*model.Document, error)
	UpdateDocument(doc *model.Document) error
}

// 确保实现满足接口
var _ KnowledgeRepository = (*knowledgeRepositoryImpl)(nil)

// ========== ChatRepository 接口 ==========

// ChatRepository 聊天数据访问接口
type ChatRepository interface {
	// 会话操作
	CreateSession(session *model.ChatSession) error
	GetSessionByID(id string) (*model.ChatSession, error)
	ListSessions(offset, limit int) ([]*model.ChatSession, error)

	// 消息操作
	// AppendMessage 插入消息并在同一事务内刷新会话的 updated_at
	AppendMessage(msg *model.ChatMessage) error
	GetMessagesBySession(sessionID string, limit int) ([]*model.ChatMessage, error)
	GetRecentMessages(limit int) ([]*model.ChatMessage, error)
}

var _ ChatRepository = (*chatRepositoryImpl)(nil)
