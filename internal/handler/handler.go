package handler

import (
	"github.com/ashwinyue/kb-chat/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Knowledge *KnowledgeHandler
	Chat      *ChatHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Knowledge: NewKnowledgeHandler(svc),
		Chat:      NewChatHandler(svc),
	}
}
