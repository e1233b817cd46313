package handler

import (
	"github.com/ashwinyue/kb-chat/internal/service"
	"github.com/ashwinyue/kb-chat/internal/service/chat"
	"github.com/gin-gonic/gin"
)

// ChatHandler 聊天处理器
type ChatHandler struct {
	svc *service.Services
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(svc *service.Services) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Chat 问答接口
// 无 session_id 时创建新会话并在响应中返回，供前端锁定当前会话
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chat.ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	// 归一生成参数
	cfg := h.svc.Config.RAG
	if req.Temperature <= 0 {
		req.Temperature = cfg.Temperature
	}
	if req.Temperature > 1 {
		req.Temperature = 1
	}
	if req.TopK <= 0 {
		req.TopK = cfg.TopK
	}

	result, err := h.svc.Chat.Exchange(c.Request.Context(), &req)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, result)
}

// GetHistory 获取全局最近的聊天记录
func (h *ChatHandler) GetHistory(c *gin.Context) {
	limit := getLimit(c, 100)

	history, err := h.svc.Chat.GetRecentHistory(c.Request.Context(), limit)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, history)
}

// ListSessions 获取会话列表
func (h *ChatHandler) ListSessions(c *gin.Context) {
	page, size := getPagination(c)
	offset := (page - 1) * size

	sessions, err := h.svc.Chat.ListSessions(c.Request.Context(), offset, size)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, sessions)
}

// GetSessionMessages 加载指定会话的历史消息
func (h *ChatHandler) GetSessionMessages(c *gin.Context) {
	sessionID := c.Param("session_id")
	limit := getLimit(c, 100)

	messages, err := h.svc.Chat.GetSessionMessages(c.Request.Context(), sessionID, limit)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, messages)
}
