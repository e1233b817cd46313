// Package chat 提供对话编排：会话生命周期、历史窗口、问答与落库
package chat

import (
	"context"
	"log"
	"strings"

	"github.com/ashwinyue/kb-chat/internal/apperr"
	"github.com/ashwinyue/kb-chat/internal/config"
	"github.com/ashwinyue/kb-chat/internal/model"
	"github.com/ashwinyue/kb-chat/internal/repository"
	"github.com/ashwinyue/kb-chat/internal/service/rag"
	"github.com/ashwinyue/kb-chat/internal/service/session"
	"github.com/google/uuid"
)

// 新会话标题的最大长度（按字符计）与空问题时的占位标题
const (
	titleMaxRunes = 20
	defaultTitle  = "新对话"
)

// Answerer 问答流水线接口，便于测试
type Answerer interface {
	Answer(ctx context.Context, question, collection string, history []rag.Turn, temperature float64, topK int) (string, error)
}

// Service 聊天服务
type Service struct {
	chatRepo      repository.ChatRepository
	knowledgeRepo repository.KnowledgeRepository
	answerer      Answerer
	cache         *session.Cache
	cfg           *config.Config
}

// NewService 创建聊天服务
func NewService(
	chatRepo repository.ChatRepository,
	knowledgeRepo repository.KnowledgeRepository,
	answerer Answerer,
	cache *session.Cache,
	cfg *config.Config,
) *Service {
	return &Service{
		chatRepo:      chatRepo,
		knowledgeRepo: knowledgeRepo,
		answerer:      answerer,
		cache:         cache,
		cfg:           cfg,
	}
}

// ExchangeRequest 一次问答请求
type ExchangeRequest struct {
	Question        string  `json:"question" binding:"required"`
	KnowledgeBaseID string  `json:"kb_id" binding:"required"`
	SessionID       string  `json:"session_id"`  // 为空表示新对话
	HistoryLen      int     `json:"history_len"` // 携带多少条历史消息
	Temperature     float64 `json:"temperature"` // 控制模型回答的随机性 (0-1)
	TopK            int     `json:"top_k"`       // 引用多少个文档片段
}

// ExchangeResult 一次问答结果
// Persisted 为 false 表示历史落库失败（对话仍正常返回）
type ExchangeResult struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
	Persisted bool   `json:"persisted"`
}

// Exchange 执行一次完整的问答交互
// 无 session_id 时惰性创建会话；问答成功后写入用户与助手两条历史，
// 两次写入相互独立，失败只记录日志、不中断对话
func (s *Service) Exchange(ctx context.Context, req *ExchangeRequest) (*ExchangeResult, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, apperr.Load("question is empty")
	}

	kb, err := s.knowledgeRepo.GetKnowledgeBaseByID(req.KnowledgeBaseID)
	if err != nil {
		return nil, apperr.NotFound("knowledge base %s: %v", req.KnowledgeBaseID, err)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID, err = s.createSession(req.Question)
		if err != nil {
			return nil, err
		}
	}

	historyLen := req.HistoryLen
	if historyLen <= 0 {
		historyLen = s.cfg.RAG.HistoryLen
	}
	history := s.loadHistory(ctx, sessionID, historyLen)

	answer, err := s.answerer.Answer(ctx, req.Question, kb.CollectionName(), history, req.Temperature, req.TopK)
	if err != nil {
		return nil, err
	}

	persisted := s.saveExchange(ctx, sessionID, req, answer)

	return &ExchangeResult{
		Answer:    answer,
		SessionID: sessionID,
		Persisted: persisted,
	}, nil
}

// createSession 创建新会话，标题取第一个问题的前 20 个字符
func (s *Service) createSession(firstQuestion string) (string, error) {
	sess := &model.ChatSession{
		ID:    uuid.New().String(),
		Title: deriveTitle(firstQuestion),
	}
	if err := s.chatRepo.CreateSession(sess); err != nil {
		return "", apperr.Persistence("failed to create session: %v", err)
	}
	return sess.ID, nil
}

// deriveTitle 从开场问题派生会话标题
func deriveTitle(question string) string {
	question = strings.TrimSpace(question)
	if question == "" {
		return defaultTitle
	}
	runes := []rune(question)
	if len(runes) > titleMaxRunes {
		runes = runes[:titleMaxRunes]
	}
	return string(runes)
}

// loadHistory 获取会话历史窗口，优先读缓存，未命中回落关系库
// 历史读取失败按空历史处理，不中断对话
func (s *Service) loadHistory(ctx context.Context, sessionID string, limit int) []rag.Turn {
	if s.cache != nil {
		if cached, ok := s.cache.Recent(ctx, sessionID, limit); ok {
			turns := make([]rag.Turn, len(cached))
			for i, t := range cached {
				turns[i] = rag.Turn{Role: t.Role, Content: t.Content}
			}
			return turns
		}
	}

	messages, err := s.chatRepo.GetMessagesBySession(sessionID, limit)
	if err != nil {
		log.Printf("Warning: failed to load history for session %s: %v", sessionID, err)
		return nil
	}

	turns := make([]rag.Turn, len(messages))
	for i, msg := range messages {
		turns[i] = rag.Turn{Role: msg.Role, Content: msg.Content}
	}
	return turns
}

// saveExchange 写入用户与助手两条历史消息，返回是否全部落库成功
// 每条消息携带生成时刻的参数设置，两次写入是独立事务
func (s *Service) saveExchange(ctx context.Context, sessionID string, req *ExchangeRequest, answer string) bool {
	persisted := true

	rows := []*model.ChatMessage{
		{
			ID:              uuid.New().String(),
			SessionID:       sessionID,
			Role:            model.RoleUser,
			Content:         req.Question,
			KnowledgeBaseID: req.KnowledgeBaseID,
			Temperature:     req.Temperature,
			TopK:            req.TopK,
		},
		{
			ID:              uuid.New().String(),
			SessionID:       sessionID,
			Role:            model.RoleAssistant,
			Content:         answer,
			KnowledgeBaseID: req.KnowledgeBaseID,
			Temperature:     req.Temperature,
			TopK:            req.TopK,
		},
	}

	for _, row := range rows {
		if err := s.chatRepo.AppendMessage(row); err != nil {
			log.Printf("数据库保存失败: %v", err)
			persisted = false
		}
	}

	if s.cache != nil {
		if err := s.cache.Append(ctx, sessionID,
			session.Turn{Role: model.RoleUser, Content: req.Question},
			session.Turn{Role: model.RoleAssistant, Content: answer},
		); err != nil {
			log.Printf("Warning: failed to cache session turns: %v", err)
		}
	}

	return persisted
}

// ListSessions 获取会话列表（按最近更新倒序）
func (s *Service) ListSessions(ctx context.Context, offset, limit int) ([]*model.ChatSession, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.chatRepo.ListSessions(offset, limit)
}

// GetSessionMessages 获取指定会话的历史消息（按时间正序）
func (s *Service) GetSessionMessages(ctx context.Context, sessionID string, limit int) ([]*model.ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.chatRepo.GetMessagesBySession(sessionID, limit)
}

// GetRecentHistory 获取全局最近的聊天记录（按时间正序）
func (s *Service) GetRecentHistory(ctx context.Context, limit int) ([]*model.ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.chatRepo.GetRecentMessages(limit)
}
