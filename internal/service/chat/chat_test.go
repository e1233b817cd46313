// Package chat 提供 Chat 服务单元测试
package chat

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/ashwinyue/kb-chat/internal/apperr"
	"github.com/ashwinyue/kb-chat/internal/config"
	"github.com/ashwinyue/kb-chat/internal/model"
	"github.com/ashwinyue/kb-chat/internal/service/rag"
)

// mockChatRepository Mock Chat Repository
type mockChatRepository struct {
	sessions      map[string]*model.ChatSession
	messages      []*model.ChatMessage
	createSessErr error
	appendErr     error
	listErr       error
}

func newMockChatRepo() *mockChatRepository {
	return &mockChatRepository{
		sessions: make(map[string]*model.ChatSession),
	}
}

func (m *mockChatRepository) CreateSession(session *model.ChatSession) error {
	if m.createSessErr != nil {
		return m.createSessErr
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *mockChatRepository) GetSessionByID(id string) (*model.ChatSession, error) {
	if session, ok := m.sessions[id]; ok {
		return session, nil
	}
	return nil, errors.New("session not found")
}

func (m *mockChatRepository) ListSessions(offset, limit int) ([]*model.ChatSession, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	result := make([]*model.ChatSession, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (m *mockChatRepository) AppendMessage(msg *model.ChatMessage) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockChatRepository) GetMessagesBySession(sessionID string, limit int) ([]*model.ChatMessage, error) {
	result := make([]*model.ChatMessage, 0)
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			result = append(result, msg)
		}
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (m *mockChatRepository) GetRecentMessages(limit int) ([]*model.ChatMessage, error) {
	if len(m.messages) > limit {
		return m.messages[:limit], nil
	}
	return m.messages, nil
}

// mockKnowledgeRepository Mock Knowledge Repository（仅实现 Exchange 用到的查询）
type mockKnowledgeRepository struct {
	kbs map[string]*model.KnowledgeBase
}

func newMockKnowledgeRepo(ids ...string) *mockKnowledgeRepository {
	kbs := make(map[string]*model.KnowledgeBase)
	for _, id := range ids {
		kbs[id] = &model.KnowledgeBase{ID: id, Name: "kb-" + id}
	}
	return &mockKnowledgeRepository{kbs: kbs}
}

func (m *mockKnowledgeRepository) CreateKnowledgeBase(kb *model.KnowledgeBase) error {
	m.kbs[kb.ID] = kb
	return nil
}

func (m *mockKnowledgeRepository) GetKnowledgeBaseByID(id string) (*model.KnowledgeBase, error) {
	if kb, ok := m.kbs[id]; ok {
		return kb, nil
	}
	return nil, errors.New("record not found")
}

func (m *mockKnowledgeRepository) ListKnowledgeBases(offset, limit int) ([]*model.KnowledgeBase, error) {
	return nil, nil
}

func (m *mockKnowledgeRepository) UpdateKnowledgeBase(kb *model.KnowledgeBase) error {
	return nil
}

func (m *mockKnowledgeRepository) CreateDocument(doc *model.Document) error {
	return nil
}

func (m *mockKnowledgeRepository) GetDocumentByID(id string) (*model.Document, error) {
	return nil, errors.New("record not found")
}

func (m *mockKnowledgeRepository) ListDocuments(kbID string, offset, limit int) ([]*model.Document, error) {
	return nil, nil
}

func (m *mockKnowledgeRepository) UpdateDocument(doc *model.Document) error {
	return nil
}

// mockAnswerer Mock 问答流水线
type mockAnswerer struct {
	answer      string
	err         error
	gotQuestion string
	gotColl     string
	gotHistory  []rag.Turn
	gotTemp     float64
	gotTopK     int
}

func (m *mockAnswerer) Answer(ctx context.Context, question, collection string, history []rag.Turn, temperature float64, topK int) (string, error) {
	m.gotQuestion = question
	m.gotColl = collection
	m.gotHistory = history
	m.gotTemp = temperature
	m.gotTopK = topK
	return m.answer, m.err
}

func testConfig() *config.Config {
	return &config.Config{
		RAG: config.RAGConfig{
			ChunkSize:    600,
			ChunkOverlap: 100,
			TopK:         3,
			Temperature:  0.1,
			HistoryLen:   10,
		},
	}
}

func newTestService(chatRepo *mockChatRepository, kbRepo *mockKnowledgeRepository, answerer *mockAnswerer) *Service {
	return NewService(chatRepo, kbRepo, answerer, nil, testConfig())
}

// ========== Exchange 测试 ==========

func TestExchangeCreatesSessionLazily(t *testing.T) {
	chatRepo := newMockChatRepo()
	kbRepo := newMockKnowledgeRepo("kb1")
	answerer := &mockAnswerer{answer: "你好"}
	svc := newTestService(chatRepo, kbRepo, answerer)

	result, err := svc.Exchange(context.Background(), &ExchangeRequest{
		Question:        "什么是知识库",
		KnowledgeBaseID: "kb1",
		Temperature:     0.2,
		TopK:            3,
	})
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	if result.SessionID == "" {
		t.Fatal("expected a freshly generated session id")
	}

	sess, ok := chatRepo.sessions[result.SessionID]
	if !ok {
		t.Fatal("session was not persisted")
	}
	if sess.Title != "什么是知识库" {
		t.Errorf("session title = %q, want %q", sess.Title, "什么是知识库")
	}
}

func TestExchangeReusesExistingSession(t *testing.T) {
	chatRepo := newMockChatRepo()
	chatRepo.sessions["s1"] = &model.ChatSession{ID: "s1", Title: "旧对话"}
	kbRepo := newMockKnowledgeRepo("kb1")
	answerer := &mockAnswerer{answer: "答案"}
	svc := newTestService(chatRepo, kbRepo, answerer)

	result, err := svc.Exchange(context.Background(), &ExchangeRequest{
		Question:        "继续",
		KnowledgeBaseID: "kb1",
		SessionID:       "s1",
	})
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	if result.SessionID != "s1" {
		t.Errorf("session id = %q, want s1", result.SessionID)
	}
	if len(chatRepo.sessions) != 1 {
		t.Errorf("expected no new session, got %d sessions", len(chatRepo.sessions))
	}
}

func TestExchangeWritesTwoRows(t *testing.T) {
	chatRepo := newMockChatRepo()
	kbRepo := newMockKnowledgeRepo("kb1")
	answerer := &mockAnswerer{answer: "生成的回答"}
	svc := newTestService(chatRepo, kbRepo, answerer)

	result, err := svc.Exchange(context.Background(), &ExchangeRequest{
		Question:        "问题",
		KnowledgeBaseID: "kb1",
		Temperature:     0.3,
		TopK:            5,
	})
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if !result.Persisted {
		t.Error("expected Persisted = true")
	}

	if len(chatRepo.messages) != 2 {
		t.Fatalf("expected exactly 2 history rows, got %d", len(chatRepo.messages))
	}

	user, assistant := chatRepo.messages[0], chatRepo.messages[1]
	if user.Role != model.RoleUser || assistant.Role != model.RoleAssistant {
		t.Errorf("roles = %q/%q, want user/assistant", user.Role, assistant.Role)
	}
	if user.Content != "问题" {
		t.Errorf("user content = %q", user.Content)
	}
	if assistant.Content != "生成的回答" {
		t.Errorf("assistant content = %q", assistant.Content)
	}

	// 两条记录共享会话与生成参数
	for _, msg := range chatRepo.messages {
		if msg.SessionID != result.SessionID {
			t.Errorf("message session = %q, want %q", msg.SessionID, result.SessionID)
		}
		if msg.KnowledgeBaseID != "kb1" {
			t.Errorf("message kb_id = %q, want kb1", msg.KnowledgeBaseID)
		}
		if msg.Temperature != 0.3 {
			t.Errorf("message temperature = %v, want 0.3", msg.Temperature)
		}
		if msg.TopK != 5 {
			t.Errorf("message top_k = %d, want 5", msg.TopK)
		}
	}
}

func TestExchangePersistenceFailureDoesNotAbort(t *testing.T) {
	chatRepo := newMockChatRepo()
	chatRepo.appendErr = errors.New("connection refused")
	kbRepo := newMockKnowledgeRepo("kb1")
	answerer := &mockAnswerer{answer: "回答"}
	svc := newTestService(chatRepo, kbRepo, answerer)

	result, err := svc.Exchange(context.Background(), &ExchangeRequest{
		Question:        "问题",
		KnowledgeBaseID: "kb1",
	})
	if err != nil {
		t.Fatalf("Exchange() error = %v, want nil", err)
	}
	if result.Answer != "回答" {
		t.Errorf("answer = %q", result.Answer)
	}
	if result.Persisted {
		t.Error("expected Persisted = false after write failure")
	}
}

func TestExchangeUnknownKnowledgeBase(t *testing.T) {
	svc := newTestService(newMockChatRepo(), newMockKnowledgeRepo(), &mockAnswerer{})

	_, err := svc.Exchange(context.Background(), &ExchangeRequest{
		Question:        "问题",
		KnowledgeBaseID: "missing",
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestExchangeEmptyQuestion(t *testing.T) {
	svc := newTestService(newMockChatRepo(), newMockKnowledgeRepo("kb1"), &mockAnswerer{})

	_, err := svc.Exchange(context.Background(), &ExchangeRequest{
		Question:        "   ",
		KnowledgeBaseID: "kb1",
	})
	if !errors.Is(err, apperr.ErrLoad) {
		t.Errorf("error = %v, want ErrLoad", err)
	}
}

func TestExchangeAnswererFailurePropagates(t *testing.T) {
	chatRepo := newMockChatRepo()
	kbRepo := newMockKnowledgeRepo("kb1")
	answerer := &mockAnswerer{err: apperr.Service("llm unavailable")}
	svc := newTestService(chatRepo, kbRepo, answerer)

	_, err := svc.Exchange(context.Background(), &ExchangeRequest{
		Question:        "问题",
		KnowledgeBaseID: "kb1",
	})
	if !errors.Is(err, apperr.ErrService) {
		t.Errorf("error = %v, want ErrService", err)
	}
	if len(chatRepo.messages) != 0 {
		t.Errorf("expected no history rows after failed answer, got %d", len(chatRepo.messages))
	}
}

func TestExchangePassesHistoryAndCollection(t *testing.T) {
	chatRepo := newMockChatRepo()
	chatRepo.sessions["s1"] = &model.ChatSession{ID: "s1"}
	chatRepo.messages = []*model.ChatMessage{
		{SessionID: "s1", Role: model.RoleUser, Content: "第一问"},
		{SessionID: "s1", Role: model.RoleAssistant, Content: "第一答"},
		{SessionID: "other", Role: model.RoleUser, Content: "别的会话"},
	}
	kbRepo := newMockKnowledgeRepo("kb1")
	answerer := &mockAnswerer{answer: "回答"}
	svc := newTestService(chatRepo, kbRepo, answerer)

	_, err := svc.Exchange(context.Background(), &ExchangeRequest{
		Question:        "第二问",
		KnowledgeBaseID: "kb1",
		SessionID:       "s1",
		Temperature:     0.1,
		TopK:            3,
	})
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}

	if answerer.gotColl != "kb_collection_kb1" {
		t.Errorf("collection = %q, want kb_collection_kb1", answerer.gotColl)
	}
	if len(answerer.gotHistory) != 2 {
		t.Fatalf("history len = %d, want 2", len(answerer.gotHistory))
	}
	if answerer.gotHistory[0].Content != "第一问" || answerer.gotHistory[1].Content != "第一答" {
		t.Errorf("history content = %+v", answerer.gotHistory)
	}
	if answerer.gotTemp != 0.1 || answerer.gotTopK != 3 {
		t.Errorf("generation params = %v/%d", answerer.gotTemp, answerer.gotTopK)
	}
}

// ========== deriveTitle 测试 ==========

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name     string
		question string
		expected string
	}{
		{
			name:     "short question",
			question: "什么是向量检索",
			expected: "什么是向量检索",
		},
		{
			name:     "truncated to 20 runes",
			question: "这是一个非常非常非常非常长的开场问题需要被截断",
			expected: "这是一个非常非常非常非常长的开场问题需要",
		},
		{
			name:     "empty question",
			question: "",
			expected: "新对话",
		},
		{
			name:     "whitespace only",
			question: "   ",
			expected: "新对话",
		},
		{
			name:     "exactly 20 ascii chars",
			question: "abcdefghij0123456789",
			expected: "abcdefghij0123456789",
		},
		{
			name:     "21 ascii chars",
			question: "abcdefghij0123456789x",
			expected: "abcdefghij0123456789",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveTitle(tt.question); got != tt.expected {
				t.Errorf("deriveTitle(%q) = %q, want %q", tt.question, got, tt.expected)
			}
		})
	}
}
