// Package rag 提供对话式检索问答流水线
// 检索 -> 拼装提示词（历史对话 + 上下文 + 问题）-> 调用大模型
package rag

import (
	"context"
	"strings"

	"github.com/ashwinyue/kb-chat/internal/apperr"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
)

// Turn 一轮历史对话
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RetrieverFactory 为指定向量集合创建检索器
// 每个知识库一个集合，检索严格限定在该集合内
type RetrieverFactory func(ctx context.Context, collection string, topK int) (retriever.Retriever, error)

// Service RAG 问答服务
type Service struct {
	chatModel    model.ChatModel
	newRetriever RetrieverFactory
}

// NewService 创建 RAG 服务
func NewService(chatModel model.ChatModel, factory RetrieverFactory) *Service {
	return &Service{
		chatModel:    chatModel,
		newRetriever: factory,
	}
}

// 固定提示词模板，运行时替换 {chat_history} / {context} / {question}
const answerPrompt = `你是一个智能助手。请结合以下"历史对话"和"上下文知识"，回答用户最新的问题。

【历史对话】
{chat_history}

【上下文知识】
{context}

【用户最新问题】
{question}
`

// Answer 执行一次检索问答
// history 按时间正序排列；temperature 控制随机性；topK 控制引用的分块数量
// 检索结果为空时仍然调用大模型，仅凭历史与问题作答
func (s *Service) Answer(ctx context.Context, question, collection string, history []Turn, temperature float64, topK int) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", apperr.Load("question is empty")
	}
	if s.chatModel == nil {
		return "", apperr.Service("chat model not configured")
	}
	if topK <= 0 {
		topK = 3
	}

	docs, err := s.retrieve(ctx, question, collection, topK)
	if err != nil {
		return "", err
	}

	prompt := renderPrompt(question, formatDocs(docs), FormatHistory(history))

	messages := []*schema.Message{
		{Role: schema.User, Content: prompt},
	}

	resp, err := s.chatModel.Generate(ctx, messages, model.WithTemperature(float32(temperature)))
	if err != nil {
		return "", apperr.Service("llm generate failed: %v", err)
	}

	// 原样返回生成文本，不做后处理
	return resp.Content, nil
}

// retrieve 在知识库集合内做相似度检索
// 集合尚未创建（知识库还没有任何入库文档）等同于检索结果为空
func (s *Service) retrieve(ctx context.Context, question, collection string, topK int) ([]*schema.Document, error) {
	if s.newRetriever == nil {
		return nil, apperr.Service("retriever not configured")
	}

	r, err := s.newRetriever(ctx, collection, topK)
	if err != nil {
		return nil, apperr.Service("failed to create retriever: %v", err)
	}

	docs, err := r.Retrieve(ctx, question, retriever.WithTopK(topK))
	if err != nil {
		if isIndexMissing(err) {
			return nil, nil
		}
		return nil, apperr.Service("retrieve failed: %v", err)
	}

	if len(docs) > topK {
		docs = docs[:topK]
	}
	return docs, nil
}

// isIndexMissing 判断错误是否为索引不存在
func isIndexMissing(err error) bool {
	return err != nil && strings.Contains(err.Error(), "index_not_found_exception")
}

// formatDocs 将检索到的分块按排名拼为上下文，空行分隔
func formatDocs(docs []*schema.Document) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.Content)
	}
	return strings.Join(parts, "\n\n")
}

// FormatHistory 将历史对话展平为带角色前缀的文本，按时间正序
func FormatHistory(history []Turn) string {
	var b strings.Builder
	for _, turn := range history {
		role := "AI助手"
		if turn.Role == "user" {
			role = "用户"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// renderPrompt 渲染固定提示词模板
func renderPrompt(question, context, history string) string {
	prompt := strings.ReplaceAll(answerPrompt, "{chat_history}", history)
	prompt = strings.ReplaceAll(prompt, "{context}", context)
	prompt = strings.ReplaceAll(prompt, "{question}", question)
	return prompt
}
