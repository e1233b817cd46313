// Package knowledge 提供知识库管理与文档入库服务
package knowledge

import (
	"context"
	"fmt"

	"github.com/ashwinyue/kb-chat/internal/apperr"
	"github.com/ashwinyue/kb-chat/internal/config"
	"github.com/ashwinyue/kb-chat/internal/model"
	"github.com/ashwinyue/kb-chat/internal/repository"
	"github.com/google/uuid"
)

// Service 知识库服务
type Service struct {
	repo     repository.KnowledgeRepository // 使用接口便于测试
	cfg      *config.Config
	ingestor *Ingestor
}

// NewService 创建知识库服务
func NewService(repo repository.KnowledgeRepository, cfg *config.Config, indexer ChunkIndexer) *Service {
	return &Service{
		repo:     repo,
		cfg:      cfg,
		ingestor: NewIngestor(cfg, indexer),
	}
}

// CreateKnowledgeBaseRequest 创建知识库请求
type CreateKnowledgeBaseRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateKnowledgeBase 创建知识库
func (s *Service) CreateKnowledgeBase(ctx context.Context, req *CreateKnowledgeBaseRequest) (*model.KnowledgeBase, error) {
	kb := &model.KnowledgeBase{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
	}

	if err := s.repo.CreateKnowledgeBase(kb); err != nil {
		return nil, apperr.Persistence("failed to create knowledge base: %v", err)
	}

	return kb, nil
}

// GetKnowledgeBase 获取知识库
func (s *Service) GetKnowledgeBase(ctx context.Context, id string) (*model.KnowledgeBase, error) {
	kb, err := s.repo.GetKnowledgeBaseByID(id)
	if err != nil {
		return nil, apperr.NotFound("knowledge base %s: %v", id, err)
	}
	return kb, nil
}

// ListKnowledgeBasesRequest 列出知识库请求
type ListKnowledgeBasesRequest struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// ListKnowledgeBases 列出知识库
func (s *Service) ListKnowledgeBases(ctx context.Context, req *ListKnowledgeBasesRequest) ([]*model.KnowledgeBase, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Size <= 0 || req.Size > 100 {
		req.Size = 20
	}

	offset := (req.Page - 1) * req.Size
	return s.repo.ListKnowledgeBases(offset, req.Size)
}

// IngestDocumentRequest 文档入库请求
type IngestDocumentRequest struct {
	KnowledgeBaseID string `json:"kb_id" binding:"required"`
	FileName        string `json:"file_name" binding:"required"`
	FilePath        string `json:"file_path" binding:"required"`
	FileSize        int64  `json:"file_size"`
}

// IngestDocument 解析文件并写入知识库的向量集合，成功后记录文档行
// 入库中途失败不回滚，可能留下部分已索引的分块
func (s *Service) IngestDocument(ctx context.Context, req *IngestDocumentRequest) (*model.Document, error) {
	kb, err := s.repo.GetKnowledgeBaseByID(req.KnowledgeBaseID)
	if err != nil {
		return nil, apperr.NotFound("knowledge base %s: %v", req.KnowledgeBaseID, err)
	}

	chunkCount, err := s.ingestor.Ingest(ctx, req.FilePath, kb)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		ID:              uuid.New().String(),
		KnowledgeBaseID: kb.ID,
		FileName:        req.FileName,
		FilePath:        req.FilePath,
		FileSize:        req.FileSize,
		Status:          "ingested",
		ChunkCount:      chunkCount,
	}

	if err := s.repo.CreateDocument(doc); err != nil {
		return nil, apperr.Persistence("failed to record document: %v", err)
	}

	return doc, nil
}

// ListDocumentsRequest 列出文档请求
type ListDocumentsRequest struct {
	KnowledgeBaseID string `json:"kb_id"`
	Page            int    `json:"page"`
	Size            int    `json:"size"`
}

// ListDocuments 列出知识库下的文档
func (s *Service) ListDocuments(ctx context.Context, req *ListDocumentsRequest) ([]*model.Document, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Size <= 0 || req.Size > 100 {
		req.Size = 20
	}

	offset := (req.Page - 1) * req.Size
	docs, err := s.repo.ListDocuments(req.KnowledgeBaseID, offset, req.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}
