package repository

import (
	"github.com/ashwinyue/kb-chat/internal/model"
	"gorm.io/gorm"
)

// knowledgeRepositoryImpl 知识库数据访问
type knowledgeRepositoryImpl struct {
	db *gorm.DB
}

// NewKnowledgeRepository 创建知识库仓库
func NewKnowledgeRepository(db *gorm.DB) KnowledgeRepository {
	return &knowledgeRepositoryImpl{db: db}
}

// CreateKnowledgeBase 创建知识库
func (r *knowledgeRepositoryImpl) CreateKnowledgeBase(kb *model.KnowledgeBase) error {
	return r.db.Create(kb).Error
}

// GetKnowledgeBaseByID 获取知识库
func (r *knowledgeRepositoryImpl) GetKnowledgeBaseByID(id string) (*model.KnowledgeBase, error) {
	var kb model.KnowledgeBase
	err := r.db.Where("id = ?", id).First(&kb).Error
	if err != nil {
		return nil, err
	}
	return &kb, nil
}

// ListKnowledgeBases 列出知识库（按创建时间倒序）
func (r *knowledgeRepositoryImpl) ListKnowledgeBases(offset, limit int) ([]*model.KnowledgeBase, error) {
	var kbs []*model.KnowledgeBase
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&kbs).Error
	return kbs, err
}

// UpdateKnowledgeBase 更新知识库
func (r *knowledgeRepositoryImpl) UpdateKnowledgeBase(kb *model.KnowledgeBase) error {
	return r.db.Save(kb).Error
}

// CreateDocument 记录上传的文档
func (r *knowledgeRepositoryImpl) CreateDocument(doc *model.Document) error {
	return r.db.Create(doc).Error
}

// GetDocumentByID 获取文档
func (r *knowledgeRepositoryImpl) GetDocumentByID(id string) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("id = ?", id).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments 列出知识库下的文档（按上传时间倒序）
func (r *knowledgeRepositoryImpl) ListDocuments(kbID string, offset, limit int) ([]*model.Document, error) {
	var docs []*model.Document
	query := r.db.Order("upload_time DESC").Offset(offset).Limit(limit)
	if kbID != "" {
		query = query.Where("knowledge_base_id = ?", kbID)
	}
	err := query.Find(&docs).Error
	return docs, err
}

// UpdateDocument 更新文档
func (r *knowledgeRepositoryImpl) UpdateDocument(doc *model.Document) error {
	return r.db.Save(doc).Error
}
