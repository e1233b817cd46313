package model

import "time"

// KnowledgeBase 知识库
// 每个知识库拥有一个独立的向量集合（Elasticsearch 索引），
// 索引名由 CollectionName() 派生，检索严格限定在该集合内。
type KnowledgeBase struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	Name        string     `json:"name" gorm:"size:100;uniqueIndex"`
	Description string     `json:"description" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	Documents   []Document `json:"-" gorm:"foreignKey:KnowledgeBaseID"`
}

// Document 文档
// 上传成功即视为已入库，状态不建模状态机
type Document struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	KnowledgeBaseID string    `json:"kb_id" gorm:"index;size:36"`
	FileName        string    `json:"filename" gorm:"size:255"`
	FilePath        string    `json:"-" gorm:"size:500"`
	FileSize        int64     `json:"file_size" gorm:"default:0"`
	Status          string    `json:"status" gorm:"size:20;default:ingested"`
	ChunkCount      int       `json:"chunk_count" gorm:"default:0"`
	UploadTime      time.Time `json:"upload_time" gorm:"autoCreateTime;index"`
}

// CollectionName 返回该知识库的向量集合（ES 索引）名称
func (kb *KnowledgeBase) CollectionName() string {
	return "kb_collection_" + kb.ID
}

func (KnowledgeBase) TableName() string {
	return "knowledge_bases"
}

func (Document) TableName() string {
	return "documents"
}
