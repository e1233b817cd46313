package handler

import (
	"context"
	"log"

	"github.com/ashwinyue/kb-chat/internal/service"
	"github.com/ashwinyue/kb-chat/internal/service/file"
	"github.com/ashwinyue/kb-chat/internal/service/knowledge"
	"github.com/gin-gonic/gin"
)

// KnowledgeHandler 知识库处理器
type KnowledgeHandler struct {
	svc *service.Services
}

// NewKnowledgeHandler 创建知识库处理器
func NewKnowledgeHandler(svc *service.Services) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc}
}

// CreateKnowledgeBase 创建知识库
func (h *KnowledgeHandler) CreateKnowledgeBase(c *gin.Context) {
	var req knowledge.CreateKnowledgeBaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	kb, err := h.svc.Knowledge.CreateKnowledgeBase(c.Request.Context(), &req)
	if err != nil {
		Error(c, err)
		return
	}

	Created(c, kb)
}

// ListKnowledgeBases 获取知识库列表
func (h *KnowledgeHandler) ListKnowledgeBases(c *gin.Context) {
	page, size := getPagination(c)

	kbs, err := h.svc.Knowledge.ListKnowledgeBases(c.Request.Context(), &knowledge.ListKnowledgeBasesRequest{
		Page: page,
		Size: size,
	})
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, kbs)
}

// Upload 上传文件并入库
// multipart 表单字段：file（文件）、kb_id（目标知识库）
func (h *KnowledgeHandler) Upload(c *gin.Context) {
	kbID := c.PostForm("kb_id")
	if kbID == "" {
		BadRequest(c, "kb_id is required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}

	if h.svc.Config.Upload.MaxSize > 0 && fileHeader.Size > h.svc.Config.Upload.MaxSize {
		BadRequest(c, "file too large")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	defer src.Close()

	ctx := c.Request.Context()

	// 先落盘，再解析入库
	path, err := h.svc.Storage.Save(ctx, &file.SaveRequest{
		KnowledgeBaseID: kbID,
		FileName:        fileHeader.Filename,
		Reader:          src,
	})
	if err != nil {
		InternalServerError(c, err.Error())
		return
	}

	doc, err := h.svc.Knowledge.IngestDocument(ctx, &knowledge.IngestDocumentRequest{
		KnowledgeBaseID: kbID,
		FileName:        fileHeader.Filename,
		FilePath:        path,
		FileSize:        fileHeader.Size,
	})
	if err != nil {
		// 入库失败时清理已落盘的文件
		if delErr := h.svc.Storage.Delete(context.WithoutCancel(ctx), path); delErr != nil {
			log.Printf("Warning: failed to clean up %s: %v", path, delErr)
		}
		Error(c, err)
		return
	}

	Created(c, doc)
}

// ListFiles 获取指定知识库下的所有文件
func (h *KnowledgeHandler) ListFiles(c *gin.Context) {
	kbID := c.Param("kb_id")
	page, size := getPagination(c)

	docs, err := h.svc.Knowledge.ListDocuments(c.Request.Context(), &knowledge.ListDocumentsRequest{
		KnowledgeBaseID: kbID,
		Page:            page,
		Size:            size,
	})
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, docs)
}
