// 文档入库流水线：解析 -> 分块 -> 向量化并写入知识库的向量集合
// 直接使用 eino/eino-ext 组件，避免冗余封装
package knowledge

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ashwinyue/kb-chat/internal/apperr"
	"github.com/ashwinyue/kb-chat/internal/config"
	"github.com/ashwinyue/kb-chat/internal/model"
	"github.com/cloudwego/eino-ext/components/document/parser/docx"
	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	einoparser "github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
)

// ChunkIndexer 将分块写入指定向量集合
// 接口抽象使单元测试无需真实 Elasticsearch
type ChunkIndexer interface {
	Index(ctx context.Context, collection string, docs []*schema.Document) ([]string, error)
}

// Ingestor 文档入库器
type Ingestor struct {
	cfg     *config.Config
	indexer ChunkIndexer
}

// NewIngestor 创建文档入库器
func NewIngestor(cfg *config.Config, indexer ChunkIndexer) *Ingestor {
	return &Ingestor{cfg: cfg, indexer: indexer}
}

// Ingest 入库一个文件，返回写入的分块数量
// 文件无法读取或解析返回 Load 错误；向量化或索引失败返回 Service 错误
func (ig *Ingestor) Ingest(ctx context.Context, filePath string, kb *model.KnowledgeBase) (int, error) {
	pages, err := ig.parseFile(ctx, filePath)
	if err != nil {
		return 0, err
	}
	if len(pages) == 0 {
		return 0, apperr.Load("no content parsed from %s", filePath)
	}

	chunks, err := ig.splitPages(ctx, pages, kb)
	if err != nil {
		return 0, apperr.Load("failed to split %s: %v", filePath, err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	if ig.indexer == nil {
		return 0, apperr.Service("chunk indexer not configured")
	}

	if _, err := ig.indexer.Index(ctx, kb.CollectionName(), chunks); err != nil {
		return 0, apperr.Service("failed to index chunks: %v", err)
	}

	return len(chunks), nil
}

// parseFile 将文件解析为页级文本单元
func (ig *Ingestor) parseFile(ctx context.Context, filePath string) ([]*schema.Document, error) {
	fileParser, err := newParser(ctx, filePath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, apperr.Load("failed to open file: %v", err)
	}
	defer file.Close()

	docs, err := fileParser.Parse(ctx, file)
	if err != nil {
		return nil, apperr.Load("parser failed: %v", err)
	}

	for _, d := range docs {
		if d.MetaData == nil {
			d.MetaData = make(map[string]any)
		}
		d.MetaData["file_name"] = filepath.Base(filePath)
	}

	return docs, nil
}

// newParser 按扩展名创建解析器
func newParser(ctx context.Context, filePath string) (einoparser.Parser, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".pdf":
		return pdf.NewPDFParser(ctx, &pdf.Config{ToPages: true})
	case ".docx":
		return docx.NewDocxParser(ctx, &docx.Config{
			ToSections:      false,
			IncludeComments: false,
			IncludeHeaders:  true,
			IncludeFooters:  false,
			IncludeTables:   true,
		})
	case ".txt", ".md":
		return &textParser{}, nil
	default:
		return nil, apperr.Load("unsupported file type: %s", ext)
	}
}

// textParser 纯文本解析器
type textParser struct{}

func (p *textParser) Parse(_ context.Context, reader io.Reader, opts ...einoparser.Option) ([]*schema.Document, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	text := string(content)
	if text == "" {
		return []*schema.Document{}, nil
	}

	return []*schema.Document{
		{
			Content:  text,
			MetaData: make(map[string]any),
		},
	}, nil
}

// splitPages 将页级文本切为带重叠的定长分块
func (ig *Ingestor) splitPages(ctx context.Context, pages []*schema.Document, kb *model.KnowledgeBase) ([]*schema.Document, error) {
	splitter, err := recursive.NewSplitter(ctx, &recursive.Config{
		ChunkSize:   ig.cfg.RAG.ChunkSize,
		OverlapSize: ig.cfg.RAG.ChunkOverlap,
		Separators:  []string{"\n\n", "\n", ". ", "。", "? ", "？", "! ", "！", ", ", "，", " ", ""},
		KeepType:    recursive.KeepTypeNone,
	})
	if err != nil {
		return nil, err
	}

	chunks, err := splitter.Transform(ctx, pages)
	if err != nil {
		return nil, err
	}

	for i, chunk := range chunks {
		if chunk.MetaData == nil {
			chunk.MetaData = make(map[string]any)
		}
		chunk.MetaData["chunk_index"] = i
		chunk.MetaData["knowledge_base_id"] = kb.ID
	}

	return chunks, nil
}
