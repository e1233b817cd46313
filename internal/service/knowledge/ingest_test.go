// 文档入库流水线单元测试
package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ashwinyue/kb-chat/internal/apperr"
	"github.com/ashwinyue/kb-chat/internal/model"
)

func TestIngestChunkMetadata(t *testing.T) {
	indexer := &fakeIndexer{}
	ig := NewIngestor(testConfig(), indexer)
	kb := &model.KnowledgeBase{ID: "kb-meta"}

	path := writeTempText(t, "meta.txt")
	count, err := ig.Ingest(context.Background(), path, kb)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if count != len(indexer.indexedDocs) {
		t.Fatalf("returned count %d != indexed %d", count, len(indexer.indexedDocs))
	}

	// 每个分块携带所属知识库与序号，保证集合间严格隔离
	for i, chunk := range indexer.indexedDocs {
		if chunk.MetaData["knowledge_base_id"] != "kb-meta" {
			t.Errorf("chunk %d kb id = %v", i, chunk.MetaData["knowledge_base_id"])
		}
		if chunk.MetaData["chunk_index"] != i {
			t.Errorf("chunk %d index = %v", i, chunk.MetaData["chunk_index"])
		}
		if chunk.MetaData["file_name"] != "meta.txt" {
			t.Errorf("chunk %d file name = %v", i, chunk.MetaData["file_name"])
		}
		if chunk.Content == "" {
			t.Errorf("chunk %d has empty content", i)
		}
	}
}

func TestIngestCollectionsAreIsolated(t *testing.T) {
	indexerA := &fakeIndexer{}
	indexerB := &fakeIndexer{}
	path := writeTempText(t, "doc.txt")

	if _, err := NewIngestor(testConfig(), indexerA).Ingest(context.Background(), path, &model.KnowledgeBase{ID: "a"}); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if _, err := NewIngestor(testConfig(), indexerB).Ingest(context.Background(), path, &model.KnowledgeBase{ID: "b"}); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if indexerA.gotColl != "kb_collection_a" || indexerB.gotColl != "kb_collection_b" {
		t.Errorf("collections = %q / %q", indexerA.gotColl, indexerB.gotColl)
	}
}

func TestIngestUnsupportedFileType(t *testing.T) {
	ig := NewIngestor(testConfig(), &fakeIndexer{})

	_, err := ig.Ingest(context.Background(), "/tmp/archive.zip", &model.KnowledgeBase{ID: "kb1"})
	if !errors.Is(err, apperr.ErrLoad) {
		t.Errorf("error = %v, want ErrLoad", err)
	}
}

func TestIngestMissingFile(t *testing.T) {
	ig := NewIngestor(testConfig(), &fakeIndexer{})

	_, err := ig.Ingest(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), &model.KnowledgeBase{ID: "kb1"})
	if !errors.Is(err, apperr.ErrLoad) {
		t.Errorf("error = %v, want ErrLoad", err)
	}
}

func TestIngestEmptyFile(t *testing.T) {
	ig := NewIngestor(testConfig(), &fakeIndexer{})

	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	_, err := ig.Ingest(context.Background(), path, &model.KnowledgeBase{ID: "kb1"})
	if !errors.Is(err, apperr.ErrLoad) {
		t.Errorf("error = %v, want ErrLoad", err)
	}
}

func TestIngestWithoutIndexer(t *testing.T) {
	ig := NewIngestor(testConfig(), nil)

	path := writeTempText(t, "doc.txt")
	_, err := ig.Ingest(context.Background(), path, &model.KnowledgeBase{ID: "kb1"})
	if !errors.Is(err, apperr.ErrService) {
		t.Errorf("error = %v, want ErrService", err)
	}
}
