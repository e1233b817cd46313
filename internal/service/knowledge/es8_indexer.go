// ES8 向量集合写入，使用 eino-ext es8.NewIndexer
// 每个知识库一个独立索引，首次入库时惰性创建
package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/cloudwego/eino-ext/components/indexer/es8"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ES8ChunkIndexer 基于 Elasticsearch 8 的 ChunkIndexer 实现
type ES8ChunkIndexer struct {
	client     *elasticsearch.Client
	embedder   embedding.Embedder
	dimensions int
}

// NewES8ChunkIndexer 创建 ES8 分块索引器
func NewES8ChunkIndexer(client *elasticsearch.Client, embedder embedding.Embedder, dimensions int) *ES8ChunkIndexer {
	return &ES8ChunkIndexer{
		client:     client,
		embedder:   embedder,
		dimensions: dimensions,
	}
}

// Index 向量化分块并写入指定集合
func (x *ES8ChunkIndexer) Index(ctx context.Context, collection string, docs []*schema.Document) ([]string, error) {
	if err := x.ensureIndex(ctx, collection); err != nil {
		return nil, fmt.Errorf("failed to ensure index: %w", err)
	}

	indexer, err := es8.NewIndexer(ctx, &es8.IndexerConfig{
		Client:    x.client,
		Index:     collection,
		BatchSize: 10,
		Embedding: x.embedder,
		DocumentToFields: func(ctx context.Context, doc *schema.Document) (map[string]es8.FieldValue, error) {
			return documentToESFields(doc), nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ES8 indexer: %w", err)
	}

	ids, err := indexer.Store(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to store documents: %w", err)
	}

	log.Printf("Indexed %d chunks into %s", len(ids), collection)
	return ids, nil
}

// documentToESFields 将 Eino Document 转换为 ES 字段
func documentToESFields(doc *schema.Document) map[string]es8.FieldValue {
	fields := make(map[string]es8.FieldValue)

	// 内容字段（需要向量化）
	fields["content"] = es8.FieldValue{
		Value:    doc.Content,
		EmbedKey: "content_vector", // 指定向量结果的存储键名
	}

	// 元数据字段（直接存储，不向量化）
	if doc.MetaData != nil {
		for k, v := range doc.MetaData {
			fields[k] = es8.FieldValue{
				Value: v,
			}
		}
	}

	return fields
}

// ensureIndex 确保集合索引存在（如不存在则创建）
func (x *ES8ChunkIndexer) ensureIndex(ctx context.Context, collection string) error {
	res, err := x.client.Indices.Exists([]string{collection})
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		return nil // 索引已存在
	}

	dimensions := x.dimensions
	if dimensions == 0 {
		dimensions = 1024
	}

	// 创建索引映射，支持向量字段
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"content": map[string]interface{}{
					"type": "text",
				},
				"content_vector": map[string]interface{}{
					"type":       "dense_vector",
					"dims":       dimensions,
					"index":      true,
					"similarity": "cosine",
				},
				"knowledge_base_id": map[string]interface{}{
					"type": "keyword",
				},
				"chunk_index": map[string]interface{}{
					"type": "integer",
				},
				"file_name": map[string]interface{}{
					"type": "keyword",
				},
			},
		},
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
	}

	mappingData, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	req := esapi.IndicesCreateRequest{
		Index: collection,
		Body:  bytes.NewReader(mappingData),
	}

	res, err = req.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to create index: %s", res.String())
	}

	log.Printf("Index %s created with %d dimensions", collection, dimensions)
	return nil
}
