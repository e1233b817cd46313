// Package service 负责组装业务服务与 eino 组件
// 参考 eino-examples，使用简单的 newXxx() 函数直接初始化 eino 组件
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ashwinyue/kb-chat/internal/config"
	"github.com/ashwinyue/kb-chat/internal/repository"
	"github.com/ashwinyue/kb-chat/internal/service/chat"
	"github.com/ashwinyue/kb-chat/internal/service/file"
	"github.com/ashwinyue/kb-chat/internal/service/knowledge"
	"github.com/ashwinyue/kb-chat/internal/service/rag"
	"github.com/ashwinyue/kb-chat/internal/service/session"
	"github.com/cloudwego/eino-ext/components/embedding/dashscope"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino-ext/components/retriever/es8"
	"github.com/cloudwego/eino-ext/components/retriever/es8/search_mode"
	"github.com/cloudwego/eino/components/embedding"
	ecomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
)

// Services 服务集合
type Services struct {
	// 业务服务
	Knowledge *knowledge.Service
	Chat      *chat.Service
	RAG       *rag.Service

	// 文件存储
	Storage file.Storage

	// 配置
	Config *config.Config

	// Eino 组件（直接使用 eino 类型，无封装）
	// Embedder 进程内单例，入库与检索共用
	Embedder  embedding.Embedder
	ChatModel ecomodel.ChatModel
}

// NewServices 创建所有服务
func NewServices(repos *repository.Repositories, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	ctx := context.Background()

	// 创建 ChatModel
	chatModel, err := newChatModel(ctx, cfg)
	if err != nil {
		log.Printf("Warning: failed to create chat model: %v", err)
	}

	// 创建 Embedding 器（进程生命周期内只创建一次）
	embedder := newEmbedder(ctx, cfg)

	// 创建 ES 客户端
	esClient, err := newESClient(cfg)
	if err != nil {
		log.Printf("Warning: failed to create es client: %v", err)
	}

	// 分块索引器与检索器工厂（均按知识库集合隔离）
	var indexer knowledge.ChunkIndexer
	var retrieverFactory rag.RetrieverFactory
	if esClient != nil && embedder != nil {
		indexer = knowledge.NewES8ChunkIndexer(esClient, embedder, cfg.AI.Embedding.Dimensions)
		retrieverFactory = newRetrieverFactory(esClient, embedder)
	}

	// 文件存储
	storage, err := file.NewLocalStorage(cfg.Upload.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to init file storage: %w", err)
	}

	// 会话缓存
	sessionCache := session.NewCache(redisClient)

	ragSvc := rag.NewService(chatModel, retrieverFactory)

	return &Services{
		Knowledge: knowledge.NewService(repos.Knowledge, cfg, indexer),
		Chat:      chat.NewService(repos.Chat, repos.Knowledge, ragSvc, sessionCache, cfg),
		RAG:       ragSvc,
		Storage:   storage,
		Config:    cfg,
		Embedder:  embedder,
		ChatModel: chatModel,
	}, nil
}

// newChatModel 创建 ChatModel（OpenAI 兼容接口）
func newChatModel(ctx context.Context, cfg *config.Config) (ecomodel.ChatModel, error) {
	llmCfg := cfg.AI.LLM

	if llmCfg.APIKey == "" {
		return nil, fmt.Errorf("llm api_key is required")
	}

	modelName := llmCfg.Model
	if modelName == "" {
		modelName = "glm-4.5-flash"
	}

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  llmCfg.APIKey,
		BaseURL: llmCfg.BaseURL,
		Model:   modelName,
	})
}

// newEmbedder 创建 Embedding 器
func newEmbedder(ctx context.Context, cfg *config.Config) embedding.Embedder {
	embCfg := cfg.AI.Embedding

	if embCfg.APIKey == "" {
		log.Printf("Warning: embedding api_key is empty")
		return nil
	}

	model := embCfg.Model
	if model == "" {
		model = "text-embedding-v3"
	}

	embConfig := &dashscope.EmbeddingConfig{
		APIKey: embCfg.APIKey,
		Model:  model,
	}

	if embCfg.Timeout > 0 {
		embConfig.Timeout = time.Duration(embCfg.Timeout) * time.Second
	}

	if embCfg.Dimensions > 0 {
		embConfig.Dimensions = &embCfg.Dimensions
	}

	embedder, err := dashscope.NewEmbedder(ctx, embConfig)
	if err != nil {
		log.Printf("Warning: failed to create embedder: %v", err)
		return nil
	}

	return embedder
}

// newESClient 创建 ES8 客户端
func newESClient(cfg *config.Config) (*elasticsearch.Client, error) {
	if cfg.Elastic.Host == "" {
		return nil, fmt.Errorf("elasticsearch host not configured")
	}

	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Elastic.Host},
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
}

// newRetrieverFactory 创建按集合隔离的 ES8 检索器工厂
func newRetrieverFactory(esClient *elasticsearch.Client, embedder embedding.Embedder) rag.RetrieverFactory {
	return func(ctx context.Context, collection string, topK int) (retriever.Retriever, error) {
		return es8.NewRetriever(ctx, &es8.RetrieverConfig{
			Client:     esClient,
			Index:      collection,
			TopK:       topK,
			SearchMode: search_mode.SearchModeDenseVectorSimilarity(search_mode.DenseVectorSimilarityTypeCosineSimilarity, "content_vector"),
			Embedding:  embedder,
		})
	}
}
