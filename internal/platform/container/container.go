package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jinford/jobmatch/internal/core/chunking"
	"github.com/jinford/jobmatch/internal/core/corpus"
	"github.com/jinford/jobmatch/internal/core/indexing"
	"github.com/jinford/jobmatch/internal/core/matching"
	"github.com/jinford/jobmatch/internal/core/profile"
	"github.com/jinford/jobmatch/internal/core/retrieval"
	"github.com/jinford/jobmatch/internal/infra/gemini"
	"github.com/jinford/jobmatch/internal/infra/openai"
	"github.com/jinford/jobmatch/internal/infra/postgres"
	"github.com/jinford/jobmatch/pkg/config"
	"github.com/jinford/jobmatch/pkg/db"
)

// llmClient は matching / profile 双方が要求する生成インターフェースの合成。
type llmClient interface {
	GenerateCompletion(ctx context.Context, prompt string) (string, error)
}

// ServiceContainer はアプリケーションの依存関係を保持する。
type ServiceContainer struct {
	Store          corpus.Store
	IndexService   *indexing.IndexService
	Retriever      retrieval.Retriever
	Matcher        *matching.Matcher
	Refiner        *matching.Refiner
	ProfileService *profile.Service

	logger   *slog.Logger
	database *db.DB
}

type containerOptions struct {
	logger    *slog.Logger
	embedder  indexing.Embedder
	llmClient llmClient
}

// ContainerOption は ServiceContainer 構築時のオプション
type ContainerOption func(*containerOptions)

// WithContainerLogger はロガーを差し替える
func WithContainerLogger(logger *slog.Logger) ContainerOption {
	return func(opts *containerOptions) {
		opts.logger = logger
	}
}

// WithContainerEmbedder はカスタム Embedder を注入する
func WithContainerEmbedder(embedder indexing.Embedder) ContainerOption {
	return func(opts *containerOptions) {
		opts.embedder = embedder
	}
}

// WithContainerLLMClient は LLM クライアントを差し替える
func WithContainerLLMClient(client llmClient) ContainerOption {
	return func(opts *containerOptions) {
		opts.llmClient = client
	}
}

// NewContainer は設定からコンテナを生成する。
func NewContainer(ctx context.Context, cfg *config.Config, opts ...ContainerOption) (*ServiceContainer, error) {
	options := containerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	database, err := db.New(ctx, db.ConnectionParams{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("データベース初期化に失敗しました: %w", err)
	}

	// Repository (PostgreSQL + pgvector)
	repo := postgres.NewRepository(database.Pool)
	if err := repo.EnsureSchema(ctx, cfg.OpenAI.EmbeddingDimension); err != nil {
		database.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗しました: %w", err)
	}

	// Embedder (OpenAI)
	embedder := options.embedder
	if embedder == nil {
		embedder = openai.NewEmbedder(
			cfg.OpenAI.APIKey,
			openai.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel),
			openai.WithEmbeddingDimension(cfg.OpenAI.EmbeddingDimension),
		)
	}

	// LLMクライアント（プロバイダ切替）
	llm := options.llmClient
	if llm == nil {
		llm, err = newLLMClient(ctx, cfg)
		if err != nil {
			database.Close()
			return nil, err
		}
	}

	// IndexService
	splitter := chunking.NewSplitter(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	indexService := indexing.NewIndexService(
		repo,
		embedder,
		indexing.WithIndexLogger(options.logger),
		indexing.WithIndexSplitter(splitter),
	)

	// Retriever（バックエンド切替）
	var retriever retrieval.Retriever
	switch cfg.Retrieval.Backend {
	case "lexical":
		retriever = retrieval.NewLexicalRetriever(repo, retrieval.WithLexicalLogger(options.logger))
	case "vector", "":
		retriever = retrieval.NewVectorRetriever(
			repo,
			repo,
			embedder,
			retrieval.WithVectorLogger(options.logger),
			retrieval.WithPoolFactor(cfg.Retrieval.PoolFactor),
		)
	default:
		database.Close()
		return nil, fmt.Errorf("unknown retrieval backend: %s", cfg.Retrieval.Backend)
	}

	// Reranker / Matcher
	rerankerOpts := []matching.RerankerOption{matching.WithRerankerLogger(options.logger)}
	tokenCounter, err := matching.NewTokenCounter()
	if err != nil {
		options.logger.Warn("トークンカウンタの初期化に失敗したため文字数ベースで動作します", slog.String("error", err.Error()))
	} else {
		rerankerOpts = append(rerankerOpts, matching.WithRerankerTokenCounter(tokenCounter))
	}
	reranker := matching.NewReranker(llm, rerankerOpts...)
	matcher := matching.NewMatcher(retriever, reranker, matching.WithMatcherLogger(options.logger))

	// Refiner / ProfileService
	refiner := matching.NewRefiner(llm, matching.WithRefinerLogger(options.logger))
	profileService := profile.NewService(llm, profile.WithServiceLogger(options.logger))

	return &ServiceContainer{
		Store:          repo,
		IndexService:   indexService,
		Retriever:      retriever,
		Matcher:        matcher,
		Refiner:        refiner,
		ProfileService: profileService,
		logger:         options.logger,
		database:       database,
	}, nil
}

// newLLMClient は設定に応じたLLMクライアントを生成する。
func newLLMClient(ctx context.Context, cfg *config.Config) (llmClient, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.LLM.GeminiAPIKey, cfg.LLM.Model)
		if err != nil {
			return nil, fmt.Errorf("Geminiクライアント初期化に失敗しました: %w", err)
		}
		return client, nil
	case "openai", "":
		client, err := openai.NewClient(cfg.OpenAI.APIKey, cfg.LLM.Model)
		if err != nil {
			return nil, fmt.Errorf("OpenAIクライアント初期化に失敗しました: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLM.Provider)
	}
}

// Close は内部リソースを解放する。
func (c *ServiceContainer) Close() {
	if c != nil && c.database != nil {
		c.database.Close()
	}
}

// Logger はロガーを返す。
func (c *ServiceContainer) Logger() *slog.Logger {
	if c == nil || c.logger == nil {
		return slog.Default()
	}
	return c.logger
}
