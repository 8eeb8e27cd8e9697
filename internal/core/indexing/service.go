package indexing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jinford/jobmatch/internal/core/chunking"
	"github.com/jinford/jobmatch/internal/core/corpus"
)

const (
	// DefaultEmbeddingBatchSize はEmbedding APIのデフォルトバッチサイズ
	DefaultEmbeddingBatchSize = 100
	// MinBatchSize は最小バッチサイズ（MaxBatchSize()が0を返した場合のフォールバック）
	MinBatchSize = 1
)

// IndexService は求人コーパスのインデックス化ユースケースを提供する
type IndexService struct {
	repository Repository
	embedder   Embedder
	splitter   *chunking.Splitter
	batchSize  int
	logger     *slog.Logger
}

type indexServiceOptions struct {
	splitter  *chunking.Splitter
	batchSize int
	logger    *slog.Logger
}

// IndexServiceOption は IndexService のオプション設定
type IndexServiceOption func(*indexServiceOptions)

// WithIndexLogger は IndexService にロガーを設定する
func WithIndexLogger(logger *slog.Logger) IndexServiceOption {
	return func(o *indexServiceOptions) {
		o.logger = logger
	}
}

// WithIndexSplitter はチャンク分割器を上書きする
func WithIndexSplitter(splitter *chunking.Splitter) IndexServiceOption {
	return func(o *indexServiceOptions) {
		o.splitter = splitter
	}
}

// WithIndexBatchSize はEmbeddingバッチサイズを上書きする
func WithIndexBatchSize(size int) IndexServiceOption {
	return func(o *indexServiceOptions) {
		o.batchSize = size
	}
}

// NewIndexService は新しいIndexServiceを作成する
func NewIndexService(repo Repository, embedder Embedder, opts ...IndexServiceOption) *IndexService {
	options := indexServiceOptions{
		splitter:  chunking.NewSplitter(chunking.DefaultChunkSize, chunking.DefaultOverlap),
		batchSize: DefaultEmbeddingBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.splitter == nil {
		options.splitter = chunking.NewSplitter(chunking.DefaultChunkSize, chunking.DefaultOverlap)
	}

	// バッチサイズをEmbedderの最大値でクリップ
	batchSize := options.batchSize
	maxBatchSize := embedder.MaxBatchSize()
	if maxBatchSize <= 0 {
		maxBatchSize = MinBatchSize
	}
	if batchSize > maxBatchSize {
		batchSize = maxBatchSize
	}
	if batchSize <= 0 {
		batchSize = MinBatchSize
	}

	return &IndexService{
		repository: repo,
		embedder:   embedder,
		splitter:   options.splitter,
		batchSize:  batchSize,
		logger:     options.logger,
	}
}

// IndexJobs は求人レコード群をチャンク化・Embedding生成してインデックスに反映する
// 求人単位で独立に処理し、一部の失敗は統計に記録して残りを継続する
// コンテキストのキャンセルのみがエラーとして返る
func (s *IndexService) IndexJobs(ctx context.Context, jobs []*corpus.JobRecord) (*IndexResult, error) {
	startTime := time.Now()
	result := &IndexResult{RunID: uuid.New()}

	s.logger.Info("インデックス化を開始",
		"runID", result.RunID.String(),
		"jobs", len(jobs),
		"chunkSize", s.splitter.ChunkSize(),
		"overlap", s.splitter.Overlap(),
	)

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		chunks, err := s.indexJob(ctx, job)
		if err != nil {
			result.FailedJobs++
			s.logger.Error("求人のインデックス化に失敗",
				"runID", result.RunID.String(),
				"jobID", job.ID,
				"error", err,
			)
			continue
		}

		result.IndexedJobs++
		result.TotalChunks += chunks
	}

	result.Duration = time.Since(startTime)

	s.logger.Info("インデックス化が完了",
		"runID", result.RunID.String(),
		"indexedJobs", result.IndexedJobs,
		"failedJobs", result.FailedJobs,
		"totalChunks", result.TotalChunks,
		"duration", result.Duration.String(),
	)

	return result, nil
}

// indexJob は単一求人をチャンク化してインデックスに全置換する
func (s *IndexService) indexJob(ctx context.Context, job *corpus.JobRecord) (int, error) {
	if job.ID == "" {
		return 0, fmt.Errorf("求人IDが未採番です")
	}

	// 1. 直列化テキストをチャンク分割
	texts := s.splitter.Split(job.Serialize())
	if len(texts) == 0 {
		// 空の求人はインデックスから除去するだけ
		if err := s.repository.ReplaceChunks(ctx, job.ID, nil); err != nil {
			return 0, fmt.Errorf("チャンクの置換に失敗: %w", err)
		}
		return 0, nil
	}

	// 2. バッチでEmbedding生成
	chunks := make([]*Chunk, 0, len(texts))
	for offset := 0; offset < len(texts); offset += s.batchSize {
		end := offset + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[offset:end]

		vectors, err := s.embedder.BatchEmbed(ctx, batch)
		if err != nil {
			return 0, fmt.Errorf("embeddingのバッチ生成に失敗 (offset=%d): %w", offset, err)
		}
		if len(vectors) != len(batch) {
			return 0, fmt.Errorf("embedding数が不一致: got=%d want=%d", len(vectors), len(batch))
		}

		for i, vector := range vectors {
			chunks = append(chunks, &Chunk{
				JobID:   job.ID,
				Ordinal: offset + i,
				Text:    batch[i],
				Vector:  vector,
			})
		}
	}

	// 3. 求人単位の単一トランザクションで全置換
	if err := s.repository.ReplaceChunks(ctx, job.ID, chunks); err != nil {
		return 0, fmt.Errorf("チャンクの置換に失敗: %w", err)
	}

	return len(chunks), nil
}
