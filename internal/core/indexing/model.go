package indexing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Chunk は求人レコードから切り出された断片とそのEmbeddingを表す
// (JobID, Ordinal) の組がインデックス上の一意キーとなる
type Chunk struct {
	JobID   string
	Ordinal int
	Text    string
	Vector  []float32
}

// Embedder はテキストのEmbedding生成インターフェース
type Embedder interface {
	// Embed は単一テキストのEmbeddingを生成する
	Embed(ctx context.Context, text string) ([]float32, error)

	// BatchEmbed はバッチでEmbeddingを生成する
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)

	// MaxBatchSize はバッチ処理の最大サイズを返す
	MaxBatchSize() int

	// Dimension はベクトル次元数を返す
	Dimension() int
}

// Repository はインデックスへの書き込みインターフェース
// テスト時のモック用に消費者側で定義
type Repository interface {
	// ReplaceChunks は対象求人のチャンクを全置換する
	// 古いチャンクの削除と新チャンクの挿入は単一トランザクションで行われ、
	// 求人ごとに独立して再試行できる
	ReplaceChunks(ctx context.Context, jobID string, chunks []*Chunk) error
}

// IndexResult はインデックス化処理の結果を表す
type IndexResult struct {
	RunID       uuid.UUID
	IndexedJobs int
	FailedJobs  int
	TotalChunks int
	Duration    time.Duration
}
