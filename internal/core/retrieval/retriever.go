package retrieval

import (
	"context"
	"errors"

	"github.com/jinford/jobmatch/internal/core/corpus"
)

var (
	// ErrNotInitialized はコーパスまたはインデックスが未構築の状態で検索が
	// 呼ばれた場合に返される
	ErrNotInitialized = errors.New("retriever not initialized: corpus or index is empty")
)

// Retriever は自由記述クエリから求人レコードを検索するインターフェース
// 返り値は重複IDを含まず、長さはtopK以下、類似度降順に並ぶ
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]*corpus.JobRecord, error)
}

// ChunkHit はインデックス検索のチャンク単位のヒットを表す
type ChunkHit struct {
	JobID   string
	Ordinal int
	Score   float64
}

// Index はEmbeddingインデックスへの検索インターフェース
// 同スコアの順序はordinal昇順、次いでJobID昇順で決定的であること
type Index interface {
	// Search はクエリベクトルに近い順にlimit件のチャンクを返す
	// チャンクが1件も登録されていない場合は ErrNotInitialized を返す
	Search(ctx context.Context, vector []float32, limit int) ([]ChunkHit, error)
}

// Embedder はクエリテキストのEmbedding生成インターフェース
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
