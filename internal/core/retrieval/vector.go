package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jinford/jobmatch/internal/core/corpus"
)

// DefaultPoolFactor はチャンクヒットの候補プールをtopKの何倍取得するかの
// デフォルト値。複数チャンクが同一求人に解決されるため過剰取得する
const DefaultPoolFactor = 4

// VectorRetriever はEmbeddingインデックスを使った検索を提供する
type VectorRetriever struct {
	store      corpus.Store
	index      Index
	embedder   Embedder
	poolFactor int
	logger     *slog.Logger
}

type vectorRetrieverOptions struct {
	poolFactor int
	logger     *slog.Logger
}

// VectorRetrieverOption は VectorRetriever のオプション設定
type VectorRetrieverOption func(*vectorRetrieverOptions)

// WithVectorLogger は VectorRetriever にロガーを設定する
func WithVectorLogger(logger *slog.Logger) VectorRetrieverOption {
	return func(o *vectorRetrieverOptions) {
		o.logger = logger
	}
}

// WithPoolFactor は候補プールの倍率を上書きする
func WithPoolFactor(factor int) VectorRetrieverOption {
	return func(o *vectorRetrieverOptions) {
		o.poolFactor = factor
	}
}

// NewVectorRetriever は新しいVectorRetrieverを作成する
func NewVectorRetriever(store corpus.Store, index Index, embedder Embedder, opts ...VectorRetrieverOption) *VectorRetriever {
	options := vectorRetrieverOptions{
		poolFactor: DefaultPoolFactor,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.poolFactor < 1 {
		options.poolFactor = DefaultPoolFactor
	}

	return &VectorRetriever{
		store:      store,
		index:      index,
		embedder:   embedder,
		poolFactor: options.poolFactor,
		logger:     options.logger,
	}
}

var _ Retriever = (*VectorRetriever)(nil)

// Retrieve はクエリに類似する求人レコードを最大topK件返す
// 同一求人の複数チャンクがヒットした場合、最初（最高類似度）のチャンクが
// その求人の順位を決める。候補プールが尽きた場合はtopK未満を返す
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, topK int) ([]*corpus.JobRecord, error) {
	if topK <= 0 {
		topK = 5
	}

	// 空クエリは類似度計算を行わず、コーパスの先頭topK件を返す
	if strings.TrimSpace(query) == "" {
		return headOfCorpus(ctx, r.store, topK)
	}

	// 1. クエリをEmbeddingに変換（失敗時はフォールバックせずエラーを返す）
	queryVector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("クエリのembedding生成に失敗: %w", err)
	}

	// 2. topKより大きい候補プールをチャンク単位で取得
	poolSize := topK * r.poolFactor
	hits, err := r.index.Search(ctx, queryVector, poolSize)
	if err != nil {
		return nil, fmt.Errorf("インデックス検索に失敗: %w", err)
	}

	// 3. 類似度降順に走査し、求人IDで重複排除（first-seen-wins）
	seen := make(map[string]struct{}, topK)
	results := make([]*corpus.JobRecord, 0, topK)
	for _, hit := range hits {
		if _, ok := seen[hit.JobID]; ok {
			continue
		}
		seen[hit.JobID] = struct{}{}

		record, err := r.store.Get(ctx, hit.JobID)
		if err != nil {
			return nil, fmt.Errorf("求人レコードの解決に失敗 (jobID=%s): %w", hit.JobID, err)
		}
		job, ok := record.Get()
		if !ok {
			// チャンクだけが残った孤児はスキップする
			r.logger.Warn("インデックスのチャンクに対応する求人が存在しません", "jobID", hit.JobID)
			continue
		}

		results = append(results, job)
		if len(results) >= topK {
			break
		}
	}

	r.logger.Debug("ベクトル検索が完了",
		"chunkHits", len(hits),
		"results", len(results),
		"topK", topK,
	)

	return results, nil
}

// headOfCorpus はコーパスの先頭topK件を順位付けなしで返す
// コーパスが空の場合はLexicalRetrieverと同様にErrNotInitializedを返す
func headOfCorpus(ctx context.Context, store corpus.Store, topK int) ([]*corpus.JobRecord, error) {
	jobs, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("コーパスの取得に失敗: %w", err)
	}
	if len(jobs) == 0 {
		return nil, ErrNotInitialized
	}
	if len(jobs) > topK {
		jobs = jobs[:topK]
	}
	return jobs, nil
}
