package matching

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jinford/jobmatch/internal/core/retrieval"
)

// DefaultTopK はマッチング件数のデフォルト値
const DefaultTopK = 5

// Matcher はマッチングパイプライン全体を合成するオーケストレータ
// 安価で広い検索段（2×topK）と高価で精密なLLM再ランキング段（topK）の
// 2段構成でLLMトークン消費とレイテンシを抑えつつ再現率を保つ
type Matcher struct {
	retriever retrieval.Retriever
	reranker  *Reranker
	logger    *slog.Logger
}

// MatcherOption は Matcher のオプション設定
type MatcherOption func(*Matcher)

// WithMatcherLogger は Matcher にロガーを設定する
func WithMatcherLogger(logger *slog.Logger) MatcherOption {
	return func(m *Matcher) {
		m.logger = logger
	}
}

// NewMatcher は新しいMatcherを作成する
// 検索バックエンド（ベクトル/字句）は構築時に注入され、実行中に切り替わらない
func NewMatcher(retriever retrieval.Retriever, reranker *Reranker, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		retriever: retriever,
		reranker:  reranker,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Match は候補者プロフィールに最適な求人を最大topK件返す
// 検索段の失敗（未初期化・embedding失敗）はエラーとして呼び出し側に伝播し、
// LLM段の失敗は縮退結果（Degraded=true）として返る
func (m *Matcher) Match(ctx context.Context, profileText string, topK int) (*RerankResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	// 1. 粗い検索段: 再ランキングの再現率を確保するため2倍過剰取得する
	poolSize := topK * 2
	m.logger.Info("候補求人を検索", "topK", topK, "poolSize", poolSize)

	candidates, err := m.retriever.Retrieve(ctx, profileText, poolSize)
	if err != nil {
		return nil, fmt.Errorf("候補求人の検索に失敗: %w", err)
	}

	m.logger.Info("候補求人の検索が完了", "candidates", len(candidates))

	// 2. 精密な再ランキング段: 失敗しても検索順位で縮退する
	result := m.reranker.Rerank(ctx, profileText, candidates, topK)

	m.logger.Info("マッチングが完了",
		"matches", len(result.Matches),
		"degraded", result.Degraded,
	)

	return result, nil
}
