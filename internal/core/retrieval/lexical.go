package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jinford/jobmatch/internal/core/corpus"
)

// LexicalScore はクエリと候補テキストのキーワード重なり率を返す
// 定義: |クエリ語集合 ∩ 候補語集合| / |クエリ語集合|（クエリが空なら0）
// 大文字小文字を区別しない空白トークン化を用いる。決定的で副作用を持たない
func LexicalScore(query, candidate string) float64 {
	queryWords := tokenize(query)
	if len(queryWords) == 0 {
		return 0
	}
	candidateWords := tokenize(candidate)

	overlap := 0
	for word := range queryWords {
		if _, ok := candidateWords[word]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(queryWords))
}

func tokenize(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		words[w] = struct{}{}
	}
	return words
}

// LexicalRetriever はベクトルインデックスを使わず、コーパス全体の
// キーワード重なり率で順位付けする検索バックエンド
type LexicalRetriever struct {
	store  corpus.Store
	logger *slog.Logger
}

// LexicalRetrieverOption は LexicalRetriever のオプション設定
type LexicalRetrieverOption func(*LexicalRetriever)

// WithLexicalLogger は LexicalRetriever にロガーを設定する
func WithLexicalLogger(logger *slog.Logger) LexicalRetrieverOption {
	return func(r *LexicalRetriever) {
		r.logger = logger
	}
}

// NewLexicalRetriever は新しいLexicalRetrieverを作成する
func NewLexicalRetriever(store corpus.Store, opts ...LexicalRetrieverOption) *LexicalRetriever {
	r := &LexicalRetriever{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

var _ Retriever = (*LexicalRetriever)(nil)

// Retrieve はキーワード重なり率の降順で最大topK件の求人を返す
// 同スコアの順序はコーパス順（ID昇順）で安定している
func (r *LexicalRetriever) Retrieve(ctx context.Context, query string, topK int) ([]*corpus.JobRecord, error) {
	if topK <= 0 {
		topK = 5
	}

	jobs, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("コーパスの取得に失敗: %w", err)
	}
	if len(jobs) == 0 {
		return nil, ErrNotInitialized
	}

	// 空クエリは順位付けなしで先頭topK件を返す
	if strings.TrimSpace(query) == "" {
		if len(jobs) > topK {
			jobs = jobs[:topK]
		}
		return jobs, nil
	}

	type scored struct {
		job   *corpus.JobRecord
		score float64
	}
	ranked := make([]scored, 0, len(jobs))
	for _, job := range jobs {
		score := LexicalScore(query, job.Title+" "+job.Description)
		ranked = append(ranked, scored{job: job, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	results := make([]*corpus.JobRecord, 0, len(ranked))
	for _, s := range ranked {
		results = append(results, s.job)
	}

	r.logger.Debug("字句検索が完了", "corpus", len(jobs), "results", len(results), "topK", topK)

	return results, nil
}
