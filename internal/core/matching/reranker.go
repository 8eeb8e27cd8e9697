package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/jinford/jobmatch/internal/core/corpus"
)

var (
	// ErrNoJSONArray はレスポンス中にJSON配列の括弧が見つからない場合のエラー
	ErrNoJSONArray = errors.New("no JSON array found in response")

	// ErrUnexpectedCount は解析結果の件数が期待と一致しない場合のエラー
	ErrUnexpectedCount = errors.New("unexpected element count in response")
)

// Reranker は検索段の候補をLLMで再ランキングする
// LLM呼び出しや解析の失敗で呼び出し側にエラーを返すことはなく、
// 常に検索段の順位へのフォールバックを含むベストエフォートの結果を返す
type Reranker struct {
	llm     Client
	counter *TokenCounter
	logger  *slog.Logger
}

type rerankerOptions struct {
	counter *TokenCounter
	logger  *slog.Logger
}

// RerankerOption は Reranker のオプション設定
type RerankerOption func(*rerankerOptions)

// WithRerankerLogger は Reranker にロガーを設定する
func WithRerankerLogger(logger *slog.Logger) RerankerOption {
	return func(o *rerankerOptions) {
		o.logger = logger
	}
}

// WithRerankerTokenCounter は候補説明文のトリミングに使うTokenCounterを設定する
func WithRerankerTokenCounter(counter *TokenCounter) RerankerOption {
	return func(o *rerankerOptions) {
		o.counter = counter
	}
}

// NewReranker は新しいRerankerを作成する
func NewReranker(llm Client, opts ...RerankerOption) *Reranker {
	options := rerankerOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	return &Reranker{
		llm:     llm,
		counter: options.counter,
		logger:  options.logger,
	}
}

// Rerank は候補求人をLLMで再ランキングし、最大desiredCount件を返す
// 候補プールがdesiredCountより小さい場合は候補数まで縮む
// LLM失敗・解析失敗時は入力順の先頭desiredCount件に注釈なしで縮退する
func (r *Reranker) Rerank(ctx context.Context, profile string, candidates []*corpus.JobRecord, desiredCount int) *RerankResult {
	if desiredCount <= 0 {
		desiredCount = 5
	}
	expected := desiredCount
	if expected > len(candidates) {
		expected = len(candidates)
	}
	if expected == 0 {
		return &RerankResult{Matches: []RankedMatch{}}
	}

	prompt := BuildRerankPrompt(profile, candidates, expected, r.counter)

	raw, err := r.llm.GenerateCompletion(ctx, prompt)
	if err != nil {
		r.logger.Warn("LLM再ランキングに失敗したため検索順位にフォールバック",
			"error", err,
			"candidates", len(candidates),
		)
		return &RerankResult{
			Matches:        fallbackMatches(candidates, expected),
			Degraded:       true,
			DegradedReason: fmt.Sprintf("llm call failed: %v", err),
		}
	}

	matches, err := parseRankedMatches(raw, expected)
	if err != nil {
		r.logger.Warn("LLMレスポンスの解析に失敗したため検索順位にフォールバック",
			"error", err,
			"responseLength", len(raw),
		)
		return &RerankResult{
			Matches:        fallbackMatches(candidates, expected),
			Degraded:       true,
			DegradedReason: fmt.Sprintf("parse failed: %v", err),
		}
	}

	r.logger.Info("LLM再ランキングが完了", "matches", len(matches))

	return &RerankResult{Matches: matches}
}

// rankedMatchJSON はLLMレスポンスの1要素を緩く受けるための中間表現
// match_scoreは数値・小数どちらで返っても受理する
type rankedMatchJSON struct {
	Title          string  `json:"title"`
	Company        string  `json:"company"`
	Description    string  `json:"description"`
	RecruiterEmail string  `json:"recruiter_email"`
	MatchScore     float64 `json:"match_score"`
	Strength       string  `json:"strength"`
	Weakness       string  `json:"weakness"`
}

// parseRankedMatches はLLMの生レスポンスからJSON配列を抽出して解析する
// 最初の '[' と最後の ']' に挟まれた部分文字列のみをJSONとして扱い、
// 前後の散文は無視する。括弧がない・不正なJSON・件数不一致は解析失敗
func parseRankedMatches(raw string, expected int) ([]RankedMatch, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end < 0 || end <= start {
		return nil, ErrNoJSONArray
	}

	var parsed []rankedMatchJSON
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("JSON配列の解析に失敗: %w", err)
	}

	if len(parsed) != expected {
		return nil, fmt.Errorf("%w: got=%d want=%d", ErrUnexpectedCount, len(parsed), expected)
	}

	matches := make([]RankedMatch, 0, len(parsed))
	for _, p := range parsed {
		matches = append(matches, RankedMatch{
			Title:          p.Title,
			Company:        p.Company,
			Description:    p.Description,
			RecruiterEmail: p.RecruiterEmail,
			MatchScore:     clampScore(int(math.Round(p.MatchScore))),
			Strength:       p.Strength,
			Weakness:       p.Weakness,
		})
	}
	return matches, nil
}
