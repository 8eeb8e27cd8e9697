package matching

import (
	"context"

	"github.com/jinford/jobmatch/internal/core/corpus"
)

// Client はLLM通信インターフェース
// 返却テキストが正しいJSONである保証はなく、呼び出し側が防御的に解析する
type Client interface {
	GenerateCompletion(ctx context.Context, prompt string) (string, error)
}

// RankedMatch はLLM再ランキングの1件の結果を表す
type RankedMatch struct {
	Title          string `json:"title"`
	Company        string `json:"company"`
	Description    string `json:"description"`
	RecruiterEmail string `json:"recruiter_email"`
	MatchScore     int    `json:"match_score"`
	Strength       string `json:"strength"`
	Weakness       string `json:"weakness"`
}

// RerankResult は再ランキングの結果とその品質を表す
// LLM呼び出しや解析の失敗は呼び出し側へエラーとしては伝播せず、
// Degradedとその理由として明示的に記録される
type RerankResult struct {
	Matches []RankedMatch

	// Degraded はLLMによる注釈付けに失敗し、検索段の順位に
	// フォールバックしたことを示す
	Degraded bool

	// DegradedReason はフォールバックの原因（ログ・診断用）
	DegradedReason string
}

// clampScore はmatch_scoreを[0, 100]の整数範囲に丸める
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// fallbackMatches は候補の先頭count件を注釈なしで変換する
func fallbackMatches(candidates []*corpus.JobRecord, count int) []RankedMatch {
	if count > len(candidates) {
		count = len(candidates)
	}
	matches := make([]RankedMatch, 0, count)
	for _, job := range candidates[:count] {
		matches = append(matches, RankedMatch{
			Title:          job.Title,
			Company:        job.Company,
			Description:    job.Description,
			RecruiterEmail: job.RecruiterEmail,
		})
	}
	return matches
}
