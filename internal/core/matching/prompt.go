package matching

import (
	"fmt"
	"strings"

	"github.com/jinford/jobmatch/internal/core/corpus"
)

// DefaultDescriptionTokenLimit は候補1件あたりの説明文のトークン上限
// プロンプト全体のトークン消費とレイテンシを抑えるための予算
const DefaultDescriptionTokenLimit = 400

// BuildRerankPrompt は再ランキング用のプロンプトを構築する
// 候補は1始まりの番号付きリストで列挙し、件数ちょうどの
// STRICT JSON配列のみを返すようLLMに指示する
func BuildRerankPrompt(profile string, candidates []*corpus.JobRecord, desiredCount int, counter *TokenCounter) string {
	var sb strings.Builder

	sb.WriteString("あなたは求人マッチングの専門家です。\n")
	sb.WriteString("候補者のプロフィールは以下の通りです:\n\n")
	sb.WriteString(profile)
	sb.WriteString("\n\n")

	sb.WriteString("マッチング候補の求人一覧:\n")
	for i, job := range candidates {
		description := job.Description
		if counter != nil {
			description = counter.TrimToTokenLimit(description, DefaultDescriptionTokenLimit)
		}
		sb.WriteString(fmt.Sprintf("%d. %s at %s\n%s\n\n", i+1, job.Title, job.Company, description))
	}

	sb.WriteString(fmt.Sprintf("上記から最適な%d件を選んでください。\n", desiredCount))
	sb.WriteString("出力はSTRICT JSON配列のみとし、各要素は次のキーを持つこと:\n")
	sb.WriteString(`{
  "title": "",
  "company": "",
  "description": "",
  "recruiter_email": "",
  "match_score": 0-100,
  "strength": "",
  "weakness": ""
}`)
	sb.WriteString("\nJSON以外のテキストを出力しないこと。\n")

	return sb.String()
}
