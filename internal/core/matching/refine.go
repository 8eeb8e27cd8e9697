package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jinford/jobmatch/internal/core/corpus"
)

// JobSummary は1求人のLLM要約結果を表す
type JobSummary struct {
	Company     string `json:"Company"`
	JobTitle    string `json:"JobTitle"`
	Remote      string `json:"Remote"`
	Description string `json:"Description"`
	Email       string `json:"Email"`

	// Degraded は要約に失敗し、元の説明文をそのまま載せたことを示す
	Degraded bool `json:"-"`
}

// Refiner は求人説明文を構造化JSONに要約する
// 1求人ごとに独立してLLMを呼び、失敗した求人は元の説明文に縮退する
type Refiner struct {
	llm    Client
	logger *slog.Logger
}

// RefinerOption は Refiner のオプション設定
type RefinerOption func(*Refiner)

// WithRefinerLogger は Refiner にロガーを設定する
func WithRefinerLogger(logger *slog.Logger) RefinerOption {
	return func(r *Refiner) {
		r.logger = logger
	}
}

// NewRefiner は新しいRefinerを作成する
func NewRefiner(llm Client, opts ...RefinerOption) *Refiner {
	r := &Refiner{
		llm:    llm,
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

// Refine は求人レコード群を1件ずつ要約する
// コンテキストのキャンセルのみがエラーとして返る
func (r *Refiner) Refine(ctx context.Context, jobs []*corpus.JobRecord) ([]JobSummary, error) {
	summaries := make([]JobSummary, 0, len(jobs))
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		summary := r.refineJob(ctx, job)
		summaries = append(summaries, summary)
	}

	r.logger.Info("求人の要約が完了", "jobs", len(jobs))

	return summaries, nil
}

func (r *Refiner) refineJob(ctx context.Context, job *corpus.JobRecord) JobSummary {
	prompt := buildRefinePrompt(job)

	fallback := JobSummary{
		Company:     job.Company,
		JobTitle:    job.Title,
		Remote:      string(job.Remote),
		Description: job.Description,
		Email:       job.RecruiterEmail,
		Degraded:    true,
	}

	raw, err := r.llm.GenerateCompletion(ctx, prompt)
	if err != nil {
		r.logger.Warn("求人要約のLLM呼び出しに失敗", "jobID", job.ID, "error", err)
		return fallback
	}

	summary, err := parseJobSummary(raw)
	if err != nil {
		r.logger.Warn("求人要約の解析に失敗", "jobID", job.ID, "error", err)
		return fallback
	}
	return summary
}

// buildRefinePrompt は1求人の要約プロンプトを構築する
func buildRefinePrompt(job *corpus.JobRecord) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("次の求人（%s at %s）をSTRICT JSONで要約してください。\n", job.Title, job.Company))
	sb.WriteString(`キーは Company, JobTitle, Remote, Description, Email とし、` + "\n")
	sb.WriteString("Remoteは\"yes\"または\"not\"、Descriptionは150語以内に収めること。\n\n")
	sb.WriteString("求人説明:\n")
	sb.WriteString(job.Description)
	sb.WriteString("\n\nJSONのみを出力すること。\n")
	return sb.String()
}

// parseJobSummary はLLMレスポンスからJSONオブジェクトを抽出して解析する
// 最初の '{' と最後の '}' に挟まれた部分文字列のみをJSONとして扱う
func parseJobSummary(raw string) (JobSummary, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < 0 || end <= start {
		return JobSummary{}, fmt.Errorf("レスポンスにJSONオブジェクトが見つかりません")
	}

	var summary JobSummary
	if err := json.Unmarshal([]byte(raw[start:end+1]), &summary); err != nil {
		return JobSummary{}, fmt.Errorf("JSONオブジェクトの解析に失敗: %w", err)
	}
	return summary, nil
}
