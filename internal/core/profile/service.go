package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrEmptyCV はCVテキストが空の場合に返される
var ErrEmptyCV = errors.New("cv text is empty")

// Client はLLM通信インターフェース
type Client interface {
	GenerateCompletion(ctx context.Context, prompt string) (string, error)
}

// Service はCVテキストから検索クエリとなる候補者プロフィールを生成する
type Service struct {
	llm    Client
	logger *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*Service)

// WithServiceLogger は Service にロガーを設定する
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService は新しいServiceを作成する
func NewService(llm Client, opts ...ServiceOption) *Service {
	s := &Service{
		llm:    llm,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Summarize はCVの生テキストを約100語の職務サマリに要約する
// 要約はそのまま検索クエリ（CandidateProfile）として使われる
// LLM呼び出しの失敗はそのままエラーとして伝播する
func (s *Service) Summarize(ctx context.Context, cvText string) (string, error) {
	if strings.TrimSpace(cvText) == "" {
		return "", ErrEmptyCV
	}

	prompt := buildSummaryPrompt(cvText)

	s.logger.Info("CVサマリを生成", "cvLength", len(cvText))

	summary, err := s.llm.GenerateCompletion(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("CVサマリの生成に失敗: %w", err)
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", fmt.Errorf("LLMが空のサマリを返しました")
	}

	s.logger.Info("CVサマリの生成が完了", "summaryLength", len(summary))

	return summary, nil
}

func buildSummaryPrompt(cvText string) string {
	var sb strings.Builder
	sb.WriteString("以下のCV（履歴書）テキストから、候補者の職務サマリを作成してください。\n")
	sb.WriteString("スキル・学歴・職歴・強みを網羅した約100語の英語の散文とし、\n")
	sb.WriteString("箇条書きや見出しを使わないこと。サマリ本文のみを出力すること。\n\n")
	sb.WriteString("CVテキスト:\n")
	sb.WriteString(cvText)
	return sb.String()
}
