package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

// MatchRunAction は候補者プロフィールに対するマッチングを実行するアクション
func MatchRunAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	profileText := cmd.String("profile")
	cvFile := cmd.String("cv-file")
	topK := cmd.Int("top-k")

	if profileText == "" && cvFile == "" {
		return fmt.Errorf("--profile または --cv-file のいずれかを指定してください")
	}

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	// CVファイル指定時はLLMでプロフィールに要約してから検索クエリにする
	if profileText == "" {
		cvBytes, err := os.ReadFile(cvFile)
		if err != nil {
			return fmt.Errorf("CVファイルの読み込みに失敗: %w", err)
		}

		profileText, err = appCtx.Container.ProfileService.Summarize(ctx, string(cvBytes))
		if err != nil {
			return fmt.Errorf("CVサマリの生成に失敗: %w", err)
		}

		slog.Info("CVサマリを検索クエリに使用", "summary", profileText)
	}

	result, err := appCtx.Container.Matcher.Match(ctx, profileText, topK)
	if err != nil {
		slog.Error("マッチングに失敗しました", "error", err)
		return err
	}

	if result.Degraded {
		fmt.Printf("注意: LLM再ランキングに失敗したため検索順で表示します (%s)\n\n", result.DegradedReason)
	}

	for i, match := range result.Matches {
		fmt.Printf("[%d] %s / %s (スコア: %d)\n", i+1, match.Title, match.Company, match.MatchScore)
		if match.Strength != "" {
			fmt.Printf("    強み: %s\n", match.Strength)
		}
		if match.Weakness != "" {
			fmt.Printf("    懸念: %s\n", match.Weakness)
		}
		if match.RecruiterEmail != "" {
			fmt.Printf("    連絡先: %s\n", match.RecruiterEmail)
		}
		fmt.Println()
	}

	if len(result.Matches) == 0 {
		fmt.Println("マッチする求人が見つかりませんでした")
	}
	return nil
}
