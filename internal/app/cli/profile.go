package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// ProfileSummarizeAction はCVテキストを候補者プロフィールに要約するアクション
func ProfileSummarizeAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	cvFile := cmd.String("cv-file")

	if cvFile == "" {
		return fmt.Errorf("--cv-file を指定してください")
	}

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	cvBytes, err := os.ReadFile(cvFile)
	if err != nil {
		return fmt.Errorf("CVファイルの読み込みに失敗: %w", err)
	}

	summary, err := appCtx.Container.ProfileService.Summarize(ctx, string(cvBytes))
	if err != nil {
		return fmt.Errorf("CVサマリの生成に失敗: %w", err)
	}

	fmt.Println(summary)
	return nil
}
