package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/jinford/jobmatch/internal/core/corpus"
)

// IndexLoadAction は求人フィードをコーパスに取り込み、インデックス化するアクション
func IndexLoadAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	feedPath := cmd.String("feed")
	reindexAll := cmd.Bool("reindex-all")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if feedPath == "" {
		feedPath = appCtx.Config.JobFeedPath
	}
	if feedPath == "" {
		return fmt.Errorf("求人フィードのパスを指定してください（--feed または JOB_FEED_PATH）")
	}

	slog.Info("求人フィードの取り込みを開始", "feed", feedPath, "reindexAll", reindexAll)

	// 1. フィードCSVを読み込む
	file, err := os.Open(feedPath)
	if err != nil {
		return fmt.Errorf("フィードファイルのオープンに失敗: %w", err)
	}
	defer file.Close()

	rows, err := corpus.ReadFeed(file)
	if err != nil {
		return fmt.Errorf("フィードの読み込みに失敗: %w", err)
	}

	// 2. コーパスへUpsert
	store := appCtx.Container.Store
	upserted := make([]*corpus.JobRecord, 0, len(rows))
	for _, row := range rows {
		record, err := store.Upsert(ctx, row.ToRecord())
		if err != nil {
			return fmt.Errorf("求人の登録に失敗 (title=%q company=%q): %w", row.Title, row.Company, err)
		}
		upserted = append(upserted, record)
	}

	slog.Info("コーパスへの登録が完了", "jobs", len(upserted))

	// 3. インデックス化（--reindex-all 指定時はコーパス全体を対象にする）
	targets := upserted
	if reindexAll {
		targets, err = store.List(ctx)
		if err != nil {
			return fmt.Errorf("コーパスの取得に失敗: %w", err)
		}
	}

	result, err := appCtx.Container.IndexService.IndexJobs(ctx, targets)
	if err != nil {
		return fmt.Errorf("インデックス化に失敗: %w", err)
	}

	fmt.Printf("インデックス化完了: %d件成功 / %d件失敗 / %dチャンク (%s)\n",
		result.IndexedJobs, result.FailedJobs, result.TotalChunks, result.Duration)

	if result.FailedJobs > 0 {
		return fmt.Errorf("%d件の求人のインデックス化に失敗しました", result.FailedJobs)
	}
	return nil
}
