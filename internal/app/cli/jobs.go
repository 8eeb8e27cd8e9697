package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// JobsListAction はコーパスの求人一覧を表示するアクション
func JobsListAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	records, err := appCtx.Container.Store.List(ctx)
	if err != nil {
		return fmt.Errorf("求人一覧の取得に失敗: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("求人が登録されていません")
		return nil
	}

	for _, record := range records {
		fmt.Printf("%s\t%s\t%s\t%s\n", record.ID, record.Title, record.Company, record.Location)
	}
	fmt.Printf("合計: %d件\n", len(records))
	return nil
}

// JobsShowAction は求人の詳細を表示するアクション
func JobsShowAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	id := cmd.String("id")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	opt, err := appCtx.Container.Store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("求人の取得に失敗: %w", err)
	}

	record, ok := opt.Get()
	if !ok {
		return fmt.Errorf("求人が見つかりません: %s", id)
	}

	fmt.Println(record.Serialize())
	if record.RecruiterEmail != "" {
		fmt.Printf("\nRecruiter: %s\n", record.RecruiterEmail)
	}
	return nil
}

// JobsRefineAction はコーパスの求人をLLMで構造化JSON要約に変換するアクション
func JobsRefineAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	records, err := appCtx.Container.Store.List(ctx)
	if err != nil {
		return fmt.Errorf("求人一覧の取得に失敗: %w", err)
	}

	if len(records) == 0 {
		return fmt.Errorf("求人が登録されていません")
	}

	summaries, err := appCtx.Container.Refiner.Refine(ctx, records)
	if err != nil {
		return fmt.Errorf("求人要約に失敗: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summaries); err != nil {
		return fmt.Errorf("要約結果の出力に失敗: %w", err)
	}
	return nil
}
