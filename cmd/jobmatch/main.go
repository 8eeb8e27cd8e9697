package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	appcli "github.com/jinford/jobmatch/internal/app/cli"
)

// envFlag は各コマンドで共通の環境変数ファイル指定フラグを生成する
func envFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "env",
		Usage: "環境変数ファイルパス",
		Value: ".env",
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 構造化ログの設定
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	app := &cli.Command{
		Name:  "jobmatch",
		Usage: "CVと求人コーパスをマッチングするRAGシステム",
		Commands: []*cli.Command{
			{
				Name:  "index",
				Usage: "インデックス管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "load",
						Usage: "求人フィードCSVを取り込みインデックス化",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:  "feed",
								Usage: "求人フィードCSVのパス（省略時はJOB_FEED_PATH）",
							},
							&cli.BoolFlag{
								Name:  "reindex-all",
								Usage: "フィード外も含むコーパス全体を再インデックス化",
							},
						},
						Action: appcli.IndexLoadAction,
					},
				},
			},
			{
				Name:  "match",
				Usage: "マッチングコマンド",
				Commands: []*cli.Command{
					{
						Name:  "run",
						Usage: "候補者プロフィールに対するマッチングを実行",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:  "profile",
								Usage: "候補者プロフィール（検索クエリ）",
							},
							&cli.StringFlag{
								Name:  "cv-file",
								Usage: "CVテキストファイルのパス（LLMで要約して検索クエリにする）",
							},
							&cli.IntFlag{
								Name:  "top-k",
								Usage: "返却する求人件数",
								Value: 5,
							},
						},
						Action: appcli.MatchRunAction,
					},
				},
			},
			{
				Name:  "jobs",
				Usage: "求人コーパス管理コマンド",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "求人一覧を表示",
						Flags:  []cli.Flag{envFlag()},
						Action: appcli.JobsListAction,
					},
					{
						Name:  "show",
						Usage: "求人詳細を表示",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:     "id",
								Usage:    "求人ID",
								Required: true,
							},
						},
						Action: appcli.JobsShowAction,
					},
					{
						Name:   "refine",
						Usage:  "求人説明文をLLMで構造化JSONに要約",
						Flags:  []cli.Flag{envFlag()},
						Action: appcli.JobsRefineAction,
					},
				},
			},
			{
				Name:  "profile",
				Usage: "候補者プロフィールコマンド",
				Commands: []*cli.Command{
					{
						Name:  "summarize",
						Usage: "CVテキストを約100語のプロフィールに要約",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:     "cv-file",
								Usage:    "CVテキストファイルのパス",
								Required: true,
							},
						},
						Action: appcli.ProfileSummarizeAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
