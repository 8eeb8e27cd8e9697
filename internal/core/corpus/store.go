package corpus

import (
	"context"

	"github.com/samber/mo"
)

// Store は求人コーパスへのデータアクセスを統合するインターフェース
// テスト時のモック用に消費者側で定義
type Store interface {
	// Get はIDで求人レコードを取得する
	Get(ctx context.Context, id string) (mo.Option[*JobRecord], error)

	// List は全求人レコードをID昇順で取得する
	List(ctx context.Context) ([]*JobRecord, error)

	// Upsert は (title, company) 一致で更新、なければ新規作成する
	// 返り値はID採番済みの保存後レコード
	Upsert(ctx context.Context, record *JobRecord) (*JobRecord, error)

	// Count はコーパスの求人件数を返す
	Count(ctx context.Context) (int, error)
}
