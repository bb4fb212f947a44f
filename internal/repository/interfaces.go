// Package repository はデータ永続化のインターフェースを定義する。
package repository

import "context"

// KeyValueRepository はフラットなキーバリュー永続化のインターフェース。
// パイプライン設定・seenキャッシュ・最新ダイジェストはすべて
// JSON文字列として、それぞれ固有のキーの下に保存される。
type KeyValueRepository interface {
	// Get は指定キーの値を取得する。キーが存在しない場合は空文字列とfalseを返す。
	Get(ctx context.Context, key string) (string, bool, error)

	// Set は指定キーに値を冪等に保存する。既存の値は上書きされる。
	Set(ctx context.Context, key, value string) error
}
