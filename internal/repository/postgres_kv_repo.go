package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresKVRepo はKeyValueRepositoryのPostgreSQL実装。
type PostgresKVRepo struct {
	db *sql.DB
}

// NewPostgresKVRepo はPostgresKVRepoの新しいインスタンスを生成する。
func NewPostgresKVRepo(db *sql.DB) *PostgresKVRepo {
	return &PostgresKVRepo{db: db}
}

// Get は指定キーの値を取得する。キーが存在しない場合は空文字列とfalseを返す。
func (r *PostgresKVRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE key = $1`,
		key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get kv entry %q: %w", key, err)
	}
	return value, true, nil
}

// Set は指定キーに値を冪等に保存する。既存の値は上書きされる。
func (r *PostgresKVRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set kv entry %q: %w", key, err)
	}
	return nil
}
