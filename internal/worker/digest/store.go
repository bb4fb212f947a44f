// Package digest はダイジェストのバックグラウンド生成と
// 最新結果のキャッシュを提供する。
package digest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/maildigest/internal/model"
	"github.com/hitoshi/maildigest/internal/pipeline"
	"github.com/hitoshi/maildigest/internal/repository"
)

// StorageKey は最新ダイジェストのKVストア上のキー。
const StorageKey = "latest_digest_v1"

// Store は最新のダイジェスト結果をKVストアに保持する。
// GET /api/digest はGmailを叩かずにこのキャッシュを返す。
type Store struct {
	repo repository.KeyValueRepository
}

// NewStore はStoreの新しいインスタンスを生成する。
func NewStore(repo repository.KeyValueRepository) *Store {
	return &Store{repo: repo}
}

// Save は実行結果をJSONとして保存する。
func (s *Store) Save(ctx context.Context, result *pipeline.Result) error {
	blob, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode digest result: %w", err)
	}
	if err := s.repo.Set(ctx, StorageKey, string(blob)); err != nil {
		return fmt.Errorf("failed to save digest result: %w", err)
	}
	return nil
}

// Latest は最後に保存された実行結果を返す。
// 未保存または壊れたJSONの場合はDigestNotReadyエラーを返す。
func (s *Store) Latest(ctx context.Context) (*pipeline.Result, error) {
	raw, ok, err := s.repo.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load digest result: %w", err)
	}
	if !ok || raw == "" {
		return nil, model.NewDigestNotReadyError()
	}

	var result pipeline.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, model.NewDigestNotReadyError()
	}
	return &result, nil
}
