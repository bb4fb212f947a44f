// Package seen は過去の実行で返した記事URLを一定期間抑制するためのキャッシュを提供する。
// 実体は注入されたKeyValueRepository上の1エントリに格納される
// 正規化URL→失効時刻(エポックミリ秒)のフラットなマップであり、
// ロード時に失効済みエントリを遅延削除する。
package seen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hitoshi/maildigest/internal/model"
	"github.com/hitoshi/maildigest/internal/repository"
)

// StorageKey はseenキャッシュのKVストア上のキー。
const StorageKey = "seen_article_urls_v1"

// Cache はseenキャッシュを表す。
// ライフサイクルは明示的で、実行の先頭でLoadを1回、末尾でMarkSeenを1回だけ呼ぶ。
// 並行アクセスは想定しない。
type Cache struct {
	repo repository.KeyValueRepository
	now  func() time.Time

	entries map[string]int64 // canonicalURL -> expiresAtEpochMs
}

// NewCache はCacheの新しいインスタンスを生成する。
func NewCache(repo repository.KeyValueRepository) *Cache {
	return &Cache{
		repo: repo,
		now:  time.Now,
	}
}

// Load は永続化されたseenマップを読み込み、失効済みエントリを削除して書き戻す。
// 格納されたJSONが壊れている場合は空のマップとして扱う（エラーにしない）。
func (c *Cache) Load(ctx context.Context) error {
	c.entries = make(map[string]int64)

	raw, ok, err := c.repo.Get(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("failed to load seen cache: %w", err)
	}
	if !ok || raw == "" {
		return nil
	}

	var stored map[string]int64
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		// 壊れたblobは空として扱い、次回のMarkSeenで上書きされる
		return nil
	}

	nowMs := c.now().UnixMilli()
	pruned := false
	for url, expiresAt := range stored {
		if expiresAt <= nowMs {
			pruned = true
			continue
		}
		c.entries[url] = expiresAt
	}

	if pruned {
		if err := c.save(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Contains は指定URLに失効していないエントリが存在するかどうかを返す。
func (c *Cache) Contains(canonicalURL string) bool {
	expiresAt, ok := c.entries[canonicalURL]
	if !ok {
		return false
	}
	return expiresAt > c.now().UnixMilli()
}

// FilterSeen は失効していないseenエントリを持つ記事を除外して返す。
func (c *Cache) FilterSeen(articles []model.Article) []model.Article {
	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		if c.Contains(a.CanonicalURL) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// MarkSeen は最終的に返却される記事のURLに now+ttl の失効時刻を設定し、永続化する。
// 既存エントリの失効時刻も更新（リフレッシュ）される。
func (c *Cache) MarkSeen(ctx context.Context, articles []model.Article, ttlDays int) error {
	if ttlDays < 1 {
		ttlDays = 1
	}
	expiresAt := c.now().Add(time.Duration(ttlDays) * 24 * time.Hour).UnixMilli()

	for _, a := range articles {
		if a.CanonicalURL == "" {
			continue
		}
		c.entries[a.CanonicalURL] = expiresAt
	}

	return c.save(ctx)
}

func (c *Cache) save(ctx context.Context) error {
	blob, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("failed to encode seen cache: %w", err)
	}
	if err := c.repo.Set(ctx, StorageKey, string(blob)); err != nil {
		return fmt.Errorf("failed to save seen cache: %w", err)
	}
	return nil
}
