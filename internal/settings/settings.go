// Package settings はKVストアに永続化されるパイプライン設定を提供する。
// 実行の開始時に1回読み込み、実行中は変更しない。
package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/maildigest/internal/model"
	"github.com/hitoshi/maildigest/internal/repository"
)

// StorageKey はパイプライン設定のKVストア上のキー。
const StorageKey = "digest_config_v1"

// 設定値の上限。APIからの更新時にこの範囲へクランプされる。
const (
	maxMessagesCap = 30
	maxItemsCap    = 100
)

// PipelineConfig はダイジェストパイプラインの設定を保持する。
type PipelineConfig struct {
	// LabelName は優先的に探索するGmailラベル名。
	LabelName string `json:"label_name"`
	// FallbackQuery はラベルが見つからない場合に使うGmail検索クエリ。
	FallbackQuery string `json:"fallback_query"`
	// MaxMessagesToRead は1回の実行で読むメール数の上限。
	MaxMessagesToRead int `json:"max_messages_to_read"`
	// MaxItemsToReturn は返却する記事数の上限。
	MaxItemsToReturn int `json:"max_items_to_return"`
	// SeenTTLDays はseenキャッシュの生存日数。
	SeenTTLDays int `json:"seen_ttl_days"`
	// MinTitleLength はタイトルとして採用する最小文字数（ルーン数）。
	MinTitleLength int `json:"min_title_length"`
	// SnippetMaxLen はスニペットの最大文字数（ルーン数）。
	SnippetMaxLen int `json:"snippet_max_len"`
	// AlertFeedURLs はメールに加えて読むGoogle AlertsのRSSフィードURL一覧。
	AlertFeedURLs []string `json:"alert_feed_urls,omitempty"`
}

// Default はパイプライン設定のデフォルト値を返す。
func Default() PipelineConfig {
	return PipelineConfig{
		LabelName:         "뉴스요약",
		FallbackQuery:     `newer_than:14d (from:googlealerts-noreply@google.com OR from:googlealerts-noreply OR subject:"Google 알림" OR subject:"Google Alerts")`,
		MaxMessagesToRead: 8,
		MaxItemsToReturn:  30,
		SeenTTLDays:       7,
		MinTitleLength:    12,
		SnippetMaxLen:     320,
	}
}

// Service はパイプライン設定の読み込みと保存を提供する。
type Service struct {
	repo repository.KeyValueRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.KeyValueRepository) *Service {
	return &Service{repo: repo}
}

// Load は永続化された設定を読み込み、欠けているフィールドにデフォルト値を適用して返す。
// 未保存または壊れたJSONの場合はデフォルト値をそのまま返す。
func (s *Service) Load(ctx context.Context) (PipelineConfig, error) {
	cfg := Default()

	raw, ok, err := s.repo.Get(ctx, StorageKey)
	if err != nil {
		return cfg, fmt.Errorf("failed to load pipeline config: %w", err)
	}
	if !ok || raw == "" {
		return cfg, nil
	}

	// デフォルト値の上にアンマーシャルすることで部分保存をマージする
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return Default(), nil
	}

	return applyBounds(cfg), nil
}

// Save は設定をクランプして永続化し、保存された値を返す。
// 不正な値（非正の件数上限など）はエラーを返す。
func (s *Service) Save(ctx context.Context, cfg PipelineConfig) (PipelineConfig, error) {
	if cfg.LabelName == "" && cfg.FallbackQuery == "" {
		return cfg, model.NewSettingsInvalidError("ラベル名とフォールバッククエリの両方は空にできません")
	}
	if cfg.MaxMessagesToRead < 1 || cfg.MaxItemsToReturn < 1 {
		return cfg, model.NewSettingsInvalidError("件数上限は1以上を指定してください")
	}
	if cfg.SeenTTLDays < 1 {
		return cfg, model.NewSettingsInvalidError("seen_ttl_daysは1以上を指定してください")
	}

	cfg = applyBounds(cfg)

	blob, err := json.Marshal(cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to encode pipeline config: %w", err)
	}
	if err := s.repo.Set(ctx, StorageKey, string(blob)); err != nil {
		return cfg, fmt.Errorf("failed to save pipeline config: %w", err)
	}

	return cfg, nil
}

// applyBounds は件数上限を許容範囲にクランプし、非正値にデフォルトを適用する。
func applyBounds(cfg PipelineConfig) PipelineConfig {
	def := Default()

	if cfg.MaxMessagesToRead < 1 {
		cfg.MaxMessagesToRead = def.MaxMessagesToRead
	}
	if cfg.MaxMessagesToRead > maxMessagesCap {
		cfg.MaxMessagesToRead = maxMessagesCap
	}
	if cfg.MaxItemsToReturn < 1 {
		cfg.MaxItemsToReturn = def.MaxItemsToReturn
	}
	if cfg.MaxItemsToReturn > maxItemsCap {
		cfg.MaxItemsToReturn = maxItemsCap
	}
	if cfg.SeenTTLDays < 1 {
		cfg.SeenTTLDays = def.SeenTTLDays
	}
	if cfg.MinTitleLength < 1 {
		cfg.MinTitleLength = def.MinTitleLength
	}
	if cfg.SnippetMaxLen < 1 {
		cfg.SnippetMaxLen = def.SnippetMaxLen
	}

	return cfg
}
