package settings

import (
	"context"
	"reflect"
	"testing"

	"github.com/hitoshi/maildigest/internal/repository"
)

func TestLoad_NoStoredConfig_ReturnsDefaults(t *testing.T) {
	ctx := context.Background()
	svc := NewService(repository.NewMemoryKVRepo())

	cfg, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	def := Default()
	if cfg.LabelName != def.LabelName {
		t.Errorf("LabelName = %q, want %q", cfg.LabelName, def.LabelName)
	}
	if cfg.MaxMessagesToRead != 8 {
		t.Errorf("MaxMessagesToRead = %d, want 8", cfg.MaxMessagesToRead)
	}
	if cfg.MaxItemsToReturn != 30 {
		t.Errorf("MaxItemsToReturn = %d, want 30", cfg.MaxItemsToReturn)
	}
	if cfg.SeenTTLDays != 7 {
		t.Errorf("SeenTTLDays = %d, want 7", cfg.SeenTTLDays)
	}
	if cfg.MinTitleLength != 12 {
		t.Errorf("MinTitleLength = %d, want 12", cfg.MinTitleLength)
	}
	if cfg.SnippetMaxLen != 320 {
		t.Errorf("SnippetMaxLen = %d, want 320", cfg.SnippetMaxLen)
	}
}

func TestLoad_PartialStoredConfig_MergesDefaults(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryKVRepo()
	if err := repo.Set(ctx, StorageKey, `{"label_name":"Tech News","max_messages_to_read":5}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	svc := NewService(repo)
	cfg, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LabelName != "Tech News" {
		t.Errorf("LabelName = %q, want %q", cfg.LabelName, "Tech News")
	}
	if cfg.MaxMessagesToRead != 5 {
		t.Errorf("MaxMessagesToRead = %d, want 5", cfg.MaxMessagesToRead)
	}
	// 保存されていないフィールドはデフォルトが残る
	if cfg.SeenTTLDays != 7 {
		t.Errorf("SeenTTLDays = %d, want default 7", cfg.SeenTTLDays)
	}
}

func TestLoad_CorruptJSON_FallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryKVRepo()
	if err := repo.Set(ctx, StorageKey, "{broken"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	svc := NewService(repo)
	cfg, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("corrupt config should fall back to defaults, got %+v", cfg)
	}
}

func TestSave_ClampsToBounds(t *testing.T) {
	ctx := context.Background()
	svc := NewService(repository.NewMemoryKVRepo())

	cfg := Default()
	cfg.MaxMessagesToRead = 500
	cfg.MaxItemsToReturn = 500

	saved, err := svc.Save(ctx, cfg)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.MaxMessagesToRead != 30 {
		t.Errorf("MaxMessagesToRead = %d, want clamp to 30", saved.MaxMessagesToRead)
	}
	if saved.MaxItemsToReturn != 100 {
		t.Errorf("MaxItemsToReturn = %d, want clamp to 100", saved.MaxItemsToReturn)
	}
}

func TestSave_InvalidValuesRejected(t *testing.T) {
	ctx := context.Background()
	svc := NewService(repository.NewMemoryKVRepo())

	cfg := Default()
	cfg.MaxMessagesToRead = 0
	if _, err := svc.Save(ctx, cfg); err == nil {
		t.Error("expected error for zero max_messages_to_read")
	}

	cfg = Default()
	cfg.LabelName = ""
	cfg.FallbackQuery = ""
	if _, err := svc.Save(ctx, cfg); err == nil {
		t.Error("expected error when both label and fallback query are empty")
	}
}

func TestSave_ThenLoad_RoundTrips(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryKVRepo()
	svc := NewService(repo)

	cfg := Default()
	cfg.LabelName = "AI Digest"
	cfg.AlertFeedURLs = []string{"https://www.google.com/alerts/feeds/123/456"}

	if _, err := svc.Save(ctx, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.LabelName != "AI Digest" {
		t.Errorf("LabelName = %q, want %q", loaded.LabelName, "AI Digest")
	}
	if len(loaded.AlertFeedURLs) != 1 || loaded.AlertFeedURLs[0] != "https://www.google.com/alerts/feeds/123/456" {
		t.Errorf("AlertFeedURLs = %v", loaded.AlertFeedURLs)
	}
}
