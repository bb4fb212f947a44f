package repository

import (
	"context"
	"sync"
)

// MemoryKVRepo はKeyValueRepositoryのインメモリ実装。
// テストおよびデータベースなしでの動作確認に使用する。
type MemoryKVRepo struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryKVRepo はMemoryKVRepoの新しいインスタンスを生成する。
func NewMemoryKVRepo() *MemoryKVRepo {
	return &MemoryKVRepo{entries: make(map[string]string)}
}

// Get は指定キーの値を取得する。キーが存在しない場合は空文字列とfalseを返す。
func (r *MemoryKVRepo) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok, nil
}

// Set は指定キーに値を保存する。
func (r *MemoryKVRepo) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = value
	return nil
}
