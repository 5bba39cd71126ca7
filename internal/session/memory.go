package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore はプロセス内メモリで完結する揮発性バックエンドです。
// 再起動で消える単一インスタンス向けで、期限切れエントリの掃除は
// ベストエフォート（アクセス時の遅延削除）です。
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data      Data
	expiresAt time.Time
}

// NewMemoryStore は MemoryStore を作成します。
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

// Create は新しいトークンを発行し、空のペイロードで登録します。
func (s *MemoryStore) Create(ctx context.Context) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memoryEntry{expiresAt: time.Now().Add(s.ttl)}
	return token, nil
}

// Load はペイロードを返します。期限切れのエントリはここで削除します。
func (s *MemoryStore) Load(ctx context.Context, token string) (Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return Data{}, ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, token)
		return Data{}, ErrNotFound
	}
	return entry.data, nil
}

// Save はペイロードを上書きし、有効期限を更新します。
func (s *MemoryStore) Save(ctx context.Context, token string, data Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memoryEntry{data: data, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

// Destroy はエントリを削除します。冪等です。
func (s *MemoryStore) Destroy(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}
