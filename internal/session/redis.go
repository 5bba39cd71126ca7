package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// RedisStore はRedisを共有バックエンドとするセッションストアです。
// 複数プロセスから同じセッションが見えるため、水平スケールした
// デプロイで使用します。通信失敗は ErrStoreUnavailable として返します。
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore は RedisStore を作成します。
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		ttl: ttl,
	}
}

// Create は新しいトークンを発行し、空のペイロードをTTL付きで登録します。
func (s *RedisStore) Create(ctx context.Context) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	if err := s.set(ctx, token, Data{}); err != nil {
		return "", err
	}
	return token, nil
}

// Load はペイロードを返します。キーが無い（期限切れ含む）場合は ErrNotFound です。
func (s *RedisStore) Load(ctx context.Context, token string) (Data, error) {
	payload, err := s.rdb.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Data{}, ErrNotFound
		}
		return Data{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		// 壊れたエントリは存在しない扱いにする
		return Data{}, ErrNotFound
	}
	return data, nil
}

// Save はペイロードを上書きし、TTLを更新します。
func (s *RedisStore) Save(ctx context.Context, token string, data Data) error {
	return s.set(ctx, token, data)
}

// Destroy はエントリを削除します。冪等です。
func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) set(ctx context.Context, token string, data Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, sessionKey(token), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}
