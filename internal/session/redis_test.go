package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewRedisStore(client, time.Hour)
}

func TestRedisStoreLifecycle(t *testing.T) {
	_, store := newTestRedisStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	data, err := store.Load(ctx, token)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if data.UserID != "" {
		t.Fatalf("fresh session payload is not empty: %+v", data)
	}

	userID := uuid.New().String()
	if err := store.Save(ctx, token, Data{UserID: userID}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	data, err = store.Load(ctx, token)
	if err != nil {
		t.Fatalf("Load after Save returned error: %v", err)
	}
	if data.UserID != userID {
		t.Fatalf("loaded UserID = %q, want %q", data.UserID, userID)
	}

	if err := store.Destroy(ctx, token); err != nil {
		t.Fatalf("Destroy returned error: %v", err)
	}
	if _, err := store.Load(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load after Destroy error = %v, want ErrNotFound", err)
	}
	if err := store.Destroy(ctx, token); err != nil {
		t.Fatalf("second Destroy returned error: %v", err)
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	mr, store := newTestRedisStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	if _, err := store.Load(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load of expired session error = %v, want ErrNotFound", err)
	}
}

func TestRedisStoreCorruptPayload(t *testing.T) {
	mr, store := newTestRedisStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	mr.Set(sessionKey(token), "not-json")

	if _, err := store.Load(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load of corrupt payload error = %v, want ErrNotFound", err)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, store := newTestRedisStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	mr.Close()

	if _, err := store.Load(ctx, token); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Load after backend loss error = %v, want ErrStoreUnavailable", err)
	}
	if err := store.Save(ctx, token, Data{}); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Save after backend loss error = %v, want ErrStoreUnavailable", err)
	}
	if err := store.Destroy(ctx, token); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Destroy after backend loss error = %v, want ErrStoreUnavailable", err)
	}
}
