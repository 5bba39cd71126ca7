package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	token, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if token == "" {
		t.Fatal("Create returned an empty token")
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
	// 2回目の破棄もエラーにならない
	if err := store.Destroy(ctx, token); err != nil {
		t.Fatalf("second Destroy returned error: %v", err)
	}
}

func TestMemoryStoreUnknownToken(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	if _, err := store.Load(context.Background(), "no-such-token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()

	token, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, err := store.Load(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load of expired session error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreSaveRefreshesExpiry(t *testing.T) {
	store := NewMemoryStore(40 * time.Millisecond)
	ctx := context.Background()

	token, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Save のたびに期限が延びるため、TTLより長く生存し続ける
	for i := 0; i < 4; i++ {
		time.Sleep(20 * time.Millisecond)
		if err := store.Save(ctx, token, Data{UserID: uuid.New().String()}); err != nil {
			t.Fatalf("Save returned error: %v", err)
		}
	}
	if _, err := store.Load(ctx, token); err != nil {
		t.Fatalf("Load after refreshed saves returned error: %v", err)
	}
}

func TestMemoryStoreConcurrentSaves(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	token, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	first := uuid.New().String()
	second := uuid.New().String()

	var wg sync.WaitGroup
	for _, id := range []string{first, second} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if err := store.Save(ctx, token, Data{UserID: id}); err != nil {
					t.Errorf("Save returned error: %v", err)
					return
				}
			}
		}(id)
	}
	wg.Wait()

	// 後勝ちのため最終状態はどちらか一方のペイロードそのもの
	data, err := store.Load(ctx, token)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if data.UserID != first && data.UserID != second {
		t.Fatalf("final payload %q is neither writer's value", data.UserID)
	}
}
