package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client for testing. Unit tests skip
// when no local Redis is available; the testcontainers-backed coverage lives
// under tests/integration.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	// Ping to check connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	// Flush test DB before each test
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

type confirmationViewModel struct {
	OrderNumber   string `json:"orderNumber"`
	CustomerEmail string `json:"customerEmail"`
}

func TestNewStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewStore should panic with nil redis client")
		}
	}()

	NewStore(nil)
}

func TestStore_SetAndGet(t *testing.T) {
	client := setupTestRedis(t)
	store := NewStore(client)
	ctx := context.Background()

	key := Key{Kind: "order_confirmation", Scope: "Canada", ID: "cart-42"}
	value := confirmationViewModel{
		OrderNumber:   "ORD-12345",
		CustomerEmail: "shopper@example.com",
	}

	if err := store.Set(ctx, key, value, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got confirmationViewModel
	if err := store.Get(ctx, key, &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got != value {
		t.Errorf("Get() = %+v, want %+v", got, value)
	}
}

func TestStore_Get_CacheMiss(t *testing.T) {
	client := setupTestRedis(t)
	store := NewStore(client)

	var got confirmationViewModel
	err := store.Get(context.Background(), Key{Kind: "order_confirmation", ID: "missing"}, &got)
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestStore_Get_CorruptEntry(t *testing.T) {
	client := setupTestRedis(t)
	store := NewStore(client)
	ctx := context.Background()

	key := Key{Kind: "order_confirmation", ID: "corrupt"}
	if err := client.Set(ctx, key.String(), "{not json", time.Minute).Err(); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	var got confirmationViewModel
	err := store.Get(ctx, key, &got)
	if !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Get() error = %v, want ErrInvalidEntry", err)
	}
}

func TestStore_Set_NonPositiveTTL(t *testing.T) {
	client := setupTestRedis(t)
	store := NewStore(client)
	ctx := context.Background()

	key := Key{Kind: "cart", ID: "no-ttl"}
	if err := store.Set(ctx, key, confirmationViewModel{}, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got confirmationViewModel
	if err := store.Get(ctx, key, &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("value with zero TTL should not be cached, got err = %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	store := NewStore(client)
	ctx := context.Background()

	key := Key{Kind: "cart", Scope: "Canada", ID: "cart-42"}
	if err := store.Set(ctx, key, confirmationViewModel{OrderNumber: "x"}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var got confirmationViewModel
	if err := store.Get(ctx, key, &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after delete error = %v, want ErrCacheMiss", err)
	}
}

func TestStore_Invalidate(t *testing.T) {
	client := setupTestRedis(t)
	store := NewStore(client)
	ctx := context.Background()

	keep := Key{Kind: "order_confirmation", Scope: "Canada", ID: "cart-1"}
	drop1 := Key{Kind: "cart", Scope: "Canada", ID: "cart-1"}
	drop2 := Key{Kind: "cart", Scope: "Canada", ID: "cart-2"}

	for _, key := range []Key{keep, drop1, drop2} {
		if err := store.Set(ctx, key, confirmationViewModel{OrderNumber: "x"}, time.Minute); err != nil {
			t.Fatalf("Set(%s) error = %v", key, err)
		}
	}

	if err := store.Invalidate(ctx, "cart", "Canada"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}

	var got confirmationViewModel
	if err := store.Get(ctx, drop1, &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get(%s) after invalidate error = %v, want ErrCacheMiss", drop1, err)
	}
	if err := store.Get(ctx, drop2, &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get(%s) after invalidate error = %v, want ErrCacheMiss", drop2, err)
	}
	if err := store.Get(ctx, keep, &got); err != nil {
		t.Errorf("Get(%s) should survive invalidation, error = %v", keep, err)
	}
}
