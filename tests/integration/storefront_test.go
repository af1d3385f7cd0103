package integration

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/JurgenV1993/BetterRetail/internal/testutil"
	"github.com/JurgenV1993/BetterRetail/pkg/cache"
	"github.com/JurgenV1993/BetterRetail/pkg/checkout"
	"github.com/JurgenV1993/BetterRetail/pkg/commerce"
	"github.com/JurgenV1993/BetterRetail/pkg/sitemap"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func newBackendClient(t *testing.T, mock *testutil.MockBackend) *commerce.Client {
	t.Helper()

	cfg := commerce.DefaultConfig(mock.URL(), "canada")
	cfg.InitialBackoff = 10 * time.Millisecond

	client, err := commerce.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create backend client: %v", err)
	}
	return client
}

// TestCheckoutFlowEndToEnd runs a full checkout session against the mock
// backend with a Redis-backed confirmation cache: begin, select a shipping
// method, complete, and read the cached confirmation back.
func TestCheckoutFlowEndToEnd(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockBackend()
	defer mock.Close()

	mock.SetCartResponse("canada", testutil.NewJSONResponse(`{
		"customer": {"firstName": "Marie", "lastName": "Tremblay", "email": "marie@example.com"},
		"itemCount": 2
	}`))
	mock.SetCartUpdateResponse("canada", testutil.NewJSONResponse(`{
		"cart": {"itemCount": 2},
		"hasErrors": false
	}`))
	mock.SetCompleteCheckoutResponse("canada", testutil.NewJSONResponse(`{
		"orderNumber": "ORD-9001",
		"nextStepUrl": "/en-CA/checkout/confirmation"
	}`))

	backend := newBackendClient(t, mock)

	service, err := checkout.NewService(checkout.Config{
		Backend:       backend,
		Confirmations: cache.NewStore(redisClient),
		Scope:         "canada",
		DebounceDelay: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to create checkout service: %v", err)
	}
	defer service.Close()

	ctx := context.Background()

	step, err := service.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if step != checkout.StepShipping {
		t.Errorf("start step = %s, want Shipping", step)
	}

	service.SelectFulfillmentMethod(ctx, checkout.ShippingMethod{
		Name:               "Canada Post",
		ShippingProviderID: "canadapost-standard",
		FulfillmentMethod:  checkout.FulfillmentShipToHome,
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && mock.GetRequestCount() < 2 {
		time.Sleep(10 * time.Millisecond)
	}

	result, err := service.Complete(ctx)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if result.OrderNumber != "ORD-9001" {
		t.Errorf("order number = %q, want ORD-9001", result.OrderNumber)
	}

	// The confirmation survives in Redis for the confirmation page.
	cached, err := service.Confirmation(ctx, "ORD-9001")
	if err != nil {
		t.Fatalf("Confirmation lookup failed: %v", err)
	}
	if cached.NextStepURL != "/en-CA/checkout/confirmation" {
		t.Errorf("cached confirmation = %+v", cached)
	}
}

// TestCacheStoreRoundTrip exercises the cache store against real Redis.
func TestCacheStoreRoundTrip(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := cache.NewStore(redisClient)
	ctx := context.Background()

	key := cache.Key{Kind: "order_confirmation", Scope: "canada", ID: "ORD-1"}
	value := checkout.CompleteResult{OrderNumber: "ORD-1", NextStepURL: "/confirmation"}

	if err := store.Set(ctx, key, value, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got checkout.CompleteResult
	if err := store.Get(ctx, key, &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != value {
		t.Errorf("Get = %+v, want %+v", got, value)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Get(ctx, key, &got); err != cache.ErrCacheMiss {
		t.Errorf("Get after delete = %v, want ErrCacheMiss", err)
	}
}

// TestCacheStoreExpiration verifies TTL-bound entries vanish.
func TestCacheStoreExpiration(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := cache.NewStore(redisClient)
	ctx := context.Background()

	key := cache.Key{Kind: "order_confirmation", Scope: "canada", ID: "ORD-2"}
	if err := store.Set(ctx, key, checkout.CompleteResult{OrderNumber: "ORD-2"}, time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got checkout.CompleteResult
	if err := store.Get(ctx, key, &got); err != nil {
		t.Fatalf("Get before expiry failed: %v", err)
	}

	time.Sleep(2 * time.Second)

	if err := store.Get(ctx, key, &got); err != cache.ErrCacheMiss {
		t.Errorf("Get after expiry = %v, want ErrCacheMiss", err)
	}
}

// TestCacheStoreInvalidation verifies scope-wide invalidation.
func TestCacheStoreInvalidation(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := cache.NewStore(redisClient)
	ctx := context.Background()

	for _, id := range []string{"ORD-1", "ORD-2", "ORD-3"} {
		key := cache.Key{Kind: "order_confirmation", Scope: "canada", ID: id}
		if err := store.Set(ctx, key, checkout.CompleteResult{OrderNumber: id}, time.Minute); err != nil {
			t.Fatalf("Set %s failed: %v", id, err)
		}
	}
	other := cache.Key{Kind: "order_confirmation", Scope: "usa", ID: "ORD-9"}
	if err := store.Set(ctx, other, checkout.CompleteResult{OrderNumber: "ORD-9"}, time.Minute); err != nil {
		t.Fatalf("Set other scope failed: %v", err)
	}

	if err := store.Invalidate(ctx, "order_confirmation", "canada"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	var got checkout.CompleteResult
	for _, id := range []string{"ORD-1", "ORD-2", "ORD-3"} {
		key := cache.Key{Kind: "order_confirmation", Scope: "canada", ID: id}
		if err := store.Get(ctx, key, &got); err != cache.ErrCacheMiss {
			t.Errorf("Get %s after invalidation = %v, want ErrCacheMiss", id, err)
		}
	}
	if err := store.Get(ctx, other, &got); err != nil {
		t.Errorf("other scope should survive invalidation, got %v", err)
	}
}

// TestSitemapGenerationEndToEnd pages entries out of the mock backend and
// writes the batches plus the index to disk.
func TestSitemapGenerationEndToEnd(t *testing.T) {
	mock := testutil.NewMockBackend()
	defer mock.Close()

	mock.SetHandler("/api/sitemap/canada/en-CA/entries", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("offset") {
		case "0":
			w.Write([]byte(`[
				{"location": "https://shop.example.com/en-CA/p/1"},
				{"location": "https://shop.example.com/en-CA/p/2"}
			]`))
		case "2":
			w.Write([]byte(`[{"location": "https://shop.example.com/en-CA/p/3"}]`))
		default:
			w.Write([]byte(`[]`))
		}
	})

	backend := newBackendClient(t, mock)

	gen, err := sitemap.NewGenerator(sitemap.Config{
		Culture:         "en-CA",
		FilePrefix:      "storefront",
		EntriesPerBatch: 2,
		Source:          backend.EntrySourceFor("en-CA"),
	})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	batches, err := gen.GenerateAll(context.Background())
	if err != nil {
		t.Fatalf("GenerateAll failed: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}

	dir := t.TempDir()
	writer, err := sitemap.NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	var names []string
	for _, batch := range batches {
		if _, err := writer.WriteBatch(batch); err != nil {
			t.Fatalf("WriteBatch %s failed: %v", batch.Name, err)
		}
		names = append(names, batch.Name)
	}
	if _, err := writer.WriteIndex("https://shop.example.com", names); err != nil {
		t.Fatalf("WriteIndex failed: %v", err)
	}

	for _, name := range append(names, sitemap.IndexFilename) {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s on disk: %v", name, err)
		}
	}
}
