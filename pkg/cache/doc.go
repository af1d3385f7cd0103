// Package cache provides view-model caching with a Redis backend.
//
// The store keeps serialized storefront view models (order confirmations,
// cart snapshots) with a per-entry TTL and deterministic key generation.
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create store
//	store := cache.NewStore(redisClient)
//
//	// Create cache key
//	key := cache.Key{
//		Kind:  "order_confirmation",
//		Scope: "Canada",
//		ID:    "cart-42",
//	}
//
//	// Get from cache
//	var vm ConfirmationViewModel
//	err := store.Get(ctx, key, &vm)
//	if err == cache.ErrCacheMiss {
//		// Cache miss - rebuild the view model
//	}
//
//	// Store with TTL
//	if err := store.Set(ctx, key, vm, 30*time.Minute); err != nil {
//		return err
//	}
//
// # Metrics
//
// The store exports Prometheus metrics:
//
//   - storefront_cache_hits_total{layer="redis"} - Cache hits
//   - storefront_cache_misses_total - Cache misses
//   - storefront_cache_errors_total{operation} - Cache operation errors
package cache
