// Package metrics provides the centralized Prometheus metrics registry for
// the storefront. All metrics are defined in their respective packages
// (commerce, cache, checkout, sitemap) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the storefront.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Backend Metrics (pkg/commerce):
//   - storefront_backend_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - storefront_backend_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - storefront_backend_errors_total{class} (Counter): Errors by class (client, server, throttle, network)
//   - storefront_backend_retries_total{error_class} (Counter): Retry attempts by error class
//   - storefront_backend_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - storefront_backend_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - storefront_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - storefront_cache_misses_total (Counter): Cache misses
//   - storefront_cache_errors_total{operation} (Counter): Cache operation errors
//
// Checkout Metrics (pkg/checkout):
//   - storefront_checkout_cart_updates_total{result} (Counter): Cart updates issued by the checkout flow
//   - storefront_checkout_completions_total{result} (Counter): Completion attempts by result
//   - storefront_checkout_rollbacks_total (Counter): Optimistic shipping updates rolled back
//   - storefront_checkout_inflight_operations (Gauge): Backend operations currently in flight
//
// Sitemap Metrics (pkg/sitemap):
//   - storefront_sitemap_batches_total{culture} (Counter): Batches produced per culture
//   - storefront_sitemap_entries_total{culture} (Counter): Entries written per culture
//   - storefront_sitemap_run_errors_total (Counter): Generation runs terminated by a source error
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(storefront_cache_hits_total[5m])) /
//   (sum(rate(storefront_cache_hits_total[5m])) + sum(rate(storefront_cache_misses_total[5m])))
//
//   # Checkout Completion Failure Rate
//   sum(rate(storefront_checkout_completions_total{result!="ok"}[5m])) /
//   sum(rate(storefront_checkout_completions_total[5m]))
//
//   # Backend Request Error Rate
//   rate(storefront_backend_errors_total[5m])
//
//   # P95 Backend Latency
//   histogram_quantile(0.95, rate(storefront_backend_request_duration_seconds_bucket[5m]))
