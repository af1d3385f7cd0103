// Package commerce provides the HTTP client for the remote commerce
// backend: cart retrieval and updates, checkout completion, and sitemap
// entry paging, with retries and error classification.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/JurgenV1993/BetterRetail/pkg/logging"
)

// Prometheus metrics for backend client operations.
var (
	backendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_backend_requests_total",
		Help: "Total backend requests by endpoint and status",
	}, []string{"endpoint", "status"})

	backendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_backend_request_duration_seconds",
		Help:    "Backend request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	backendErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_backend_errors_total",
		Help: "Total backend errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassThrottle represents 429 throttling responses.
	ErrorClassThrottle ErrorClass = "throttle"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Client is the commerce backend client.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the backend root, e.g. "https://api.betterretail.example".
	BaseURL string

	// Scope is the tenant/catalog partition embedded in request paths.
	Scope string

	// UserAgent identifies this storefront to the backend.
	UserAgent string

	// Timeout bounds each individual HTTP attempt.
	Timeout time.Duration

	// Retry. MaxRetries and InitialBackoff override the per-class
	// defaults when set.
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, scope string) Config {
	return Config{
		BaseURL:        baseURL,
		Scope:          scope,
		UserAgent:      "BetterRetail/1.0",
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
	}
}

// New creates a new commerce backend client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	if cfg.Scope == "" {
		return nil, fmt.Errorf("scope is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logging.NewLogger("commerce"),
	}, nil
}

// retryConfigFor resolves the retry budget for an error class, applying
// the client-level overrides.
func (c *Client) retryConfigFor(errorClass ErrorClass) RetryConfig {
	config := RetryConfigForErrorClass(errorClass)
	if c.config.MaxRetries > 0 {
		config.MaxAttempts = c.config.MaxRetries
	}
	if c.config.InitialBackoff > 0 {
		config.InitialBackoff = c.config.InitialBackoff
	}
	return config
}

// doJSON performs one backend round-trip: encode the request body, execute
// with retries when the verb is safe to repeat, classify failures and
// decode the response into out. Mutating requests (cart updates, checkout
// completion) are never retried; repeating them could double-submit an
// order.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, idempotent bool) error {
	// Metric labels carry the path only; query values would explode
	// cardinality.
	endpoint := path
	if i := strings.Index(endpoint, "?"); i >= 0 {
		endpoint = endpoint[:i]
	}

	startTime := time.Now()
	defer func() {
		backendRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	attempt := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.config.UserAgent != "" {
			req.Header.Set("User-Agent", c.config.UserAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
			backendErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			backendRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return &BackendError{
				ErrorClass: ErrorClassNetwork,
				Endpoint:   endpoint,
				Message:    "request failed",
				Err:        err,
			}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			errorClass := classifyStatus(resp.StatusCode)
			backendErrorsTotal.WithLabelValues(string(errorClass)).Inc()
			backendRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errorClass)).
				Msg("Backend request error")

			return &BackendError{
				StatusCode: resp.StatusCode,
				ErrorClass: errorClass,
				Endpoint:   endpoint,
				Message:    resp.Status,
			}
		}

		backendRequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	if !idempotent {
		return attempt()
	}

	return retryWithBackoff(ctx, c.retryConfigFor, classifyErr, attempt)
}

// classifyStatus categorizes an HTTP status code for observability and
// retry handling.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassThrottle
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// classifyErr extracts the error class from a round-trip error.
func classifyErr(err error) ErrorClass {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr.ErrorClass
	}
	return ErrorClassNetwork
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
