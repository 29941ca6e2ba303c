// Package client provides the SkyBlock API client with pooled rate limiting,
// envelope decoding, and error classification.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/skyblock-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Prometheus metrics for API client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skyblock_requests_total",
		Help: "Total SkyBlock API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skyblock_request_duration_seconds",
		Help:    "SkyBlock API request duration in seconds by endpoint, including credential wait",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skyblock_errors_total",
		Help: "Total SkyBlock API errors by class",
	}, []string{"class"})
)

// DefaultBaseURL is the root every endpoint path is appended to.
const DefaultBaseURL = "https://api.hypixel.net/skyblock/"

// Param is one query parameter. Values are sent as given; callers must
// encode anything that is not URL safe.
type Param struct {
	Key   string
	Value string
}

// Client is the SkyBlock API client.
type Client struct {
	httpClient *http.Client
	pool       *ratelimit.Pool
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Keys are the API keys shared by the pool, scanned in this order.
	Keys []string

	// BaseURL is the API root (default DefaultBaseURL).
	BaseURL string

	// UserAgent header sent with every request
	UserAgent string

	// Rate Limiting
	WindowSize        time.Duration // Quota window per key
	WindowLimit       int           // Requests per key per window
	MaxWait           time.Duration // Longest wait for a credential (0 = until ctx is done)
	PollInterval      time.Duration // Longest single wait before rescanning keys
	RequestsPerSecond float64       // Optional smoothing across the pool (0 disables)

	// Redis optionally shares key windows between processes.
	Redis *redis.Client

	// RedisPrefix namespaces shared windows (default ratelimit.DefaultSharedPrefix).
	RedisPrefix string

	// RequestTimeout bounds a single HTTP round trip.
	RequestTimeout time.Duration

	// MaxConcurrency is the number of parallel page fetches.
	MaxConcurrency int
}

// DefaultConfig returns a safe default configuration for the given keys.
func DefaultConfig(keys ...string) Config {
	return Config{
		Keys:           keys,
		BaseURL:        DefaultBaseURL,
		UserAgent:      "skyblock-client/1.0",
		WindowSize:     ratelimit.DefaultWindowSize,
		WindowLimit:    ratelimit.DefaultWindowLimit,
		PollInterval:   ratelimit.DefaultPollInterval,
		RequestTimeout: 30 * time.Second,
		MaxConcurrency: 4,
	}
}

// New creates a new SkyBlock API client.
func New(cfg Config) (*Client, error) {
	if len(cfg.Keys) == 0 {
		return nil, fmt.Errorf("at least one api key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}

	if cfg.WindowLimit <= 0 {
		return nil, fmt.Errorf("window_limit must be > 0 (got %d)", cfg.WindowLimit)
	}
	if cfg.WindowSize <= 0 {
		return nil, fmt.Errorf("window_size must be > 0 (got %s)", cfg.WindowSize)
	}
	if cfg.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("requests_per_second must be >= 0 (got %g)", cfg.RequestsPerSecond)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}

	// Initialize logger
	logger := log.With().Str("component", "skyblock-client").Logger()

	poolCfg := ratelimit.Config{
		WindowSize:   cfg.WindowSize,
		WindowLimit:  cfg.WindowLimit,
		PollInterval: cfg.PollInterval,
		MaxWait:      cfg.MaxWait,
		Spacing:      rate.Limit(cfg.RequestsPerSecond),
	}
	if cfg.Redis != nil {
		poolCfg.Shared = ratelimit.NewSharedWindow(cfg.Redis, cfg.RedisPrefix)
	}

	pool, err := ratelimit.NewPool(cfg.Keys, poolCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create credential pool: %w", err)
	}

	return &Client{
		httpClient: &http.Client{},
		pool:       pool,
		config:     cfg,
		logger:     logger,
	}, nil
}

// Fetch performs one GET against path and decodes the response into out.
//
// Every call consumes exactly one credential use, whether or not the
// response decodes. Errors are always *Error values.
func (c *Client) Fetch(ctx context.Context, path string, params []Param, out any) error {
	endpoint := strings.Trim(path, "/")

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Acquire a credential
	key, err := c.pool.Acquire(ctx)
	if err != nil {
		class := ErrorClassRateLimit
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			class = ErrorClassTransport
		}
		requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return c.fail(&Error{Class: class, Endpoint: endpoint, Message: "acquire credential", Err: err})
	}

	// Step 2: Build the request
	reqCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.requestURL(endpoint, key, params), nil)
	if err != nil {
		return c.fail(&Error{Class: ErrorClassTransport, Endpoint: endpoint, Message: "create request", Err: err})
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("credential", ratelimit.Redact(key)).
		Int("params", len(params)).
		Msg("Executing API request")

	// Step 3: Execute and buffer the body
	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return c.fail(&Error{Class: ErrorClassTransport, Endpoint: endpoint, Message: "http request", Err: err})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return c.fail(&Error{Class: ErrorClassTransport, Endpoint: endpoint, StatusCode: resp.StatusCode, Message: "read body", Err: err})
	}
	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	// Step 4: Sync quota from headers
	if err := c.pool.Observe(key, resp.Header); err != nil {
		c.logger.Debug().Err(err).Str("endpoint", endpoint).Msg("Ignoring malformed quota headers")
	}

	// Step 5: Unwrap the envelope
	if apiErr := decodeEnvelope(resp.StatusCode, resp.Status, body, out); apiErr != nil {
		apiErr.Endpoint = endpoint
		return c.fail(apiErr)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("duration", time.Since(startTime)).
		Msg("API request complete")

	return nil
}

// Get fetches path and decodes the response into a new T.
func Get[T any](ctx context.Context, c *Client, path string, params ...Param) (T, error) {
	var out T
	if err := c.Fetch(ctx, path, params, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// requestURL appends the key and params literally, without escaping.
func (c *Client) requestURL(endpoint, key string, params []Param) string {
	var b strings.Builder
	b.WriteString(c.config.BaseURL)
	b.WriteString(endpoint)
	b.WriteString("?key=")
	b.WriteString(key)
	for _, p := range params {
		b.WriteByte('&')
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

// fail records err for observability and returns it.
func (c *Client) fail(err *Error) error {
	errorsTotal.WithLabelValues(string(err.Class)).Inc()
	c.logger.Debug().
		Str("endpoint", err.Endpoint).
		Str("class", string(err.Class)).
		Int("status", err.StatusCode).
		Msg("API request failed")
	return err
}

// Pool returns the client's credential pool.
func (c *Client) Pool() *ratelimit.Pool {
	return c.pool
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
