// Command skyblock queries the Hypixel SkyBlock API through the pooled client.
//
// Usage:
//
//	skyblock auctions    stream every active auction as JSON lines
//	skyblock bazaar      print the unified bazaar listing
//	skyblock page N      print one page of active auctions
//
// Configuration is read from the environment:
//
//	SKYBLOCK_API_KEYS     comma separated API keys (required)
//	SKYBLOCK_BASE_URL     API root (default https://api.hypixel.net/skyblock/)
//	REDIS_URL             share key windows with other processes (redis://host:port/db or host:port)
//	REQUESTS_PER_SECOND   smooth requests across the pool (default 0, disabled)
//	METRICS_ADDR          serve /metrics and /health on this address while running
//	LOG_LEVEL             debug, info, warn, error (default info)
//	LOG_PRETTY            human readable logs when "true"
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Sternrassler/skyblock-client/pkg/client"
	"github.com/Sternrassler/skyblock-client/pkg/logging"
	"github.com/Sternrassler/skyblock-client/pkg/metrics"
	"github.com/Sternrassler/skyblock-client/pkg/skyblock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var errUsage = errors.New("usage: skyblock auctions | bazaar | page N")

func main() {
	logger := logging.Setup(logging.Config{
		Level:   logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty:  getEnv("LOG_PRETTY", "false") == "true",
		Output:  os.Stderr,
		Service: "skyblock",
	})
	logger = logger.With().Str("component", "skyblock-cli").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// stopMetricsServer shuts srv down, logging a failure instead of returning it.
func stopMetricsServer(ctx context.Context, srv *http.Server, logger zerolog.Logger) {
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("Metrics server shutdown failed")
	}
}

// run executes one command, writing results to out.
func run(ctx context.Context, args []string, out io.Writer, logger zerolog.Logger) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, redisClient, err := configFromEnv(ctx)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	if addr := getEnv("METRICS_ADDR", ""); addr != "" {
		srv := &http.Server{Addr: addr, Handler: newMetricsMux(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info().Str("addr", addr).Msg("Starting metrics server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn().Err(err).Msg("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			stopMetricsServer(shutdownCtx, srv, logger)
		}()
	}

	c, err := client.New(cfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer c.Close()

	logger.Info().
		Int("keys", c.Pool().Len()).
		Str("base_url", cfg.BaseURL).
		Bool("shared_windows", cfg.Redis != nil).
		Msg("Client ready")

	enc := json.NewEncoder(out)

	switch args[0] {
	case "auctions":
		count := 0
		err := c.ForEachActiveAuction(ctx, func(a skyblock.Auction) error {
			count++
			return enc.Encode(a)
		})
		if err != nil {
			return fmt.Errorf("stream auctions: %w", err)
		}
		logger.Info().Int("auctions", count).Msg("Auction stream complete")
		return nil

	case "bazaar":
		products, err := c.Bazaar(ctx)
		if err != nil {
			return fmt.Errorf("fetch bazaar: %w", err)
		}
		enc.SetIndent("", "  ")
		return enc.Encode(products)

	case "page":
		if len(args) < 2 {
			return errUsage
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return fmt.Errorf("invalid page %q", args[1])
		}
		page, err := c.AuctionsPage(ctx, n)
		if err != nil {
			return fmt.Errorf("fetch auctions page %d: %w", n, err)
		}
		enc.SetIndent("", "  ")
		return enc.Encode(page)

	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

// configFromEnv builds the client configuration. When REDIS_URL is set the
// returned Redis client is connected and must be closed by the caller.
func configFromEnv(ctx context.Context) (client.Config, *redis.Client, error) {
	keys := splitKeys(getEnv("SKYBLOCK_API_KEYS", ""))
	if len(keys) == 0 {
		return client.Config{}, nil, errors.New("SKYBLOCK_API_KEYS is required")
	}

	cfg := client.DefaultConfig(keys...)
	cfg.BaseURL = getEnv("SKYBLOCK_BASE_URL", client.DefaultBaseURL)

	if rps := getEnv("REQUESTS_PER_SECOND", ""); rps != "" {
		v, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return client.Config{}, nil, fmt.Errorf("parse REQUESTS_PER_SECOND: %w", err)
		}
		cfg.RequestsPerSecond = v
	}

	redisURL := getEnv("REDIS_URL", "")
	if redisURL == "" {
		return cfg, nil, nil
	}

	redisClient, err := newRedisClient(redisURL)
	if err != nil {
		return client.Config{}, nil, err
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return client.Config{}, nil, fmt.Errorf("connect to redis: %w", err)
	}
	cfg.Redis = redisClient

	return cfg, redisClient, nil
}

// newRedisClient accepts a redis:// URL or a bare host:port.
func newRedisClient(raw string) (*redis.Client, error) {
	if strings.Contains(raw, "://") {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: raw}), nil
}

func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func newMetricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", healthHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
