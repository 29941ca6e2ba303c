package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for credential consumption.
var (
	credentialConsumptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skyblock_credential_consumptions_total",
		Help: "Total credential consumption attempts by result",
	}, []string{"result"})

	credentialWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "skyblock_credential_wait_seconds",
		Help:    "Time callers spent waiting for an admissible credential",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
	})

	rateLimitExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skyblock_rate_limit_exhausted_total",
		Help: "Total number of acquisitions that gave up after the maximum wait",
	})

	credentialUses = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "skyblock_credential_uses",
		Help: "Requests consumed in the current window by credential",
	}, []string{"credential"})
)

var (
	// ErrExhausted is returned when no credential became admissible within the
	// configured maximum wait.
	ErrExhausted = errors.New("rate limit exhausted")

	// ErrNoCredentials is returned when a pool is built without any keys.
	ErrNoCredentials = errors.New("at least one credential is required")
)

// Config holds the pool configuration.
type Config struct {
	// WindowSize is the length of each key's quota window.
	WindowSize time.Duration

	// WindowLimit is the number of requests per key per window.
	WindowLimit int

	// PollInterval is the longest single wait before the pool rescans.
	// The pool normally sleeps until the earliest window reset.
	PollInterval time.Duration

	// MaxWait bounds the total time Acquire waits (0 waits until ctx is done).
	MaxWait time.Duration

	// Spacing optionally smooths requests to at most this rate across the pool
	// (0 disables it).
	Spacing rate.Limit

	// Shared optionally keeps windows in Redis so several processes share quota.
	Shared *SharedWindow
}

// DefaultConfig returns the quota published for a standard API key.
func DefaultConfig() Config {
	return Config{
		WindowSize:   DefaultWindowSize,
		WindowLimit:  DefaultWindowLimit,
		PollInterval: DefaultPollInterval,
	}
}

// Pool hands out API keys in round-robin scan order while respecting each
// key's window. It is owned by a single client.
type Pool struct {
	creds   []*Credential
	byKey   map[string]*Credential
	config  Config
	spacing *rate.Limiter
	logger  zerolog.Logger
}

// NewPool creates a pool from raw keys, preserving their order.
func NewPool(keys []string, cfg Config, logger zerolog.Logger) (*Pool, error) {
	return newPool(keys, cfg, logger, time.Now)
}

func newPool(keys []string, cfg Config, logger zerolog.Logger, now func() time.Time) (*Pool, error) {
	if len(keys) == 0 {
		return nil, ErrNoCredentials
	}
	if cfg.WindowLimit <= 0 {
		return nil, fmt.Errorf("window_limit must be > 0 (got %d)", cfg.WindowLimit)
	}
	if cfg.WindowSize < 0 {
		return nil, fmt.Errorf("window_size must be >= 0 (got %s)", cfg.WindowSize)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	p := &Pool{
		creds:  make([]*Credential, 0, len(keys)),
		byKey:  make(map[string]*Credential, len(keys)),
		config: cfg,
		logger: logger,
	}

	for i, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("credential %d is empty", i)
		}
		if _, dup := p.byKey[key]; dup {
			continue
		}
		c := newCredential(key, cfg.WindowLimit, cfg.WindowSize, now)
		p.creds = append(p.creds, c)
		p.byKey[key] = c
	}

	if cfg.Spacing > 0 {
		p.spacing = rate.NewLimiter(cfg.Spacing, 1)
	}

	return p, nil
}

// Len returns the number of credentials in the pool.
func (p *Pool) Len() int {
	return len(p.creds)
}

// TryAcquire makes one scan over the pool and returns the first key that
// still has quota. It never waits.
func (p *Pool) TryAcquire(ctx context.Context) (string, bool, error) {
	key, _, err := p.scan(ctx)
	if err != nil {
		return "", false, err
	}
	return key, key != "", nil
}

// Acquire returns an admissible key, waiting for the earliest window reset
// when every key is spent. It fails with ErrExhausted once MaxWait elapses and
// with the context error when ctx is done.
func (p *Pool) Acquire(ctx context.Context) (string, error) {
	start := time.Now()
	var deadline <-chan time.Time
	if p.config.MaxWait > 0 {
		t := time.NewTimer(p.config.MaxWait)
		defer t.Stop()
		deadline = t.C
	}

	if p.spacing != nil {
		if err := p.waitSpacing(ctx, deadline); err != nil {
			return "", err
		}
	}

	for {
		key, wait, err := p.scan(ctx)
		if err != nil {
			return "", err
		}
		if key != "" {
			credentialWaitSeconds.Observe(time.Since(start).Seconds())
			return key, nil
		}

		if wait <= 0 {
			wait = time.Millisecond
		}
		if wait > p.config.PollInterval {
			wait = p.config.PollInterval
		}

		p.logger.Debug().
			Int("credentials", len(p.creds)).
			Dur("wait", wait).
			Msg("All credentials exhausted, waiting for window reset")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", fmt.Errorf("acquire credential: %w", ctx.Err())
		case <-deadline:
			timer.Stop()
			rateLimitExhaustedTotal.Inc()
			return "", fmt.Errorf("%w: no credential admitted within %s", ErrExhausted, p.config.MaxWait)
		case <-timer.C:
		}
	}
}

// waitSpacing holds a request back until the spacing limiter admits it,
// giving up on ctx or on the MaxWait deadline.
func (p *Pool) waitSpacing(ctx context.Context, deadline <-chan time.Time) error {
	r := p.spacing.Reserve()
	if !r.OK() {
		return fmt.Errorf("wait for request spacing: limiter cannot admit a request")
	}
	delay := r.Delay()
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return fmt.Errorf("wait for request spacing: %w", ctx.Err())
	case <-deadline:
		r.Cancel()
		rateLimitExhaustedTotal.Inc()
		return fmt.Errorf("%w: request spacing not admitted within %s", ErrExhausted, p.config.MaxWait)
	}
}

// scan tries every credential once in order. When none is admissible it
// returns the time until the earliest window reset.
func (p *Pool) scan(ctx context.Context) (string, time.Duration, error) {
	earliest := time.Duration(-1)

	for _, c := range p.creds {
		key, ok := c.TryConsume()
		resetIn := c.ResetIn()

		if ok && p.config.Shared != nil {
			adm, err := p.config.Shared.Consume(ctx, key, p.config.WindowLimit, p.config.WindowSize)
			if err != nil {
				c.refund()
				return "", 0, err
			}
			if !adm.Allowed {
				c.refund()
				ok = false
				resetIn = adm.ResetIn
			}
		}

		if ok {
			credentialConsumptionsTotal.WithLabelValues("admitted").Inc()
			credentialUses.WithLabelValues(c.Redacted()).Set(float64(c.Uses()))
			return key, 0, nil
		}

		credentialConsumptionsTotal.WithLabelValues("denied").Inc()
		if earliest < 0 || resetIn < earliest {
			earliest = resetIn
		}
	}

	return "", earliest, nil
}

// Observe feeds the quota headers of a response made with key back into that
// key's window. Missing headers are ignored.
func (p *Pool) Observe(key string, headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	c, ok := p.byKey[key]
	if !ok {
		return fmt.Errorf("observe quota: unknown credential %s", Redact(key))
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	resetStr := headers.Get(HeaderReset)
	if resetStr == "" {
		return fmt.Errorf("%s header missing", HeaderReset)
	}
	resetSeconds, err := strconv.Atoi(resetStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderReset, err)
	}

	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
		if limit > 0 && limit < p.config.WindowLimit {
			p.logger.Debug().
				Str("credential", c.Redacted()).
				Int("configured", p.config.WindowLimit).
				Int("server", limit).
				Msg("Server enforces a lower limit than configured")
		}
		c.lowerLimit(limit)
	}

	c.SyncFromServer(remain, time.Duration(resetSeconds)*time.Second)
	credentialUses.WithLabelValues(c.Redacted()).Set(float64(c.Uses()))

	p.logger.Debug().
		Str("credential", c.Redacted()).
		Int("remaining", remain).
		Int("reset_seconds", resetSeconds).
		Msg("Credential quota synced from response")

	return nil
}

// States returns a snapshot of every credential in pool order.
func (p *Pool) States() []State {
	states := make([]State, len(p.creds))
	for i, c := range p.creds {
		states[i] = c.State()
	}
	return states
}
