package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel page fetches.
	// The credential pool still gates every request.
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
}

// DefaultConfig returns safe default configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
	}
}

// BatchFetcher fetches the pages after the first one in parallel while
// keeping items in page order.
type BatchFetcher[T any] struct {
	config Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher[T any](config Config) *BatchFetcher[T] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &BatchFetcher[T]{
		config: config,
	}
}

// FetchAll fetches page 0 to learn the page count, then pages
// 1..TotalPages-1 concurrently. Items are returned in page order regardless of
// completion order. The first failing page cancels the others and the whole
// call fails.
func (bf *BatchFetcher[T]) FetchAll(ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	start := time.Now()

	first, err := bf.fetchPage(ctx, fetch, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}
	pagesFetchedTotal.WithLabelValues("batch").Inc()

	totalPages := first.TotalPages

	log.Debug().
		Int("total_pages", totalPages).
		Int("workers", bf.config.MaxConcurrency).
		Msg("Starting parallel page fetch")

	// Single page optimization
	if totalPages <= 1 {
		items := make([]T, 0, len(first.Items))
		items = append(items, first.Items...)
		walkDuration.WithLabelValues("batch").Observe(time.Since(start).Seconds())
		return items, nil
	}

	pages := make([][]T, totalPages)
	pages[0] = first.Items

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bf.config.MaxConcurrency)

	for i := 1; i < totalPages; i++ {
		pageNum := i
		g.Go(func() error {
			page, err := bf.fetchPage(gctx, fetch, pageNum)
			if err != nil {
				return fmt.Errorf("fetch page %d: %w", pageNum, err)
			}
			pagesFetchedTotal.WithLabelValues("batch").Inc()
			// Each goroutine owns its own slot.
			pages[pageNum] = page.Items
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]T, 0, capacityHint(first.TotalItems, len(first.Items)))
	for _, p := range pages {
		items = append(items, p...)
	}

	walkDuration.WithLabelValues("batch").Observe(time.Since(start).Seconds())
	log.Debug().
		Int("pages", totalPages).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Parallel fetch complete")

	return items, nil
}

// fetchPage runs one fetch under the per-page timeout.
func (bf *BatchFetcher[T]) fetchPage(ctx context.Context, fetch PageFunc[T], pageNum int) (*Page[T], error) {
	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()

	page, err := fetch(pageCtx, pageNum)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, fmt.Errorf("%w: page %d", ErrNilPage, pageNum)
	}
	return page, nil
}
