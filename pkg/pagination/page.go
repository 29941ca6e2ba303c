package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for paginated walks.
var (
	pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skyblock_pages_fetched_total",
		Help: "Total pages fetched by walk mode",
	}, []string{"mode"})

	walkDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skyblock_pagination_duration_seconds",
		Help:    "Duration of complete paginated walks by mode",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"mode"})
)

// ErrNilPage is returned when a PageFunc returns neither a page nor an error.
var ErrNilPage = errors.New("page fetch returned no page")

// maxPreallocItems caps the capacity taken from a page's item count hint.
const maxPreallocItems = 1 << 20

// Page is one slice of a larger collection.
type Page[T any] struct {
	// Index is the zero-based page number.
	Index int

	// TotalPages is the server-reported number of pages.
	TotalPages int

	// TotalItems is the server-reported size of the whole collection.
	// It is a sizing hint only.
	TotalItems int

	// LastUpdated is the server timestamp (unix millis) of the collection snapshot.
	LastUpdated int64

	// Items holds this page's items in server order.
	Items []T
}

// PageFunc fetches a single page by index.
type PageFunc[T any] func(ctx context.Context, page int) (*Page[T], error)

// Collect fetches every page in order and returns all items concatenated in
// page order. The first page's item count pre-sizes the result.
func Collect[T any](ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	start := time.Now()
	var items []T

	pages, err := walk(ctx, fetch, func(p *Page[T]) error {
		if items == nil {
			items = make([]T, 0, capacityHint(p.TotalItems, len(p.Items)))
		}
		items = append(items, p.Items...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	walkDuration.WithLabelValues("collect").Observe(time.Since(start).Seconds())
	log.Debug().
		Int("pages", pages).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Paginated collect complete")

	if items == nil {
		items = []T{}
	}
	return items, nil
}

// ForEach fetches pages in order and calls fn for every item. The first error
// returned by fn stops the walk immediately, no further pages are fetched,
// and that error is returned unchanged.
func ForEach[T any](ctx context.Context, fetch PageFunc[T], fn func(T) error) error {
	start := time.Now()

	pages, err := walk(ctx, fetch, func(p *Page[T]) error {
		for _, item := range p.Items {
			if err := fn(item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	walkDuration.WithLabelValues("stream").Observe(time.Since(start).Seconds())
	log.Debug().
		Int("pages", pages).
		Dur("duration", time.Since(start)).
		Msg("Paginated stream complete")

	return nil
}

// walk drives the sequential page loop shared by Collect and ForEach. The
// total page count is re-read from every page. A context that ends between
// pages is reported as "walk pages: <ctx error>". It returns the number of
// pages fetched.
func walk[T any](ctx context.Context, fetch PageFunc[T], visit func(*Page[T]) error) (int, error) {
	totalPages := 1
	fetched := 0

	for i := 0; i < totalPages; i++ {
		if err := ctx.Err(); err != nil {
			return fetched, fmt.Errorf("walk pages: %w", err)
		}

		page, err := fetch(ctx, i)
		if err != nil {
			return fetched, err
		}
		if page == nil {
			return fetched, fmt.Errorf("%w: page %d", ErrNilPage, i)
		}
		fetched++
		pagesFetchedTotal.WithLabelValues("sequential").Inc()

		totalPages = page.TotalPages

		if err := visit(page); err != nil {
			return fetched, err
		}
	}

	return fetched, nil
}

// capacityHint turns a reported item count into a safe slice capacity.
func capacityHint(reported, firstPage int) int {
	switch {
	case reported < firstPage:
		return firstPage
	case reported > maxPreallocItems:
		return maxPreallocItems
	default:
		return reported
	}
}
