package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatchFetcher_Defaults(t *testing.T) {
	bf := NewBatchFetcher[string](Config{})

	if bf.config.MaxConcurrency != 4 {
		t.Errorf("MaxConcurrency = %d, want 4", bf.config.MaxConcurrency)
	}
	if bf.config.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", bf.config.Timeout)
	}
}

func TestBatchFetcher_FetchAll_OrderedDespiteCompletionOrder(t *testing.T) {
	const totalPages = 12

	fetch := func(ctx context.Context, page int) (*Page[string], error) {
		// Later pages finish first.
		time.Sleep(time.Duration(totalPages-page) * time.Millisecond)
		return &Page[string]{
			Index:      page,
			TotalPages: totalPages,
			TotalItems: totalPages * 2,
			Items:      []string{fmt.Sprintf("%d-a", page), fmt.Sprintf("%d-b", page)},
		}, nil
	}

	items, err := NewBatchFetcher[string](Config{MaxConcurrency: 5}).FetchAll(context.Background(), fetch)
	require.NoError(t, err)
	require.Len(t, items, totalPages*2)

	for page := 0; page < totalPages; page++ {
		assert.Equal(t, fmt.Sprintf("%d-a", page), items[page*2])
		assert.Equal(t, fmt.Sprintf("%d-b", page), items[page*2+1])
	}
}

func TestBatchFetcher_FetchAll_MatchesCollect(t *testing.T) {
	f := threePages()

	items, err := NewBatchFetcher[string](DefaultConfig()).FetchAll(context.Background(), f.fetch)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, items)
	assert.Equal(t, 3, f.calls())
}

func TestBatchFetcher_FetchAll_SinglePage(t *testing.T) {
	f := newFixture([]string{"only"})

	items, err := NewBatchFetcher[string](DefaultConfig()).FetchAll(context.Background(), f.fetch)
	require.NoError(t, err)

	assert.Equal(t, []string{"only"}, items)
	assert.Equal(t, 1, f.calls())
}

func TestBatchFetcher_FetchAll_FirstPageError(t *testing.T) {
	f := threePages()
	f.failAt = 0

	items, err := NewBatchFetcher[string](DefaultConfig()).FetchAll(context.Background(), f.fetch)
	assert.ErrorIs(t, err, errFixture)
	assert.Nil(t, items)
	assert.Equal(t, 1, f.calls())
}

func TestBatchFetcher_FetchAll_ErrorCancelsRemainingPages(t *testing.T) {
	errBroken := errors.New("page 1 broken")
	var cancelled atomic.Int32

	fetch := func(ctx context.Context, page int) (*Page[string], error) {
		switch page {
		case 0:
			return &Page[string]{Index: 0, TotalPages: 4, Items: []string{"a"}}, nil
		case 1:
			return nil, errBroken
		default:
			select {
			case <-ctx.Done():
				cancelled.Add(1)
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
				return &Page[string]{Index: page, TotalPages: 4, Items: []string{"x"}}, nil
			}
		}
	}

	start := time.Now()
	items, err := NewBatchFetcher[string](Config{MaxConcurrency: 4}).FetchAll(context.Background(), fetch)

	assert.ErrorIs(t, err, errBroken)
	assert.Nil(t, items)
	assert.Less(t, time.Since(start), time.Second, "remaining pages should be cancelled")
	assert.Equal(t, int32(2), cancelled.Load())
}

func TestBatchFetcher_FetchAll_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32

	fetch := func(ctx context.Context, page int) (*Page[int], error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return &Page[int]{Index: page, TotalPages: 20, Items: []int{page}}, nil
	}

	items, err := NewBatchFetcher[int](Config{MaxConcurrency: 3}).FetchAll(context.Background(), fetch)
	require.NoError(t, err)
	assert.Len(t, items, 20)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestBatchFetcher_FetchAll_PerPageTimeout(t *testing.T) {
	fetch := func(ctx context.Context, page int) (*Page[string], error) {
		if page == 0 {
			return &Page[string]{Index: 0, TotalPages: 2, Items: []string{"a"}}, nil
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := NewBatchFetcher[string](Config{Timeout: 20 * time.Millisecond}).FetchAll(context.Background(), fetch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
