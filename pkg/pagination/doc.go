// Package pagination walks numbered page sequences whose length is only known
// once the first page has been fetched.
//
// Pages are numbered from 0 and every page reports the total page count. The
// walkers re-read that count from every page and stop once the next index
// would reach it; a page reporting 0 pages, or a count equal to its own
// index, is treated as the last one.
//
// Three walkers share that contract:
//
//	items, err := pagination.Collect(ctx, fetchPage)          // ordered slice
//	err := pagination.ForEach(ctx, fetchPage, handle)         // per-item callback
//	items, err := pagination.NewBatchFetcher[T](cfg).FetchAll(ctx, fetchPage)
//
// Collect and ForEach fetch strictly in index order. ForEach stops at the
// first callback error without fetching further pages. BatchFetcher fetches
// page 0, then the remaining pages concurrently, and still assembles items in
// index order; it bounds the walk by the count reported on page 0.
//
// Every walker aborts on the first fetch error and returns no partial result.
package pagination
