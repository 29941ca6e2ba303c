// Package metrics exposes the Prometheus registry used by the SkyBlock
// client. All metrics are defined in their respective packages (client,
// ratelimit, pagination) and registered via promauto.
//
// This package provides the scrape handler and documentation for all
// available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer Handler serves from.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler that serves every registered metric.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Credential Metrics (pkg/ratelimit):
//   - skyblock_credential_consumptions_total{result} (Counter): Scan attempts by result (admitted, denied)
//   - skyblock_credential_wait_seconds (Histogram): Time Acquire spent waiting for a credential
//   - skyblock_rate_limit_exhausted_total (Counter): Acquire calls that gave up after MaxWait
//   - skyblock_credential_uses{credential} (Gauge): Uses in the current window by redacted key
//
// Request Metrics (pkg/client):
//   - skyblock_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//     (rate_limited and network_error for requests without a response)
//   - skyblock_request_duration_seconds{endpoint} (Histogram): Request duration including credential wait
//   - skyblock_errors_total{class} (Counter): Errors by class (transport, decode, api, rate_limit)
//
// Pagination Metrics (pkg/pagination):
//   - skyblock_pages_fetched_total{mode} (Counter): Pages fetched (sequential, batch)
//   - skyblock_pagination_duration_seconds{mode} (Histogram): Complete walk duration (collect, stream, batch)
//
// Example Prometheus Queries:
//
//   # Credential denial ratio
//   sum(rate(skyblock_credential_consumptions_total{result="denied"}[5m])) /
//   sum(rate(skyblock_credential_consumptions_total[5m]))
//
//   # Keys close to their window limit
//   skyblock_credential_uses > 100
//
//   # API failure rate
//   rate(skyblock_errors_total{class="api"}[5m])
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(skyblock_request_duration_seconds_bucket[5m]))
//
//   # Full auction house walk time
//   histogram_quantile(0.5, rate(skyblock_pagination_duration_seconds_bucket{mode="collect"}[1h]))
