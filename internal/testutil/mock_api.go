// Package testutil provides testing utilities for the SkyBlock API client.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/skyblock-client/pkg/skyblock"
)

// MockResponse defines the behavior for a mock API endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock SkyBlock API server for testing.
//
// Paths are registered without the leading slash, matching the endpoint
// names the client uses ("auctions", "bazaar/product").
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	requestCount int
	keys         []string
	rawQueries   []string
	pathCounts   map[string]int
	lastHeader   http.Header
}

// NewMockAPI creates a new mock API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")

		mock.mu.Lock()
		mock.requestCount++
		mock.keys = append(mock.keys, r.URL.Query().Get("key"))
		mock.rawQueries = append(mock.rawQueries, r.URL.RawQuery)
		mock.pathCounts[path]++
		mock.lastHeader = r.Header.Clone()
		handler, exists := mock.handlers[path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		// Unknown endpoints answer like the real API does.
		writeJSON(w, http.StatusNotFound, `{"success":false,"cause":"Invalid path"}`, nil)
	}))

	return mock
}

// URL returns the base URL to configure the client with.
func (m *MockAPI) URL() string {
	return m.server.URL + "/"
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking state.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.keys = nil
	m.rawQueries = nil
	m.pathCounts = make(map[string]int)
	m.lastHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[strings.TrimPrefix(path, "/")] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		writeJSON(w, resp.StatusCode, resp.Body, resp.Headers)
	})
}

// SetAuctionPages serves the given pages on "auctions?page=N". Every page
// reports len(pages) as its total; a page index outside the range gets the
// API's failure envelope.
func (m *MockAPI) SetAuctionPages(pages ...[]skyblock.Auction) {
	total := 0
	for _, p := range pages {
		total += len(p)
	}

	bodies := make([]string, len(pages))
	for i, items := range pages {
		bodies[i] = AuctionsPageBody(i, len(pages), total, items)
	}

	m.SetHandler("auctions", func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			page = 0
		}
		if page < 0 || page >= len(bodies) {
			writeJSON(w, http.StatusNotFound, `{"success":false,"cause":"Page not found"}`, nil)
			return
		}
		writeJSON(w, http.StatusOK, bodies[page], nil)
	})
}

// RequestCount returns the number of requests made to the server.
func (m *MockAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathCount returns the number of requests made to one path.
func (m *MockAPI) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[strings.TrimPrefix(path, "/")]
}

// Keys returns the API key sent with every request, in arrival order.
func (m *MockAPI) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.keys...)
}

// RawQueries returns the raw query string of every request, in arrival order.
func (m *MockAPI) RawQueries() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.rawQueries...)
}

// LastHeader returns the headers of the most recent request.
func (m *MockAPI) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

func writeJSON(w http.ResponseWriter, status int, body string, headers map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(status)
	if body != "" {
		w.Write([]byte(body))
	}
}

// AuctionsPageBody renders one page of the auctions endpoint.
func AuctionsPageBody(page, totalPages, totalAuctions int, auctions []skyblock.Auction) string {
	if auctions == nil {
		auctions = []skyblock.Auction{}
	}
	data, err := json.Marshal(skyblock.AuctionsPage{
		Success:       true,
		Page:          page,
		TotalPages:    totalPages,
		TotalAuctions: totalAuctions,
		LastUpdated:   1700000000000,
		Auctions:      auctions,
	})
	if err != nil {
		panic(err)
	}
	return string(data)
}

// NewAuction returns a minimal auction for fixtures.
func NewAuction(uuid, name string) skyblock.Auction {
	return skyblock.Auction{
		UUID:       uuid,
		Auctioneer: "f06e38d0cd634a4ea23306cef8b0bcee",
		Coop:       []string{"f06e38d0cd634a4ea23306cef8b0bcee"},
		Start:      1700000000000,
		End:        1700003600000,
		Item: skyblock.Item{
			Name:     name,
			Category: "misc",
			Tier:     skyblock.RarityCommon,
			Bytes:    skyblock.ItemBytes{Data: "H4sIAAAAAAAAAAEAAP//AAAAAAAAAAA="},
		},
		Bids: skyblock.Bids{StartingBid: 100, Bids: []skyblock.Bid{}},
	}
}

// NewSuccessResponse creates a 200 OK response with a JSON body.
func NewSuccessResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
	}
}

// NewFailureResponse creates the API's failure envelope with the given cause.
func NewFailureResponse(status int, cause string) MockResponse {
	body, _ := json.Marshal(map[string]any{"success": false, "cause": cause})
	return MockResponse{
		StatusCode: status,
		Body:       string(body),
	}
}

// NewQuotaResponse creates a 200 OK response carrying quota headers.
func NewQuotaResponse(body string, remaining, resetSeconds int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"RateLimit-Limit":     "120",
			"RateLimit-Remaining": strconv.Itoa(remaining),
			"RateLimit-Reset":     strconv.Itoa(resetSeconds),
		},
	}
}
