// File path: internal/api/server_test.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"queryscope/internal/common"
	"queryscope/internal/querystats"
	"queryscope/internal/search"
)

type fakeStore struct {
	mu       sync.Mutex
	buckets  []search.TermBucket
	aggErr   error
	docs     []search.Document
	requests []*search.SearchRequest
}

func (f *fakeStore) Available() bool { return true }

func (f *fakeStore) Index() string { return "telemetry-test" }

func (f *fakeStore) Search(ctx context.Context, index string, req *search.SearchRequest) (*search.SearchResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if len(req.Aggs) > 0 {
		if f.aggErr != nil {
			return nil, f.aggErr
		}
		return &search.SearchResponse{
			Aggregations: map[string]search.AggregationResult{
				"group_by_query_hash": {Buckets: f.buckets},
			},
		}, nil
	}

	var flag, hash string
	if req.Query != nil && req.Query.Bool != nil {
		for _, clause := range req.Query.Bool.Must {
			if v, ok := clause.Term["isplanquery"]; ok {
				flag = v
			}
			if v, ok := clause.Term["query_hash"]; ok {
				hash = v
			}
		}
	}
	for _, doc := range f.docs {
		if doc.QueryHash == hash && doc.IsPlanQuery == flag {
			return &search.SearchResponse{
				Hits: search.HitsSection{Hits: []search.Hit{{Source: doc}}},
			}, nil
		}
	}
	return &search.SearchResponse{}, nil
}

func (f *fakeStore) aggSize(t *testing.T) int {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.requests {
		if agg, ok := req.Aggs["group_by_query_hash"]; ok && agg.Terms != nil {
			return agg.Terms.Size
		}
	}
	t.Fatal("no aggregation request recorded")
	return 0
}

func newTestServer(t *testing.T, store *fakeStore) *Server {
	t.Helper()
	cfg := querystats.Config{TopK: 10, Concurrency: 4, LookupTimeout: time.Second}
	svc := querystats.NewService(store, cfg)
	srv, err := NewServer(svc, store)
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	return srv
}

func doRequest(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeStore{})
	rec := doRequest(t, srv, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestQueryReturnsOrderedStatementMapping(t *testing.T) {
	store := &fakeStore{
		buckets: []search.TermBucket{
			{Key: "h1", DocCount: 5},
			{Key: "h2", DocCount: 3},
		},
		docs: []search.Document{
			{QueryHash: "h1", IsPlanQuery: "no", Statement: "SELECT 1"},
			{QueryHash: "h2", IsPlanQuery: "no", Statement: "SELECT 2"},
		},
	}
	srv := newTestServer(t, store)

	rec := doRequest(t, srv, "/query")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type: %q", ct)
	}
	body := strings.TrimSpace(rec.Body.String())
	if body != `{"h1":"SELECT 1","h2":"SELECT 2"}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestQueryPlanReturnsCompositeEntries(t *testing.T) {
	store := &fakeStore{
		buckets: []search.TermBucket{{Key: "h1", DocCount: 5}},
		docs: []search.Document{
			{QueryHash: "h1", IsPlanQuery: "no", Statement: "SELECT 1"},
			{QueryHash: "h1", IsPlanQuery: "yes", QueryPlan: "PLAN A"},
		},
	}
	srv := newTestServer(t, store)

	rec := doRequest(t, srv, "/queryplan")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body := strings.TrimSpace(rec.Body.String())
	if body != `{"h1":{"statement":"SELECT 1","query_plan":"PLAN A"}}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestSingleStatementLookup(t *testing.T) {
	store := &fakeStore{
		docs: []search.Document{
			{QueryHash: "h1", IsPlanQuery: "no", Statement: "SELECT 1"},
			{QueryHash: "h1", IsPlanQuery: "yes", QueryPlan: "PLAN A"},
		},
	}
	srv := newTestServer(t, store)

	rec := doRequest(t, srv, "/query/h1")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type: %q", ct)
	}
	if rec.Body.String() != "SELECT 1" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}

	rec = doRequest(t, srv, "/queryplan/h1")
	if rec.Code != http.StatusOK || rec.Body.String() != "PLAN A" {
		t.Fatalf("unexpected plan response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestSingleLookupMissReturnsMarker(t *testing.T) {
	srv := newTestServer(t, &fakeStore{})

	for _, path := range []string{"/query/h2", "/queryplan/h2"} {
		rec := doRequest(t, srv, path)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: unexpected status %d", path, rec.Code)
		}
		var payload map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("%s: decode body: %v", path, err)
		}
		if payload["message"] != "No documents found" {
			t.Fatalf("%s: unexpected payload: %v", path, payload)
		}
	}
}

func TestFingerprintsReturnsBareArray(t *testing.T) {
	store := &fakeStore{
		buckets: []search.TermBucket{
			{Key: "h1", DocCount: 5},
			{Key: "h2", DocCount: 3},
		},
	}
	srv := newTestServer(t, store)

	rec := doRequest(t, srv, "/v1/fingerprints")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var fingerprints []string
	if err := json.Unmarshal(rec.Body.Bytes(), &fingerprints); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(fingerprints) != 2 || fingerprints[0] != "h1" || fingerprints[1] != "h2" {
		t.Fatalf("unexpected fingerprints: %v", fingerprints)
	}
}

func TestBackendFailureReturnsServerError(t *testing.T) {
	store := &fakeStore{
		aggErr: fmt.Errorf("%w: connection refused", search.ErrUnavailable),
	}
	srv := newTestServer(t, store)

	rec := doRequest(t, srv, "/query")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload["error"] == "" {
		t.Fatal("expected diagnostic error message")
	}
}

func TestLimitParamOverridesDefault(t *testing.T) {
	store := &fakeStore{buckets: []search.TermBucket{{Key: "h1", DocCount: 1}}}
	srv := newTestServer(t, store)

	rec := doRequest(t, srv, "/v1/fingerprints?limit=25")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if size := store.aggSize(t); size != 25 {
		t.Fatalf("expected aggregation size 25, got %d", size)
	}
}

func TestInvalidLimitParamFallsBackToDefault(t *testing.T) {
	store := &fakeStore{buckets: []search.TermBucket{{Key: "h1", DocCount: 1}}}
	srv := newTestServer(t, store)

	rec := doRequest(t, srv, "/v1/fingerprints?limit=lots")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if size := store.aggSize(t); size != 10 {
		t.Fatalf("expected default aggregation size 10, got %d", size)
	}
}

func TestLogsEndpointServesCapturedHistory(t *testing.T) {
	srv := newTestServer(t, &fakeStore{})

	// Server construction already logs through the common logger, so the
	// sink is guaranteed non-empty here.
	rec := doRequest(t, srv, "/v1/logs")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var payload struct {
		Logs []common.LogEntry `json:"logs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(payload.Logs) == 0 {
		t.Fatal("expected captured log entries")
	}
	for _, entry := range payload.Logs {
		if entry.Message == "" || entry.Level == "" {
			t.Fatalf("incomplete log entry: %+v", entry)
		}
	}
}

func readCounter(t *testing.T, srv *Server, name string) float64 {
	t.Helper()
	rec := doRequest(t, srv, "/debug/vars")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected /debug/vars status: %d", rec.Code)
	}
	var vars map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &vars); err != nil {
		t.Fatalf("decode /debug/vars: %v", err)
	}
	value, ok := vars[name].(float64)
	if !ok {
		t.Fatalf("counter %s missing from /debug/vars", name)
	}
	return value
}

func TestBackendCallsAdvanceExpvarCounters(t *testing.T) {
	store := &fakeStore{
		buckets: []search.TermBucket{{Key: "h1", DocCount: 5}},
		docs: []search.Document{
			{QueryHash: "h1", IsPlanQuery: "no", Statement: "SELECT 1"},
		},
	}
	srv := newTestServer(t, store)

	if rec := doRequest(t, srv, "/query"); rec.Code != http.StatusOK {
		t.Fatalf("unexpected /query status: %d", rec.Code)
	}
	aggregations := readCounter(t, srv, "queryscope_aggregation_total")
	lookups := readCounter(t, srv, "queryscope_lookup_total")

	if rec := doRequest(t, srv, "/query"); rec.Code != http.StatusOK {
		t.Fatalf("unexpected /query status: %d", rec.Code)
	}
	if got := readCounter(t, srv, "queryscope_aggregation_total"); got != aggregations+1 {
		t.Fatalf("aggregation counter: expected %v, got %v", aggregations+1, got)
	}
	if got := readCounter(t, srv, "queryscope_lookup_total"); got != lookups+1 {
		t.Fatalf("lookup counter: expected %v, got %v", lookups+1, got)
	}
}

func TestRequestIDHeaderAttached(t *testing.T) {
	srv := newTestServer(t, &fakeStore{})
	rec := doRequest(t, srv, "/healthz")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
}
