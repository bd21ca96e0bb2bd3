// File path: internal/common/telemetry/telemetry_test.go
package telemetry

import (
	"expvar"
	"testing"
	"time"
)

func counterValue(t *testing.T, name string) int64 {
	t.Helper()
	v, ok := expvar.Get(name).(*expvar.Int)
	if !ok {
		t.Fatalf("counter %s not registered", name)
	}
	return v.Value()
}

func TestRecordSearchAdvancesCounters(t *testing.T) {
	RecordSearch(true, 5*time.Millisecond)
	total := counterValue(t, "queryscope_backend_search_total")
	failures := counterValue(t, "queryscope_backend_search_failures")
	latency := counterValue(t, "queryscope_backend_search_latency_ms")

	RecordSearch(false, 20*time.Millisecond)

	if got := counterValue(t, "queryscope_backend_search_total"); got != total+1 {
		t.Fatalf("search total: expected %d, got %d", total+1, got)
	}
	if got := counterValue(t, "queryscope_backend_search_failures"); got != failures+1 {
		t.Fatalf("search failures: expected %d, got %d", failures+1, got)
	}
	if got := counterValue(t, "queryscope_backend_search_latency_ms"); got < latency+20 {
		t.Fatalf("search latency: expected at least %d, got %d", latency+20, got)
	}
}

func TestRecordLookupCountsMisses(t *testing.T) {
	RecordLookup(true)
	total := counterValue(t, "queryscope_lookup_total")
	notFound := counterValue(t, "queryscope_lookup_not_found")

	RecordLookup(false)
	RecordLookup(true)

	if got := counterValue(t, "queryscope_lookup_total"); got != total+2 {
		t.Fatalf("lookup total: expected %d, got %d", total+2, got)
	}
	if got := counterValue(t, "queryscope_lookup_not_found"); got != notFound+1 {
		t.Fatalf("lookup not found: expected %d, got %d", notFound+1, got)
	}
}

func TestRecordAggregationCountsFailures(t *testing.T) {
	RecordAggregation(true)
	total := counterValue(t, "queryscope_aggregation_total")
	failures := counterValue(t, "queryscope_aggregation_failures")

	RecordAggregation(false)

	if got := counterValue(t, "queryscope_aggregation_total"); got != total+1 {
		t.Fatalf("aggregation total: expected %d, got %d", total+1, got)
	}
	if got := counterValue(t, "queryscope_aggregation_failures"); got != failures+1 {
		t.Fatalf("aggregation failures: expected %d, got %d", failures+1, got)
	}
}
