// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"expvar"
	"sync"
	"time"
)

var (
	initOnce sync.Once

	searchTotal     *expvar.Int
	searchFailures  *expvar.Int
	searchLatencyMS *expvar.Int

	lookupTotal    *expvar.Int
	lookupNotFound *expvar.Int

	aggregationTotal    *expvar.Int
	aggregationFailures *expvar.Int
)

func ensureInit() {
	initOnce.Do(func() {
		searchTotal = expvar.NewInt("queryscope_backend_search_total")
		searchFailures = expvar.NewInt("queryscope_backend_search_failures")
		searchLatencyMS = expvar.NewInt("queryscope_backend_search_latency_ms")

		lookupTotal = expvar.NewInt("queryscope_lookup_total")
		lookupNotFound = expvar.NewInt("queryscope_lookup_not_found")

		aggregationTotal = expvar.NewInt("queryscope_aggregation_total")
		aggregationFailures = expvar.NewInt("queryscope_aggregation_failures")
	})
}

// RecordSearch captures the outcome of one backend search call.
func RecordSearch(ok bool, elapsed time.Duration) {
	ensureInit()
	searchTotal.Add(1)
	if !ok {
		searchFailures.Add(1)
	}
	searchLatencyMS.Add(elapsed.Milliseconds())
}

// RecordLookup captures a representative-document lookup. found=false counts
// a normal empty result, not a failure.
func RecordLookup(found bool) {
	ensureInit()
	lookupTotal.Add(1)
	if !found {
		lookupNotFound.Add(1)
	}
}

// RecordAggregation captures a terms-aggregation call.
func RecordAggregation(ok bool) {
	ensureInit()
	aggregationTotal.Add(1)
	if !ok {
		aggregationFailures.Add(1)
	}
}
