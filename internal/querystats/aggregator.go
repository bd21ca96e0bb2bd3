// File path: internal/querystats/aggregator.go
package querystats

import (
	"context"
	"fmt"
	"strings"

	"queryscope/internal/common"
	"queryscope/internal/common/telemetry"
	"queryscope/internal/search"
)

const (
	fingerprintField = "query_hash"
	planFlagField    = "isplanquery"
	timestampField   = "@timestamp"

	fingerprintAggName = "group_by_query_hash"
)

// Bucket is one aggregation row: a distinct query fingerprint and how many
// captured documents carry it.
type Bucket struct {
	Fingerprint string
	Occurrences int64
}

// Aggregator produces the top fingerprints by occurrence count from the
// statement view of the index.
type Aggregator struct {
	store search.Store
}

func NewAggregator(store search.Store) *Aggregator {
	return &Aggregator{store: store}
}

// TopFingerprints runs one filtered terms aggregation bounded to limit
// buckets. Buckets arrive in the backend's ranking order (occurrence count
// descending); fingerprints beyond limit are silently omitted. Buckets with
// an empty key are dropped.
func (a *Aggregator) TopFingerprints(ctx context.Context, limit int) ([]Bucket, error) {
	req := &search.SearchRequest{
		Query: search.TermQuery(planFlagField, "no"),
		Aggs: map[string]search.Aggregation{
			fingerprintAggName: search.TermsAgg(fingerprintField, limit),
		},
		Size: search.Size(0),
	}
	resp, err := a.store.Search(ctx, a.store.Index(), req)
	if err != nil {
		telemetry.RecordAggregation(false)
		return nil, fmt.Errorf("aggregate fingerprints: %w", err)
	}
	agg, ok := resp.Aggregations[fingerprintAggName]
	if !ok {
		telemetry.RecordAggregation(false)
		return nil, fmt.Errorf("%w: missing %q aggregation", search.ErrMalformed, fingerprintAggName)
	}
	telemetry.RecordAggregation(true)

	buckets := make([]Bucket, 0, len(agg.Buckets))
	for _, b := range agg.Buckets {
		if strings.TrimSpace(b.Key) == "" {
			common.Logger().Warn("stats: dropping empty fingerprint bucket", "doc_count", b.DocCount)
			continue
		}
		buckets = append(buckets, Bucket{Fingerprint: b.Key, Occurrences: b.DocCount})
	}
	return buckets, nil
}
