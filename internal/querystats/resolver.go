// File path: internal/querystats/resolver.go
package querystats

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"queryscope/internal/common/telemetry"
	"queryscope/internal/search"
)

// Kind selects which filtered view of the index a lookup runs against.
type Kind string

const (
	KindStatement Kind = "statement"
	KindPlan      Kind = "plan"
)

func (k Kind) planFlag() string {
	if k == KindPlan {
		return "yes"
	}
	return "no"
}

// Resolver fetches one representative document for a fingerprint. When
// several documents share a fingerprint the most recently captured one wins;
// the backend's relevance ordering is not stable enough to rely on.
type Resolver struct {
	store search.Store
}

func NewResolver(store search.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the representative document for fingerprint in the given
// view. found=false reports a normal empty result, not a failure: a
// fingerprint captured only in the other view is expected data.
func (r *Resolver) Resolve(ctx context.Context, fingerprint string, kind Kind) (search.Document, bool, error) {
	if strings.TrimSpace(fingerprint) == "" {
		return search.Document{}, false, errors.New("fingerprint required")
	}
	req := &search.SearchRequest{
		Query: search.MustQuery(
			search.TermQuery(planFlagField, kind.planFlag()),
			search.TermQuery(fingerprintField, fingerprint),
		),
		Size: search.Size(1),
		Sort: []map[string]search.SortOrder{search.SortDesc(timestampField)},
	}
	resp, err := r.store.Search(ctx, r.store.Index(), req)
	if err != nil {
		return search.Document{}, false, fmt.Errorf("resolve %s %q: %w", kind, fingerprint, err)
	}
	if len(resp.Hits.Hits) == 0 {
		telemetry.RecordLookup(false)
		return search.Document{}, false, nil
	}
	telemetry.RecordLookup(true)
	return resp.Hits.Hits[0].Source, true, nil
}
