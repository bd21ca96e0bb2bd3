// File path: internal/querystats/service.go
package querystats

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"queryscope/internal/common"
	"queryscope/internal/search"
)

// ErrMissingDocument marks a fingerprint whose statement/plan pair is
// incomplete when the service runs with StrictPlans enabled.
var ErrMissingDocument = errors.New("document missing for fingerprint")

// PlanEntry is the combined payload for one fingerprint on the plan surface.
type PlanEntry struct {
	Statement string `json:"statement"`
	QueryPlan string `json:"query_plan"`
}

// Service orchestrates the two-phase protocol: one terms aggregation, then
// one or two representative-document lookups per bucket, merged back in
// bucket order.
type Service struct {
	aggregator *Aggregator
	resolver   *Resolver
	cfg        Config
}

func NewService(store search.Store, cfg Config) *Service {
	(&cfg).applyDefaults()
	return &Service{
		aggregator: NewAggregator(store),
		resolver:   NewResolver(store),
		cfg:        cfg,
	}
}

// ListFingerprints returns the top fingerprints by occurrence count, most
// frequent first. No per-fingerprint resolution happens.
func (s *Service) ListFingerprints(ctx context.Context, limit int) ([]string, error) {
	buckets, err := s.aggregator.TopFingerprints(ctx, s.clampLimit(limit))
	if err != nil {
		return nil, err
	}
	fingerprints := make([]string, 0, len(buckets))
	for _, bucket := range buckets {
		fingerprints = append(fingerprints, bucket.Fingerprint)
	}
	return fingerprints, nil
}

// ResolveStatements aggregates the top fingerprints and resolves each into
// its representative statement text. Fingerprints with no statement document
// are omitted.
func (s *Service) ResolveStatements(ctx context.Context, limit int) (*ResultSet, error) {
	buckets, err := s.aggregator.TopFingerprints(ctx, s.clampLimit(limit))
	if err != nil {
		return nil, err
	}

	type outcome struct {
		statement string
		found     bool
	}
	results := make([]outcome, len(buckets))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, bucket := range buckets {
		i, bucket := i, bucket
		g.Go(func() error {
			doc, found, err := s.resolveOne(ctx, bucket.Fingerprint, KindStatement)
			if err != nil {
				return err
			}
			results[i] = outcome{statement: doc.Statement, found: found}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := NewResultSet()
	for i, bucket := range buckets {
		if !results[i].found {
			common.Logger().Debug("stats: no statement document", "fingerprint", bucket.Fingerprint)
			continue
		}
		set.Add(bucket.Fingerprint, results[i].statement)
	}
	return set, nil
}

// ResolvePlans aggregates the top fingerprints and resolves each into a
// combined statement+plan entry. Incomplete pairs are dropped, or fail the
// whole call when StrictPlans is set.
func (s *Service) ResolvePlans(ctx context.Context, limit int) (*ResultSet, error) {
	buckets, err := s.aggregator.TopFingerprints(ctx, s.clampLimit(limit))
	if err != nil {
		return nil, err
	}

	type outcome struct {
		entry    PlanEntry
		complete bool
	}
	results := make([]outcome, len(buckets))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, bucket := range buckets {
		i, bucket := i, bucket
		g.Go(func() error {
			stmtDoc, stmtFound, err := s.resolveOne(ctx, bucket.Fingerprint, KindStatement)
			if err != nil {
				return err
			}
			planDoc, planFound, err := s.resolveOne(ctx, bucket.Fingerprint, KindPlan)
			if err != nil {
				return err
			}
			if !stmtFound || !planFound {
				if s.cfg.StrictPlans {
					return fmt.Errorf("%w: %s", ErrMissingDocument, bucket.Fingerprint)
				}
				return nil
			}
			results[i] = outcome{
				entry:    PlanEntry{Statement: stmtDoc.Statement, QueryPlan: planDoc.QueryPlan},
				complete: true,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := NewResultSet()
	for i, bucket := range buckets {
		if !results[i].complete {
			common.Logger().Debug("stats: incomplete statement+plan pair", "fingerprint", bucket.Fingerprint)
			continue
		}
		set.Add(bucket.Fingerprint, results[i].entry)
	}
	return set, nil
}

// GetStatement resolves one fingerprint's statement text directly, without
// aggregation. found=false reports an empty result.
func (s *Service) GetStatement(ctx context.Context, fingerprint string) (string, bool, error) {
	doc, found, err := s.resolveOne(ctx, fingerprint, KindStatement)
	if err != nil || !found {
		return "", false, err
	}
	return doc.Statement, true, nil
}

// GetPlan resolves one fingerprint's plan text directly, without
// aggregation.
func (s *Service) GetPlan(ctx context.Context, fingerprint string) (string, bool, error) {
	doc, found, err := s.resolveOne(ctx, fingerprint, KindPlan)
	if err != nil || !found {
		return "", false, err
	}
	return doc.QueryPlan, true, nil
}

// resolveOne wraps a single lookup in its own timeout so a slow backend call
// fails that fingerprint alone, not its siblings.
func (s *Service) resolveOne(ctx context.Context, fingerprint string, kind Kind) (search.Document, bool, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.LookupTimeout)
	defer cancel()
	return s.resolver.Resolve(lookupCtx, fingerprint, kind)
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.TopK
	}
	if limit > maxTopK {
		return maxTopK
	}
	return limit
}
