package usecase

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/partlens/backend/internal/domain"
)

// EngineConfig holds configuration for the resolution engine
type EngineConfig struct {
	// ImageThreshold is the Hamming distance used when gathering visually
	// near candidates for a matched item (defaults to the dedup threshold)
	ImageThreshold int

	EnableDebugLogging bool
}

// ResolutionEngine orchestrates matching, image deduplication, and price
// rescue over a batch of target items. It owns no algorithmic complexity
// itself; it is the seam where a failed sub-step (no image, no price) must
// not abort the rest of the item or the batch.
type ResolutionEngine struct {
	matcher        *IdentityMatcher
	dedup          *ImageDeduplicator
	imageThreshold int
	debug          bool
}

// NewResolutionEngine creates an engine from its sub-components
func NewResolutionEngine(matcher *IdentityMatcher, dedup *ImageDeduplicator, config EngineConfig) *ResolutionEngine {
	threshold := config.ImageThreshold
	if threshold <= 0 {
		threshold = 5
	}
	return &ResolutionEngine{
		matcher:        matcher,
		dedup:          dedup,
		imageThreshold: threshold,
		debug:          config.EnableDebugLogging,
	}
}

// Batch is one independent unit of resolution work: disjoint targets against
// their own read-only snapshots.
type Batch struct {
	Targets []domain.ItemRecord
	Pools   []*SourceCatalog
	Images  *ImageIndex
	Cascade *PriceRescueCascade
}

// Run resolves every target in input order and aggregates a report. Targets
// keep their input position in the report's Results list, so callers can
// correlate input to outcome deterministically. Running the same batch twice
// against unchanged pools produces identical reports: there is no randomness
// and no wall-clock tie-break anywhere in the cascade.
func (e *ResolutionEngine) Run(targets []domain.ItemRecord, pools []*SourceCatalog, images *ImageIndex, cascade *PriceRescueCascade) domain.ResolutionReport {
	report := domain.ResolutionReport{
		TotalTargets:          len(targets),
		ConfidenceHistogram:   make(map[string]int),
		PerSourceContribution: make(map[string]int),
	}

	for _, target := range targets {
		result := e.matcher.Match(target, pools, 0)

		if result.Matched != nil && images != nil {
			result.Image = e.pickImage(target, *result.Matched, images)
		}

		// Price rescue is per target, not per match: the target's own keys may
		// hit the cascade even when no identity was resolved. A matched record
		// only contributes a second set of keys.
		if needsPriceRescue(target) && cascade != nil {
			price := cascade.Resolve(target.RawCode, target.RawTitle)
			if !price.Resolved && result.Matched != nil {
				price = cascade.Resolve(result.Matched.RawCode, result.Matched.RawTitle)
			}
			result.Price = &price
		}

		if result.Matched != nil {
			report.Matched = append(report.Matched, result)
			report.PerSourceContribution[result.Matched.SourceID]++
		} else {
			report.Unmatched = append(report.Unmatched, target)
		}

		report.ConfidenceHistogram[confidenceBucket(result.Confidence)]++
		report.Results = append(report.Results, result)
	}

	if e.debug {
		log.Printf("[ENGINE] resolved %d targets: %d matched, %d unmatched", report.TotalTargets, len(report.Matched), len(report.Unmatched))
	}
	return report
}

// RunBatches resolves independent batches in parallel. Each batch reads its
// own snapshots, so no shared mutable index is written concurrently; reports
// come back in batch order.
func (e *ResolutionEngine) RunBatches(ctx context.Context, batches []Batch) ([]domain.ResolutionReport, error) {
	reports := make([]domain.ResolutionReport, len(batches))

	g, ctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			reports[i] = e.Run(batch.Targets, batch.Pools, batch.Images, batch.Cascade)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// pickImage gathers the image candidates referenced by the target and the
// matched record, widens the set with visually-near candidates from the
// index, and deduplicates to a single representative. Returns nil when no
// usable candidate exists; a missing image never fails the item.
func (e *ResolutionEngine) pickImage(target, matched domain.ItemRecord, images *ImageIndex) *domain.ImageCandidate {
	var pool []domain.ImageCandidate
	seen := make(map[string]bool)

	for _, ref := range []string{target.ImageRef, matched.ImageRef} {
		if ref == "" {
			continue
		}
		cand, ok := images.ByPath(ref)
		if !ok {
			continue
		}
		for _, near := range images.FindWithin(cand.Fingerprint, e.imageThreshold) {
			if seen[near.Path] {
				continue
			}
			seen[near.Path] = true
			pool = append(pool, near)
		}
	}

	if len(pool) == 0 {
		return nil
	}

	representatives := e.dedup.Deduplicate(pool)
	if len(representatives) == 0 {
		return nil
	}
	rep := representatives[0]
	return &rep
}

// needsPriceRescue reports whether a target's own price is missing or
// untrustworthy enough to walk the cascade
func needsPriceRescue(target domain.ItemRecord) bool {
	return !target.HasPrice || target.Price <= 0
}

// confidenceBucket maps a confidence score onto a histogram bucket key
func confidenceBucket(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return "0.8-1.0"
	case confidence >= 0.6:
		return "0.6-0.8"
	case confidence >= 0.4:
		return "0.4-0.6"
	case confidence >= 0.2:
		return "0.2-0.4"
	default:
		return "0.0-0.2"
	}
}
