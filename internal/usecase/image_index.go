package usecase

import (
	"github.com/partlens/backend/internal/domain"
)

// ImageIndex holds fingerprinted image candidates for one resolution run and
// answers nearest-neighbor queries within a Hamming distance threshold. The
// index is built per batch and discarded with it; it is read-only after
// construction so concurrent batch workers may share a snapshot.
type ImageIndex struct {
	candidates []domain.ImageCandidate
	byPath     map[string]int
}

// NewImageIndex builds an index over already-fingerprinted candidates.
// Candidates without a fingerprint are excluded; the second return value
// reports how many were skipped.
func NewImageIndex(candidates []domain.ImageCandidate) (*ImageIndex, int) {
	ix := &ImageIndex{byPath: make(map[string]int, len(candidates))}
	skipped := 0
	for _, c := range candidates {
		if !c.HasFingerprint {
			skipped++
			continue
		}
		if _, exists := ix.byPath[c.Path]; exists {
			continue
		}
		ix.byPath[c.Path] = len(ix.candidates)
		ix.candidates = append(ix.candidates, c)
	}
	return ix, skipped
}

// Len returns the number of indexed candidates
func (ix *ImageIndex) Len() int { return len(ix.candidates) }

// ByPath returns the candidate stored under a path
func (ix *ImageIndex) ByPath(path string) (domain.ImageCandidate, bool) {
	idx, ok := ix.byPath[path]
	if !ok {
		return domain.ImageCandidate{}, false
	}
	return ix.candidates[idx], true
}

// FindWithin returns every candidate within the Hamming distance threshold of
// the query fingerprint, in insertion order.
func (ix *ImageIndex) FindWithin(query domain.Fingerprint, threshold int) []domain.ImageCandidate {
	var out []domain.ImageCandidate
	for _, c := range ix.candidates {
		if query.Distance(c.Fingerprint) <= threshold {
			out = append(out, c)
		}
	}
	return out
}
