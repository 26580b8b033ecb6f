package usecase

import (
	"log"
	"sort"

	"github.com/partlens/backend/internal/domain"
)

// DedupConfig holds configuration for image deduplication
type DedupConfig struct {
	// HammingThreshold is the maximum fingerprint distance for two images to
	// be considered the same photograph (default 5 over 64 bits)
	HammingThreshold int

	// MinWidth and MinByteSize form the strict quality floor
	MinWidth    int
	MinByteSize int

	// RelaxedMinWidth and RelaxedMinByteSize form the secondary floor applied
	// only when the strict floor validates fewer than MinValidated assets.
	// Coverage over quality, as an explicit opt-in rather than a hidden default.
	RelaxedMinWidth    int
	RelaxedMinByteSize int
	MinValidated       int

	EnableDebugLogging bool
}

// ImageDeduplicator clusters visually-similar image candidates by perceptual
// distance and keeps one highest-quality representative per cluster.
type ImageDeduplicator struct {
	threshold       int
	minWidth        int
	minByteSize     int
	relaxedWidth    int
	relaxedByteSize int
	minValidated    int
	debug           bool
}

// NewImageDeduplicator creates a deduplicator with the given configuration,
// falling back to the reference floors (width >= 400px, size >= 25KB,
// distance <= 5) for unset values.
func NewImageDeduplicator(config DedupConfig) *ImageDeduplicator {
	d := &ImageDeduplicator{
		threshold:       config.HammingThreshold,
		minWidth:        config.MinWidth,
		minByteSize:     config.MinByteSize,
		relaxedWidth:    config.RelaxedMinWidth,
		relaxedByteSize: config.RelaxedMinByteSize,
		minValidated:    config.MinValidated,
		debug:           config.EnableDebugLogging,
	}
	if d.threshold <= 0 {
		d.threshold = 5
	}
	if d.minWidth <= 0 {
		d.minWidth = 400
	}
	if d.minByteSize <= 0 {
		d.minByteSize = 25 * 1024
	}
	if d.relaxedWidth <= 0 {
		d.relaxedWidth = 200
	}
	if d.relaxedByteSize <= 0 {
		d.relaxedByteSize = 8 * 1024
	}
	if d.minValidated <= 0 {
		d.minValidated = 1
	}
	return d
}

// cluster groups one representative with every member merged into it
type cluster struct {
	rep     domain.ImageCandidate
	members []domain.ImageCandidate
}

// Deduplicate returns one representative per visual cluster, in the order
// clusters were created (resolution-descending discovery). Candidates below
// the strict quality floor are rejected first; when that leaves fewer than
// the configured minimum of validated assets, a relaxed-floor pass admits
// the remainder.
func (d *ImageDeduplicator) Deduplicate(candidates []domain.ImageCandidate) []domain.ImageCandidate {
	var strict, relaxed []domain.ImageCandidate
	for _, c := range candidates {
		if !c.HasFingerprint || c.Resolution() <= 0 {
			continue
		}
		switch {
		case c.Width >= d.minWidth && c.ByteSize >= d.minByteSize:
			strict = append(strict, c)
		case c.Width >= d.relaxedWidth && c.ByteSize >= d.relaxedByteSize:
			relaxed = append(relaxed, c)
		}
	}

	clusters := d.clusterCandidates(nil, strict, true)
	if len(clusters) < d.minValidated && len(relaxed) > 0 {
		if d.debug {
			log.Printf("[DEDUP] strict floor kept %d clusters, admitting %d relaxed-floor candidates", len(clusters), len(relaxed))
		}
		// Relaxed candidates may fill clusters but never displace a
		// strict-floor representative
		clusters = d.clusterCandidates(clusters, relaxed, false)
	}

	out := make([]domain.ImageCandidate, 0, len(clusters))
	for _, cl := range clusters {
		out = append(out, cl.rep)
	}
	return out
}

// clusterCandidates assigns candidates (highest resolution first) to existing
// clusters or opens new ones. A candidate joins a cluster only when it is
// within threshold of the representative AND of every member: Hamming
// distance is a metric but near-threshold chains are not transitive, so the
// pairwise re-check prevents gluing genuinely different photographs together.
// upgradeRep permits a merged candidate with more pixels to take over as
// representative; the relaxed pass disables it so a sub-floor asset cannot
// outrank one that cleared the strict floor.
func (d *ImageDeduplicator) clusterCandidates(clusters []cluster, candidates []domain.ImageCandidate, upgradeRep bool) []cluster {
	ordered := make([]domain.ImageCandidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Resolution() > ordered[j].Resolution()
	})

	for _, cand := range ordered {
		merged := false
		for i := range clusters {
			if !d.belongs(cand, clusters[i]) {
				continue
			}
			clusters[i].members = append(clusters[i].members, cand)
			if upgradeRep && cand.Resolution() > clusters[i].rep.Resolution() {
				if d.debug {
					log.Printf("[DEDUP] %s replaces %s as representative (%dx%d > %dx%d)",
						cand.Path, clusters[i].rep.Path, cand.Width, cand.Height, clusters[i].rep.Width, clusters[i].rep.Height)
				}
				clusters[i].rep = cand
			}
			merged = true
			break
		}
		if !merged {
			clusters = append(clusters, cluster{rep: cand, members: []domain.ImageCandidate{cand}})
		}
	}
	return clusters
}

// belongs reports whether the candidate is within threshold of the cluster
// representative and of every merged member
func (d *ImageDeduplicator) belongs(cand domain.ImageCandidate, cl cluster) bool {
	if cand.Fingerprint.Distance(cl.rep.Fingerprint) > d.threshold {
		return false
	}
	for _, member := range cl.members {
		if cand.Fingerprint.Distance(member.Fingerprint) > d.threshold {
			return false
		}
	}
	return true
}
