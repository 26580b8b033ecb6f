package usecase

import (
	"sort"

	"github.com/partlens/backend/internal/domain"
)

// DuplicatePolicy controls what happens when two records with the same
// normalized code are added to one catalog.
type DuplicatePolicy int

const (
	// KeepFirst keeps the first inserted record for a code (default)
	KeepFirst DuplicatePolicy = iota

	// PreferHigherTrust replaces the stored record when the newcomer carries
	// a strictly higher trust weight
	PreferHigherTrust
)

// SourceCatalog is an in-memory collection of normalized records from one
// source. Catalogs are never merged across sources; cross-source comparison
// always goes through the IdentityMatcher so contributions stay attributable.
type SourceCatalog struct {
	sourceID    string
	trustWeight float64
	policy      DuplicatePolicy
	normalizer  *Normalizer

	records   []domain.ItemRecord
	byCode    map[string]int
	byKeyword map[string][]int
}

// NewSourceCatalog creates an empty catalog for one source
func NewSourceCatalog(sourceID string, trustWeight float64, policy DuplicatePolicy, normalizer *Normalizer) *SourceCatalog {
	if normalizer == nil {
		normalizer = NewNormalizer(NormalizerConfig{})
	}
	return &SourceCatalog{
		sourceID:    sourceID,
		trustWeight: trustWeight,
		policy:      policy,
		normalizer:  normalizer,
		byCode:      make(map[string]int),
		byKeyword:   make(map[string][]int),
	}
}

// SourceID returns the identifier of the source this catalog holds
func (c *SourceCatalog) SourceID() string { return c.sourceID }

// TrustWeight returns the configured trust weight for this source
func (c *SourceCatalog) TrustWeight() float64 { return c.trustWeight }

// Len returns the number of stored records
func (c *SourceCatalog) Len() int { return len(c.records) }

// Add inserts a record. The record's source fields are stamped with this
// catalog's identity. Duplicate normalized codes follow the configured
// policy: KeepFirst ignores the newcomer, PreferHigherTrust replaces the
// stored record in place when the newcomer's trust weight is higher.
func (c *SourceCatalog) Add(record domain.ItemRecord) {
	record.SourceID = c.sourceID
	if record.TrustWeight == 0 {
		record.TrustWeight = c.trustWeight
	}

	if record.NormalizedCode != "" {
		if existing, ok := c.byCode[record.NormalizedCode]; ok {
			if c.policy == PreferHigherTrust && record.TrustWeight > c.records[existing].TrustWeight {
				c.records[existing] = record
				c.reindexKeywords(existing)
			}
			return
		}
	}

	idx := len(c.records)
	c.records = append(c.records, record)
	if record.NormalizedCode != "" {
		c.byCode[record.NormalizedCode] = idx
	}
	for _, kw := range c.normalizer.Keywords(record.NormalizedTitle) {
		c.byKeyword[kw] = append(c.byKeyword[kw], idx)
	}
}

// reindexKeywords rebuilds the keyword index after an in-place replacement
func (c *SourceCatalog) reindexKeywords(idx int) {
	for kw, indices := range c.byKeyword {
		kept := indices[:0]
		for _, i := range indices {
			if i != idx {
				kept = append(kept, i)
			}
		}
		if len(kept) == 0 {
			delete(c.byKeyword, kw)
		} else {
			c.byKeyword[kw] = kept
		}
	}
	for _, kw := range c.normalizer.Keywords(c.records[idx].NormalizedTitle) {
		c.byKeyword[kw] = append(c.byKeyword[kw], idx)
	}
}

// LookupByCode returns the record stored under a normalized code. O(1).
func (c *SourceCatalog) LookupByCode(normalizedCode string) (domain.ItemRecord, bool) {
	if normalizedCode == "" {
		return domain.ItemRecord{}, false
	}
	idx, ok := c.byCode[normalizedCode]
	if !ok {
		return domain.ItemRecord{}, false
	}
	return c.records[idx], true
}

// KeywordBucket returns the records whose normalized title contains the
// keyword, in insertion order. The matcher uses these buckets to prune the
// fuzzy search space before any expensive string comparison.
func (c *SourceCatalog) KeywordBucket(keyword string) []domain.ItemRecord {
	indices, ok := c.byKeyword[keyword]
	if !ok {
		return nil
	}
	out := make([]domain.ItemRecord, 0, len(indices))
	for _, idx := range indices {
		out = append(out, c.records[idx])
	}
	return out
}

// candidateIndices returns the indices of records sharing at least minOverlap
// keywords with the given keyword set, in insertion order, together with the
// overlap count per index.
func (c *SourceCatalog) candidateIndices(keywords []string, minOverlap int) ([]int, map[int]int) {
	overlap := make(map[int]int)
	for _, kw := range keywords {
		for _, idx := range c.byKeyword[kw] {
			overlap[idx]++
		}
	}
	var indices []int
	for idx := range overlap {
		if overlap[idx] >= minOverlap {
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)
	return indices, overlap
}

// Records returns the stored records in insertion order
func (c *SourceCatalog) Records() []domain.ItemRecord {
	out := make([]domain.ItemRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Record returns the record at a given insertion index
func (c *SourceCatalog) Record(idx int) domain.ItemRecord {
	return c.records[idx]
}
