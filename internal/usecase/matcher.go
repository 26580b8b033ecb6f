package usecase

import (
	"log"

	"github.com/partlens/backend/internal/domain"
)

// Fuzzy scoring weights: keyword overlap carries more signal than raw
// character similarity for catalog titles, which reorder tokens freely.
const (
	seqSimilarityWeight  = 0.4
	keywordOverlapWeight = 0.6
)

// MatcherConfig holds configuration for the identity matcher
type MatcherConfig struct {
	// FuzzyThreshold is the minimum combined score a fuzzy candidate must
	// reach. Deployments tune this between 0.5 and 0.65; precision rises and
	// recall falls with stricter values.
	FuzzyThreshold float64

	// MinKeywordOverlap is the number of shared keywords required before a
	// candidate enters the expensive scoring step
	MinKeywordOverlap int

	// Categories overrides the default fallback table when non-nil
	Categories *CategoryTable

	EnableDebugLogging bool
}

// IdentityMatcher searches the source pools through a cascade of
// decreasing-confidence strategies: exact code, fuzzy text, category
// fallback. The cascade short-circuits on the first acceptable hit.
type IdentityMatcher struct {
	fuzzyThreshold    float64
	minKeywordOverlap int
	normalizer        *Normalizer
	categories        *CategoryTable
	debug             bool
}

// NewIdentityMatcher creates a matcher with the given configuration
func NewIdentityMatcher(config MatcherConfig, normalizer *Normalizer) *IdentityMatcher {
	threshold := config.FuzzyThreshold
	if threshold <= 0 {
		threshold = 0.55
	}
	overlap := config.MinKeywordOverlap
	if overlap <= 0 {
		overlap = 2
	}
	categories := config.Categories
	if categories == nil {
		categories = NewCategoryTable(nil, nil)
	}
	if normalizer == nil {
		normalizer = NewNormalizer(NormalizerConfig{})
	}
	return &IdentityMatcher{
		fuzzyThreshold:    threshold,
		minKeywordOverlap: overlap,
		normalizer:        normalizer,
		categories:        categories,
		debug:             config.EnableDebugLogging,
	}
}

// Match resolves one target against the pools. minConfidence overrides the
// configured fuzzy threshold when positive. Confidence is non-increasing
// across tiers: exact code is 1.0, fuzzy is the computed score, the category
// fallback is fixed at 0.
func (m *IdentityMatcher) Match(target domain.ItemRecord, pools []*SourceCatalog, minConfidence float64) domain.MatchResult {
	threshold := m.fuzzyThreshold
	if minConfidence > 0 {
		threshold = minConfidence
	}

	// Tier 1: exact normalized-code lookup across pools, first hit wins
	if target.NormalizedCode != "" {
		for _, pool := range pools {
			if hit, ok := pool.LookupByCode(target.NormalizedCode); ok {
				if m.debug {
					log.Printf("[MATCH] %q: exact code %s in source %s", target.RawTitle, target.NormalizedCode, pool.SourceID())
				}
				matched := hit
				return domain.MatchResult{
					Target:     target,
					Matched:    &matched,
					Strategy:   domain.StrategyExactCode,
					Confidence: 1.0,
				}
			}
		}
	}

	// Tier 2: fuzzy text over keyword-prefiltered candidates
	if result, ok := m.fuzzyMatch(target, pools, threshold); ok {
		return result
	}

	// Tier 3: category fallback, a same-kind template rather than a specific
	// record, never usable as a price source
	if template, ok := m.categories.Classify(target.NormalizedTitle); ok {
		if m.debug {
			log.Printf("[MATCH] %q: category fallback %s", target.RawTitle, template.Category)
		}
		tmpl := template
		return domain.MatchResult{
			Target:     target,
			Strategy:   domain.StrategyCategoryFallback,
			Confidence: 0,
			Template:   &tmpl,
		}
	}

	return domain.MatchResult{Target: target, Strategy: domain.StrategyNone}
}

// fuzzyMatch scores candidates sharing enough keywords with the target and
// accepts the best one at or above the threshold. Ties on score prefer the
// higher trust weight, then the first candidate in pool iteration order.
func (m *IdentityMatcher) fuzzyMatch(target domain.ItemRecord, pools []*SourceCatalog, threshold float64) (domain.MatchResult, bool) {
	targetKeywords := m.normalizer.Keywords(target.NormalizedTitle)
	if len(targetKeywords) < m.minKeywordOverlap {
		return domain.MatchResult{}, false
	}

	var (
		best      domain.ItemRecord
		bestScore = -1.0
		found     bool
	)

	for _, pool := range pools {
		indices, overlap := pool.candidateIndices(targetKeywords, m.minKeywordOverlap)
		for _, idx := range indices {
			candidate := pool.Record(idx)
			candidateKeywords := m.normalizer.Keywords(candidate.NormalizedTitle)
			union := keywordUnion(targetKeywords, candidateKeywords)
			if union == 0 {
				continue
			}
			jaccard := float64(overlap[idx]) / float64(union)
			seqSim := sequenceSimilarity(target.NormalizedTitle, candidate.NormalizedTitle)
			score := seqSimilarityWeight*seqSim + keywordOverlapWeight*jaccard

			if m.debug {
				log.Printf("[MATCH] %q vs %q: seq=%.3f jaccard=%.3f score=%.3f", target.NormalizedTitle, candidate.NormalizedTitle, seqSim, jaccard, score)
			}

			if score > bestScore || (score == bestScore && candidate.TrustWeight > best.TrustWeight) {
				best = candidate
				bestScore = score
				found = true
			}
		}
	}

	if !found || bestScore < threshold {
		return domain.MatchResult{}, false
	}

	if m.debug {
		log.Printf("[MATCH] %q: fuzzy match %q (score %.3f, source %s)", target.RawTitle, best.RawTitle, bestScore, best.SourceID)
	}
	matched := best
	return domain.MatchResult{
		Target:     target,
		Matched:    &matched,
		Strategy:   domain.StrategyFuzzyText,
		Confidence: bestScore,
	}, true
}

// keywordUnion counts distinct keywords across both sets
func keywordUnion(a, b []string) int {
	set := make(map[string]bool, len(a)+len(b))
	for _, kw := range a {
		set[kw] = true
	}
	for _, kw := range b {
		set[kw] = true
	}
	return len(set)
}

// sequenceSimilarity returns 1 - editDistance/maxLen over the two strings,
// a [0,1] similarity insensitive to which argument is longer.
func sequenceSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra := []rune(a)
	rb := []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshteinDistance(ra, rb))/float64(longest)
}

// levenshteinDistance calculates the edit distance between two rune slices
// using two rows instead of a full matrix.
func levenshteinDistance(r1, r2 []rune) int {
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	n := len(r2)
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
