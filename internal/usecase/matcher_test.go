package usecase

import (
	"testing"

	"github.com/partlens/backend/internal/domain"
)

func newTestMatcher(t *testing.T) (*IdentityMatcher, *Normalizer) {
	t.Helper()
	n := NewNormalizer(NormalizerConfig{})
	return NewIdentityMatcher(MatcherConfig{FuzzyThreshold: 0.5}, n), n
}

func TestMatchExactCode(t *testing.T) {
	m, n := newTestMatcher(t)

	pool := NewSourceCatalog("pricesheet", 0.9, KeepFirst, n)
	pool.Add(testRecord(n, "M110053", "Pastilla de freno Pulsar 200", 0))

	target := n.Prepare(domain.ItemRecord{RawCode: "m-110053", RawTitle: "FRENO PASTILLA PULSAR 200"})
	result := m.Match(target, []*SourceCatalog{pool}, 0)

	if result.Strategy != domain.StrategyExactCode {
		t.Fatalf("Strategy = %v, want exact_code", result.Strategy)
	}
	if result.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", result.Confidence)
	}
	if result.Matched == nil || result.Matched.NormalizedCode != "M110053" {
		t.Errorf("Matched = %+v, want the M110053 record", result.Matched)
	}
}

func TestMatchExactCodeBeatsFuzzy(t *testing.T) {
	m, n := newTestMatcher(t)

	// Same pool holds both a code hit and a near-identical title; the
	// cascade must short-circuit on the code tier.
	pool := NewSourceCatalog("pricesheet", 0.9, KeepFirst, n)
	pool.Add(testRecord(n, "M110053", "algo completamente distinto", 0))
	pool.Add(testRecord(n, "Z900", "freno pastilla pulsar 200", 0))

	target := n.Prepare(domain.ItemRecord{RawCode: "M110053", RawTitle: "freno pastilla pulsar 200"})
	result := m.Match(target, []*SourceCatalog{pool}, 0)

	if result.Strategy != domain.StrategyExactCode {
		t.Fatalf("Strategy = %v, want exact_code even with a perfect fuzzy candidate present", result.Strategy)
	}
	if result.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", result.Confidence)
	}
	if result.Matched.RawCode != "M110053" {
		t.Errorf("Matched code = %q, want M110053", result.Matched.RawCode)
	}
}

func TestMatchFuzzyText(t *testing.T) {
	m, n := newTestMatcher(t)

	pool := NewSourceCatalog("storefront", 0.7, KeepFirst, n)
	pool.Add(testRecord(n, "", "Kit arrastre Bajaj Pulsar 200 NS", 0))

	target := n.Prepare(domain.ItemRecord{RawTitle: "Kit De Arrastre Pulsar 200"})
	result := m.Match(target, []*SourceCatalog{pool}, 0)

	if result.Strategy != domain.StrategyFuzzyText {
		t.Fatalf("Strategy = %v, want fuzzy_text", result.Strategy)
	}
	if result.Confidence < 0.5 {
		t.Errorf("Confidence = %v, want >= 0.5", result.Confidence)
	}
	if result.Confidence >= 1.0 {
		t.Errorf("Confidence = %v, want < 1.0 for a non-exact match", result.Confidence)
	}
	if result.Matched == nil {
		t.Fatal("Matched = nil, want the kit arrastre record")
	}
}

func TestMatchFuzzyTieBreak(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{})
	m := NewIdentityMatcher(MatcherConfig{FuzzyThreshold: 0.5}, n)

	target := n.Prepare(domain.ItemRecord{RawTitle: "kit arrastre pulsar 200"})

	t.Run("higher trust wins on equal score", func(t *testing.T) {
		low := NewSourceCatalog("archive", 0.5, KeepFirst, n)
		low.Add(testRecord(n, "", "kit arrastre pulsar 200", 0))
		high := NewSourceCatalog("pricesheet", 0.9, KeepFirst, n)
		high.Add(testRecord(n, "", "kit arrastre pulsar 200", 0))

		result := m.Match(target, []*SourceCatalog{low, high}, 0)
		if result.Matched.SourceID != "pricesheet" {
			t.Errorf("Matched.SourceID = %q, want pricesheet (higher trust)", result.Matched.SourceID)
		}
	})

	t.Run("pool order wins on equal score and trust", func(t *testing.T) {
		first := NewSourceCatalog("alpha", 0.7, KeepFirst, n)
		first.Add(testRecord(n, "", "kit arrastre pulsar 200", 0))
		second := NewSourceCatalog("beta", 0.7, KeepFirst, n)
		second.Add(testRecord(n, "", "kit arrastre pulsar 200", 0))

		// Repeated runs must return the same winner
		for i := 0; i < 10; i++ {
			result := m.Match(target, []*SourceCatalog{first, second}, 0)
			if result.Matched.SourceID != "alpha" {
				t.Fatalf("run %d: Matched.SourceID = %q, want alpha (first in pool order)", i, result.Matched.SourceID)
			}
		}
	})
}

func TestMatchCategoryFallback(t *testing.T) {
	m, n := newTestMatcher(t)

	pool := NewSourceCatalog("storefront", 0.7, KeepFirst, n)
	pool.Add(testRecord(n, "", "espejo retrovisor izquierdo", 0))

	target := n.Prepare(domain.ItemRecord{RawTitle: "Pastilla freno delantera AKT 125"})
	result := m.Match(target, []*SourceCatalog{pool}, 0)

	if result.Strategy != domain.StrategyCategoryFallback {
		t.Fatalf("Strategy = %v, want category_fallback", result.Strategy)
	}
	if result.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0 for a same-kind template", result.Confidence)
	}
	if result.Matched != nil {
		t.Errorf("Matched = %+v, want nil: the fallback never claims a specific record", result.Matched)
	}
	if result.Template == nil || result.Template.Category != "frenos" {
		t.Errorf("Template = %+v, want frenos", result.Template)
	}
}

func TestMatchNone(t *testing.T) {
	m, n := newTestMatcher(t)

	pool := NewSourceCatalog("storefront", 0.7, KeepFirst, n)
	pool.Add(testRecord(n, "", "Pastilla de freno Pulsar 200", 0))

	target := n.Prepare(domain.ItemRecord{RawTitle: "widget xyz unrelated"})
	result := m.Match(target, []*SourceCatalog{pool}, 0)

	if result.Strategy != domain.StrategyNone {
		t.Fatalf("Strategy = %v, want none", result.Strategy)
	}
	if result.Matched != nil {
		t.Errorf("Matched = %+v, want nil", result.Matched)
	}
}

func TestMatchSkipsCodeTierWithoutCode(t *testing.T) {
	m, n := newTestMatcher(t)

	pool := NewSourceCatalog("pricesheet", 0.9, KeepFirst, n)
	pool.Add(testRecord(n, "M110053", "pastilla freno pulsar 200", 0))

	target := n.Prepare(domain.ItemRecord{RawTitle: "pastilla freno pulsar 200"})
	result := m.Match(target, []*SourceCatalog{pool}, 0)

	if result.Strategy != domain.StrategyFuzzyText {
		t.Errorf("Strategy = %v, want fuzzy_text when the target has no code", result.Strategy)
	}
}

func TestSequenceSimilarity(t *testing.T) {
	t.Run("identical strings", func(t *testing.T) {
		if got := sequenceSimilarity("abc", "abc"); got != 1.0 {
			t.Errorf("similarity = %v, want 1.0", got)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		a := sequenceSimilarity("kit arrastre", "kit de arrastre pulsar")
		b := sequenceSimilarity("kit de arrastre pulsar", "kit arrastre")
		if a != b {
			t.Errorf("similarity not symmetric: %v vs %v", a, b)
		}
	})

	t.Run("disjoint strings score low", func(t *testing.T) {
		if got := sequenceSimilarity("abcdef", "zyxwvu"); got > 0.2 {
			t.Errorf("similarity = %v, want <= 0.2", got)
		}
	})

	t.Run("both empty", func(t *testing.T) {
		if got := sequenceSimilarity("", ""); got != 1.0 {
			t.Errorf("similarity = %v, want 1.0", got)
		}
	})
}

func TestCategoryTableLongestKeywordFirst(t *testing.T) {
	table := NewCategoryTable(map[string]string{
		"kit":          "generic",
		"kit arrastre": "transmision",
	}, map[string]domain.CategoryTemplate{
		"generic":     {Category: "generic"},
		"transmision": {Category: "transmision"},
	})

	tmpl, ok := table.Classify("kit arrastre pulsar 200")
	if !ok {
		t.Fatal("Classify = no match, want transmision")
	}
	if tmpl.Category != "transmision" {
		t.Errorf("Category = %q, want transmision (longest keyword must win)", tmpl.Category)
	}
}
