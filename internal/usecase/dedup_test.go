package usecase

import (
	"testing"

	"github.com/partlens/backend/internal/domain"
)

func imageCandidate(path string, fp domain.Fingerprint, width, height, byteSize int) domain.ImageCandidate {
	return domain.ImageCandidate{
		Path:           path,
		Fingerprint:    fp,
		HasFingerprint: true,
		Width:          width,
		Height:         height,
		ByteSize:       byteSize,
	}
}

func TestDeduplicateKeepsHigherResolution(t *testing.T) {
	d := NewImageDeduplicator(DedupConfig{})

	small := imageCandidate("small.jpg", 0b0011, 500, 500, 30000)
	large := imageCandidate("large.jpg", 0b0001, 1200, 900, 90000)

	t.Run("large first", func(t *testing.T) {
		out := d.Deduplicate([]domain.ImageCandidate{large, small})
		if len(out) != 1 {
			t.Fatalf("len(out) = %d, want 1 cluster", len(out))
		}
		if out[0].Path != "large.jpg" {
			t.Errorf("representative = %s, want large.jpg", out[0].Path)
		}
	})

	t.Run("small first", func(t *testing.T) {
		out := d.Deduplicate([]domain.ImageCandidate{small, large})
		if len(out) != 1 {
			t.Fatalf("len(out) = %d, want 1 cluster", len(out))
		}
		if out[0].Path != "large.jpg" {
			t.Errorf("representative = %s, want large.jpg regardless of input order", out[0].Path)
		}
	})
}

func TestDeduplicateDistinctImagesStaySeparate(t *testing.T) {
	d := NewImageDeduplicator(DedupConfig{})

	a := imageCandidate("a.jpg", 0x0000000000000000, 800, 600, 50000)
	b := imageCandidate("b.jpg", 0xFFFFFFFFFFFFFFFF, 700, 500, 40000)

	out := d.Deduplicate([]domain.ImageCandidate{a, b})
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2 clusters", len(out))
	}
	// Cluster creation order follows resolution-descending discovery
	if out[0].Path != "a.jpg" || out[1].Path != "b.jpg" {
		t.Errorf("order = [%s %s], want [a.jpg b.jpg]", out[0].Path, out[1].Path)
	}
}

func TestDeduplicateRejectsQualityFloor(t *testing.T) {
	d := NewImageDeduplicator(DedupConfig{})

	good := imageCandidate("good.jpg", 0, 800, 600, 50000)
	narrow := imageCandidate("narrow.jpg", 0xFFFF, 120, 90, 50000)
	tiny := imageCandidate("tiny.jpg", 0xFFFF000000000000, 800, 600, 1000)

	out := d.Deduplicate([]domain.ImageCandidate{good, narrow, tiny})
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1: floor rejects the others", len(out))
	}
	if out[0].Path != "good.jpg" {
		t.Errorf("representative = %s, want good.jpg", out[0].Path)
	}
}

func TestDeduplicateRelaxedFloorSecondPass(t *testing.T) {
	d := NewImageDeduplicator(DedupConfig{})

	// Nothing clears the strict floor, one clears the relaxed floor
	modest := imageCandidate("modest.jpg", 0, 300, 240, 12000)

	out := d.Deduplicate([]domain.ImageCandidate{modest})
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1 via the relaxed pass", len(out))
	}
	if out[0].Path != "modest.jpg" {
		t.Errorf("representative = %s, want modest.jpg", out[0].Path)
	}
}

func TestDeduplicateSkipsRelaxedPassWhenStrictSucceeds(t *testing.T) {
	d := NewImageDeduplicator(DedupConfig{})

	good := imageCandidate("good.jpg", 0, 800, 600, 50000)
	modest := imageCandidate("modest.jpg", 0xFFFFFFFF00000000, 300, 240, 12000)

	out := d.Deduplicate([]domain.ImageCandidate{good, modest})
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1: relaxed candidates stay out when strict validated enough", len(out))
	}
	if out[0].Path != "good.jpg" {
		t.Errorf("representative = %s, want good.jpg", out[0].Path)
	}
}

// Near-threshold chains must not glue different photographs together: with a
// threshold of 5, B sits within 5 of both A and C, but A and C are 10 apart.
func TestDeduplicateDoesNotAssumeTransitivity(t *testing.T) {
	d := NewImageDeduplicator(DedupConfig{HammingThreshold: 5})

	a := imageCandidate("a.jpg", 0x0000000000000000, 1000, 800, 60000) // rep of first cluster
	b := imageCandidate("b.jpg", 0x000000000000001F, 900, 700, 50000)  // 5 bits from a, 5 from c
	c := imageCandidate("c.jpg", 0x00000000000003FF, 800, 600, 40000)  // 10 bits from a

	out := d.Deduplicate([]domain.ImageCandidate{a, b, c})
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2: c is within 5 of b but 10 from a, so it must not join a's cluster", len(out))
	}
	if out[0].Path != "a.jpg" || out[1].Path != "c.jpg" {
		t.Errorf("representatives = [%s %s], want [a.jpg c.jpg]", out[0].Path, out[1].Path)
	}
}

// Even when the representative is close enough, a candidate too far from an
// already-merged member must open its own cluster.
func TestDeduplicateReverifiesAgainstMembers(t *testing.T) {
	d := NewImageDeduplicator(DedupConfig{HammingThreshold: 5})

	rep := imageCandidate("rep.jpg", 0x0000000000000000, 1000, 800, 60000)
	member := imageCandidate("member.jpg", 0x000000000000001F, 900, 700, 50000)  // 5 from rep
	probe := imageCandidate("probe.jpg", 0x0000001F00000000, 800, 600, 40000)    // 5 from rep, 10 from member

	out := d.Deduplicate([]domain.ImageCandidate{rep, member, probe})
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2: probe matches the representative but not the merged member", len(out))
	}
	if out[1].Path != "probe.jpg" {
		t.Errorf("second representative = %s, want probe.jpg", out[1].Path)
	}
}

// A sub-floor asset admitted by the relaxed pass may join a cluster but must
// not take over as representative, even with a higher pixel count.
func TestDeduplicateRelaxedNeverDisplacesStrictRepresentative(t *testing.T) {
	d := NewImageDeduplicator(DedupConfig{MinValidated: 2})

	strict := imageCandidate("strict.jpg", 0b0001, 450, 450, 50000)
	// 300x1000 beats 450x450 on pixels but misses the strict width floor
	tall := imageCandidate("tall.jpg", 0b0011, 300, 1000, 20000)

	out := d.Deduplicate([]domain.ImageCandidate{strict, tall})
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1: the relaxed candidate joins the existing cluster", len(out))
	}
	if out[0].Path != "strict.jpg" {
		t.Errorf("representative = %s, want strict.jpg", out[0].Path)
	}
}

func TestDeduplicateIgnoresUnfingerprintedCandidates(t *testing.T) {
	d := NewImageDeduplicator(DedupConfig{})

	ok := imageCandidate("ok.jpg", 0, 800, 600, 50000)
	broken := domain.ImageCandidate{Path: "broken.jpg", Width: 800, Height: 600, ByteSize: 50000}

	out := d.Deduplicate([]domain.ImageCandidate{broken, ok})
	if len(out) != 1 || out[0].Path != "ok.jpg" {
		t.Errorf("out = %v, want only ok.jpg", out)
	}
}
