package match

import (
	"testing"

	"photocull/internal/catalog"
)

func phashAsset(id string, hash uint64) *catalog.Asset {
	return &catalog.Asset{ID: id, Path: id + ".jpg", PerceptualHash: hash, HasPerceptual: true}
}

func TestNearMatcher_Empty(t *testing.T) {
	matcher := NewNearMatcher("col_1", StrategyOldest, 10)
	if groups := matcher.FindGroups(nil); groups != nil {
		t.Errorf("expected nil for empty input, got %v", groups)
	}
}

func TestNearMatcher_IdenticalHashes(t *testing.T) {
	matcher := NewNearMatcher("col_1", StrategyOldest, 10)
	assets := []*catalog.Asset{
		phashAsset("a", 0xABCD),
		phashAsset("b", 0xABCD),
	}
	groups := matcher.FindGroups(assets)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Similarity != 1.0 {
		t.Errorf("similarity = %f, want 1.0 for identical hashes", groups[0].Similarity)
	}
	if groups[0].Kind != catalog.KindNear {
		t.Errorf("kind = %s, want near", groups[0].Kind)
	}
}

func TestNearMatcher_RespectsThreshold(t *testing.T) {
	matcher := NewNearMatcher("col_1", StrategyOldest, 2)
	assets := []*catalog.Asset{
		phashAsset("a", 0b0000),
		phashAsset("b", 0b0011), // distance 2, in
		phashAsset("c", 0b0111), // distance 3 from a, out
	}
	groups := matcher.FindGroups(assets)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0].Members) != 2 {
		t.Errorf("members = %d, want 2", len(groups[0].Members))
	}
	for _, m := range groups[0].Members {
		if m.ID == "c" {
			t.Error("asset beyond threshold joined the group")
		}
	}
}

// Members join a group only when within threshold of the SEED, not of each
// other. a-b and b-c are each within distance 2, but c is distance 4 from
// the seed a, so c stays out and forms no group of its own.
func TestNearMatcher_SeedBasedNotTransitive(t *testing.T) {
	matcher := NewNearMatcher("col_1", StrategyOldest, 2)
	assets := []*catalog.Asset{
		phashAsset("a", 0b0000),
		phashAsset("b", 0b0011),
		phashAsset("c", 0b1111),
	}
	groups := matcher.FindGroups(assets)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0].Members) != 2 {
		t.Fatalf("members = %d, want 2 (chain must not close transitively)", len(groups[0].Members))
	}
}

// The first unassigned asset seeds each group, so input order decides the
// partition when chains overlap.
func TestNearMatcher_OrderDependent(t *testing.T) {
	matcher := NewNearMatcher("col_1", StrategyOldest, 2)

	forward := matcher.FindGroups([]*catalog.Asset{
		phashAsset("a", 0b0000),
		phashAsset("b", 0b0011),
		phashAsset("c", 0b1111),
	})
	reversed := matcher.FindGroups([]*catalog.Asset{
		phashAsset("c", 0b1111),
		phashAsset("b", 0b0011),
		phashAsset("a", 0b0000),
	})

	if len(forward) != 1 || len(reversed) != 1 {
		t.Fatalf("groups: forward %d, reversed %d, want 1 each", len(forward), len(reversed))
	}
	if forward[0].Members[0].ID != "a" {
		t.Errorf("forward seed = %s, want a", forward[0].Members[0].ID)
	}
	if reversed[0].Members[0].ID != "c" {
		t.Errorf("reversed seed = %s, want c", reversed[0].Members[0].ID)
	}
	// Reversed, c seeds and pulls in b; a is left alone.
	for _, m := range reversed[0].Members {
		if m.ID == "a" {
			t.Error("reversed group should not contain a")
		}
	}
}

func TestNearMatcher_SkipsAssetsWithoutHash(t *testing.T) {
	matcher := NewNearMatcher("col_1", StrategyOldest, 10)
	assets := []*catalog.Asset{
		{ID: "a", HasPerceptual: false},
		{ID: "b", HasPerceptual: false},
		phashAsset("c", 5),
		phashAsset("d", 5),
	}
	groups := matcher.FindGroups(assets)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0].Members) != 2 {
		t.Errorf("members = %d, want 2", len(groups[0].Members))
	}
}

func TestNearMatcher_NegativeThresholdFallsBack(t *testing.T) {
	matcher := NewNearMatcher("col_1", StrategyOldest, -1)
	if matcher.Threshold() != DefaultThreshold {
		t.Errorf("threshold = %d, want %d", matcher.Threshold(), DefaultThreshold)
	}
}

func TestNearMatcher_Similarity(t *testing.T) {
	matcher := NewNearMatcher("col_1", StrategyOldest, 8)
	assets := []*catalog.Asset{
		phashAsset("a", 0b00000000),
		phashAsset("b", 0b00001111), // distance 4
	}
	groups := matcher.FindGroups(assets)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	want := 1.0 - 4.0/64.0
	if groups[0].Similarity != want {
		t.Errorf("similarity = %f, want %f", groups[0].Similarity, want)
	}
}
