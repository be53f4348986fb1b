package match

import (
	"testing"

	"photocull/internal/catalog"
)

func TestExcludeGrouped(t *testing.T) {
	assets := []*catalog.Asset{
		{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"},
	}
	groups := []*catalog.Group{
		{Members: []*catalog.Asset{assets[0], assets[2]}},
	}

	rest := ExcludeGrouped(assets, groups)
	if len(rest) != 2 {
		t.Fatalf("expected 2 remaining, got %d", len(rest))
	}
	if rest[0].ID != "b" || rest[1].ID != "d" {
		t.Errorf("remaining = %s, %s, want b, d", rest[0].ID, rest[1].ID)
	}
}

func TestExcludeGrouped_NoGroups(t *testing.T) {
	assets := []*catalog.Asset{{ID: "a"}, {ID: "b"}}
	rest := ExcludeGrouped(assets, nil)
	if len(rest) != len(assets) {
		t.Errorf("expected all %d assets back, got %d", len(assets), len(rest))
	}
}

// Exact groups take precedence: everything they claim is invisible to the
// near matcher.
func TestExactThenNearPipeline(t *testing.T) {
	assets := []*catalog.Asset{
		{ID: "a", ContentHash: "same", PerceptualHash: 1, HasPerceptual: true},
		{ID: "b", ContentHash: "same", PerceptualHash: 1, HasPerceptual: true},
		{ID: "c", ContentHash: "other", PerceptualHash: 2, HasPerceptual: true},
		{ID: "d", ContentHash: "another", PerceptualHash: 3, HasPerceptual: true},
	}

	exact := NewExactMatcher("col_1", StrategyOldest).FindGroups(assets)
	if len(exact) != 1 {
		t.Fatalf("exact groups = %d, want 1", len(exact))
	}

	rest := ExcludeGrouped(assets, exact)
	near := NewNearMatcher("col_1", StrategyOldest, 4).FindGroups(rest)
	if len(near) != 1 {
		t.Fatalf("near groups = %d, want 1", len(near))
	}
	for _, m := range near[0].Members {
		if m.ID == "a" || m.ID == "b" {
			t.Errorf("asset %s already claimed by exact group resurfaced in near group", m.ID)
		}
	}
}
