package match

import (
	"testing"
	"time"

	"photocull/internal/catalog"
)

func burstAsset(id string, hash uint64, taken time.Time) *catalog.Asset {
	return &catalog.Asset{
		ID:             id,
		Path:           id + ".jpg",
		PerceptualHash: hash,
		HasPerceptual:  true,
		Exif:           &catalog.ExifData{TakenAt: &taken},
	}
}

func TestBurstMatcher_GroupsWithinWindow(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	matcher := NewBurstMatcher("col_1", StrategyOldest, 10, 2*time.Second)

	assets := []*catalog.Asset{
		burstAsset("a", 0b0001, base),
		burstAsset("b", 0b0011, base.Add(time.Second)),
		burstAsset("c", 0b0001, base.Add(time.Minute)), // similar but too late
	}
	groups := matcher.FindGroups(assets)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0].Members) != 2 {
		t.Errorf("members = %d, want 2", len(groups[0].Members))
	}
	if groups[0].Kind != catalog.KindBurst {
		t.Errorf("kind = %s, want burst", groups[0].Kind)
	}
	for _, m := range groups[0].Members {
		if m.ID == "c" {
			t.Error("shot outside the window joined the burst")
		}
	}
}

func TestBurstMatcher_DissimilarShotsStayOut(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	matcher := NewBurstMatcher("col_1", StrategyOldest, 2, 2*time.Second)

	assets := []*catalog.Asset{
		burstAsset("a", 0x0000000000000000, base),
		burstAsset("b", 0xFFFFFFFFFFFFFFFF, base.Add(time.Second)), // same moment, different scene
	}
	if groups := matcher.FindGroups(assets); len(groups) != 0 {
		t.Errorf("expected no groups, got %d", len(groups))
	}
}

func TestBurstMatcher_RequiresCaptureTime(t *testing.T) {
	matcher := NewBurstMatcher("col_1", StrategyOldest, 10, 2*time.Second)

	assets := []*catalog.Asset{
		{ID: "a", PerceptualHash: 1, HasPerceptual: true},
		{ID: "b", PerceptualHash: 1, HasPerceptual: true},
	}
	if groups := matcher.FindGroups(assets); len(groups) != 0 {
		t.Errorf("expected no groups without capture times, got %d", len(groups))
	}
}

func TestBurstMatcher_Defaults(t *testing.T) {
	m := NewBurstMatcher("col_1", StrategyOldest, -1, 0)
	if m.threshold != DefaultThreshold {
		t.Errorf("threshold = %d, want %d", m.threshold, DefaultThreshold)
	}
	if m.window != DefaultBurstWindow {
		t.Errorf("window = %v, want %v", m.window, DefaultBurstWindow)
	}
}
