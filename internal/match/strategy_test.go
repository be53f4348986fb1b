package match

import (
	"testing"
	"time"

	"photocull/internal/catalog"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"oldest", StrategyOldest, false},
		{"newest", StrategyNewest, false},
		{"largest", StrategyLargest, false},
		{"smallest", StrategySmallest, false},
		{"LARGEST", StrategyLargest, false},
		{" oldest ", StrategyOldest, false},
		{"best", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStrategy(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestStrategySort(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	assets := []*catalog.Asset{
		{ID: "mid", Size: 200, FileCreatedAt: base.Add(time.Hour)},
		{ID: "old", Size: 300, FileCreatedAt: base},
		{ID: "new", Size: 100, FileCreatedAt: base.Add(2 * time.Hour)},
	}

	tests := []struct {
		strategy Strategy
		first    string
	}{
		{StrategyOldest, "old"},
		{StrategyNewest, "new"},
		{StrategyLargest, "old"},
		{StrategySmallest, "new"},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			sorted := tt.strategy.Sort(assets)
			if sorted[0].ID != tt.first {
				t.Errorf("Sort()[0] = %s, want %s", sorted[0].ID, tt.first)
			}
			if len(sorted) != len(assets) {
				t.Errorf("Sort() len = %d, want %d", len(sorted), len(assets))
			}
		})
	}

	// Input must stay untouched.
	if assets[0].ID != "mid" {
		t.Error("Sort() modified its input")
	}
}

func TestStrategySort_StableOnTies(t *testing.T) {
	when := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	assets := []*catalog.Asset{
		{ID: "first", Size: 100, FileCreatedAt: when},
		{ID: "second", Size: 100, FileCreatedAt: when},
		{ID: "third", Size: 100, FileCreatedAt: when},
	}

	for _, s := range []Strategy{StrategyOldest, StrategyNewest, StrategyLargest, StrategySmallest} {
		sorted := s.Sort(assets)
		for i, a := range assets {
			if sorted[i].ID != a.ID {
				t.Errorf("%s: tie order changed, got %s at %d, want %s", s, sorted[i].ID, i, a.ID)
			}
		}
	}
}

func TestStrategyKeeper(t *testing.T) {
	if got := StrategyOldest.Keeper(nil); got != nil {
		t.Errorf("Keeper(nil) = %v, want nil", got)
	}

	assets := []*catalog.Asset{
		{ID: "small", Size: 1},
		{ID: "big", Size: 2},
	}
	if got := StrategyLargest.Keeper(assets); got.ID != "big" {
		t.Errorf("Keeper() = %s, want big", got.ID)
	}
}
