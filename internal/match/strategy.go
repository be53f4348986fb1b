package match

import (
	"fmt"
	"sort"
	"strings"

	"photocull/internal/catalog"
)

// Strategy is the total-order rule used to pick which group member to
// retain. Sorting is stable: equal keys preserve the original discovery
// order of the input.
type Strategy string

const (
	// StrategyOldest keeps the file with the earliest creation time.
	StrategyOldest Strategy = "oldest"
	// StrategyNewest keeps the file with the latest creation time.
	StrategyNewest Strategy = "newest"
	// StrategyLargest keeps the largest file by byte size.
	StrategyLargest Strategy = "largest"
	// StrategySmallest keeps the smallest file by byte size.
	StrategySmallest Strategy = "smallest"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(name))) {
	case StrategyOldest:
		return StrategyOldest, nil
	case StrategyNewest:
		return StrategyNewest, nil
	case StrategyLargest:
		return StrategyLargest, nil
	case StrategySmallest:
		return StrategySmallest, nil
	default:
		return "", fmt.Errorf("unknown selection strategy %q", name)
	}
}

// Sort returns the assets ordered by the strategy, best keeper first. The
// input slice is not modified. Creation times the platform could not supply
// sort as the Unix epoch.
func (s Strategy) Sort(assets []*catalog.Asset) []*catalog.Asset {
	sorted := make([]*catalog.Asset, len(assets))
	copy(sorted, assets)

	switch s {
	case StrategyOldest:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].FileCreatedAt.Before(sorted[j].FileCreatedAt)
		})
	case StrategyNewest:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[j].FileCreatedAt.Before(sorted[i].FileCreatedAt)
		})
	case StrategyLargest:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Size > sorted[j].Size
		})
	case StrategySmallest:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Size < sorted[j].Size
		})
	}
	return sorted
}

// Keeper returns the suggested keeper for a set of assets, or nil for an
// empty set.
func (s Strategy) Keeper(assets []*catalog.Asset) *catalog.Asset {
	if len(assets) == 0 {
		return nil
	}
	return s.Sort(assets)[0]
}
