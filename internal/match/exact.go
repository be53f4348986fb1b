package match

import "photocull/internal/catalog"

// ExactMatcher groups assets whose content hashes are byte-for-byte equal.
type ExactMatcher struct {
	collectionID string
	strategy     Strategy
}

// NewExactMatcher creates an ExactMatcher proposing keepers under strategy.
func NewExactMatcher(collectionID string, strategy Strategy) *ExactMatcher {
	return &ExactMatcher{collectionID: collectionID, strategy: strategy}
}

// FindGroups buckets assets by content hash. Any bucket with more than one
// member becomes an exact group with similarity 1.0. Assets without a
// computed content hash are ignored. Group member order and group order
// follow the input order.
func (m *ExactMatcher) FindGroups(assets []*catalog.Asset) []*catalog.Group {
	if len(assets) < 2 {
		return nil
	}

	buckets := make(map[string][]*catalog.Asset)
	var order []string
	for _, a := range assets {
		if a.ContentHash == "" {
			continue
		}
		if _, seen := buckets[a.ContentHash]; !seen {
			order = append(order, a.ContentHash)
		}
		buckets[a.ContentHash] = append(buckets[a.ContentHash], a)
	}

	var groups []*catalog.Group
	for _, hash := range order {
		members := buckets[hash]
		if len(members) < 2 {
			continue
		}
		groups = append(groups, newGroup(m.collectionID, catalog.KindExact, members, 1.0, m.strategy))
	}
	return groups
}
