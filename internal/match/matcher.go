// Package match partitions a catalog into duplicate groups and proposes a
// keeper per group.
package match

import (
	"time"

	"photocull/internal/catalog"
)

// Matcher is the interface for duplicate detection strategies.
type Matcher interface {
	FindGroups(assets []*catalog.Asset) []*catalog.Group
}

// ExcludeGrouped returns the assets not already placed in any of the given
// groups. Callers use it to run the near matcher only over entries the exact
// matcher left unassigned.
func ExcludeGrouped(assets []*catalog.Asset, groups []*catalog.Group) []*catalog.Asset {
	assigned := make(map[string]bool)
	for _, g := range groups {
		for _, m := range g.Members {
			assigned[m.ID] = true
		}
	}

	var rest []*catalog.Asset
	for _, a := range assets {
		if !assigned[a.ID] {
			rest = append(rest, a)
		}
	}
	return rest
}

// newGroup assembles a Group keeping members in input order and proposing a
// keeper under the given strategy.
func newGroup(collectionID string, kind catalog.GroupKind, members []*catalog.Asset, similarity float64, strategy Strategy) *catalog.Group {
	g := &catalog.Group{
		ID:           catalog.NewGroupID(),
		CollectionID: collectionID,
		Kind:         kind,
		Members:      members,
		Similarity:   similarity,
		CreatedAt:    time.Now().UTC(),
	}
	if keeper := strategy.Keeper(members); keeper != nil {
		g.SuggestedKeep = keeper.ID
	}
	return g
}
