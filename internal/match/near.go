package match

import (
	"sort"

	"photocull/internal/catalog"
	"photocull/internal/imaging"
)

// DefaultThreshold is the Hamming-distance cutoff used when none is
// configured. 64-bit pHash distances above ~20 are rarely meaningful.
const DefaultThreshold = 10

// NearMatcher groups visually similar assets by perceptual-hash distance.
//
// Clustering is greedy single-link and deliberately order-dependent: assets
// are visited in input order; each unassigned asset seeds a new group and
// pulls in every remaining unassigned asset whose fingerprint is within the
// threshold of the seed's. Two assets further apart than the threshold only
// share a group when a seed links them. Callers wanting reproducible results
// must fix the input order (the scan's discovery order is stable).
type NearMatcher struct {
	collectionID string
	strategy     Strategy
	threshold    int
}

// NewNearMatcher creates a NearMatcher with the given inclusive Hamming
// threshold. Negative thresholds fall back to DefaultThreshold.
func NewNearMatcher(collectionID string, strategy Strategy, threshold int) *NearMatcher {
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	return &NearMatcher{collectionID: collectionID, strategy: strategy, threshold: threshold}
}

// Threshold returns the configured Hamming threshold.
func (m *NearMatcher) Threshold() int { return m.threshold }

// FindGroups clusters the assets that carry a perceptual hash. Complexity is
// near-linear thanks to a BK-tree candidate lookup per seed, quadratic in
// the worst case; fine for per-collection catalogs.
func (m *NearMatcher) FindGroups(assets []*catalog.Asset) []*catalog.Group {
	candidates := withPerceptual(assets)
	if len(candidates) < 2 {
		return nil
	}

	tree := newBKTree(imaging.HammingDistance)
	for i, a := range candidates {
		tree.insert(a.PerceptualHash, i)
	}

	assigned := make([]bool, len(candidates))
	var groups []*catalog.Group

	for i, seed := range candidates {
		if assigned[i] {
			continue
		}
		assigned[i] = true

		neighbors := tree.findWithinDistance(seed.PerceptualHash, m.threshold)
		sort.Ints(neighbors)

		members := []*catalog.Asset{seed}
		var distSum int
		for _, j := range neighbors {
			if assigned[j] {
				continue
			}
			assigned[j] = true
			members = append(members, candidates[j])
			distSum += imaging.HammingDistance(seed.PerceptualHash, candidates[j].PerceptualHash)
		}

		if len(members) < 2 {
			continue
		}

		similarity := 1.0 - float64(distSum)/float64(len(members)-1)/64.0
		groups = append(groups, newGroup(m.collectionID, catalog.KindNear, members, similarity, m.strategy))
	}

	return groups
}

func withPerceptual(assets []*catalog.Asset) []*catalog.Asset {
	var out []*catalog.Asset
	for _, a := range assets {
		if a.HasPerceptual {
			out = append(out, a)
		}
	}
	return out
}
