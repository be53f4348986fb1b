package match

import (
	"sort"
	"time"

	"photocull/internal/catalog"
	"photocull/internal/imaging"
)

// DefaultBurstWindow is how far apart two capture timestamps may be while
// still counting as part of the same burst sequence.
const DefaultBurstWindow = 2 * time.Second

// BurstMatcher groups burst-shot sequences: assets that are visually similar
// and were captured within a short time window of each other. Only assets
// carrying both a perceptual hash and an EXIF capture timestamp are
// considered.
type BurstMatcher struct {
	collectionID string
	strategy     Strategy
	threshold    int
	window       time.Duration
}

// NewBurstMatcher creates a BurstMatcher. A non-positive window falls back
// to DefaultBurstWindow; a negative threshold falls back to
// DefaultThreshold.
func NewBurstMatcher(collectionID string, strategy Strategy, threshold int, window time.Duration) *BurstMatcher {
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	if window <= 0 {
		window = DefaultBurstWindow
	}
	return &BurstMatcher{collectionID: collectionID, strategy: strategy, threshold: threshold, window: window}
}

// FindGroups clusters burst sequences with the same greedy seeded pass as
// the near matcher, additionally requiring capture times within the window
// of the seed's.
func (m *BurstMatcher) FindGroups(assets []*catalog.Asset) []*catalog.Group {
	candidates := withCaptureTime(withPerceptual(assets))
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
		seedTime, _ := seed.CaptureTime()

		neighbors := tree.findWithinDistance(seed.PerceptualHash, m.threshold)
		sort.Ints(neighbors)

		members := []*catalog.Asset{seed}
		var distSum int
		for _, j := range neighbors {
			if assigned[j] {
				continue
			}
			captured, _ := candidates[j].CaptureTime()
			if absDuration(captured.Sub(seedTime)) > m.window {
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
		groups = append(groups, newGroup(m.collectionID, catalog.KindBurst, members, similarity, m.strategy))
	}

	return groups
}

func withCaptureTime(assets []*catalog.Asset) []*catalog.Asset {
	var out []*catalog.Asset
	for _, a := range assets {
		if _, ok := a.CaptureTime(); ok {
			out = append(out, a)
		}
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
