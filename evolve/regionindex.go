package evolve

import (
	"math"
	"math/rand"
)

// RegionIndex is an insertion-ordered map from RegionKey to Region (spec
// §3). Iteration order follows first-insertion order so generation output
// (e.g. state() snapshots) is stable across runs given the same seed and
// history.
type RegionIndex struct {
	order []string
	byKey map[string]*Region
	keys  map[string]RegionKey
}

func newRegionIndex() *RegionIndex {
	return &RegionIndex{
		byKey: make(map[string]*Region),
		keys:  make(map[string]RegionKey),
	}
}

// getOrCreate returns the region for key, creating it (and seeding its RNG
// from worldSeed via region_seed, spec §4.1's Glossary hash) if absent.
func (idx *RegionIndex) getOrCreate(key RegionKey, worldSeed uint64) *Region {
	mk := key.asMapKey()
	if r, ok := idx.byKey[mk]; ok {
		return r
	}
	r := newRegion(key, rand.New(rand.NewSource(regionSeed(worldSeed, key))))
	idx.byKey[mk] = r
	idx.keys[mk] = key
	idx.order = append(idx.order, mk)
	return r
}

// lookup returns the region for key without creating it.
func (idx *RegionIndex) lookup(key RegionKey) (*Region, bool) {
	r, ok := idx.byKey[key.asMapKey()]
	return r, ok
}

// regions returns all live regions in insertion order.
func (idx *RegionIndex) regions() []*Region {
	out := make([]*Region, 0, len(idx.order))
	for _, mk := range idx.order {
		if r, ok := idx.byKey[mk]; ok {
			out = append(out, r)
		}
	}
	return out
}

// reapEmpty removes every region with no members (spec §4.6: empty regions
// are dropped from the index, never retained as placeholders).
func (idx *RegionIndex) reapEmpty() {
	newOrder := idx.order[:0]
	for _, mk := range idx.order {
		r, ok := idx.byKey[mk]
		if !ok {
			continue
		}
		if r.isEmpty() {
			delete(idx.byKey, mk)
			delete(idx.keys, mk)
			continue
		}
		newOrder = append(newOrder, mk)
	}
	idx.order = newOrder
}

// densestRegion returns the currently populated region with the greatest
// organism count, breaking ties toward the lowest RegionKey (spec §4.6's
// single-region selection rule: "find the currently populated region with
// the greatest organism count; ties: lowest-key first").
func densestRegion(regions []*Region) *Region {
	var best *Region
	for _, r := range regions {
		if r.isEmpty() {
			continue
		}
		switch {
		case best == nil:
			best = r
		case len(r.Members) > len(best.Members):
			best = r
		case len(r.Members) == len(best.Members) && r.Key.Less(best.Key):
			best = r
		}
	}
	return best
}

// diversityScore computes, for a region and a problem dimension, the
// (distinct-value count, population stddev) pair spec §4.6 uses to rank
// candidate split dimensions: more distinct values wins; a stddev tiebreak
// (higher stddev wins) breaks count ties.
func diversityScore(members []*Organism, dim int) (distinct int, stddev float64) {
	if len(members) == 0 {
		return 0, 0
	}
	seen := make(map[float64]struct{}, len(members))
	sum := 0.0
	values := make([]float64, 0, len(members))
	for _, o := range members {
		v := o.expressed()
		if dim >= len(problemTail(v)) {
			continue
		}
		val := problemTail(v)[dim]
		seen[val] = struct{}{}
		values = append(values, val)
		sum += val
	}
	if len(values) == 0 {
		return 0, 0
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return len(seen), math.Sqrt(variance)
}

// maybeSplit evaluates region r for adaptive splitting (spec §4.6): the
// problem dimension with the highest diversity score among r's members is
// doubled (incrementDoublings), one dimension per call. It reports whether
// a split happened; the caller is responsible for re-keying every
// organism against the now-finer grid afterward (rekeyAll), since a single
// dimension's doublings change can move members of any region, not just r.
func (idx *RegionIndex) maybeSplit(r *Region, dims *Dimensions) bool {
	bestDim := -1
	var bestDistinct int
	var bestStddev float64
	for d := 0; d < dims.Len(); d++ {
		distinct, stddev := diversityScore(r.Members, d)
		if distinct < 2 {
			continue // a dimension with one observed value can't usefully split
		}
		if bestDim == -1 || distinct > bestDistinct || (distinct == bestDistinct && stddev > bestStddev) {
			bestDim, bestDistinct, bestStddev = d, distinct, stddev
		}
	}
	if bestDim == -1 {
		return false
	}

	dims.incrementDoublings(bestDim)
	return true
}
