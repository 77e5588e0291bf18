package evolve

import "math/rand"

// Region is an ordered collection of organisms that all currently share one
// RegionKey, plus the per-generation state a RegionLifecycle needs to run
// its pipeline (spec §3, §4.8). Region owns its member slice and its RNG
// stream exclusively: only the goroutine currently processing this region
// during a generation step touches either (spec §5, §9).
type Region struct {
	Key              RegionKey
	Members          []*Organism
	CarryingCapacity *int // nil until the allocator assigns one for this generation
	minScoreCache    *float64
	rng              *rand.Rand
}

// newRegion constructs an empty region rooted at key, owning rng for the
// lifetime of the region (spec §5: one *rand.Rand stream per region, owned
// exclusively by that region so no locking is needed within it).
func newRegion(key RegionKey, rng *rand.Rand) *Region {
	return &Region{Key: key, rng: rng}
}

// Len returns the current member count.
func (r *Region) Len() int {
	return len(r.Members)
}

// addMember appends an organism and invalidates the cached min score.
func (r *Region) addMember(o *Organism) {
	o.setRegionKey(r.Key)
	r.Members = append(r.Members, o)
	r.minScoreCache = nil
}

// removeDead drops members marked Dead, preserving relative order (spec
// §4.8's cull after truncation, step 4, and final cull, step 7).
func (r *Region) removeDead() {
	live := r.Members[:0]
	for _, o := range r.Members {
		if !o.isDead() {
			live = append(live, o)
		}
	}
	r.Members = live
	r.minScoreCache = nil
}

// sortByFitness orders members ascending by (score, -age) per spec §4.4.
func (r *Region) sortByFitness() {
	sortOrganisms(r.Members)
	r.minScoreCache = nil
}

// minScore returns the best (lowest) score currently cached among members,
// computing and caching it on first use after a mutation (spec §3's cached
// min_score).
func (r *Region) minScore() (float64, bool) {
	if r.minScoreCache != nil {
		return *r.minScoreCache, true
	}
	if len(r.Members) == 0 {
		return 0, false
	}
	best := r.Members[0].sortKey().score
	for _, o := range r.Members[1:] {
		if s := o.sortKey().score; s < best {
			best = s
		}
	}
	r.minScoreCache = &best
	return best, true
}

// isEmpty reports whether the region has no members, the condition under
// which a RegionIndex reaps it (spec §4.6).
func (r *Region) isEmpty() bool {
	return len(r.Members) == 0
}
