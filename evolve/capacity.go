package evolve

import (
	"math"
	"sort"
)

// CarryingCapacityAllocator distributes the global population budget P
// across live regions, weighted inversely by regional fitness (spec §4.7):
// a region whose best member scores closer to the evaluator's fitness floor
// earns a larger share of P. A region whose min_score has already reached
// the floor is treated as carrying infinite weight (Open Question,
// decided): such regions receive capacity first, splitting P evenly among
// themselves, before any finite-weight region receives anything.
type CarryingCapacityAllocator struct{}

// capacityEpsilon is the denominator floor spec §4.7's weight formula
// (1 / max(min_score - floor, epsilon)) uses to keep weight finite for a
// region that is close to, but not exactly at, the fitness floor.
const capacityEpsilon = 1e-9

// regionWeight is inverse-fitness weight: 1 / max(min_score - floor,
// epsilon), using the region's best (lowest) cached score, not its mean. A
// region with no scored members (shouldn't occur post-evaluation)
// contributes weight 0.
func regionWeight(r *Region, floor float64) (weight float64, infinite bool) {
	minScore, ok := r.minScore()
	if !ok {
		return 0, false
	}
	diff := minScore - floor
	if diff <= 0 {
		return 0, true
	}
	if diff < capacityEpsilon {
		diff = capacityEpsilon
	}
	return 1 / diff, false
}

// Allocate assigns each region a CarryingCapacity summing exactly to total
// (spec §4.7). Weights are normalized to fractional shares, floored to
// integer capacities, and the remainder (total - sum of floors) is handed
// out one-by-one to the regions with the largest fractional remainder
// (largest-remainder / Hamilton apportionment), breaking ties by region
// insertion order for determinism.
func (CarryingCapacityAllocator) Allocate(regions []*Region, total int, floor float64) {
	n := len(regions)
	if n == 0 {
		return
	}
	if total <= 0 {
		for _, r := range regions {
			zero := 0
			r.CarryingCapacity = &zero
		}
		return
	}

	weights := make([]float64, n)
	infinite := make([]bool, n)
	infiniteCount := 0
	for i, r := range regions {
		w, inf := regionWeight(r, floor)
		if inf {
			infiniteCount++
		}
		weights[i] = w
		infinite[i] = inf
	}

	shares := make([]float64, n)
	if infiniteCount > 0 {
		share := float64(total) / float64(infiniteCount)
		for i := range regions {
			if infinite[i] {
				shares[i] = share
			} else {
				shares[i] = 0
			}
		}
	} else {
		sumW := 0.0
		for _, w := range weights {
			sumW += w
		}
		if sumW <= 0 {
			// No usable weight signal at all: split evenly.
			for i := range shares {
				shares[i] = float64(total) / float64(n)
			}
		} else {
			for i, w := range weights {
				shares[i] = float64(total) * w / sumW
			}
		}
	}

	floors := make([]int, n)
	remainders := make([]float64, n)
	assigned := 0
	for i, s := range shares {
		f := int(math.Floor(s))
		floors[i] = f
		remainders[i] = s - float64(f)
		assigned += f
	}

	remaining := total - assigned
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for i := 0; i < remaining && i < n; i++ {
		floors[order[i]]++
	}

	for i, r := range regions {
		capacity := floors[i]
		r.CarryingCapacity = &capacity
	}
}
