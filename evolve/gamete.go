package evolve

import (
	"math/rand"
	"sort"
)

// Gamete is an ordered, fixed-length sequence of loci (spec §3). Once
// created it is never mutated in place — crossover and phenotype
// construction always produce a new Gamete, so parent gametes can be read
// freely by concurrent workers (spec §9).
type Gamete struct {
	Loci []Locus
}

// NewGamete wraps a slice of loci as a Gamete. The slice is not copied;
// callers that still hold a reference to it must treat it as immutable
// afterward.
func NewGamete(loci []Locus) Gamete {
	return Gamete{Loci: loci}
}

// Len returns L, the fixed number of loci.
func (g Gamete) Len() int {
	return len(g.Loci)
}

// crossover performs k-point crossover between two gametes of equal length
// (spec §4.2). k distinct swap points are drawn uniformly from
// {1, ..., L-1}, sorted ascending; segments alternate between the two
// parents starting with (g_a, g_b). Offspring loci are copied by reference
// from a parent — crossover never mutates a locus.
func crossover(ga, gb Gamete, k int, rng *rand.Rand) (Gamete, Gamete) {
	l := ga.Len()
	points := choosePoints(l, k, rng)

	outA := make([]Locus, 0, l)
	outB := make([]Locus, 0, l)

	start := 0
	swapped := false
	for _, p := range points {
		if !swapped {
			outA = append(outA, ga.Loci[start:p]...)
			outB = append(outB, gb.Loci[start:p]...)
		} else {
			outA = append(outA, gb.Loci[start:p]...)
			outB = append(outB, ga.Loci[start:p]...)
		}
		start = p
		swapped = !swapped
	}
	if !swapped {
		outA = append(outA, ga.Loci[start:l]...)
		outB = append(outB, gb.Loci[start:l]...)
	} else {
		outA = append(outA, gb.Loci[start:l]...)
		outB = append(outB, ga.Loci[start:l]...)
	}

	return NewGamete(outA), NewGamete(outB)
}

// choosePoints draws min(k, l-1) distinct integers from {1, ..., l-1},
// sorted ascending. When l <= 1 there are no valid swap points.
func choosePoints(l, k int, rng *rand.Rand) []int {
	if l <= 1 {
		return nil
	}
	maxPoints := l - 1
	if k > maxPoints {
		k = maxPoints
	}
	if k < 1 {
		return nil
	}

	// Reservoir-free distinct sampling: for the small k and L this engine
	// operates on (L = n_problem + 7), a pick-and-retry loop is simpler and
	// plenty fast compared to a full Fisher-Yates over L-1 candidates.
	chosen := make(map[int]struct{}, k)
	points := make([]int, 0, k)
	for len(points) < k {
		p := 1 + rng.Intn(maxPoints)
		if _, ok := chosen[p]; ok {
			continue
		}
		chosen[p] = struct{}{}
		points = append(points, p)
	}
	sort.Ints(points)
	return points
}
