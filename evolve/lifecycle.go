package evolve

import "math/rand"

// RegionLifecycle runs one generation's worth of work for a single region,
// in the strict sequential order spec §4.8 and §5 require: evaluate, sort,
// truncate, cull, reproduce, age, cull. A Region's membership and RNG
// stream are touched only by the goroutine currently running this step for
// that region (spec §9), so Step itself needs no locking.
type RegionLifecycle struct{}

// Step advances region r by one generation in place against eval and data.
func (RegionLifecycle) Step(r *Region, eval Evaluator, data TrainingData) {
	// 1. Evaluate.
	for _, o := range r.Members {
		o.evaluate(eval, data)
	}

	// 2. Sort ascending by (score, -age).
	r.sortByFitness()

	capacity := len(r.Members)
	if r.CarryingCapacity != nil {
		capacity = *r.CarryingCapacity
	}

	// 3. Truncate: mark the trailing count-capacity organisms dead.
	if capacity >= 0 && len(r.Members) > capacity {
		for _, o := range r.Members[capacity:] {
			o.markDead()
		}
	}

	// 4. Cull.
	r.removeDead()

	// 5. Reproduce.
	count := len(r.Members)
	deficit := capacity - count
	if deficit > 0 && count > 0 {
		parentCount := deficit
		if parentCount > count {
			parentCount = count
		}
		offspring := extremePairing(r.Members[:parentCount], r.rng)
		r.Members = append(r.Members, offspring...)
		r.minScoreCache = nil
	}

	// 6. Age: every organism now present, survivors and offspring alike.
	for _, o := range r.Members {
		expressed := o.expressed()
		sys := expressedSystemParams(o.Phenotype, expressed)
		o.incrementAge(sys.MaxAgeFloor())
	}

	// 7. Final cull.
	r.removeDead()
}

// extremePairing implements spec §4.9 over the given sorted-by-fitness
// parent slice: best pairs with worst, second-best with second-worst, and
// so on; an odd parent count duplicates the top performer so it
// participates in two pairings. Each pair yields exactly two offspring.
func extremePairing(parents []*Organism, rng *rand.Rand) []*Organism {
	r := len(parents)
	if r == 0 {
		return nil
	}
	if r == 1 {
		a, b := parents[0], parents[0]
		return breedPair(a, b, rng)
	}

	pool := parents
	if r%2 != 0 {
		pool = make([]*Organism, 0, r+1)
		pool = append(pool, parents[0])
		pool = append(pool, parents...)
		r++
	}

	offspring := make([]*Organism, 0, r)
	for i, j := 0, r-1; i < j; i, j = i+1, j-1 {
		offspring = append(offspring, breedPair(pool[i], pool[j], rng)...)
	}
	return offspring
}

// breedPair produces the two offspring of spec §4.9's per-pair procedure:
// each parent's gametes are shuffled via crossover, then one shuffled
// gamete from each parent is combined (and the complementary combination
// forms the second offspring), with mutation applied only to the offspring
// gametes, never to parental ones.
func breedPair(p, q *Organism, rng *rand.Rand) []*Organism {
	crossPoints := pairSystemParams(p).CrossoverPointCount()

	pA, pB := crossover(p.Phenotype.GameteA, p.Phenotype.GameteB, crossPoints, rng)
	qA, qB := crossover(q.Phenotype.GameteA, q.Phenotype.GameteB, crossPoints, rng)

	pChoice, qChoice := pA, qA
	if rng.Float64() < 0.5 {
		pChoice = pB
	}
	if rng.Float64() < 0.5 {
		qChoice = qB
	}
	other := func(chosen, a, b Gamete) Gamete {
		if sameGamete(chosen, a) {
			return b
		}
		return a
	}
	pOther := other(pChoice, pA, pB)
	qOther := other(qChoice, qA, qB)

	sysForMutation := pairSystemParams(p)
	off1 := buildOffspring(pChoice, qChoice, p, q, sysForMutation, rng)
	off2 := buildOffspring(pOther, qOther, p, q, sysForMutation, rng)
	return []*Organism{off1, off2}
}

// pairSystemParams reads the crossover-point count that governs a pair's
// reproduction from the first parent's own expressed system parameters.
func pairSystemParams(p *Organism) SystemParams {
	expressed := p.expressed()
	return expressedSystemParams(p.Phenotype, expressed)
}

func sameGamete(a, b Gamete) bool {
	if len(a.Loci) != len(b.Loci) {
		return false
	}
	for i := range a.Loci {
		if a.Loci[i] != b.Loci[i] {
			return false
		}
	}
	return true
}

func buildOffspring(gameteA, gameteB Gamete, p, q *Organism, sys SystemParams, rng *rand.Rand) *Organism {
	mutatedA := mutateGamete(gameteA, sys, rng)
	mutatedB := mutateGamete(gameteB, sys, rng)
	phenotype := NewPhenotype(mutatedA, mutatedB)
	traceSeed := offspringTraceSeed(p.ID, q.ID, int(rng.Int31()))
	return NewOffspringOrganism(phenotype, p.ID, q.ID, rand.New(rand.NewSource(traceSeed)))
}

// mutateGamete applies mutate() to every locus of g under sys (spec §4.1,
// §4.9 step 3): offspring gametes are mutated, parental gametes never are.
func mutateGamete(g Gamete, sys SystemParams, rng *rand.Rand) Gamete {
	out := make([]Locus, len(g.Loci))
	for i, l := range g.Loci {
		out[i] = mutate(l, sys, rng)
	}
	return NewGamete(out)
}
