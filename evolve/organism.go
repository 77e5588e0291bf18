package evolve

import (
	"math"
	"math/rand"
	"sort"
	"sync/atomic"
)

var organismIDCounter uint64

// nextOrganismID hands out process-unique, monotonically increasing stable
// ids (spec §3's "stable id: u64"). It is safe for concurrent callers.
func nextOrganismID() uint64 {
	return atomic.AddUint64(&organismIDCounter, 1)
}

// ParentIDs is an organism's optional lineage pointer pair (spec §3). A
// founder organism has both fields unset; a bred offspring always has both
// set (spec §4.9).
type ParentIDs struct {
	A, B     uint64
	HasA     bool
	HasB     bool
}

// Organism is a phenotype plus the mutable runtime state a region owns
// while the organism is a member (spec §3). Phenotype itself is treated as
// shared and immutable; Age, Score, RegionKey, and Dead are mutated only by
// the organism's currently-owning region during its lifecycle step (spec
// §4.4, §5).
type Organism struct {
	ID         uint64
	Phenotype  Phenotype
	Age        uint32
	Score      *float64 // nil until evaluate() runs
	RegionKey  *RegionKey
	Dead       bool
	Parents    ParentIDs
	expressRNG *rand.Rand // expression draw stream, independent of region RNG ordering

	expressedCache []float64 // memoized expressed() result; valid for this Phenotype's lifetime
	expressedSet   bool
}

// NewFounderOrganism constructs a generation-0 organism with no parents.
func NewFounderOrganism(p Phenotype, expressRNG *rand.Rand) *Organism {
	return &Organism{ID: nextOrganismID(), Phenotype: p, expressRNG: expressRNG}
}

// NewOffspringOrganism constructs a bred organism (spec §4.9): age 0, no
// score, no region key, not dead, a fresh id, and both parent ids set.
func NewOffspringOrganism(p Phenotype, parentA, parentB uint64, expressRNG *rand.Rand) *Organism {
	return &Organism{
		ID:         nextOrganismID(),
		Phenotype:  p,
		Parents:    ParentIDs{A: parentA, B: parentB, HasA: true, HasB: true},
		expressRNG: expressRNG,
	}
}

// expressed returns this organism's expressed value vector. The vector is
// drawn from the expression RNG stream once and memoized: Phenotype never
// changes after construction (a bred organism gets a new Organism, not a
// mutated one), so every caller within and across generations — evaluate,
// aging, region keying, diversity scoring — must see the same value or the
// organism's cached region key and min_score would stop matching what was
// actually scored.
func (o *Organism) expressed() []float64 {
	if !o.expressedSet {
		o.expressedCache = expressedValues(o.Phenotype, o.expressRNG)
		o.expressedSet = true
	}
	return o.expressedCache
}

// evaluate computes and caches this organism's fitness score (spec §4.4).
// It never fails: a non-finite evaluator output is recorded as +Inf rather
// than propagated as an error (spec §7, EvaluatorFailure).
func (o *Organism) evaluate(eval Evaluator, data TrainingData) {
	problem := problemTail(o.expressed())

	var score float64
	if len(data.Inputs) == 0 {
		score = data.FloorValue
		outputs := eval.Evaluate(problem, nil)
		if len(outputs) > 0 {
			score = outputs[0]
		}
	} else {
		score = evaluateSupervised(eval, problem, data.Inputs, data.Targets)
	}

	if !isFinite(score) {
		score = math.Inf(1)
	}
	o.Score = &score
}

// evaluateSupervised scores an organism as the mean Euclidean distance
// between the evaluator's output and the matching target row, across all
// supplied input rows (spec §6, TrainingData::Supervised).
func evaluateSupervised(eval Evaluator, problem []float64, inputs, targets [][]float64) float64 {
	if len(inputs) == 0 {
		return eval.FitnessFloor()
	}
	total := 0.0
	for i, in := range inputs {
		outputs := eval.Evaluate(problem, in)
		var target []float64
		if i < len(targets) {
			target = targets[i]
		}
		total += euclideanDistance(outputs, target)
	}
	return total / float64(len(inputs))
}

func euclideanDistance(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// sortKeyValue is the tie-break pair spec §4.4 uses for regional ranking:
// (score-or-+Inf, -age), ascending — lower score wins, ties broken toward
// older organisms (more negative -age sorts first).
type sortKeyValue struct {
	score   float64
	negAge  int64
}

func (o *Organism) sortKey() sortKeyValue {
	score := math.Inf(1)
	if o.Score != nil {
		score = *o.Score
	}
	return sortKeyValue{score: score, negAge: -int64(o.Age)}
}

// lessBySortKey orders a and b per spec §4.4's sort_key tuple.
func lessBySortKey(a, b *Organism) bool {
	ka, kb := a.sortKey(), b.sortKey()
	if ka.score != kb.score {
		return ka.score < kb.score
	}
	return ka.negAge < kb.negAge
}

// sortOrganisms orders a region's members ascending by sort_key in place.
func sortOrganisms(members []*Organism) {
	sort.Slice(members, func(i, j int) bool {
		return lessBySortKey(members[i], members[j])
	})
}

// incrementAge ages the organism by one generation and marks it dead once it
// crosses max_age (spec §4.4, §4.8 step 6).
func (o *Organism) incrementAge(maxAge uint32) {
	o.Age++
	if o.Age > maxAge {
		o.Dead = true
	}
}

func (o *Organism) markDead() {
	o.Dead = true
}

func (o *Organism) isDead() bool {
	return o.Dead
}

func (o *Organism) regionKey() (RegionKey, bool) {
	if o.RegionKey == nil {
		return RegionKey{}, false
	}
	return *o.RegionKey, true
}

func (o *Organism) setRegionKey(k RegionKey) {
	key := k
	o.RegionKey = &key
}
