package evolve

import (
	"context"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Evaluator is the user-supplied fitness function the scheduler consumes
// (spec §6). Evaluate must be pure and safe for concurrent calls — the
// scheduler shares one Evaluator across every region worker.
type Evaluator interface {
	// Evaluate receives an organism's problem-parameter tail (system-meta
	// loci excluded) and, for the Supervised variant, one input row.
	Evaluate(problem []float64, input []float64) []float64
	FitnessFloor() float64
}

// TrainingData is the per-advance() input variant (spec §6). A nil/empty
// Inputs selects the "None" variant (single-valued evaluator output is the
// score, defaulting to FloorValue if the evaluator returns nothing);
// non-empty Inputs/Targets select the "Supervised" variant (score is mean
// Euclidean distance to the matching target row).
type TrainingData struct {
	FloorValue float64
	Inputs     [][]float64
	Targets    [][]float64
}

// NewNoneTrainingData builds the "None" variant (spec §6).
func NewNoneTrainingData(floorValue float64) TrainingData {
	return TrainingData{FloorValue: floorValue}
}

// NewSupervisedTrainingData builds the "Supervised" variant (spec §6).
func NewSupervisedTrainingData(inputs, targets [][]float64) TrainingData {
	return TrainingData{Inputs: inputs, Targets: targets}
}

// GenerationConfig is consumed once at construction (spec §6). All fields
// are validated by Validate; an invalid config is a ConfigError, never a
// panic.
type GenerationConfig struct {
	PopulationSize int
	TargetRegions  int
	WorldSeed      uint64
	ProblemBounds  []Bounds
}

// Validate checks the ConfigInvalid conditions of spec §7: non-finite
// bound, min >= max, population_size = 0, target_regions = 0.
func (c GenerationConfig) Validate() error {
	if c.PopulationSize <= 0 {
		return configErrorf("population_size", "must be >= 1, got %d", c.PopulationSize)
	}
	if c.TargetRegions <= 0 {
		return configErrorf("target_regions", "must be >= 1, got %d", c.TargetRegions)
	}
	if len(c.ProblemBounds) == 0 {
		return configErrorf("problem_bounds", "must have at least one dimension")
	}
	for i, b := range c.ProblemBounds {
		if !isFinite(b.Min) || !isFinite(b.Max) {
			return configErrorf("problem_bounds", "dimension %d has a non-finite bound", i)
		}
		if b.Min >= b.Max {
			return configErrorf("problem_bounds", "dimension %d has min >= max (%g >= %g)", i, b.Min, b.Max)
		}
	}
	return nil
}

// OpaqueSnapshot is the read-only structure returned by state() for
// visualizers and tooling (spec §9 Glossary). Field order and presence are
// not contractual beyond what spec.md documents; BestScoreByGeneration and
// DiversityIndex are supplemented observability (SPEC_FULL §4).
type OpaqueSnapshot struct {
	RunID                  string
	Generation             int
	PopulatedRegionCount   int
	BestScoreByGeneration  []float64
	DiversityIndex         float64
	DimensionsVersion      uint64
	ResolutionLimitReached bool
}

const bestScoreHistoryCap = 50

// GenerationScheduler owns the whole evolving population across
// generations (spec §4.10, the engine's top-level type). Zero value is not
// usable; construct with NewGenerationScheduler.
type GenerationScheduler struct {
	config    GenerationConfig
	dims      *Dimensions
	index     *RegionIndex
	runID     string
	gen       int
	bestByGen []float64 // ring buffer, cap bestScoreHistoryCap
	resLimit  bool
}

// NewGenerationScheduler validates cfg, seeds the founder population
// uniformly across problem_bounds, and computes the initial region
// assignment (spec §6, "consumed at construction").
func NewGenerationScheduler(cfg GenerationConfig) (*GenerationScheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dims := NewDimensions(cfg.ProblemBounds)
	s := &GenerationScheduler{
		config: cfg,
		dims:   dims,
		index:  newRegionIndex(),
		runID:  uuid.NewString(),
	}

	founderRNG := rand.New(rand.NewSource(int64(cfg.WorldSeed)))
	for i := 0; i < cfg.PopulationSize; i++ {
		phenotype := randomFounderPhenotype(cfg, founderRNG)
		expressRNG := rand.New(rand.NewSource(founderRNG.Int63()))
		org := NewFounderOrganism(phenotype, expressRNG)
		s.placeOrganism(org)
	}
	// No evaluator has scored anyone yet at construction, so every region's
	// min_score is still +Inf: the floor value is irrelevant here and the
	// allocator falls back to an even split.
	s.allocateCapacities(0)

	return s, nil
}

// randomFounderPhenotype draws a uniformly random gamete pair within
// problem_bounds, with system-meta loci seeded from DefaultSystemParams
// (spec §4 founder semantics are implementation-defined; this engine seeds
// every founder from the same conservative defaults so early generations
// behave predictably before evolution diversifies them).
func randomFounderPhenotype(cfg GenerationConfig, rng *rand.Rand) Phenotype {
	l := systemParamCount + len(cfg.ProblemBounds)
	buildGamete := func() Gamete {
		loci := make([]Locus, l)
		sysDefaults := DefaultSystemParams().asSlice()
		for i := 0; i < systemParamCount; i++ {
			p := sysDefaults[i]
			adj := NewAdjustment(p.Value*0.1, randomDirection(rng), randomRule(rng))
			loci[i] = NewBoundedLocus(p.Value, p.Min, p.Max, rng.Float64() < 0.5, adj)
		}
		for i, b := range cfg.ProblemBounds {
			v := b.Min + rng.Float64()*(b.Max-b.Min)
			adjVal := (b.Max - b.Min) * 0.01
			adj := NewAdjustment(adjVal, randomDirection(rng), randomRule(rng))
			loci[systemParamCount+i] = NewBoundedLocus(v, b.Min, b.Max, rng.Float64() < 0.5, adj)
		}
		return NewGamete(loci)
	}
	return NewPhenotype(buildGamete(), buildGamete())
}

func randomDirection(rng *rand.Rand) Direction {
	if rng.Float64() < 0.5 {
		return DirectionPositive
	}
	return DirectionNegative
}

func randomRule(rng *rand.Rand) DoublingRule {
	if rng.Float64() < 0.5 {
		return RuleDouble
	}
	return RuleHalve
}

// placeOrganism computes org's region key against the scheduler's current
// Dimensions (expanding bounds on demand, spec §4.5) and inserts it.
func (s *GenerationScheduler) placeOrganism(org *Organism) {
	for {
		expressed := org.expressed()
		key, err := s.dims.keyFor(problemTail(expressed))
		if err == nil {
			region := s.index.getOrCreate(key, s.config.WorldSeed)
			region.addMember(org)
			return
		}
		oob, ok := err.(*outOfBoundsError)
		if !ok {
			return
		}
		s.dims.expand(oob.Index, oob.Value)
	}
}

// Advance runs one full generation (spec §4.10) and returns whether the
// adaptive-split phase hit its resolution limit (the densest region had no
// dimension left to split before target_regions was reached).
func (s *GenerationScheduler) Advance(eval Evaluator, data TrainingData) (bool, error) {
	regions := s.index.regions()

	g, ctx := errgroup.WithContext(context.Background())
	for _, r := range regions {
		r := r
		g.Go(func() error {
			return s.stepRegionSafely(ctx, r, eval, data)
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	// 2. Collect: gather every organism from every region, then clear the
	// regions so step 4 rebuilds membership from scratch.
	var all []*Organism
	for _, r := range regions {
		all = append(all, r.Members...)
		r.Members = nil
		r.minScoreCache = nil
	}

	// 3 & 4. Compute keys (retrying with bounds expansion) and rebuild the
	// index.
	s.index = newRegionIndex()
	for _, o := range all {
		s.placeOrganism(o)
	}

	// 5. Adaptive split, until target_regions is reached or no region can
	// usefully split further.
	s.resLimit = s.runSplitPhase()

	// 6. Allocate capacities.
	s.allocateCapacities(eval.FitnessFloor())

	s.gen++
	if best, ok := s.BestScore(); ok {
		s.pushBestScore(best)
	}

	return s.resLimit, nil
}

// stepRegionSafely runs RegionLifecycle.Step for one region, letting an
// Evaluator panic propagate unchanged (spec §7 EvaluatorPanic) while still
// respecting context cancellation from errgroup's fork-join group.
func (s *GenerationScheduler) stepRegionSafely(ctx context.Context, r *Region, eval Evaluator, data TrainingData) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	RegionLifecycle{}.Step(r, eval, data)
	return nil
}

// runSplitPhase repeatedly selects the single currently populated region
// with the greatest organism count (ties: lowest key) and splits one
// dimension of it, looping until the populated-region count reaches
// target_regions or the densest region has no dimension left that can
// usefully split (spec §4.10 step 5, ResolutionLimit per §7). After every
// split, every organism is re-keyed because one dimension's doublings
// change can move members across the whole index, not just the region that
// triggered it.
func (s *GenerationScheduler) runSplitPhase() bool {
	for {
		regions := s.index.regions()
		if len(regions) >= s.config.TargetRegions {
			return false // target_regions reached: not a resolution limit
		}
		target := densestRegion(regions)
		if target == nil {
			return true // nothing populated left to split: resolution limit
		}
		if !s.index.maybeSplit(target, s.dims) {
			return true // the densest region can't split further: resolution limit
		}
		s.rekeyAll()
	}
}

// rekeyAll recomputes every organism's region key against the current
// Dimensions and rebuilds the index, used after any split changes key
// semantics (spec §4.10 step 5).
func (s *GenerationScheduler) rekeyAll() {
	var all []*Organism
	for _, r := range s.index.regions() {
		all = append(all, r.Members...)
	}
	s.index = newRegionIndex()
	for _, o := range all {
		s.placeOrganism(o)
	}
}

func (s *GenerationScheduler) allocateCapacities(floor float64) {
	regions := s.index.regions()
	if len(regions) == 0 {
		return
	}
	CarryingCapacityAllocator{}.Allocate(regions, s.config.PopulationSize, floor)
}

func (s *GenerationScheduler) pushBestScore(v float64) {
	s.bestByGen = append(s.bestByGen, v)
	if len(s.bestByGen) > bestScoreHistoryCap {
		s.bestByGen = s.bestByGen[len(s.bestByGen)-bestScoreHistoryCap:]
	}
}

// BestScore returns the lowest score across all regions, if any organism
// has been scored yet.
func (s *GenerationScheduler) BestScore() (float64, bool) {
	best := math.Inf(1)
	found := false
	for _, r := range s.index.regions() {
		for _, o := range r.Members {
			if o.Score == nil {
				continue
			}
			found = true
			if *o.Score < best {
				best = *o.Score
			}
		}
	}
	return best, found
}

// BestParameters returns the problem-parameter tail of the top organism's
// expressed values (spec §6).
func (s *GenerationScheduler) BestParameters() ([]float64, bool) {
	org, ok := s.bestOrganismCached()
	if !ok {
		return nil, false
	}
	return problemTail(org.expressed()), true
}

func (s *GenerationScheduler) bestOrganismCached() (*Organism, bool) {
	var best *Organism
	for _, r := range s.index.regions() {
		for _, o := range r.Members {
			if o.Score == nil {
				continue
			}
			if best == nil || lessBySortKey(o, best) {
				best = o
			}
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// BestOrganism re-evaluates every organism under data and returns the
// current top performer (spec §6).
func (s *GenerationScheduler) BestOrganism(eval Evaluator, data TrainingData) (*Organism, bool) {
	var best *Organism
	for _, r := range s.index.regions() {
		for _, o := range r.Members {
			o.evaluate(eval, data)
			if best == nil || lessBySortKey(o, best) {
				best = o
			}
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

// State returns an OpaqueSnapshot of the scheduler's current public state
// (spec §9 Glossary; SPEC_FULL §4 supplements BestScoreByGeneration and
// DiversityIndex).
func (s *GenerationScheduler) State() OpaqueSnapshot {
	history := make([]float64, len(s.bestByGen))
	copy(history, s.bestByGen)
	return OpaqueSnapshot{
		RunID:                  s.runID,
		Generation:             s.gen,
		PopulatedRegionCount:   len(s.index.regions()),
		BestScoreByGeneration:  history,
		DiversityIndex:         s.diversityIndex(),
		DimensionsVersion:      s.dims.Version(),
		ResolutionLimitReached: s.resLimit,
	}
}

// diversityIndex is a population-level diversity measure derived from the
// same distinct-value data maybeSplit already gathers (SPEC_FULL §4
// supplement, modeled on the teacher's Jaccard-bitset diversity metric):
// the mean, across problem dimensions, of distinct-value-count divided by
// population size. It is purely observational and never feeds back into
// selection.
func (s *GenerationScheduler) diversityIndex() float64 {
	regions := s.index.regions()
	if len(regions) == 0 || s.dims.Len() == 0 {
		return 0
	}
	var all []*Organism
	for _, r := range regions {
		all = append(all, r.Members...)
	}
	if len(all) == 0 {
		return 0
	}
	total := 0.0
	for d := 0; d < s.dims.Len(); d++ {
		distinct, _ := diversityScore(all, d)
		total += float64(distinct) / float64(len(all))
	}
	return total / float64(s.dims.Len())
}
