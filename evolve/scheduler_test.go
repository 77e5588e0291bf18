package evolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sphereEvaluator struct{}

func (sphereEvaluator) Evaluate(problem []float64, _ []float64) []float64 {
	sum := 0.0
	for _, v := range problem {
		sum += v * v
	}
	return []float64{sum}
}

func (sphereEvaluator) FitnessFloor() float64 { return 0 }

func TestGenerationConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GenerationConfig
		wantErr bool
	}{
		{
			name: "valid",
			cfg: GenerationConfig{
				PopulationSize: 10, TargetRegions: 2, WorldSeed: 1,
				ProblemBounds: []Bounds{{Min: -1, Max: 1}},
			},
			wantErr: false,
		},
		{name: "zero_population", cfg: GenerationConfig{PopulationSize: 0, TargetRegions: 1, ProblemBounds: []Bounds{{Min: -1, Max: 1}}}, wantErr: true},
		{name: "zero_target_regions", cfg: GenerationConfig{PopulationSize: 1, TargetRegions: 0, ProblemBounds: []Bounds{{Min: -1, Max: 1}}}, wantErr: true},
		{name: "no_bounds", cfg: GenerationConfig{PopulationSize: 1, TargetRegions: 1}, wantErr: true},
		{name: "min_ge_max", cfg: GenerationConfig{PopulationSize: 1, TargetRegions: 1, ProblemBounds: []Bounds{{Min: 1, Max: 1}}}, wantErr: true},
		{name: "non_finite_bound", cfg: GenerationConfig{PopulationSize: 1, TargetRegions: 1, ProblemBounds: []Bounds{{Min: inf(), Max: 2}}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				var cfgErr *ConfigError
				assert.ErrorAs(t, err, &cfgErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewGenerationSchedulerRejectsInvalidConfig(t *testing.T) {
	_, err := NewGenerationScheduler(GenerationConfig{})
	require.Error(t, err)
}

func TestNewGenerationSchedulerSeedsFullPopulation(t *testing.T) {
	cfg := GenerationConfig{
		PopulationSize: 30, TargetRegions: 5, WorldSeed: 42,
		ProblemBounds: []Bounds{{Min: -10, Max: 10}, {Min: -10, Max: 10}},
	}
	s, err := NewGenerationScheduler(cfg)
	require.NoError(t, err)

	count := 0
	for _, r := range s.index.regions() {
		count += r.Len()
	}
	assert.Equal(t, cfg.PopulationSize, count)
}

func TestAdvanceConservesPopulationCapacitySum(t *testing.T) {
	cfg := GenerationConfig{
		PopulationSize: 40, TargetRegions: 5, WorldSeed: 1,
		ProblemBounds: []Bounds{{Min: -5, Max: 5}},
	}
	s, err := NewGenerationScheduler(cfg)
	require.NoError(t, err)

	_, err = s.Advance(sphereEvaluator{}, NewNoneTrainingData(0))
	require.NoError(t, err)

	sum := 0
	for _, r := range s.index.regions() {
		require.NotNil(t, r.CarryingCapacity)
		sum += *r.CarryingCapacity
	}
	assert.Equal(t, cfg.PopulationSize, sum, "spec §8 property 2: capacity sum equals population_size after advance")
}

func TestAdvanceKeepsOrganismsInBounds(t *testing.T) {
	cfg := GenerationConfig{
		PopulationSize: 40, TargetRegions: 5, WorldSeed: 2,
		ProblemBounds: []Bounds{{Min: -3, Max: 3}},
	}
	s, err := NewGenerationScheduler(cfg)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := s.Advance(sphereEvaluator{}, NewNoneTrainingData(0))
		require.NoError(t, err)
	}

	for _, r := range s.index.regions() {
		for _, o := range r.Members {
			v := problemTail(o.expressed())[0]
			d := s.dims.At(0)
			assert.GreaterOrEqual(t, v, d.Min)
			assert.LessOrEqual(t, v, d.Max)
		}
	}
}

func TestAdvanceDeterministicAcrossRuns(t *testing.T) {
	newCfg := func() GenerationConfig {
		return GenerationConfig{
			PopulationSize: 30, TargetRegions: 5, WorldSeed: 42,
			ProblemBounds: []Bounds{{Min: -10, Max: 10}, {Min: -10, Max: 10}},
		}
	}

	run := func() []float64 {
		s, err := NewGenerationScheduler(newCfg())
		require.NoError(t, err)
		var trace []float64
		for i := 0; i < 10; i++ {
			_, err := s.Advance(sphereEvaluator{}, NewNoneTrainingData(0))
			require.NoError(t, err)
			best, ok := s.BestScore()
			require.True(t, ok)
			trace = append(trace, best)
		}
		return trace
	}

	assert.Equal(t, run(), run(), "spec §8 property 1: repeated runs with the same config must be bit-identical")
}

func TestBestScoreImprovesOrHoldsAcrossGenerations(t *testing.T) {
	cfg := GenerationConfig{
		PopulationSize: 50, TargetRegions: 5, WorldSeed: 7,
		ProblemBounds: []Bounds{{Min: -10, Max: 10}, {Min: -10, Max: 10}},
	}
	s, err := NewGenerationScheduler(cfg)
	require.NoError(t, err)

	prev := -1.0
	for i := 0; i < 20; i++ {
		_, err := s.Advance(sphereEvaluator{}, NewNoneTrainingData(0))
		require.NoError(t, err)
		best, ok := s.BestScore()
		require.True(t, ok)
		if prev >= 0 {
			assert.LessOrEqual(t, best, prev+1e-9, "best_score must never regress")
		}
		prev = best
	}
}

// TestResolutionLimitSignal mirrors spec §8 scenario S5: a degenerate
// evaluator returning a constant, tiny population, and a high target region
// count should eventually report the resolution limit.
func TestResolutionLimitSignal(t *testing.T) {
	cfg := GenerationConfig{
		PopulationSize: 2, TargetRegions: 100, WorldSeed: 1,
		ProblemBounds: []Bounds{{Min: -1, Max: 1}},
	}
	s, err := NewGenerationScheduler(cfg)
	require.NoError(t, err)

	sawLimit := false
	for i := 0; i < 30; i++ {
		hit, err := s.Advance(constantEvaluator{value: 1.0}, NewNoneTrainingData(0))
		require.NoError(t, err)
		if hit {
			sawLimit = true
			break
		}
	}
	assert.True(t, sawLimit, "expected advance() to report the resolution limit within 30 generations")
}

func TestStateSnapshotTracksRunAndGeneration(t *testing.T) {
	cfg := GenerationConfig{
		PopulationSize: 20, TargetRegions: 3, WorldSeed: 5,
		ProblemBounds: []Bounds{{Min: -1, Max: 1}},
	}
	s, err := NewGenerationScheduler(cfg)
	require.NoError(t, err)

	_, err = s.Advance(sphereEvaluator{}, NewNoneTrainingData(0))
	require.NoError(t, err)

	snap := s.State()
	assert.NotEmpty(t, snap.RunID)
	assert.Equal(t, 1, snap.Generation)
	assert.Len(t, snap.BestScoreByGeneration, 1)
}
