package evolve

import "math"

// Parameter is a scalar with an optional [min, max] bound. Unbounded
// parameters must stay finite; bounded parameters must stay within
// [min, max] (spec §3).
type Parameter struct {
	Value   float64
	Min     float64
	Max     float64
	Bounded bool
}

// NewBoundedParameter constructs a bounded Parameter, clamping value into
// [min, max].
func NewBoundedParameter(value, min, max float64) Parameter {
	return Parameter{
		Value:   clamp(value, min, max),
		Min:     min,
		Max:     max,
		Bounded: true,
	}
}

// NewUnboundedParameter constructs an unbounded Parameter. A non-finite
// value is replaced with 0, keeping the invariant that unbounded parameters
// are always finite.
func NewUnboundedParameter(value float64) Parameter {
	if !isFinite(value) {
		value = 0
	}
	return Parameter{Value: value, Bounded: false}
}

// Clamp re-applies the bound invariant, returning a copy with Value clamped
// into [Min, Max] when Bounded, or coerced to finite otherwise.
func (p Parameter) Clamp() Parameter {
	if p.Bounded {
		p.Value = clamp(p.Value, p.Min, p.Max)
		return p
	}
	if !isFinite(p.Value) {
		p.Value = 0
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// systemParamCount is the fixed number of evolvable meta-parameters (spec
// §3's SystemParams) — m1..m5, max_age, crossover_points. This is the "7"
// in L = n_problem + 7 (spec §3, Gamete).
const systemParamCount = 7

// SystemParams is the fixed-order tuple of evolvable meta-parameters every
// Phenotype carries ahead of its problem parameters (spec §3).
type SystemParams struct {
	M1              Parameter // P(false->true) flip of apply_adjustment
	M2              Parameter // P(true->false) flip of apply_adjustment
	M3              Parameter // P(flip doubling_or_halving)
	M4              Parameter // P(flip direction)
	M5              Parameter // P(double/halve adjustment_value)
	MaxAge          Parameter // bounded >= 2
	CrossoverPoints Parameter // bounded >= 1
}

// DefaultSystemParams returns a conservative, commonly-used starting point
// for the evolvable meta-parameters: small mutation rates, a modest maximum
// age, and single-point crossover.
func DefaultSystemParams() SystemParams {
	return SystemParams{
		M1:              NewBoundedParameter(0.08, 0, 1),
		M2:              NewBoundedParameter(0.08, 0, 1),
		M3:              NewBoundedParameter(0.05, 0, 1),
		M4:              NewBoundedParameter(0.05, 0, 1),
		M5:              NewBoundedParameter(0.10, 0, 1),
		MaxAge:          NewBoundedParameter(8, 2, 64),
		CrossoverPoints: NewBoundedParameter(1, 1, 16),
	}
}

// asSlice returns the system parameters in the fixed order the spec
// requires for expression (§4.3): m1, m2, m3, m4, m5, max_age,
// crossover_points.
func (sp SystemParams) asSlice() [systemParamCount]Parameter {
	return [systemParamCount]Parameter{sp.M1, sp.M2, sp.M3, sp.M4, sp.M5, sp.MaxAge, sp.CrossoverPoints}
}

// systemParamsFromSlice rebuilds a SystemParams from the fixed-order slice
// produced by asSlice, re-clamping each field.
func systemParamsFromSlice(vals [systemParamCount]Parameter) SystemParams {
	return SystemParams{
		M1:              vals[0].Clamp(),
		M2:              vals[1].Clamp(),
		M3:              vals[2].Clamp(),
		M4:              vals[3].Clamp(),
		M5:              vals[4].Clamp(),
		MaxAge:          vals[5].Clamp(),
		CrossoverPoints: vals[6].Clamp(),
	}
}

// MaxAgeFloor returns floor(max_age), the integer age threshold past which
// an organism is marked dead (spec §4.4).
func (sp SystemParams) MaxAgeFloor() uint32 {
	return uint32(math.Floor(sp.MaxAge.Value))
}

// CrossoverPointCount returns the integer k used for k-point crossover
// (spec §4.2), floored and never below 1 (SystemParams invariant).
func (sp SystemParams) CrossoverPointCount() int {
	k := int(math.Floor(sp.CrossoverPoints.Value))
	if k < 1 {
		k = 1
	}
	return k
}
