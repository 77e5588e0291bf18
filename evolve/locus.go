package evolve

import "math/rand"

// Direction is the sign applied to a locus's adjustment.
type Direction int8

const (
	DirectionPositive Direction = 1
	DirectionNegative Direction = -1
)

// Sign returns +1.0 or -1.0.
func (d Direction) Sign() float64 {
	if d == DirectionNegative {
		return -1.0
	}
	return 1.0
}

func (d Direction) flipped() Direction {
	if d == DirectionPositive {
		return DirectionNegative
	}
	return DirectionPositive
}

// DoublingRule selects whether a mutation of adjustment_value doubles or
// halves it.
type DoublingRule int8

const (
	RuleDouble DoublingRule = 1
	RuleHalve  DoublingRule = 0
)

func (r DoublingRule) flipped() DoublingRule {
	if r == RuleDouble {
		return RuleHalve
	}
	return RuleDouble
}

// Adjustment is the discrete modification a Locus may apply to its value:
// value +/- adjustment_value, gated by the owning Locus's apply_adjustment
// flag (spec §3, Glossary).
type Adjustment struct {
	Value        float64
	Direction    Direction
	DoublingRule DoublingRule
	Checksum     uint64
}

// NewAdjustment builds an Adjustment with its checksum computed over the
// three mutable fields (spec §8 property 5).
func NewAdjustment(value float64, direction Direction, rule DoublingRule) Adjustment {
	return Adjustment{
		Value:        value,
		Direction:    direction,
		DoublingRule: rule,
		Checksum:     computeChecksum(value, direction, rule),
	}
}

// Locus is one genetic unit: a value plus a gated Adjustment (spec §3).
type Locus struct {
	Value           float64
	ApplyAdjustment bool
	Adjustment      Adjustment
	Bounded         bool
	Min             float64
	Max             float64
}

// NewLocus constructs an unbounded Locus with a given starting adjustment.
func NewLocus(value float64, applyAdjustment bool, adj Adjustment) Locus {
	return Locus{Value: value, ApplyAdjustment: applyAdjustment, Adjustment: adj}
}

// NewBoundedLocus constructs a Locus whose Value is kept within [min, max].
func NewBoundedLocus(value, min, max float64, applyAdjustment bool, adj Adjustment) Locus {
	return Locus{
		Value:           clamp(value, min, max),
		ApplyAdjustment: applyAdjustment,
		Adjustment:      adj,
		Bounded:         true,
		Min:             min,
		Max:             max,
	}
}

// LocusDiff records what mutate() changed, for observability only (spec §9
// "Supplemented" — modeled on the teacher's MutationDiff). It never feeds
// back into mutation semantics.
type LocusDiff struct {
	ValueBefore           float64
	ValueAfter            float64
	ApplyAdjustmentBefore bool
	ApplyAdjustmentAfter  bool
	AdjustmentValueBefore float64
	AdjustmentValueAfter  float64
	DirectionFlipped      bool
	DoublingRuleFlipped   bool
}

// mutate applies the six-step mutation procedure of spec §4.1 and returns a
// new, well-formed Locus. The parent Locus is never modified (copy-on-write,
// spec §9). mutate never fails: a would-be non-finite value is treated as if
// the adjustment did not apply this round.
func mutate(l Locus, sys SystemParams, rng *rand.Rand) Locus {
	out, _ := mutateWithDiff(l, sys, rng)
	return out
}

// mutateWithDiff is the diff-tracking variant of mutate, returning a
// LocusDiff alongside the mutated locus the way the teacher's MutateWithDiff
// returns a MutationDiff alongside the mutated spec. mutate discards the
// diff; state() snapshots do not include it.
func mutateWithDiff(l Locus, sys SystemParams, rng *rand.Rand) (Locus, *LocusDiff) {
	diff := &LocusDiff{
		ValueBefore:           l.Value,
		ApplyAdjustmentBefore: l.ApplyAdjustment,
		AdjustmentValueBefore: l.Adjustment.Value,
	}

	rule := l.Adjustment.DoublingRule
	direction := l.Adjustment.Direction
	adjValue := l.Adjustment.Value
	applyAdjustment := l.ApplyAdjustment

	// 1. With probability m3, flip doubling_or_halving.
	if rng.Float64() < sys.M3.Value {
		rule = rule.flipped()
		diff.DoublingRuleFlipped = !diff.DoublingRuleFlipped
	}

	// 2. With probability m4, flip direction; a direction flip also forces
	// a doubling_or_halving flip (post-step 1).
	if rng.Float64() < sys.M4.Value {
		direction = direction.flipped()
		rule = rule.flipped()
		diff.DirectionFlipped = true
		diff.DoublingRuleFlipped = !diff.DoublingRuleFlipped
	}

	// 3. With probability m5, double or halve adjustment_value per rule.
	if rng.Float64() < sys.M5.Value {
		if rule == RuleDouble {
			adjValue *= 2
		} else {
			adjValue *= 0.5
		}
	}

	// 4. Flip apply_adjustment per m1/m2 depending on its current state.
	if !applyAdjustment {
		if rng.Float64() < sys.M1.Value {
			applyAdjustment = true
		}
	} else {
		if rng.Float64() < sys.M2.Value {
			applyAdjustment = false
		}
	}

	// 5. Recompute checksum from the new adjustment fields.
	newAdjustment := NewAdjustment(adjValue, direction, rule)

	out := l
	out.ApplyAdjustment = applyAdjustment
	out.Adjustment = newAdjustment

	// 6. Apply the (possibly mutated) adjustment to value, clamping if
	// bounded; a non-finite result is treated as if the adjustment did not
	// apply.
	if applyAdjustment {
		candidate := l.Value + direction.Sign()*adjValue
		if isFinite(candidate) {
			if out.Bounded {
				candidate = clamp(candidate, out.Min, out.Max)
			}
			out.Value = candidate
		}
	}

	diff.ValueAfter = out.Value
	diff.ApplyAdjustmentAfter = out.ApplyAdjustment
	diff.AdjustmentValueAfter = out.Adjustment.Value

	return out, diff
}
