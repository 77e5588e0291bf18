package evolve

import "math"

// DimensionBounds is one problem dimension's [min, max] range together with
// its current subdivision count (spec §3: "a dimension with doublings = d is
// conceptually divided into 2^d equal intervals").
type DimensionBounds struct {
	Min, Max  float64
	Doublings int
}

func (d DimensionBounds) intervalWidth() float64 {
	n := math.Ldexp(1, d.Doublings) // 2^d
	return (d.Max - d.Min) / n
}

func (d DimensionBounds) intervalCount() int {
	return 1 << uint(d.Doublings)
}

// RegionKey is an ordered tuple of non-negative interval indices, one per
// problem dimension (spec §3). Keys are valid only against the Dimensions
// version they were computed under.
type RegionKey struct {
	components []int
}

// newRegionKey builds a RegionKey from per-dimension interval indices. The
// slice is copied so later mutation of the caller's slice cannot corrupt a
// key already handed to a Region.
func newRegionKey(idx []int) RegionKey {
	cp := make([]int, len(idx))
	copy(cp, idx)
	return RegionKey{components: cp}
}

// Components returns a defensive copy of the key's per-dimension indices.
func (k RegionKey) Components() []int {
	cp := make([]int, len(k.components))
	copy(cp, k.components)
	return cp
}

// Less reports whether k sorts before other under lexicographic comparison
// of their per-dimension components, the tie-break spec §4.6 uses when more
// than one populated region shares the greatest organism count.
func (k RegionKey) Less(other RegionKey) bool {
	n := len(k.components)
	if len(other.components) < n {
		n = len(other.components)
	}
	for i := 0; i < n; i++ {
		if k.components[i] != other.components[i] {
			return k.components[i] < other.components[i]
		}
	}
	return len(k.components) < len(other.components)
}

// Equal reports whether two keys have identical components.
func (k RegionKey) Equal(other RegionKey) bool {
	if len(k.components) != len(other.components) {
		return false
	}
	for i, v := range k.components {
		if other.components[i] != v {
			return false
		}
	}
	return true
}

// asMapKey renders the key into a comparable Go value suitable for use as a
// map key (a string is simplest and avoids any fixed-arity assumption on
// n_p).
func (k RegionKey) asMapKey() string {
	buf := make([]byte, 0, len(k.components)*8)
	for _, c := range k.components {
		buf = appendVarint(buf, int64(c))
	}
	return string(buf)
}

func appendVarint(buf []byte, v int64) []byte {
	u := uint64(v)
	for u >= 0x80 {
		buf = append(buf, byte(u)|0x80)
		u >>= 7
	}
	return append(buf, byte(u))
}

// Dimensions holds the ordered problem-dimension bounds and subdivisions,
// plus an opaque version counter that strictly increases across any
// structural change (spec §3, §8 property 6).
type Dimensions struct {
	bounds  []DimensionBounds
	version uint64
}

// NewDimensions constructs Dimensions from per-problem-dimension (min, max)
// pairs, all starting at doublings = 0 (a single interval).
func NewDimensions(bounds []Bounds) *Dimensions {
	db := make([]DimensionBounds, len(bounds))
	for i, b := range bounds {
		db[i] = DimensionBounds{Min: b.Min, Max: b.Max, Doublings: 0}
	}
	return &Dimensions{bounds: db, version: 1}
}

// Bounds is a (min, max) problem-dimension pair as accepted by
// GenerationConfig (spec §6).
type Bounds struct {
	Min, Max float64
}

// Version returns the current opaque version counter.
func (d *Dimensions) Version() uint64 {
	return d.version
}

// Len returns n_p, the number of problem dimensions.
func (d *Dimensions) Len() int {
	return len(d.bounds)
}

// At returns a copy of dimension i's bounds.
func (d *Dimensions) At(i int) DimensionBounds {
	return d.bounds[i]
}

// keyFor computes the RegionKey for a problem-value vector (spec §4.5). It
// returns an outOfBoundsError identifying the first offending dimension if
// any value lies outside that dimension's [min, max].
func (d *Dimensions) keyFor(problemValues []float64) (RegionKey, error) {
	idx := make([]int, len(d.bounds))
	for i, b := range d.bounds {
		v := problemValues[i]
		if v < b.Min || v > b.Max {
			return RegionKey{}, &outOfBoundsError{Index: i, Value: v}
		}
		width := b.intervalWidth()
		var cell int
		if width <= 0 {
			cell = 0
		} else {
			cell = int(math.Floor((v - b.Min) / width))
		}
		maxCell := b.intervalCount() - 1
		if cell > maxCell {
			cell = maxCell
		}
		if cell < 0 {
			cell = 0
		}
		idx[i] = cell
	}
	return newRegionKey(idx), nil
}

// expand widens dimension i so it contains v, per spec §4.5: the new
// interval gains at least 2x the previously required extent on the
// violating side, doublings is preserved, and version strictly increases.
func (d *Dimensions) expand(i int, v float64) {
	b := d.bounds[i]
	switch {
	case v < b.Min:
		deficit := b.Min - v
		b.Min = b.Min - 2*deficit
	case v > b.Max:
		excess := v - b.Max
		b.Max = b.Max + 2*excess
	default:
		// Already in bounds; nothing to expand (defensive no-op).
		return
	}
	d.bounds[i] = b
	d.version++
}

// incrementDoublings increments dimension i's subdivision count by one and
// bumps the version (spec §4.6 step 3).
func (d *Dimensions) incrementDoublings(i int) {
	d.bounds[i].Doublings++
	d.version++
}
