package evolve

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// computeChecksum hashes an Adjustment's three mutable fields into a 64-bit
// checksum (spec §3, Locus invariant; §8 property 5). The byte encoding is
// fixed and canonical: value as IEEE-754 bits, direction and
// doubling-or-halving as single tag bytes, all little-endian.
func computeChecksum(adjustmentValue float64, direction Direction, rule DoublingRule) uint64 {
	var buf [10]byte
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(adjustmentValue))
	buf[8] = byte(direction)
	buf[9] = byte(rule)
	return xxhash.Sum64(buf[:])
}

// regionSeed derives a deterministic, region-local PRNG seed from the global
// world seed and a region key (spec §5). Two runs with the same world seed
// produce identical region seeds for identical keys regardless of worker
// count or scheduling, which is what makes per-region RNG streams
// reproducible.
func regionSeed(worldSeed uint64, key RegionKey) int64 {
	h := xxhash.New()
	var seedBuf [8]byte
	binary.LittleEndian.PutUint64(seedBuf[:], worldSeed)
	_, _ = h.Write(seedBuf[:])

	idxBuf := make([]byte, 8*len(key.components))
	for i, c := range key.components {
		binary.LittleEndian.PutUint64(idxBuf[i*8:i*8+8], uint64(c))
	}
	_, _ = h.Write(idxBuf)

	return int64(h.Sum64())
}

// offspringTraceSeed hashes parent identity plus an offspring index into a
// reproducible seed, in the spirit of the teacher's SeedForOffspring helper.
// buildOffspring draws idx from the region RNG and uses the resulting seed
// for the offspring's own expression RNG, so an offspring's expressed values
// can be replayed from its parents' ids and idx alone.
func offspringTraceSeed(parentA, parentB uint64, idx int) int64 {
	h := xxhash.New()
	var buf [20]byte
	binary.LittleEndian.PutUint64(buf[0:8], parentA)
	binary.LittleEndian.PutUint64(buf[8:16], parentB)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(idx))
	_, _ = h.Write(buf[:])
	return int64(h.Sum64())
}
