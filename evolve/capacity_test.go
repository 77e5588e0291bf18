package evolve

import "testing"

func regionWithScores(seed int64, scores ...float64) *Region {
	r := newTestRegion(seed)
	for i, s := range scores {
		o := newTestOrganism(seed*100 + int64(i))
		sc := s
		o.Score = &sc
		r.addMember(o)
	}
	return r
}

func TestAllocateSumsExactlyToTotal(t *testing.T) {
	regions := []*Region{
		regionWithScores(1, 1.0, 1.0),
		regionWithScores(2, 2.0, 2.0),
		regionWithScores(3, 4.0),
	}

	CarryingCapacityAllocator{}.Allocate(regions, 17, 0)

	sum := 0
	for _, r := range regions {
		if r.CarryingCapacity == nil {
			t.Fatal("every region must receive a CarryingCapacity")
		}
		sum += *r.CarryingCapacity
	}
	if sum != 17 {
		t.Fatalf("capacities summed to %d, want 17", sum)
	}
}

func TestAllocateFavorsLowerMinScore(t *testing.T) {
	regions := []*Region{
		regionWithScores(1, 1.0), // best fitness, highest weight
		regionWithScores(2, 100.0),
	}

	CarryingCapacityAllocator{}.Allocate(regions, 10, 0)

	if *regions[0].CarryingCapacity <= *regions[1].CarryingCapacity {
		t.Fatalf("lower-score region should receive more capacity: got %d vs %d",
			*regions[0].CarryingCapacity, *regions[1].CarryingCapacity)
	}
}

func TestAllocateIgnoresNonMinimalMembers(t *testing.T) {
	// A region's weight must come from its best (lowest) member, not its
	// mean: a single near-optimal member should outweigh a region whose
	// members are uniformly mediocre, even though the second region's mean
	// is lower than the first region's mean.
	regions := []*Region{
		regionWithScores(1, 0.01, 50.0, 50.0), // min 0.01, mean ~33.3
		regionWithScores(2, 40.0, 40.0, 40.0), // min 40, mean 40
	}

	CarryingCapacityAllocator{}.Allocate(regions, 10, 0)

	if *regions[0].CarryingCapacity <= *regions[1].CarryingCapacity {
		t.Fatalf("region with the better minimum should receive more capacity: got %d vs %d",
			*regions[0].CarryingCapacity, *regions[1].CarryingCapacity)
	}
}

func TestAllocateExactZeroScoreGetsInfiniteWeight(t *testing.T) {
	regions := []*Region{
		regionWithScores(1, 0.0), // exact zero: infinite weight
		regionWithScores(2, 0.0), // also exact zero: shares infinite-weight pool evenly
		regionWithScores(3, 5.0),
	}

	CarryingCapacityAllocator{}.Allocate(regions, 20, 0)

	if *regions[2].CarryingCapacity != 0 {
		t.Fatalf("finite-weight region must receive nothing while infinite-weight regions exist, got %d",
			*regions[2].CarryingCapacity)
	}
	sum := *regions[0].CarryingCapacity + *regions[1].CarryingCapacity
	if sum != 20 {
		t.Fatalf("infinite-weight regions should split the full total, got %d", sum)
	}
}

func TestAllocateSubtractsFitnessFloor(t *testing.T) {
	// A region whose best member sits exactly at a nonzero floor must get
	// the same infinite-weight treatment as an exact-zero score against a
	// zero floor.
	regions := []*Region{
		regionWithScores(1, 3.0), // min_score - floor == 0: infinite weight
		regionWithScores(2, 5.0), // min_score - floor == 2: finite weight
	}

	CarryingCapacityAllocator{}.Allocate(regions, 10, 3.0)

	if *regions[0].CarryingCapacity != 10 {
		t.Fatalf("region at the fitness floor should receive the entire total, got %d",
			*regions[0].CarryingCapacity)
	}
	if *regions[1].CarryingCapacity != 0 {
		t.Fatalf("region above the fitness floor should receive nothing while an at-floor region exists, got %d",
			*regions[1].CarryingCapacity)
	}
}

func TestAllocateZeroTotal(t *testing.T) {
	regions := []*Region{regionWithScores(1, 1.0)}

	CarryingCapacityAllocator{}.Allocate(regions, 0, 0)

	if *regions[0].CarryingCapacity != 0 {
		t.Fatalf("CarryingCapacity = %d, want 0", *regions[0].CarryingCapacity)
	}
}
