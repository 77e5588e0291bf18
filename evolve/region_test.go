package evolve

import (
	"math/rand"
	"testing"
)

func newTestRegion(seed int64) *Region {
	key := newRegionKey([]int{0})
	return newRegion(key, rand.New(rand.NewSource(seed)))
}

func TestAddMemberSetsRegionKey(t *testing.T) {
	r := newTestRegion(1)
	o := newTestOrganism(1)

	r.addMember(o)

	got, ok := o.regionKey()
	if !ok || !got.Equal(r.Key) {
		t.Fatalf("member's region key = %v, %v; want %v, true", got, ok, r.Key)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
}

func TestRemoveDeadPreservesOrder(t *testing.T) {
	r := newTestRegion(2)
	a, b, c := newTestOrganism(1), newTestOrganism(2), newTestOrganism(3)
	r.addMember(a)
	r.addMember(b)
	r.addMember(c)
	b.markDead()

	r.removeDead()

	if r.Len() != 2 || r.Members[0] != a || r.Members[1] != c {
		t.Fatalf("removeDead() result = %v, want [a, c]", r.Members)
	}
}

func TestSortByFitnessAscending(t *testing.T) {
	r := newTestRegion(3)
	a, b, c := newTestOrganism(1), newTestOrganism(2), newTestOrganism(3)
	s3, s1, s2 := 3.0, 1.0, 2.0
	a.Score, b.Score, c.Score = &s3, &s1, &s2
	r.addMember(a)
	r.addMember(b)
	r.addMember(c)

	r.sortByFitness()

	if *r.Members[0].Score != 1 || *r.Members[1].Score != 2 || *r.Members[2].Score != 3 {
		t.Fatalf("sortByFitness order wrong: %v, %v, %v", *r.Members[0].Score, *r.Members[1].Score, *r.Members[2].Score)
	}
}

func TestMinScoreCachedAndInvalidated(t *testing.T) {
	r := newTestRegion(4)
	a, b := newTestOrganism(1), newTestOrganism(2)
	s1, s2 := 5.0, 2.0
	a.Score, b.Score = &s1, &s2
	r.addMember(a)
	r.addMember(b)

	min, ok := r.minScore()
	if !ok || min != 2 {
		t.Fatalf("minScore() = %v, %v; want 2, true", min, ok)
	}

	b.markDead()
	r.removeDead()

	min, ok = r.minScore()
	if !ok || min != 5 {
		t.Fatalf("minScore() after removal = %v, %v; want 5, true", min, ok)
	}
}

func TestIsEmpty(t *testing.T) {
	r := newTestRegion(5)
	if !r.isEmpty() {
		t.Fatal("fresh region should be empty")
	}
	r.addMember(newTestOrganism(1))
	if r.isEmpty() {
		t.Fatal("region with a member should not be empty")
	}
}
