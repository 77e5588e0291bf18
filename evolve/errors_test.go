package evolve

import "testing"

func TestConfigErrorMessage(t *testing.T) {
	err := configErrorf("population_size", "must be >= 1, got %d", 0)
	want := `nichega: invalid config field "population_size": must be >= 1, got 0`
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestOutOfBoundsErrorMessage(t *testing.T) {
	err := &outOfBoundsError{Index: 2, Value: 3.5}
	want := "nichega: value 3.5 out of bounds on dimension 2"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
