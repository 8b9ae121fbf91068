package scoring

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-5, 0},
		{0, 0},
		{42.5, 42.5},
		{100, 100},
		{150, 100},
	}
	for _, c := range cases {
		if got := Clamp(c.in); got != c.want {
			t.Errorf("Clamp(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSaturate(t *testing.T) {
	if got := Saturate(0, 10); got != 0 {
		t.Errorf("Saturate(0, 10) = %v, want 0", got)
	}
	if got := Saturate(5, 10); got != 0.5 {
		t.Errorf("Saturate(5, 10) = %v, want 0.5", got)
	}
	if got := Saturate(25, 10); got != 1 {
		t.Errorf("Saturate(25, 10) = %v, want 1", got)
	}
	// Degenerate saturation constant must not divide by zero.
	if got := Saturate(3, 0); got != 1 {
		t.Errorf("Saturate(3, 0) = %v, want 1", got)
	}
}

func TestDistanceDecay(t *testing.T) {
	if got := DistanceDecay(2, 0); got != 2 {
		t.Errorf("decay at site = %v, want 2", got)
	}
	if got := DistanceDecay(2, 1); got != 1 {
		t.Errorf("decay at 1km = %v, want 1", got)
	}
	// Negative distance is treated as zero rather than amplifying weight.
	if got := DistanceDecay(2, -3); got != 2 {
		t.Errorf("decay at negative distance = %v, want 2", got)
	}
}

func TestWeightedSum(t *testing.T) {
	got := WeightedSum([]float64{10, 20, 30}, []float64{0.5, 0.3, 0.2})
	want := 10*0.5 + 20*0.3 + 30*0.2
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("WeightedSum = %v, want %v", got, want)
	}
	if got := WeightedSum([]float64{1, 2}, []float64{1}); got != 0 {
		t.Errorf("mismatched lengths = %v, want 0", got)
	}
}
