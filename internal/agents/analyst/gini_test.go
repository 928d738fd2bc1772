package analyst

import "testing"

func TestGiniCoefficient_IdenticalValuesIsZero(t *testing.T) {
	if g := giniCoefficient([]float64{10, 10, 10, 10}); g != 0 {
		t.Errorf("expected 0 for identical values, got %v", g)
	}
}

func TestGiniCoefficient_SingleValueIsZero(t *testing.T) {
	if g := giniCoefficient([]float64{5}); g != 0 {
		t.Errorf("expected 0 for n<=1, got %v", g)
	}
}

func TestGiniCoefficient_EmptyIsZero(t *testing.T) {
	if g := giniCoefficient(nil); g != 0 {
		t.Errorf("expected 0 for empty input, got %v", g)
	}
}

func TestGiniCoefficient_ZeroMeanIsZero(t *testing.T) {
	if g := giniCoefficient([]float64{0, 0, 0}); g != 0 {
		t.Errorf("expected 0 when mu=0, got %v", g)
	}
}

func TestGiniCoefficient_BoundedInRange(t *testing.T) {
	g := giniCoefficient([]float64{1, 2, 3, 4, 100})
	if g < 0 || g > 1 {
		t.Errorf("expected gini in [0,1], got %v", g)
	}
}

func TestGiniCoefficient_HighConcentrationIsHigher(t *testing.T) {
	low := giniCoefficient([]float64{25, 25, 25, 25})
	high := giniCoefficient([]float64{1, 1, 1, 97})
	if high <= low {
		t.Errorf("expected concentrated distribution to have higher gini: low=%v high=%v", low, high)
	}
}
