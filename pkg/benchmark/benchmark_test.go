package benchmark

import "testing"

func TestPercentilesEmpty(t *testing.T) {
	mean, p50, p95 := Percentiles(nil)
	if mean != 0 || p50 != 0 || p95 != 0 {
		t.Fatalf("expected all zero for empty samples, got %v %v %v", mean, p50, p95)
	}
}

func TestPercentilesSingleSample(t *testing.T) {
	mean, p50, p95 := Percentiles([]float64{0.5})
	if mean != 0.5 || p50 != 0.5 || p95 != 0.5 {
		t.Fatalf("single sample should equal its own mean/p50/p95, got %v %v %v", mean, p50, p95)
	}
}

func TestPercentilesNearestRank(t *testing.T) {
	// 10 sorted samples 0.1..1.0: index for p50 = floor(0.5*9) = 4 -> 0.5
	// index for p95 = floor(0.95*9) = 8 -> 0.9
	samples := []float64{1.0, 0.9, 0.2, 0.1, 0.6, 0.3, 0.4, 0.7, 0.5, 0.8}
	mean, p50, p95 := Percentiles(samples)

	wantMean := 0.55
	if diff := mean - wantMean; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("mean = %v, want %v", mean, wantMean)
	}
	if p50 != 0.5 {
		t.Errorf("p50 = %v, want 0.5", p50)
	}
	if p95 != 0.9 {
		t.Errorf("p95 = %v, want 0.9", p95)
	}
}

func TestNearestRankIndexFloorsFraction(t *testing.T) {
	// floor(0.95*4) = 3
	if got := nearestRankIndex(5, 0.95); got != 3 {
		t.Errorf("nearestRankIndex(5, 0.95) = %d, want 3", got)
	}
	if got := nearestRankIndex(1, 0.5); got != 0 {
		t.Errorf("nearestRankIndex(1, 0.5) = %d, want 0", got)
	}
}
